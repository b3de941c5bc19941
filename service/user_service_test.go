package service

import (
	"context"
	"errors"
	"testing"

	"wagermatch/events"
	"wagermatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_EnsureUser(t *testing.T) {
	ctx := context.Background()

	t.Run("existing user", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewUserService(m.factory)
		m.expectTransaction()

		identity := newIdentity("alice")
		m.users.On("GetOrCreate", ctx, identity).Return(userFor(identity, "12.00"), false, nil)

		user, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.True(t, user.Balance.Equal(dec("12.00")))
		assert.Empty(t, m.bus.Events)
		m.assertExpectations(t)
	})

	t.Run("new user starts at zero", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewUserService(m.factory)
		m.expectTransaction()

		identity := newIdentity("bob")
		m.users.On("GetOrCreate", ctx, identity).Return(userFor(identity, "0.00"), true, nil)

		user, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.True(t, user.Balance.IsZero())

		created := m.bus.EventsOfType(events.EventTypeUserCreated)
		require.Len(t, created, 1)
		assert.Equal(t, identity.UserID, created[0].(events.UserCreatedEvent).UserID)
	})

	t.Run("repository error", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewUserService(m.factory)
		m.expectRollbackOnly()

		identity := newIdentity("carol")
		m.users.On("GetOrCreate", ctx, identity).Return(nil, false, errors.New("boom"))

		_, err := svc.EnsureUser(ctx, identity)
		assert.Error(t, err)
		m.uow.AssertNotCalled(t, "Commit")
	})
}

func TestUserService_GetSummary(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewUserService(m.factory)
	m.expectTransaction()

	identity := newIdentity("dave")
	stats := &models.MatchStats{MatchesPlayed: 3, Wins: 2, Losses: 1, TotalWon: dec("17.00")}
	m.users.On("GetOrCreate", ctx, identity).Return(userFor(identity, "30.00"), false, nil)
	m.matches.On("GetStats", ctx, identity.UserID).Return(stats, nil)

	summary, err := svc.GetSummary(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, identity.UserID, summary.ID)
	assert.Equal(t, 2, summary.Stats.Wins)
	assert.InDelta(t, 0.666, summary.Stats.WinRate(), 0.001)
}
