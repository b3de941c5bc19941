package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"wagermatch/models"
	"wagermatch/service"
)

type mockMatchService struct {
	mock.Mock
}

func (m *mockMatchService) CreateMatch(ctx context.Context, host *models.Identity, params service.CreateMatchParams) (*models.Match, error) {
	args := m.Called(ctx, host, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) JoinMatch(ctx context.Context, matchID uuid.UUID, user *models.Identity) (*models.JoinResult, error) {
	args := m.Called(ctx, matchID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinResult), args.Error(1)
}

func (m *mockMatchService) SetReady(ctx context.Context, matchID, userID uuid.UUID, ready bool) (*models.Match, error) {
	args := m.Called(ctx, matchID, userID, ready)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) StartMatch(ctx context.Context, matchID, requesterID uuid.UUID) (*models.Match, error) {
	args := m.Called(ctx, matchID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) SubmitResult(ctx context.Context, matchID, requesterID uuid.UUID, vote models.ResultVote) (*models.ResultSubmission, error) {
	args := m.Called(ctx, matchID, requesterID, vote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResultSubmission), args.Error(1)
}

func (m *mockMatchService) CancelMatch(ctx context.Context, matchID, requesterID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, matchID, requesterID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockMatchService) ListMatches(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *mockMatchService) GetMatchDetail(ctx context.Context, matchID uuid.UUID) (*models.MatchDetail, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

type mockExpiryService struct {
	mock.Mock
}

func (m *mockExpiryService) SweepExpired(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResult), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) EnsureUser(ctx context.Context, identity *models.Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) GetSummary(ctx context.Context, identity *models.Identity) (*models.UserSummary, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSummary), args.Error(1)
}

type mockLinkedAccountService struct {
	mock.Mock
}

func (m *mockLinkedAccountService) List(ctx context.Context, userID uuid.UUID) ([]*models.LinkedAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LinkedAccount), args.Error(1)
}

func (m *mockLinkedAccountService) Link(ctx context.Context, identity *models.Identity, params service.LinkAccountParams) (*models.LinkedAccount, error) {
	args := m.Called(ctx, identity, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LinkedAccount), args.Error(1)
}

func (m *mockLinkedAccountService) Unlink(ctx context.Context, userID uuid.UUID, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

// staticVerifier resolves tokens from a fixed table
type staticVerifier struct {
	identities map[string]*models.Identity
}

func (v *staticVerifier) Verify(token string) (*models.Identity, error) {
	identity, ok := v.identities[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return identity, nil
}
