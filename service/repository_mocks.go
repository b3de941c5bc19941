package service

import (
	"context"
	"time"

	"wagermatch/events"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetOrCreate(ctx context.Context, identity *models.Identity) (*models.User, bool, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockBalanceHistoryRepository) GetByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) matchResult(args mock.Arguments) (*models.Match, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id))
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id))
}

func (m *MockMatchRepository) ClaimOpponentSlot(ctx context.Context, id uuid.UUID, opponent *models.User, now time.Time) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, opponent, now))
}

func (m *MockMatchRepository) SetOpponentReady(ctx context.Context, id, opponentID uuid.UUID, ready bool) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, opponentID, ready))
}

func (m *MockMatchRepository) Start(ctx context.Context, id, hostID uuid.UUID, now time.Time) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, hostID, now))
}

func (m *MockMatchRepository) RecordVote(ctx context.Context, id uuid.UUID, asHost bool, vote models.ResultVote) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, asHost, vote))
}

func (m *MockMatchRepository) Finish(ctx context.Context, id, winnerID uuid.UUID, now time.Time) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, winnerID, now))
}

func (m *MockMatchRepository) Dispute(ctx context.Context, id uuid.UUID, now time.Time) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, now))
}

func (m *MockMatchRepository) Cancel(ctx context.Context, id, hostID uuid.UUID, now time.Time) (*models.Match, error) {
	return m.matchResult(m.Called(ctx, id, hostID, now))
}

func (m *MockMatchRepository) LockExpired(ctx context.Context, now time.Time, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetStats(ctx context.Context, userID uuid.UUID) (*models.MatchStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchStats), args.Error(1)
}

// MockLinkedAccountRepository is a mock implementation of LinkedAccountRepository
type MockLinkedAccountRepository struct {
	mock.Mock
}

func (m *MockLinkedAccountRepository) Upsert(ctx context.Context, account *models.LinkedAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockLinkedAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.LinkedAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LinkedAccount), args.Error(1)
}

func (m *MockLinkedAccountRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) (bool, error) {
	args := m.Called(ctx, userID, provider)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkedAccountRepository) GetUsernames(ctx context.Context, userIDs []uuid.UUID, provider string) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, userIDs, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// EventsOfType returns the recorded events with the given type
func (m *MockEventPublisher) EventsOfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	userRepo           UserRepository
	balanceHistoryRepo BalanceHistoryRepository
	matchRepo          MatchRepository
	linkedAccountRepo  LinkedAccountRepository
	eventBus           EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, balanceHistoryRepo BalanceHistoryRepository, matchRepo MatchRepository, linkedAccountRepo LinkedAccountRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.balanceHistoryRepo = balanceHistoryRepo
	m.matchRepo = matchRepo
	m.linkedAccountRepo = linkedAccountRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) MatchRepository() MatchRepository {
	return m.matchRepo
}

func (m *MockUnitOfWork) LinkedAccountRepository() LinkedAccountRepository {
	return m.linkedAccountRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
