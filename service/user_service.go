package service

import (
	"context"

	"wagermatch/events"
	"wagermatch/models"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{uowFactory: uowFactory}
}

// EnsureUser retrieves the caller's user row, creating it with a zero balance on first sight
func (s *userService) EnsureUser(ctx context.Context, identity *models.Identity) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	user, err := ensureUser(ctx, uow, identity)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}
	return user, nil
}

// GetSummary returns the caller's balance and match statistics
func (s *userService) GetSummary(ctx context.Context, identity *models.Identity) (*models.UserSummary, error) {
	user, err := s.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	stats, err := uow.MatchRepository().GetStats(ctx, user.ID)
	if err != nil {
		return nil, storeError("failed to get match stats", err)
	}

	return &models.UserSummary{User: user, Stats: stats}, nil
}

// ensureUser provisions the caller inside an open unit of work
func ensureUser(ctx context.Context, uow UnitOfWork, identity *models.Identity) (*models.User, error) {
	user, created, err := uow.UserRepository().GetOrCreate(ctx, identity)
	if err != nil {
		return nil, storeError("failed to get or create user", err)
	}

	if created {
		uow.EventBus().Publish(events.UserCreatedEvent{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
		})
	}
	return user, nil
}
