package service

import (
	"context"
	"strings"

	"wagermatch/models"

	"github.com/google/uuid"
)

var supportedProviders = map[string]bool{
	models.ProviderEpicGames: true,
}

type linkedAccountService struct {
	uowFactory UnitOfWorkFactory
}

// NewLinkedAccountService creates a new linked account service
func NewLinkedAccountService(uowFactory UnitOfWorkFactory) LinkedAccountService {
	return &linkedAccountService{uowFactory: uowFactory}
}

func (s *linkedAccountService) List(ctx context.Context, userID uuid.UUID) ([]*models.LinkedAccount, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	accounts, err := uow.LinkedAccountRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError("failed to list linked accounts", err)
	}
	return accounts, nil
}

// Link stores or replaces the caller's account for a provider
func (s *linkedAccountService) Link(ctx context.Context, identity *models.Identity, params LinkAccountParams) (*models.LinkedAccount, error) {
	provider := strings.ToLower(strings.TrimSpace(params.Provider))
	if !supportedProviders[provider] {
		return nil, newError(ErrValidation, "Unsupported provider %q", params.Provider)
	}
	if strings.TrimSpace(params.ProviderUserID) == "" {
		return nil, newError(ErrValidation, "Provider user id is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	user, err := ensureUser(ctx, uow, identity)
	if err != nil {
		return nil, err
	}

	account := &models.LinkedAccount{
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: strings.TrimSpace(params.ProviderUserID),
		Username:       params.Username,
		Email:          params.Email,
		ProfileData:    params.ProfileData,
		AccessToken:    params.AccessToken,
		RefreshToken:   params.RefreshToken,
		TokenExpiresAt: params.TokenExpiresAt,
	}
	if err := uow.LinkedAccountRepository().Upsert(ctx, account); err != nil {
		return nil, storeError("failed to save linked account", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}
	return account, nil
}

func (s *linkedAccountService) Unlink(ctx context.Context, userID uuid.UUID, provider string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	deleted, err := uow.LinkedAccountRepository().Delete(ctx, userID, strings.ToLower(provider))
	if err != nil {
		return storeError("failed to unlink account", err)
	}
	if !deleted {
		return newError(ErrNotFound, "No linked %s account", provider)
	}

	if err := uow.Commit(); err != nil {
		return dependencyError("failed to commit transaction", err)
	}
	return nil
}
