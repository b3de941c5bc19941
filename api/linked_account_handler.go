package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wagermatch/models"
	"wagermatch/service"
)

type linkedAccountHandler struct {
	accounts service.LinkedAccountService
}

func newLinkedAccountHandler(accounts service.LinkedAccountService) *linkedAccountHandler {
	return &linkedAccountHandler{accounts: accounts}
}

// List returns the caller's linked game accounts
// GET /api/linked-accounts
func (h *linkedAccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context(), mustIdentity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if accounts == nil {
		accounts = []*models.LinkedAccount{}
	}

	c.JSON(http.StatusOK, gin.H{"linkedAccounts": accounts})
}

// Link attaches or refreshes a provider account
// POST /api/linked-accounts
func (h *linkedAccountHandler) Link(c *gin.Context) {
	var req linkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	account, err := h.accounts.Link(c.Request.Context(), mustIdentity(c), service.LinkAccountParams{
		Provider:       req.Provider,
		ProviderUserID: req.ProviderUserID,
		Username:       req.Username,
		Email:          req.Email,
		ProfileData:    req.ProfileData,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"linkedAccount": account})
}

// Unlink removes a provider account
// DELETE /api/linked-accounts
func (h *linkedAccountHandler) Unlink(c *gin.Context) {
	var req unlinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Provider == "" {
		badRequest(c, "Provider is required")
		return
	}

	if err := h.accounts.Unlink(c.Request.Context(), mustIdentity(c).UserID, req.Provider); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account unlinked successfully"})
}
