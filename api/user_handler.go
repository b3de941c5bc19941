package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wagermatch/models"
	"wagermatch/service"
)

type userHandler struct {
	users   service.UserService
	matches service.MatchService
}

func newUserHandler(users service.UserService, matches service.MatchService) *userHandler {
	return &userHandler{users: users, matches: matches}
}

// Me returns the caller's profile, balance and match statistics
// GET /api/me
func (h *userHandler) Me(c *gin.Context) {
	summary, err := h.users.GetSummary(c.Request.Context(), mustIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": summary})
}

// MyMatches lists every match the caller hosts or plays, including closed ones
// GET /api/me/matches
func (h *userHandler) MyMatches(c *gin.Context) {
	identity := mustIdentity(c)

	filter, ok := parseListFilter(c)
	if !ok {
		return
	}
	filter.ParticipantID = &identity.UserID
	filter.IncludePrivate = true
	filter.IncludeTerminal = true

	matches, err := h.matches.ListMatches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if matches == nil {
		matches = []*models.Match{}
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
