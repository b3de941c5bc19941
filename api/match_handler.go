package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"wagermatch/auth"
	"wagermatch/models"
	"wagermatch/service"
)

type matchHandler struct {
	matches service.MatchService
	expiry  service.ExpiryService
	now     func() time.Time
}

func newMatchHandler(matches service.MatchService, expiry service.ExpiryService) *matchHandler {
	return &matchHandler{matches: matches, expiry: expiry, now: time.Now}
}

// Create opens a match hosted by the caller
// POST /api/matches
func (h *matchHandler) Create(c *gin.Context) {
	identity := mustIdentity(c)

	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.EntryFee == nil {
		badRequest(c, "Missing required fields: entry fee")
		return
	}

	match, err := h.matches.CreateMatch(c.Request.Context(), identity, req.params())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": match.ID, "match": match})
}

// List returns the match board
// GET /api/matches
func (h *matchHandler) List(c *gin.Context) {
	filter, ok := parseListFilter(c)
	if !ok {
		return
	}

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

// Get returns a match with its participants
// GET /api/matches/:id
func (h *matchHandler) Get(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	detail, err := h.matches.GetMatchDetail(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": detail})
}

// Join claims the opponent slot for the caller
// POST /api/matches/:id/join
func (h *matchHandler) Join(c *gin.Context) {
	identity := mustIdentity(c)
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	result, err := h.matches.JoinMatch(c.Request.Context(), matchID, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"match":            result.Match,
		"newBalance":       result.NewBalance,
		"entryFeeDeducted": result.EntryFeeDeducted,
	})
}

// Ready marks the opponent ready, or not ready when the body says so
// POST /api/matches/:id/ready
func (h *matchHandler) Ready(c *gin.Context) {
	identity := mustIdentity(c)
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	ready := true
	if c.Request.ContentLength != 0 {
		var req readyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
		if req.Ready != nil {
			ready = *req.Ready
		}
	}

	match, err := h.matches.SetReady(c.Request.Context(), matchID, identity.UserID, ready)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "match": match})
}

// Start moves the match into play
// POST /api/matches/:id/start
func (h *matchHandler) Start(c *gin.Context) {
	identity := mustIdentity(c)
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	match, err := h.matches.StartMatch(c.Request.Context(), matchID, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "match": match})
}

// SubmitResult records the caller's claimed winner
// POST /api/matches/:id/submit-result
func (h *matchHandler) SubmitResult(c *gin.Context) {
	identity := mustIdentity(c)
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	var req submitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	submission, err := h.matches.SubmitResult(c.Request.Context(), matchID, identity.UserID, req.Winner)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"match":   submission.Match,
		"status":  submission.Status,
	}
	if submission.Winner != nil {
		body["winner"] = *submission.Winner
	}
	c.JSON(http.StatusOK, body)
}

// Cancel closes an unjoined match and refunds the host
// DELETE /api/matches/:id
func (h *matchHandler) Cancel(c *gin.Context) {
	identity := mustIdentity(c)
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	refund, err := h.matches.CancelMatch(c.Request.Context(), matchID, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Match cancelled successfully",
		"refundAmount": refund,
	})
}

// SweepExpired closes every match whose join window has passed
// DELETE /api/matches/expired
func (h *matchHandler) SweepExpired(c *gin.Context) {
	result, err := h.expiry.SweepExpired(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	ids := result.ExpiredMatchIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}

	message := "Expired matches closed successfully"
	if len(ids) == 0 {
		message = "No expired matches found"
	}

	log.WithFields(log.Fields{
		"count":    len(ids),
		"refunded": result.RefundedAmount.String(),
	}).Info("Manual expiry sweep")

	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"deletedCount":   len(ids),
		"expiredMatches": ids,
	})
}

func mustIdentity(c *gin.Context) *models.Identity {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		// Routes using this are always behind auth.Middleware
		panic("identity missing from authenticated route")
	}
	return identity
}

func matchIDParam(c *gin.Context) (uuid.UUID, bool) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid match ID")
		return uuid.Nil, false
	}
	return matchID, true
}

func parseListFilter(c *gin.Context) (models.MatchFilter, bool) {
	var filter models.MatchFilter

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.MatchStatus(strings.TrimSpace(part))
			if !status.IsValid() {
				badRequest(c, "Invalid status filter")
				return filter, false
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "Invalid limit")
			return filter, false
		}
		filter.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			badRequest(c, "Invalid offset")
			return filter, false
		}
		filter.Offset = offset
	}

	return filter, true
}
