package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"wagermatch/events"
	"wagermatch/models"
)

func TestRecordTransition(t *testing.T) {
	settledBefore := testutil.ToFloat64(matchTransitionsTotal.WithLabelValues(string(events.EventTypeMatchSettled)))
	prizesBefore := testutil.ToFloat64(prizesPaidTotal)

	recordTransition(context.Background(), events.MatchSettledEvent{Prize: decimal.RequireFromString("8.50")})

	assert.InDelta(t, 1, testutil.ToFloat64(matchTransitionsTotal.WithLabelValues(string(events.EventTypeMatchSettled)))-settledBefore, 1e-9)
	assert.InDelta(t, 8.5, testutil.ToFloat64(prizesPaidTotal)-prizesBefore, 1e-9)
}

func TestRecordBalanceChange(t *testing.T) {
	counter := coinsMovedTotal.WithLabelValues(string(models.TransactionTypeMatchEntry))
	before := testutil.ToFloat64(counter)

	recordBalanceChange(context.Background(), events.BalanceChangeEvent{
		ChangeAmount:    decimal.RequireFromString("-5.00"),
		TransactionType: models.TransactionTypeMatchEntry,
	})
	recordBalanceChange(context.Background(), events.UserCreatedEvent{})

	assert.InDelta(t, 5, testutil.ToFloat64(counter)-before, 1e-9)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMiddleware())
	router.GET("/api/matches/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/matches/:id", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.InDelta(t, 1, testutil.ToFloat64(counter)-before, 1e-9)
}
