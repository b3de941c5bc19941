package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wagermatch/events"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagermatch_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wagermatch_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	matchTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagermatch_match_transitions_total",
		Help: "Committed match lifecycle transitions, labeled by event type",
	}, []string{"event"})

	coinsMovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagermatch_coins_moved_total",
		Help: "Absolute coin volume moved through the ledger, labeled by transaction type",
	}, []string{"transaction_type"})

	prizesPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagermatch_prizes_paid_total",
		Help: "Coins credited to match winners",
	})
)

// HTTPMiddleware records request counts and latency per route template
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request.Method
		httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Register subscribes the lifecycle counters to committed events on bus
func Register(bus *events.Bus) {
	bus.SubscribeAll(events.MatchEventTypes, recordTransition)
	bus.Subscribe(events.EventTypeBalanceChange, recordBalanceChange)
}

func recordTransition(_ context.Context, event events.Event) {
	matchTransitionsTotal.WithLabelValues(string(event.Type())).Inc()

	if settled, ok := event.(events.MatchSettledEvent); ok {
		prize, _ := settled.Prize.Float64()
		prizesPaidTotal.Add(prize)
	}
}

func recordBalanceChange(_ context.Context, event events.Event) {
	change, ok := event.(events.BalanceChangeEvent)
	if !ok {
		return
	}
	amount, _ := change.ChangeAmount.Abs().Float64()
	coinsMovedTotal.WithLabelValues(string(change.TransactionType)).Add(amount)
}
