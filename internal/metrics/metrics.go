package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toptunez_votes_total",
			Help: "Votes applied to tunes",
		},
		[]string{"direction"},
	)

	TunesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toptunez_tunes_created_total",
			Help: "Tunes created",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toptunez_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toptunez_events_failed_total",
			Help: "Domain events that could not be published",
		},
		[]string{"topic"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toptunez_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordVote(offset int) {
	direction := "up"
	if offset < 0 {
		direction = "down"
	}
	VotesTotal.WithLabelValues(direction).Inc()
}

func RecordLogin(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	LoginsTotal.WithLabelValues(outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware observes latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			RequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
