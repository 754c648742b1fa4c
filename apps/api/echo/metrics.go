package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darasa",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, by route and status.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "darasa",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darasa",
			Name:      "evaluations_total",
			Help:      "Evaluations run, by outcome.",
		},
		[]string{"outcome"},
	)
)

func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			path := ctx.Path() // route template, not raw URL
			if path == "/metrics" {
				return err
			}
			method := ctx.Request().Method
			status := ctx.Response().Status
			if err != nil {
				if herr, ok := err.(*echo.HTTPError); ok {
					status = herr.Code
				} else {
					status = 500
				}
			}

			requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			if path == "/v1/evaluations" && method == "POST" {
				outcome := "ok"
				if err != nil {
					outcome = "error"
				}
				evaluationsTotal.WithLabelValues(outcome).Inc()
			}
			return err
		}
	}
}

func metricsHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
