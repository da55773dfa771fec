package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/antique-appraiser/internal/observability"
)

const metricsPath = "/metrics"

// Observability records Prometheus metrics and a structured access log line
// for every request except the scrape endpoint itself.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if c.Path() == metricsPath {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
		}
		statusLabel := fmt.Sprintf("%d", status)

		observability.HTTPRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.HTTPLatency().WithLabelValues(method, route).Observe(duration.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		requestLogger := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
			Str("latency_bucket", latencyBucket(duration)).
			Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg("request failed")
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("request completed with client error")
		default:
			requestLogger.Info().Msg("request completed")
		}

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}

// Model calls dominate latency, so buckets run from sub-second to minutes.
func latencyBucket(duration time.Duration) string {
	switch {
	case duration <= 100*time.Millisecond:
		return "<=100ms"
	case duration <= time.Second:
		return "<=1s"
	case duration <= 10*time.Second:
		return "<=10s"
	case duration <= 30*time.Second:
		return "<=30s"
	case duration <= 2*time.Minute:
		return "<=2m"
	default:
		return ">2m"
	}
}
