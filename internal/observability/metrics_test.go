package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesAppraisalCollectors(t *testing.T) {
	ParseOutcomes().WithLabelValues("fallback", "no_json_object").Inc()
	Appraisals().WithLabelValues("success").Inc()
	AuthenticityScores().Observe(72)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	text := string(body)
	require.Contains(t, text, `appraiser_parse_outcomes_total{mode="fallback",reason="no_json_object"}`)
	require.Contains(t, text, `appraiser_appraisals_total{outcome="success"}`)
	require.Contains(t, text, "appraiser_authenticity_score_bucket")
}

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		RegisterMetrics()
		RegisterMetrics()
	})
	require.NotNil(t, HTTPRequests())
	require.NotNil(t, ImagesRejected())
}
