package httpx

import (
	"net/http"

	"github.com/flowsight/flowsight/pkg/config"
	"github.com/flowsight/flowsight/pkg/server/api"
	v1 "github.com/flowsight/flowsight/pkg/server/api/v1"
)

// NewRouter creates and configures the main HTTP router.
// It mounts health endpoints, the analysis API and the prediction stream
// based on the configuration.
//
// The router uses Go 1.22+ enhanced pattern matching for cleaner routes.
// Routes are mounted conditionally based on cfg.APIEnabled and
// cfg.StreamEnabled.
//
// Health endpoints are always enabled for liveness/readiness checks.
func NewRouter(cfg config.ServerConfig, deps *api.Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints (always enabled)
	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	// Prometheus exposition
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// API endpoints (conditional)
	if cfg.APIEnabled {
		mux.HandleFunc("POST /api/predict", v1.PredictUploadHandler(deps))
		mux.HandleFunc("POST /api/flows/predict", v1.PredictFlowHandler(deps))

		mux.HandleFunc("GET /api/results/{id}/summary", v1.ResultSummaryHandler(deps))
		mux.HandleFunc("GET /api/results/{id}/download", v1.DownloadResultHandler(deps))
		mux.HandleFunc("GET /api/results/{id}/prcurve", v1.ResultPRCurveHandler(deps))
		mux.HandleFunc("GET /api/results/{id}/timeline", v1.ResultTimelineHandler(deps))
		mux.HandleFunc("GET /api/results/{id}/charts/pr.png", v1.PRCurveChartHandler(deps))
		mux.HandleFunc("GET /api/results/{id}/charts/timeline.png", v1.TimelineChartHandler(deps))

		mux.HandleFunc("GET /api/metrics/history", v1.HistoryHandler(deps))
		mux.HandleFunc("GET /api/metrics/summary", v1.MetricsSummaryHandler(deps))
	}

	// WebSocket stream (conditional)
	if cfg.StreamEnabled && deps.Hub != nil {
		mux.HandleFunc("GET /api/stream/predictions", deps.Hub.Handler())
	}

	return mux
}

// HealthzHandler responds with 200 OK if the server process is alive.
// This endpoint is used by load balancers and orchestrators for liveness checks.
//
// It does not check dependencies (scorer, stream, etc.) - just process health.
// For comprehensive readiness checks, use /readyz instead.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
