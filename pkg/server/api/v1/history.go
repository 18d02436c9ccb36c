package v1

import (
	"net/http"
	"strconv"

	"github.com/flowsight/flowsight/pkg/result"
	"github.com/flowsight/flowsight/pkg/server/api"
)

// historyResponse wraps the entries so the payload stays extensible.
type historyResponse struct {
	Items []result.HistoryEntry `json:"items"`
}

// HistoryHandler handles GET /api/metrics/history
//
// Returns the rolling run history, newest first, wrapped as {"items": [...]}.
// An optional "limit" query parameter caps the returned entries.
func HistoryHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		api.WriteJSON(w, http.StatusOK, historyResponse{Items: deps.History.List(limit)})
	}
}

// MetricsSummaryHandler handles GET /api/metrics/summary
//
// Aggregates the run history into overview totals.
func MetricsSummaryHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := deps.History.List(0)

		summary := api.MetricsSummary{Uploads: len(entries)}
		rateSum := 0.0
		for _, e := range entries {
			summary.RowsAnalyzed += e.RowCount
			summary.AnomaliesFound += e.AnomalyCount
			rateSum += e.AnomalyRate
		}
		if len(entries) > 0 {
			summary.AvgAnomalyRate = rateSum / float64(len(entries))
			last := entries[0].CreatedAt
			summary.LastUploadAt = &last
		}
		api.WriteJSON(w, http.StatusOK, summary)
	}
}
