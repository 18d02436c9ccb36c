package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/flowsight/flowsight/pkg/analytics/filterset"
	"github.com/flowsight/flowsight/pkg/analytics/timeseries"
	"github.com/flowsight/flowsight/pkg/analytics/view"
	"github.com/flowsight/flowsight/pkg/dataset/csvio"
	"github.com/flowsight/flowsight/pkg/render"
	"github.com/flowsight/flowsight/pkg/result"
	"github.com/flowsight/flowsight/pkg/server/api"
)

// lookupResult resolves {id} against the store, treating "current" as the
// session's installed result. Writes a 404 and returns nil when unknown.
func lookupResult(deps *api.Deps, w http.ResponseWriter, r *http.Request) *result.Record {
	id := r.PathValue("id")
	if id == "current" {
		res := deps.Session.Result()
		if res == nil {
			api.WriteJSONError(w, http.StatusNotFound, "Not Found", "no result loaded yet")
			return nil
		}
		id = res.ID
	}

	rec, ok := deps.Store.Get(id)
	if !ok {
		log.Warn().
			Str("component", "api").
			Str("result_id", id).
			Msg("Result not found")
		api.WriteJSONError(w, http.StatusNotFound, "Not Found",
			fmt.Sprintf("result %q not found or evicted", id))
		return nil
	}
	return rec
}

// filtersFromQuery builds a one-shot filter state from query parameters.
// Repeatable: label, attack, service, port. Single: prediction, score_min,
// score_max, time_from, time_to (RFC3339).
func filtersFromQuery(q url.Values) *filterset.State {
	fs := filterset.New()
	for _, v := range q["label"] {
		fs.Toggle(filterset.DimLabels, v)
	}
	for _, v := range q["attack"] {
		fs.Toggle(filterset.DimAttackTypes, v)
	}
	for _, v := range q["service"] {
		fs.Toggle(filterset.DimServices, v)
	}
	for _, v := range q["port"] {
		fs.Toggle(filterset.DimPorts, v)
	}
	if v := q.Get("prediction"); v != "" {
		fs.SetPrediction(v)
	}

	minStr, maxStr := q.Get("score_min"), q.Get("score_max")
	if minStr != "" || maxStr != "" {
		r := filterset.ScoreRange{Min: 0, Max: 1}
		if v, err := cast.ToFloat64E(minStr); err == nil && minStr != "" {
			r.Min = v
		}
		if v, err := cast.ToFloat64E(maxStr); err == nil && maxStr != "" {
			r.Max = v
		}
		fs.SetScoreRange(&r)
	}

	fromStr, toStr := q.Get("time_from"), q.Get("time_to")
	if fromStr != "" && toStr != "" {
		from, errFrom := time.Parse(time.RFC3339, fromStr)
		to, errTo := time.Parse(time.RFC3339, toStr)
		if errFrom == nil && errTo == nil {
			fs.SetTimeRange(&filterset.TimeRange{Start: from, End: to})
		}
	}
	return fs
}

// ResultSummaryHandler handles GET /api/results/{id}/summary
//
// Returns the summary and chart aggregates for a stored result, optionally
// filtered by query parameters. The same filters applied to the download
// endpoint yield the row set these numbers describe.
func ResultSummaryHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := lookupResult(deps, w, r)
		if rec == nil {
			return
		}

		fs := filtersFromQuery(r.URL.Query())
		rows := fs.Apply(rec.Result.Rows, rec.Result.Schema)
		anomalies, avgScore := anomalyStats(rows)
		rate := 0.0
		if len(rows) > 0 {
			rate = float64(anomalies) / float64(len(rows))
		}

		resp := struct {
			Summary api.Summary `json:"summary"`
			Charts  api.Charts  `json:"charts"`
		}{
			Summary: api.Summary{
				ResultID:      rec.Result.ID,
				Filename:      rec.Filename,
				CreatedAt:     rec.CreatedAt,
				RowCount:      len(rec.Result.Rows),
				FilteredCount: len(rows),
				AnomalyCount:  anomalies,
				AnomalyRate:   rate,
				AvgScore:      avgScore,
				ActiveFilters: fs.Summary(),
				Schema:        api.SchemaInfoFrom(rec.Result.Schema),
				Validation:    rec.Result.Validation,
			},
			Charts: api.ChartsFrom(view.Derive(rows, rec.Result.Schema)),
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// DownloadResultHandler handles GET /api/results/{id}/download
//
// Streams the scored rows as CSV, honoring the same filter query parameters
// as the summary endpoint. The export prepends row_index, prediction and
// score columns before the original data columns.
func DownloadResultHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := lookupResult(deps, w, r)
		if rec == nil {
			return
		}

		fs := filtersFromQuery(r.URL.Query())
		rows := fs.Apply(rec.Result.Rows, rec.Result.Schema)

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "flowsight_"+rec.Result.ID+".csv"))

		if err := csvio.Encode(w, rec.Result.DataColumns, rows); err != nil {
			// Headers are already out; all we can do is log.
			log.Error().
				Str("component", "api").
				Str("result_id", rec.Result.ID).
				Err(err).
				Msg("CSV export failed mid-stream")
		}
	}
}

// ResultPRCurveHandler handles GET /api/results/{id}/prcurve
//
// Returns the precision-recall block for a stored result. An optional
// "threshold" query parameter returns the confusion metrics at that exact
// threshold alongside the curve.
func ResultPRCurveHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := lookupResult(deps, w, r)
		if rec == nil {
			return
		}

		threshold, hasThreshold, err := ParseThreshold(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		block := prBlock(rec.Result.Rows, rec.Result.Schema, deps.Dataset.LabelHint)
		if block.Available && hasThreshold {
			m := block.Curve.MetricsAt(threshold)
			block.Metrics = &m
		}
		api.WriteJSON(w, http.StatusOK, block)
	}
}

// ResultTimelineHandler handles GET /api/results/{id}/timeline
//
// Returns the bucketed traffic timeline. Query parameters:
//   - bucket_minutes: bucket width (default from config)
//   - smooth: apply the trailing moving average to the counts
func ResultTimelineHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := lookupResult(deps, w, r)
		if rec == nil {
			return
		}

		tq, err := ParseTimelineQuery(r, deps.Dataset.BucketMinutes)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		tallies := timeseries.MinuteTallies(rec.Result.Rows, rec.Result.Schema)
		buckets := timeseries.Bucketize(tallies, tq.BucketMinutes)
		if tq.Smooth {
			buckets = timeseries.Smooth(buckets, tq.BucketMinutes)
		}

		resp := struct {
			BucketMinutes int                        `json:"bucket_minutes"`
			Buckets       []timeseries.Bucket        `json:"buckets"`
			Anomalies     []timeseries.TimelinePoint `json:"anomalies"`
		}{
			BucketMinutes: tq.BucketMinutes,
			Buckets:       buckets,
			Anomalies:     timeseries.AnomalyTimeline(rec.Result.Rows, rec.Result.Schema),
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// PRCurveChartHandler handles GET /api/results/{id}/charts/pr.png
func PRCurveChartHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := lookupResult(deps, w, r)
		if rec == nil {
			return
		}

		block := prBlock(rec.Result.Rows, rec.Result.Schema, deps.Dataset.LabelHint)
		if !block.Available {
			api.WriteJSONError(w, http.StatusConflict, "Conflict",
				"precision-recall unavailable: "+block.Reason)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		if err := render.PRCurvePNG(block.Curve, w); err != nil {
			log.Error().
				Str("component", "api").
				Str("result_id", rec.Result.ID).
				Err(err).
				Msg("PR chart render failed")
		}
	}
}

// TimelineChartHandler handles GET /api/results/{id}/charts/timeline.png
func TimelineChartHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := lookupResult(deps, w, r)
		if rec == nil {
			return
		}

		points := timeseries.AnomalyTimeline(rec.Result.Rows, rec.Result.Schema)
		if len(points) == 0 {
			api.WriteJSONError(w, http.StatusConflict, "Conflict",
				"no timestamped anomalies to chart")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		if err := render.TimelinePNG(points, w); err != nil {
			log.Error().
				Str("component", "api").
				Str("result_id", rec.Result.ID).
				Err(err).
				Msg("Timeline chart render failed")
		}
	}
}
