package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowsight/flowsight/pkg/analytics/prcurve"
	"github.com/flowsight/flowsight/pkg/analytics/view"
	"github.com/flowsight/flowsight/pkg/dataset"
	"github.com/flowsight/flowsight/pkg/dataset/csvio"
	fserrors "github.com/flowsight/flowsight/pkg/errors"
	"github.com/flowsight/flowsight/pkg/result"
	"github.com/flowsight/flowsight/pkg/server/api"
	"github.com/flowsight/flowsight/pkg/server/stream"
)

// PredictUploadHandler handles POST /api/predict
//
// Accepts a multipart form with a "file" part containing a CSV of network
// flows, scores every row, and returns the full analysis payload: summary,
// chart aggregates and the precision-recall block.
//
// Rejected uploads (missing columns, empty file) return 422 with code
// SCHEMA_ERROR. Model-service failures return 502/504 with NETWORK_ERROR or
// TIMEOUT_ERROR.
func PredictUploadHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Apply handler-level timeout (only if request context doesn't have deadline)
		ctx := r.Context()
		if _, hasDeadline := ctx.Deadline(); !hasDeadline && deps.Config.HandlerTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.Config.HandlerTimeout)
			defer cancel()
		}

		if deps.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)
		}

		// Issue the upload sequence before any slow work so a later upload
		// can supersede this one.
		seq := deps.Session.Begin()

		file, header, err := r.FormFile("file")
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "multipart 'file' part is required")
			return
		}
		defer func() { _ = file.Close() }()

		frame, err := csvio.Decode(file)
		if err != nil {
			recordUpload(deps, "rejected")
			api.WriteError(w, r, fserrors.WithErrorCode(err, fserrors.CodeSchema))
			return
		}

		frame, report, err := csvio.Validate(frame, deps.Dataset.RequiredColumns, deps.Dataset.MaxRows)
		if err != nil {
			recordUpload(deps, "rejected")
			var schemaErr *csvio.SchemaError
			if errors.As(err, &schemaErr) {
				api.WriteError(w, r, fserrors.WithErrorCode(err, fserrors.CodeSchema))
				return
			}
			api.WriteError(w, r, err)
			return
		}

		scoringStart := time.Now()
		labels, scores, err := deps.Scorer.Score(ctx, frame)
		if err != nil {
			recordUpload(deps, "failed")
			if ctx.Err() == context.DeadlineExceeded {
				api.WriteError(w, r, fserrors.WithErrorCode(err, fserrors.CodeTimeout))
				return
			}
			api.WriteError(w, r, err)
			return
		}
		scoringElapsed := time.Since(scoringStart)

		rows := frame.Rows(labels, scores)
		schema := dataset.Resolve(frame.Columns, rows, deps.Dataset.LabelHint)

		res := &view.Result{
			ID:          uuid.NewString(),
			Columns:     frame.Columns,
			DataColumns: frame.Columns,
			Rows:        rows,
			Schema:      schema,
			Validation:  report,
		}

		installed := deps.Session.Install(seq, res)
		if !installed {
			log.Debug().
				Str("component", "api").
				Str("result_id", res.ID).
				Msg("Upload superseded by a newer one")
		}

		now := time.Now().UTC()
		rec := &result.Record{Result: res, Filename: header.Filename, CreatedAt: now}
		deps.Store.Put(rec)

		anomalies, avgScore := anomalyStats(rows)
		rate := 0.0
		if len(rows) > 0 {
			rate = float64(anomalies) / float64(len(rows))
		}

		deps.History.Push(result.HistoryEntry{
			ID:           res.ID,
			Filename:     header.Filename,
			CreatedAt:    now,
			RowCount:     len(rows),
			AnomalyCount: anomalies,
			AnomalyRate:  rate,
			AvgScore:     avgScore,
			Downsampled:  report.Downsampled,
		})

		if deps.Metrics != nil {
			recordUpload(deps, "accepted")
			deps.Metrics.RowsAnalyzed.Add(float64(len(rows)))
			deps.Metrics.AnomaliesFlagged.Add(float64(anomalies))
			deps.Metrics.ScoringDuration.Observe(scoringElapsed.Seconds())
		}

		if deps.Hub != nil {
			deps.Hub.Publish(stream.UploadEvent{
				Type:         stream.EventUpload,
				ResultID:     res.ID,
				Filename:     header.Filename,
				RowCount:     len(rows),
				AnomalyCount: anomalies,
				AnomalyRate:  rate,
				CreatedAt:    now,
			})
		}

		resp := api.PredictResponse{
			ResultID:    res.ID,
			Columns:     frame.Columns,
			Predictions: rows,
			Summary: api.Summary{
				ResultID:      res.ID,
				Filename:      header.Filename,
				CreatedAt:     now,
				RowCount:      len(rows),
				FilteredCount: len(rows),
				AnomalyCount:  anomalies,
				AnomalyRate:   rate,
				AvgScore:      avgScore,
				Schema:        api.SchemaInfoFrom(schema),
				Validation:    report,
			},
			Charts:  api.ChartsFrom(view.Derive(rows, schema)),
			PRCurve: prBlock(rows, schema, deps.Dataset.LabelHint),
			Stale:   !installed,
		}

		log.Info().
			Str("component", "api").
			Str("result_id", res.ID).
			Str("filename", header.Filename).
			Int("rows", len(rows)).
			Int("anomalies", anomalies).
			Dur("scoring", scoringElapsed).
			Msg("Upload analyzed")

		api.WriteJSON(w, http.StatusOK, resp)
	}
}

func recordUpload(deps *api.Deps, outcome string) {
	if deps.Metrics != nil {
		deps.Metrics.UploadsTotal.WithLabelValues(outcome).Inc()
	}
}

// anomalyStats counts rows predicted anomalous and averages the scores that
// are present. Any non-benign prediction counts as anomalous, so category
// labels from the model service (DoS, Exploits, ...) are covered.
func anomalyStats(rows []dataset.Row) (int, *float64) {
	anomalies := 0
	sum := 0.0
	scored := 0
	for _, row := range rows {
		if !dataset.IsBenignCategory(row.Prediction) {
			anomalies++
		}
		if s, ok := row.ScoreValue(); ok {
			sum += s
			scored++
		}
	}
	if scored == 0 {
		return anomalies, nil
	}
	return anomalies, dataset.Float(sum / float64(scored))
}

// prBlock computes the PR payload, folding the no-labels case into an
// unavailable block instead of an error.
func prBlock(rows []dataset.Row, schema dataset.Schema, hint string) api.PRCurve {
	curve, err := prcurve.Compute(rows, schema, hint)
	if err != nil {
		reason := "ground-truth labels or scores missing"
		if !errors.Is(err, prcurve.ErrUnavailable) {
			reason = err.Error()
		}
		return api.PRCurve{Available: false, Reason: reason}
	}
	best := curve.MetricsAt(curve.BestThreshold)
	return api.PRCurve{Available: true, Curve: curve, Metrics: &best}
}
