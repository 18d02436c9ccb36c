package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/flowsight/flowsight/pkg/scoring"
	"github.com/flowsight/flowsight/pkg/server/api"
	"github.com/flowsight/flowsight/pkg/server/stream"
)

// PredictFlowHandler handles POST /api/flows/predict
//
// Scores a single flow described as JSON and returns the verdict. The
// payload is validated before scoring; invalid fields return 400 with the
// offending field names.
func PredictFlowHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, hasDeadline := ctx.Deadline(); !hasDeadline && deps.Config.HandlerTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.Config.HandlerTimeout)
			defer cancel()
		}

		var flow scoring.FlowRequest
		if err := json.NewDecoder(r.Body).Decode(&flow); err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body: "+err.Error())
			return
		}

		if err := deps.Validate.Struct(flow); err != nil {
			var verrs validator.ValidationErrors
			msg := err.Error()
			if errors.As(err, &verrs) {
				msg = "invalid fields:"
				for _, fe := range verrs {
					msg += " " + fe.Field()
				}
			}
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", msg)
			return
		}

		verdict, err := deps.FlowScorer.ScoreFlow(ctx, flow)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		if deps.Metrics != nil {
			outcome := "normal"
			if verdict.Anomalous {
				outcome = "anomalous"
			}
			deps.Metrics.FlowPredictions.WithLabelValues(outcome).Inc()
		}

		if deps.Hub != nil {
			deps.Hub.Publish(stream.FlowEvent{
				Type:       stream.EventFlow,
				Prediction: verdict.Prediction,
				Score:      verdict.Score,
				Anomalous:  verdict.Anomalous,
				DstPort:    flow.DstPort,
				Protocol:   flow.Protocol,
				CreatedAt:  time.Now().UTC(),
			})
		}

		log.Debug().
			Str("component", "api").
			Str("prediction", verdict.Prediction).
			Float64("score", verdict.Score).
			Msg("Flow scored")

		api.WriteJSON(w, http.StatusOK, verdict)
	}
}
