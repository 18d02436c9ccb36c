package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowsight/flowsight/pkg/dataset/csvio"
	"github.com/flowsight/flowsight/pkg/errors"
)

const defaultRemoteTimeout = 30 * time.Second

// Remote scores flows by calling an external model service. The service
// speaks a small JSON batch protocol: POST /score with the frame columns and
// records, POST /score/flow for a single flow.
type Remote struct {
	baseURL string
	label   string
	client  *http.Client
}

// NewRemote creates a remote scorer for the service at baseURL. timeout
// bounds each request; zero means a 30s default.
func NewRemote(baseURL, positiveLabel string, timeout time.Duration) *Remote {
	if positiveLabel == "" {
		positiveLabel = "Attack"
	}
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &Remote{
		baseURL: baseURL,
		label:   positiveLabel,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *Remote) PositiveLabel() string { return r.label }

type scoreRequest struct {
	Columns []string   `json:"columns"`
	Records [][]string `json:"records"`
}

type scoreResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Score submits the whole frame in one batch request.
func (r *Remote) Score(ctx context.Context, frame *csvio.Frame) ([]string, []float64, error) {
	var resp scoreResponse
	err := r.post(ctx, "/score", scoreRequest{Columns: frame.Columns, Records: frame.Records}, &resp)
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Labels) != len(frame.Records) || len(resp.Scores) != len(frame.Records) {
		return nil, nil, errors.WithErrorCode(
			fmt.Errorf("model service returned %d labels and %d scores for %d records",
				len(resp.Labels), len(resp.Scores), len(frame.Records)),
			errors.CodeProcessing,
		)
	}
	return resp.Labels, resp.Scores, nil
}

// ScoreFlow submits a single interactive flow. When the service omits a
// timestamp the receive time is used.
func (r *Remote) ScoreFlow(ctx context.Context, flow FlowRequest) (FlowVerdict, error) {
	var verdict FlowVerdict
	if err := r.post(ctx, "/score/flow", flow, &verdict); err != nil {
		return FlowVerdict{}, err
	}
	if verdict.Timestamp.IsZero() {
		verdict.Timestamp = time.Now().UTC()
	}
	return verdict, nil
}

func (r *Remote) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.WithErrorCode(fmt.Errorf("encoding score request: %w", err), errors.CodeProcessing)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.WithErrorCode(fmt.Errorf("building score request: %w", err), errors.CodeProcessing)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		code := errors.CodeNetwork
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			code = errors.CodeTimeout
		}
		return errors.WithErrorCode(fmt.Errorf("model service request: %w", err), code)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.WithErrorCode(
			fmt.Errorf("model service returned %d: %s", resp.StatusCode, string(snippet)),
			errors.CodeProcessing,
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WithErrorCode(fmt.Errorf("decoding score response: %w", err), errors.CodeProcessing)
	}
	return nil
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	for err != nil {
		if t, ok := err.(timeout); ok && t.Timeout() {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}
