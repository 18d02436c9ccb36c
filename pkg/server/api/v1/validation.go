package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TimelineQuery represents supported query params for the timeline endpoint.
type TimelineQuery struct {
	BucketMinutes int
	Smooth        bool
}

// ParseTimelineQuery parses and validates timeline query params.
// Returns validated query with the configured default bucket width when
// omitted.
func ParseTimelineQuery(r *http.Request, defaultBucketMinutes int) (*TimelineQuery, error) {
	q := r.URL.Query()
	res := TimelineQuery{BucketMinutes: defaultBucketMinutes}

	if v := strings.TrimSpace(q.Get("bucket_minutes")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "bucket_minutes", Reason: "must be an integer"}
		}
		if err := validate.Var(n, "min=1,max=1440"); err != nil {
			return nil, &ValidationError{Field: "bucket_minutes", Reason: "must be between 1 and 1440"}
		}
		res.BucketMinutes = n
	}

	if v := strings.TrimSpace(q.Get("smooth")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ValidationError{Field: "smooth", Reason: "must be a boolean"}
		}
		res.Smooth = b
	}

	if res.BucketMinutes <= 0 {
		res.BucketMinutes = 5
	}

	return &res, nil
}

// ParseThreshold validates an optional threshold query param.
// Returns (0, false, nil) when absent.
func ParseThreshold(r *http.Request) (float64, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get("threshold"))
	if v == "" {
		return 0, false, nil
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, &ValidationError{Field: "threshold", Reason: "must be a number"}
	}
	if err := validate.Var(t, "min=0,max=1"); err != nil {
		return 0, false, &ValidationError{Field: "threshold", Reason: "must be between 0 and 1"}
	}
	return t, true, nil
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed"
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}
