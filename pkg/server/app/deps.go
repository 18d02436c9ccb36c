package app

import (
	"github.com/rs/zerolog"

	"github.com/flowsight/flowsight/pkg/analytics/view"
	"github.com/flowsight/flowsight/pkg/config"
	"github.com/flowsight/flowsight/pkg/result"
	"github.com/flowsight/flowsight/pkg/scoring"
)

// Deps holds dependencies for the server application.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Session tracks the currently displayed result. Created by New when nil.
	Session *view.Session

	// Store retains completed results. Created by New when nil.
	Store *result.Store

	// History is the rolling run log. Created by New when nil.
	History *result.History

	// Scorer overrides the config-selected scorer when set (tests, embedding).
	// Must also implement scoring.FlowScorer.
	Scorer scoring.Scorer

	// Config manager for runtime configuration
	Config *config.Manager

	// Logger for structured logging (injected by caller)
	Logger zerolog.Logger
}
