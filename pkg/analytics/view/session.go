// Package view owns the derived-state pipeline for the currently loaded
// result: raw rows and filter state are the inputs, every chart aggregate is
// a pure function of them, and outputs are cached keyed by input identity
// and invalidated explicitly on upload or filter change. There is no hidden
// mutation; recomputation runs to completion on the turn that changed the
// inputs.
package view

import (
	"sync"

	"github.com/flowsight/flowsight/pkg/analytics/aggregate"
	"github.com/flowsight/flowsight/pkg/analytics/filterset"
	"github.com/flowsight/flowsight/pkg/analytics/timeseries"
	"github.com/flowsight/flowsight/pkg/dataset"
	"github.com/flowsight/flowsight/pkg/dataset/csvio"
)

// Result is one installed upload: the immutable row set and everything
// resolved from it. Replaced wholesale on each new upload, never merged.
type Result struct {
	ID          string
	Columns     []string
	DataColumns []string
	Rows        []dataset.Row
	Schema      dataset.Schema
	Validation  csvio.ValidationReport
}

// Aggregates bundles the chart-ready derivations for one (rows, filters)
// input pair.
type Aggregates struct {
	LabelBreakdown map[string]int
	AttackTaxonomy map[string]int
	TopServices    []aggregate.Count
	TopPorts       []aggregate.Count
	Heatmap        *aggregate.Heatmap
	ScoreBands     []aggregate.ScoreBand
	Timeline       []timeseries.TimelinePoint
}

// Session is the single owner of the active result and filter state.
//
// Uploads race: a slow response must not overwrite a newer one. Begin issues
// a monotonically increasing sequence number when an upload starts; Install
// rejects any payload whose sequence is older than the latest issued, so the
// newest upload wins regardless of response arrival order.
type Session struct {
	mu      sync.Mutex
	lastSeq uint64

	result  *Result
	filters *filterset.State

	cache      *Aggregates
	cacheRows  *Result
	cacheVer   uint64
	filtered   []dataset.Row
	filterVer  uint64
	filterRows *Result
}

// NewSession returns a session with no result and empty filters.
func NewSession() *Session {
	return &Session{filters: filterset.New()}
}

// Begin marks the start of an upload and returns its sequence number.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeq++
	return s.lastSeq
}

// Install replaces the active result if seq is still the newest issued
// sequence. Returns false when a newer upload has already begun, in which
// case the payload is discarded. Installing resets the filter state: filters
// describe columns of the dataset they were built against.
func (s *Session) Install(seq uint64, result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.lastSeq {
		return false
	}
	s.result = result
	s.filters.Reset()
	s.invalidateLocked()
	return true
}

// Result returns the active result, or nil before the first upload.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Mutate applies fn to the filter state and invalidates derived caches.
func (s *Session) Mutate(fn func(*filterset.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.filters)
	s.invalidateLocked()
}

// FilterSummary returns the active-filter chips for display.
func (s *Session) FilterSummary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Summary()
}

func (s *Session) invalidateLocked() {
	s.cache = nil
	s.cacheRows = nil
	s.filtered = nil
	s.filterRows = nil
}

// FilteredRows returns the rows passing the current filter state, memoized
// on (result identity, filter version). With no active filters this is the
// result's own slice.
func (s *Session) FilteredRows() []dataset.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked()
}

func (s *Session) filteredLocked() []dataset.Row {
	if s.result == nil {
		return nil
	}
	if s.filterRows == s.result && s.filterVer == s.filters.Version() && s.filtered != nil {
		return s.filtered
	}
	s.filtered = s.filters.Apply(s.result.Rows, s.result.Schema)
	s.filterRows = s.result
	s.filterVer = s.filters.Version()
	return s.filtered
}

// Aggregates recomputes (or returns the cached) chart aggregates for the
// current filtered view. Identical output shape whether or not filters are
// active.
func (s *Session) Aggregates() Aggregates {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Aggregates{LabelBreakdown: map[string]int{}, AttackTaxonomy: map[string]int{}}
	}
	if s.cache != nil && s.cacheRows == s.result && s.cacheVer == s.filters.Version() {
		return *s.cache
	}
	rows := s.filteredLocked()
	agg := Derive(rows, s.result.Schema)
	s.cache = &agg
	s.cacheRows = s.result
	s.cacheVer = s.filters.Version()
	return agg
}

// Derive computes the full aggregate bundle for a row set. Pure; shared by
// the session cache, the upload response builder and the offline analyzer.
func Derive(rows []dataset.Row, schema dataset.Schema) Aggregates {
	return Aggregates{
		LabelBreakdown: aggregate.LabelBreakdown(rows),
		AttackTaxonomy: aggregate.AttackTaxonomy(rows, schema),
		TopServices:    aggregate.TopServices(rows, schema),
		TopPorts:       aggregate.TopPorts(rows, schema),
		Heatmap:        aggregate.PortAttackHeatmap(rows, schema),
		ScoreBands:     aggregate.ScoreBands(rows),
		Timeline:       timeseries.AnomalyTimeline(rows, schema),
	}
}
