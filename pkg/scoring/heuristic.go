package scoring

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/flowsight/flowsight/pkg/dataset"
	"github.com/flowsight/flowsight/pkg/dataset/csvio"
)

// Thresholds for the heuristic model. A flow is flagged once its squashed
// risk crosses flagThreshold.
const flagThreshold = 0.5

// Interactive verdicts report at most this many contributing features.
const topFeatureCount = 5

// Ports with a history of abuse get a fixed risk bump.
var riskyPorts = map[int]float64{
	21:    0.25,
	23:    0.45,
	445:   0.40,
	1433:  0.35,
	3389:  0.35,
	4444:  0.55,
	5900:  0.30,
	6667:  0.30,
	31337: 0.60,
}

// Heuristic scores flows with a fixed feature-weighted rule set. It is
// deterministic: identical input always yields identical scores, which keeps
// uploads reproducible when no model service is configured.
type Heuristic struct {
	label string
}

// NewHeuristic returns a heuristic scorer emitting positiveLabel for
// anomalous flows. An empty positiveLabel defaults to "Attack".
func NewHeuristic(positiveLabel string) *Heuristic {
	if positiveLabel == "" {
		positiveLabel = "Attack"
	}
	return &Heuristic{label: positiveLabel}
}

func (h *Heuristic) PositiveLabel() string { return h.label }

// Score evaluates every record in the frame. It never fails: records with
// unusable feature cells simply score from the features that are present.
func (h *Heuristic) Score(ctx context.Context, frame *csvio.Frame) ([]string, []float64, error) {
	portCol := frameColumn(frame, "dst_port", "dsport", "dport", "destination_port")
	protoCol := frameColumn(frame, "protocol", "proto")
	bytesCol := frameColumn(frame, "pkt_bytes", "sbytes", "bytes", "total_bytes")
	countCol := frameColumn(frame, "pkt_count", "spkts", "packets")
	durCol := frameColumn(frame, "inter_arrival_ms", "dur", "duration")

	labels := make([]string, len(frame.Records))
	scores := make([]float64, len(frame.Records))
	for i, rec := range frame.Records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		score := h.scoreFeatures(
			cellAt(rec, portCol),
			cellAt(rec, protoCol),
			cellAt(rec, bytesCol),
			cellAt(rec, countCol),
			cellAt(rec, durCol),
		)
		scores[i] = score
		if score >= flagThreshold {
			labels[i] = h.label
		} else {
			labels[i] = "Normal"
		}
	}
	return labels, scores, nil
}

// ScoreFlow evaluates a single interactive flow. The verdict carries the
// contributing features, largest risk first, so callers can explain the
// score.
func (h *Heuristic) ScoreFlow(ctx context.Context, flow FlowRequest) (FlowVerdict, error) {
	if err := ctx.Err(); err != nil {
		return FlowVerdict{}, err
	}
	terms := riskTerms(
		float64(flow.DstPort),
		flow.Protocol,
		flow.PktBytes,
		flow.PktCount,
		flow.InterArrivalMS,
	)
	score := squashRisk(sumRisk(terms))
	verdict := FlowVerdict{
		Score:       score,
		Anomalous:   score >= flagThreshold,
		TopFeatures: topContributions(terms, topFeatureCount),
		Timestamp:   time.Now().UTC(),
	}
	if verdict.Anomalous {
		verdict.Prediction = h.label
	} else {
		verdict.Prediction = "Normal"
	}
	return verdict, nil
}

// scoreFeatures combines the per-feature risks and squashes the sum into
// (0, 1) with a logistic centered so that an unremarkable flow lands well
// below the flag threshold.
func (h *Heuristic) scoreFeatures(port any, proto any, bytes any, count any, dur any) float64 {
	return squashRisk(sumRisk(riskTerms(port, proto, bytes, count, dur)))
}

// riskTerms evaluates the rule set and names each rule that fired along with
// its risk bump.
func riskTerms(port any, proto any, bytes any, count any, dur any) []FeatureContribution {
	var terms []FeatureContribution
	add := func(name string, v float64) {
		terms = append(terms, FeatureContribution{Name: name, Contribution: v})
	}

	if p, ok := dataset.Port(port); ok {
		if bump, hot := riskyPorts[p]; hot {
			add("dst_port", bump)
		} else if p > 49151 {
			// Ephemeral destination ports are mildly unusual.
			add("dst_port", 0.10)
		}
	}

	if s, ok := proto.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "icmp":
			add("protocol", 0.15)
		case "udp":
			add("protocol", 0.05)
		}
	}

	b, haveBytes := dataset.Number(bytes)
	c, haveCount := dataset.Number(count)
	if haveBytes && haveCount && c > 0 {
		perPkt := b / c
		switch {
		case perPkt < 60:
			// Tiny packets at volume look like scanning or flooding.
			add("bytes_per_packet", 0.25)
		case perPkt > 1400:
			add("bytes_per_packet", 0.10)
		}
		if c > 1000 {
			add("pkt_count", 0.20)
		}
	}

	if d, ok := dataset.Number(dur); ok && d >= 0 {
		if d < 1 && haveCount && c > 10 {
			// Sub-millisecond inter-arrival with many packets.
			add("inter_arrival_ms", 0.25)
		}
	}
	return terms
}

func sumRisk(terms []FeatureContribution) float64 {
	risk := 0.0
	for _, t := range terms {
		risk += t.Contribution
	}
	return risk
}

// squashRisk maps a risk sum into (0, 1): risk 0 lands near 0.01, risk ~0.75
// crosses the flag threshold.
func squashRisk(risk float64) float64 {
	return 1.0 / (1.0 + math.Exp(-(risk*6.0-4.5)))
}

// topContributions returns the n largest contributions, descending, ties kept
// in rule order.
func topContributions(terms []FeatureContribution, n int) []FeatureContribution {
	out := make([]FeatureContribution, len(terms))
	copy(out, terms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Contribution > out[j].Contribution })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func frameColumn(frame *csvio.Frame, names ...string) int {
	for _, name := range names {
		if idx := frame.Column(name); idx >= 0 {
			return idx
		}
	}
	return -1
}

func cellAt(record []string, idx int) any {
	if idx < 0 || idx >= len(record) {
		return nil
	}
	return record[idx]
}
