package aggregate

import (
	"sort"

	"github.com/spf13/cast"

	"github.com/flowsight/flowsight/pkg/dataset"
)

// PortAttackHeatmap builds the attack-type-by-destination-port crosstab over
// anomalous rows with a valid numeric port and a non-benign attack category.
// The top 15 ports by total attack count become the columns; attack types
// present among those ports become the rows, ordered by total activity
// descending. Absent combinations are zero-filled. Returns nil when either
// column role is unresolved or nothing survives the validity filters.
func PortAttackHeatmap(rows []dataset.Row, schema dataset.Schema) *Heatmap {
	if schema.PortColumn == "" || schema.AttackColumn == "" {
		return nil
	}

	// attack category -> port -> count
	tally := make(map[string]map[int]int)
	portTotals := make(map[int]int)
	for _, row := range rows {
		if schema.PositiveLabel != "" && row.Prediction != schema.PositiveLabel {
			continue
		}
		rawPort, ok := row.Field(schema.PortColumn)
		if !ok {
			continue
		}
		port, ok := dataset.Port(rawPort)
		if !ok {
			continue
		}
		rawCat, ok := row.Field(schema.AttackColumn)
		if !ok {
			continue
		}
		cat := dataset.NormalizeAttackCategory(cast.ToString(rawCat))
		if dataset.IsBenignCategory(cat) {
			continue
		}
		if tally[cat] == nil {
			tally[cat] = make(map[int]int)
		}
		tally[cat][port]++
		portTotals[port]++
	}
	if len(tally) == 0 {
		return nil
	}

	ports := make([]int, 0, len(portTotals))
	for p := range portTotals {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool {
		if portTotals[ports[i]] != portTotals[ports[j]] {
			return portTotals[ports[i]] > portTotals[ports[j]]
		}
		return ports[i] < ports[j]
	})
	if len(ports) > heatmapPortLimit {
		ports = ports[:heatmapPortLimit]
	}

	// Attack types present among the selected ports, by total activity there.
	attackTotals := make(map[string]int)
	for cat, perPort := range tally {
		for _, p := range ports {
			attackTotals[cat] += perPort[p]
		}
	}
	attacks := make([]string, 0, len(attackTotals))
	for cat, total := range attackTotals {
		if total > 0 {
			attacks = append(attacks, cat)
		}
	}
	if len(attacks) == 0 {
		return nil
	}
	sort.Slice(attacks, func(i, j int) bool {
		if attackTotals[attacks[i]] != attackTotals[attacks[j]] {
			return attackTotals[attacks[i]] > attackTotals[attacks[j]]
		}
		return attacks[i] < attacks[j]
	})

	matrix := make([][]int, len(attacks))
	for i, cat := range attacks {
		matrix[i] = make([]int, len(ports))
		for j, p := range ports {
			matrix[i][j] = tally[cat][p]
		}
	}

	return &Heatmap{Ports: ports, AttackTypes: attacks, Matrix: matrix}
}
