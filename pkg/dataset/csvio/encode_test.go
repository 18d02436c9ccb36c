package csvio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsight/flowsight/pkg/dataset"
)

func TestEncode(t *testing.T) {
	rows := []dataset.Row{
		{
			RowIndex:   0,
			Prediction: "Normal",
			Score:      dataset.Float(0.25),
			Data:       map[string]any{"proto": "tcp", "dst_port": 80.0},
		},
		{
			RowIndex:   1,
			Prediction: "Attack",
			Data:       map[string]any{"proto": "udp", "dst_port": 53.0},
		},
	}

	var buf strings.Builder
	err := Encode(&buf, []string{"proto", "dst_port"}, rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "row_index,prediction,score,proto,dst_port", lines[0])
	// Prediction is always quoted, absent score renders empty.
	assert.Equal(t, `0,"Normal",0.25,tcp,80`, lines[1])
	assert.Equal(t, `1,"Attack",,udp,53`, lines[2])
}

func TestEncode_QuotesSpecialCharacters(t *testing.T) {
	rows := []dataset.Row{
		{
			RowIndex:   0,
			Prediction: `say "hi"`,
			Data:       map[string]any{"note": `a,b "c"`},
		},
	}

	var buf strings.Builder
	err := Encode(&buf, []string{"note"}, rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, `0,"say ""hi""",,"a,b ""c"""`, lines[1])
}

func TestEncode_MissingDataColumn(t *testing.T) {
	rows := []dataset.Row{{RowIndex: 0, Prediction: "Normal", Data: map[string]any{"proto": "tcp"}}}

	var buf strings.Builder
	err := Encode(&buf, []string{"proto", "absent"}, rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, `0,"Normal",,tcp,`, lines[1])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rows := []dataset.Row{
		{
			RowIndex:   0,
			Prediction: "Normal",
			Score:      dataset.Float(0.25),
			Data:       map[string]any{"proto": "tcp", "note": `a,b "c"`},
		},
		{
			RowIndex:   1,
			Prediction: "Attack",
			Data:       map[string]any{"proto": "udp", "note": "plain"},
		},
	}

	var buf strings.Builder
	require.NoError(t, Encode(&buf, []string{"proto", "note"}, rows))

	frame, err := Decode(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"row_index", "prediction", "score", "proto", "note"}, frame.Columns)
	require.Equal(t, 2, frame.RowCount())
	// Quoted commas and doubled quotes survive the trip.
	assert.Equal(t, []string{"0", "Normal", "0.25", "tcp", `a,b "c"`}, frame.Records[0])
	assert.Equal(t, []string{"1", "Attack", "", "udp", "plain"}, frame.Records[1])
}

func TestEncode_NoRows(t *testing.T) {
	var buf strings.Builder
	err := Encode(&buf, []string{"proto"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "row_index,prediction,score,proto\n", buf.String())
}
