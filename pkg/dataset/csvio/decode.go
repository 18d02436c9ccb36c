// Package csvio decodes uploaded flow CSVs into frames the scoring and
// analytics layers consume, and encodes enriched results back to CSV. It
// tolerates the dataset quirks the service actually sees: UTF-8 BOMs,
// headerless UNSW-NB15 raw captures, and alternate header spellings.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/flowsight/flowsight/pkg/dataset"
)

// ErrEmpty reports an upload with no data rows.
var ErrEmpty = errors.New("uploaded CSV contains no rows")

// Canonical header for headerless UNSW-NB15 raw captures.
var unswRawHeader = []string{
	"srcip", "sport", "dstip", "dsport", "proto", "state", "dur", "sbytes", "dbytes",
	"sttl", "dttl", "sloss", "dloss", "service", "Sload", "Dload", "Spkts", "Dpkts",
	"swin", "dwin", "stcpb", "dtcpb", "smeansz", "dmeansz", "trans_depth", "res_bdy_len",
	"Sjit", "Djit", "Stime", "Ltime", "Sintpkt", "Dintpkt", "tcprtt", "synack", "ackdat",
	"is_sm_ips_ports", "ct_state_ttl", "ct_flw_http_mthd", "is_ftp_login", "ct_ftp_cmd",
	"ct_srv_src", "ct_srv_dst", "ct_dst_ltm", "ct_src_ltm", "ct_src_dport_ltm",
	"ct_dst_sport_ltm", "ct_dst_src_ltm", "attack_cat", "label",
}

// Alternate header spellings mapped to the canonical column names the
// analytics layer probes for. Applied only when the canonical name is not
// already taken.
var columnAliases = map[string]string{
	"sport":       "src_port",
	"dsport":      "dst_port",
	"srcip":       "src_ip",
	"dstip":       "dst_ip",
	"stime":       "timestamp",
	"ltime":       "last_time",
	"res_bdy_len": "response_body_len",
}

// Frame is a decoded CSV: a header and raw string records. Records all have
// len(Columns) cells.
type Frame struct {
	Columns []string
	Records [][]string
}

// RowCount returns the number of data rows.
func (f *Frame) RowCount() int { return len(f.Records) }

// Column returns the index of a column name, or -1.
func (f *Frame) Column(name string) int {
	for i, c := range f.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Decode parses an uploaded CSV. A UTF-8 BOM is stripped. When the header
// row looks like data (first cell is an IPv4 address or a bare number) the
// file is treated as a headerless UNSW-NB15 raw capture and the canonical
// header is applied. Short records are padded, long records truncated, so
// every record matches the header width.
func Decode(r io.Reader) (*Frame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("uploaded file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	header := records[0]
	body := records[1:]
	if headerLooksLikeData(header) {
		// Headerless raw capture: the "header" is the first data row.
		body = records
		header = unswRawHeader
	}
	if len(body) == 0 {
		return nil, ErrEmpty
	}

	frame := &Frame{Columns: harmonizeColumns(header)}
	frame.Records = make([][]string, len(body))
	for i, rec := range body {
		row := make([]string, len(frame.Columns))
		copy(row, rec)
		frame.Records[i] = row
	}
	return frame, nil
}

// headerLooksLikeData reports whether the first header cell is an IPv4
// address or a bare number, which marks a headerless raw capture.
func headerLooksLikeData(header []string) bool {
	if len(header) == 0 {
		return false
	}
	first := strings.TrimSpace(header[0])
	if first == "" {
		return false
	}
	if _, err := strconv.ParseFloat(first, 64); err == nil {
		return true
	}
	parts := strings.Split(first, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, ch := range p {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}

func harmonizeColumns(header []string) []string {
	taken := make(map[string]bool, len(header))
	for _, c := range header {
		taken[strings.ToLower(strings.TrimSpace(c))] = true
	}
	out := make([]string, len(header))
	for i, c := range header {
		name := strings.TrimSpace(c)
		if canonical, ok := columnAliases[strings.ToLower(name)]; ok && !taken[canonical] {
			name = canonical
		}
		out[i] = name
	}
	return out
}

// Rows converts the frame into scored prediction rows. predictions must have
// one entry per record; scores may be nil when the model exposes no
// probabilities. Numeric-looking cells become float64 values, empty cells
// become nil, everything else stays a string.
func (f *Frame) Rows(predictions []string, scores []float64) []dataset.Row {
	rows := make([]dataset.Row, len(f.Records))
	for i, rec := range f.Records {
		data := make(map[string]any, len(f.Columns))
		for j, col := range f.Columns {
			data[col] = cellValue(rec[j])
		}
		row := dataset.Row{RowIndex: i, Data: data}
		if i < len(predictions) {
			row.Prediction = predictions[i]
		}
		if scores != nil && i < len(scores) {
			row.Score = dataset.Float(scores[i])
		}
		rows[i] = row
	}
	return rows
}

func cellValue(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
