package records

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

type Kind string

const (
	Accounts Kind = "accounts"
	Listings Kind = "listings"
	Requests Kind = "requests"
	Audit    Kind = "audit"
)

var ErrUnknownKind = errors.New("unknown record kind")

var schema = map[Kind][]string{
	Accounts: {"id", "credential_hash", "name", "contact", "biz_no", "verified", "deal_count", "reputation", "join_date"},
	Listings: {"id", "owner_id", "date", "company", "contact", "region", "complex", "role", "category", "title", "lat", "lon", "description", "process_notes", "verified", "image_path"},
	Requests: {"request_id", "from_id", "to_id", "listing_id", "status", "timestamp"},
	Audit:    {"id", "actor_id", "action", "entity", "entity_ids", "timestamp"},
}

// Kinds lists every record kind in a stable order.
func Kinds() []Kind {
	return []Kind{Accounts, Listings, Requests, Audit}
}

func Columns(kind Kind) ([]string, error) {
	cols, ok := schema[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Row is one record keyed by column name. Every cell is a string, as in the
// remote sheet.
type Row map[string]string

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Table struct {
	Kind   Kind
	Header []string
	Rows   []Row
}

// NewTable returns an empty table carrying the full header for kind.
func NewTable(kind Kind) Table {
	cols, _ := Columns(kind)
	return Table{Kind: kind, Header: cols, Rows: []Row{}}
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Cells renders the rows in header order.
func (t Table) Cells() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		line := make([]string, len(t.Header))
		for i, col := range t.Header {
			line[i] = row[col]
		}
		out = append(out, line)
	}
	return out
}

// Revision is a content stamp over header and cells. Two loads of an
// unchanged sheet produce the same revision.
func (t Table) Revision() string {
	h := sha256.New()
	h.Write([]byte(strings.Join(t.Header, "\x1f")))
	for _, line := range t.Cells() {
		h.Write([]byte{'\x1e'})
		h.Write([]byte(strings.Join(line, "\x1f")))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone deep-copies rows so callers can mutate without touching cached state.
func (t Table) Clone() Table {
	header := make([]string, len(t.Header))
	copy(header, t.Header)
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		rows = append(rows, row.Clone())
	}
	return Table{Kind: t.Kind, Header: header, Rows: rows}
}

// normalize builds a table from a raw header and cell grid. Kind columns come
// first; columns the sheet carries beyond the schema are kept after them.
// Missing cells become "" and blank lines are dropped.
func normalize(kind Kind, header []string, cells [][]string) Table {
	cols, _ := Columns(kind)
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}
	fullHeader := append([]string{}, cols...)
	for _, c := range header {
		if c == "" || known[c] {
			continue
		}
		known[c] = true
		fullHeader = append(fullHeader, c)
	}

	rows := make([]Row, 0, len(cells))
	for _, line := range cells {
		if isBlank(line) {
			continue
		}
		row := make(Row, len(fullHeader))
		for _, c := range fullHeader {
			row[c] = ""
		}
		for i, value := range line {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}
	return Table{Kind: kind, Header: fullHeader, Rows: rows}
}

// shapeRow fills a row to the table header, dropping unknown keys.
func shapeRow(header []string, row Row) Row {
	out := make(Row, len(header))
	for _, c := range header {
		out[c] = row[c]
	}
	return out
}

func isBlank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
