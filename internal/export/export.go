// Package export writes rosters as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

// Format defines the output format for exports.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a string to Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "json":
		return FormatJSON, true
	case "csv":
		return FormatCSV, true
	default:
		return "", false
	}
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Signup is one filled cell.
type Signup struct {
	Slot      string `json:"slot"`
	Role      string `json:"role"`
	Volunteer string `json:"volunteer"`
}

// Signups lists filled cells in slot then role order.
func Signups(rst *roster.Roster) []Signup {
	out := []Signup{}
	for _, slot := range rst.Slots {
		for _, role := range rst.Roles {
			if name, ok := rst.Grid.Get(slot, role).Volunteer(); ok {
				out = append(out, Signup{Slot: slot, Role: role, Volunteer: name})
			}
		}
	}
	return out
}

// Exporter handles roster export to various formats.
type Exporter struct {
	format Format
	writer io.Writer
}

// NewExporter creates an exporter for the given format.
func NewExporter(format Format, w io.Writer) *Exporter {
	return &Exporter{
		format: format,
		writer: w,
	}
}

// ExportGrid writes the full grid: one row per slot, one column per role.
// Empty cells are blank.
func (e *Exporter) ExportGrid(rst *roster.Roster) error {
	switch e.format {
	case FormatCSV:
		return e.exportGridCSV(rst)
	default:
		return e.exportJSON(rst)
	}
}

func (e *Exporter) exportGridCSV(rst *roster.Roster) error {
	w := csv.NewWriter(e.writer)
	defer w.Flush()

	// Header
	w.Write(append([]string{"time"}, rst.Roles...))

	for _, slot := range rst.Slots {
		row := make([]string, 0, len(rst.Roles)+1)
		row = append(row, slot)
		for _, role := range rst.Roles {
			name, _ := rst.Grid.Get(slot, role).Volunteer()
			row = append(row, name)
		}
		w.Write(row)
	}

	w.Flush()
	return w.Error()
}

// ExportSignups writes only the filled cells.
func (e *Exporter) ExportSignups(rst *roster.Roster) error {
	signups := Signups(rst)
	switch e.format {
	case FormatCSV:
		w := csv.NewWriter(e.writer)
		w.Write([]string{"slot", "role", "volunteer"})
		for _, s := range signups {
			w.Write([]string{s.Slot, s.Role, s.Volunteer})
		}
		w.Flush()
		return w.Error()
	default:
		return e.exportJSON(signups)
	}
}

func (e *Exporter) exportJSON(v any) error {
	encoder := json.NewEncoder(e.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
