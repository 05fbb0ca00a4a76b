// Package ipeds loads the IPEDS statistics extract and the customer roster.
package ipeds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
)

// Layout tells the loader how to type the columns of a statistics file
type Layout struct {
	// IDColumn holds the integer unit ID
	IDColumn string
	// TextColumns are kept as text; every other column is numeric
	TextColumns []string
}

// RosterOptions describes the customer roster file
type RosterOptions struct {
	IDColumn  string
	Delimiter rune
}

// LoadInstitutions reads a statistics CSV file
func LoadInstitutions(path string, layout Layout) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statistics file: %w", err)
	}
	defer f.Close()

	return ReadInstitutions(f, "ipeds", layout)
}

// ReadInstitutions parses statistics CSV data. Blank and non-numeric cells
// in numeric columns load as Null.
func ReadInstitutions(r io.Reader, name string, layout Layout) (*dataset.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header = cleanHeader(header)

	text := make(map[string]bool, len(layout.TextColumns))
	for _, c := range layout.TextColumns {
		text[c] = true
	}

	idPos := -1
	fields := make([]dataset.Field, 0, len(header)-1)
	positions := make([]int, 0, len(header)-1)
	for i, h := range header {
		if h == layout.IDColumn {
			idPos = i
			continue
		}
		kind := dataset.Number
		if text[h] {
			kind = dataset.Text
		}
		fields = append(fields, dataset.Field{Name: h, Kind: kind})
		positions = append(positions, i)
	}
	if idPos < 0 {
		return nil, &dataset.SchemaError{Table: name, Column: layout.IDColumn, Reason: "id column not found"}
	}

	schema, err := dataset.NewSchema(fields...)
	if err != nil {
		return nil, &dataset.SchemaError{Table: name, Reason: err.Error()}
	}
	table := dataset.NewTable(name, schema)

	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := parseID(record[idPos])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values := make([]dataset.Value, len(fields))
		for k, pos := range positions {
			values[k] = parseCell(record[pos], fields[k].Kind)
		}
		if err := table.Append(id, values...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return table, nil
}

// LoadRoster reads the customer roster file
func LoadRoster(path string, opts RosterOptions) (membership.IDSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return membership.IDSet{}, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	return ReadRoster(f, opts)
}

// ReadRoster parses roster data: a header row naming the ID column, then
// one institution per row. Duplicates keep their first occurrence.
func ReadRoster(r io.Reader, opts RosterOptions) (membership.IDSet, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return membership.IDSet{}, fmt.Errorf("failed to read roster header: %w", err)
	}
	header = cleanHeader(header)

	idPos := -1
	for i, h := range header {
		if h == opts.IDColumn {
			idPos = i
			break
		}
	}
	if idPos < 0 {
		return membership.IDSet{}, &dataset.SchemaError{Table: "customer roster", Column: opts.IDColumn, Reason: "id column not found"}
	}

	var ids []dataset.UnitID
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return membership.IDSet{}, fmt.Errorf("roster line %d: %w", line, err)
		}
		if idPos >= len(record) || strings.TrimSpace(record[idPos]) == "" {
			continue
		}
		id, err := parseID(record[idPos])
		if err != nil {
			return membership.IDSet{}, fmt.Errorf("roster line %d: %w", line, err)
		}
		ids = append(ids, id)
	}
	return membership.NewIDSet(ids...), nil
}

func parseID(s string) (dataset.UnitID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unit id %q", s)
	}
	return dataset.UnitID(v), nil
}

func parseCell(s string, kind dataset.Kind) dataset.Value {
	s = strings.TrimSpace(s)
	if kind == dataset.Text {
		if s == "" {
			return dataset.Null()
		}
		return dataset.Str(s)
	}
	if s == "" || s == "." {
		return dataset.Null()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return dataset.Null()
	}
	return dataset.Num(f)
}

// cleanHeader trims whitespace and a UTF-8 byte order mark from header cells
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
