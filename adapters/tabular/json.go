package tabular

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"datalens/domain/core"
	"datalens/domain/profile"
	"datalens/internal/errors"
)

// JSONReader loads JSON datasets in two shapes: an array of flat record
// objects, or a single column-oriented object mapping column names to value
// arrays. For records, column order follows first appearance; records
// missing a key get a null cell.
type JSONReader struct{}

// NewJSONReader creates a JSON record reader.
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

// Load reads a dataset from JSON. The top-level token picks the shape:
// '[' for records, '{' for column arrays.
func (l *JSONReader) Load(ctx context.Context, name string, r io.Reader) (*profile.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.LoaderError("failed to read JSON", err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return l.loadColumnar(name, trimmed)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.LoaderError("failed to parse JSON records", err)
	}
	if len(records) == 0 {
		return nil, errors.InvalidInput("JSON file has no records")
	}

	var order []string
	cells := make(map[string][]profile.Cell)

	for i, raw := range records {
		fields, err := decodeRecord(raw)
		if err != nil {
			return nil, errors.LoaderError(fmt.Sprintf("record %d", i), err)
		}

		for _, f := range fields {
			if _, seen := cells[f.key]; !seen {
				order = append(order, f.key)
				// Backfill nulls for records processed before this key appeared.
				cells[f.key] = make([]profile.Cell, i)
				for j := 0; j < i; j++ {
					cells[f.key][j] = profile.NullCell()
				}
			}
			cells[f.key] = append(cells[f.key], f.cell)
		}

		// Pad keys the record did not carry.
		for _, key := range order {
			if len(cells[key]) <= i {
				cells[key] = append(cells[key], profile.NullCell())
			}
		}
	}

	columns := make([]profile.Column, len(order))
	for i, key := range order {
		columns[i] = profile.Column{Name: key, Cells: cells[key]}
		columns[i].Type = InferType(&columns[i])
	}

	ds := &profile.Dataset{
		ID:      core.DatasetID(core.NewID()),
		Name:    datasetName(name),
		Columns: columns,
	}
	log.Printf("[Reader] Loaded JSON %s (%d columns, %d rows)", name, len(ds.Columns), ds.Rows())
	return ds, nil
}

// loadColumnar parses {"col": [v1, v2, ...], ...}. Columns keep document
// order; shorter arrays are padded with nulls to the longest.
func (l *JSONReader) loadColumnar(name string, data []byte) (*profile.Dataset, error) {
	fields, err := decodeColumnArrays(data)
	if err != nil {
		return nil, errors.LoaderError("failed to parse JSON columns", err)
	}
	if len(fields) == 0 {
		return nil, errors.InvalidInput("JSON file has no columns")
	}

	rows := 0
	for _, f := range fields {
		if len(f.cells) > rows {
			rows = len(f.cells)
		}
	}

	columns := make([]profile.Column, len(fields))
	for i, f := range fields {
		cells := f.cells
		for len(cells) < rows {
			cells = append(cells, profile.NullCell())
		}
		columns[i] = profile.Column{Name: f.key, Cells: cells}
		columns[i].Type = InferType(&columns[i])
	}

	ds := &profile.Dataset{
		ID:      core.DatasetID(core.NewID()),
		Name:    datasetName(name),
		Columns: columns,
	}
	log.Printf("[Reader] Loaded JSON %s (%d columns, %d rows)", name, len(ds.Columns), ds.Rows())
	return ds, nil
}

type columnField struct {
	key   string
	cells []profile.Cell
}

func decodeColumnArrays(data []byte) ([]columnField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var fields []columnField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string key, got %v", keyTok)
		}

		var values []json.RawMessage
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("column %q: expected an array: %w", key, err)
		}

		cells := make([]profile.Cell, len(values))
		for i, v := range values {
			cells[i] = cellFromValue(v)
		}
		fields = append(fields, columnField{key: key, cells: cells})
	}
	return fields, nil
}

type recordField struct {
	key  string
	cell profile.Cell
}

// decodeRecord walks one JSON object token by token so keys come back in
// document order, which a plain map decode would scramble.
func decodeRecord(raw json.RawMessage) ([]recordField, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var fields []recordField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string key, got %v", keyTok)
		}

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		fields = append(fields, recordField{key: key, cell: cellFromValue(val)})
	}
	return fields, nil
}

// cellFromValue stringifies one JSON value. Strings are unquoted and
// trimmed; nested arrays or objects keep their JSON text.
func cellFromValue(raw json.RawMessage) profile.Cell {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return profile.NullCell()
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			s = strings.TrimSpace(s)
			if s == "" {
				return profile.NullCell()
			}
			return profile.TextCell(s)
		}
	}
	return profile.TextCell(text)
}
