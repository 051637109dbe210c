// Package tabular loads tabular data from CSV, Excel, JSON and SQL sources
// into datasets ready for profiling. Column types are inferred once at load
// time; downstream packages trust the assigned type and never re-infer.
package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"datalens/domain/core"
	"datalens/domain/profile"
	"datalens/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Reader loads CSV and Excel streams. The file format is chosen from the
// dataset name's extension; anything that is not .xlsx or .xls is parsed
// as CSV.
type Reader struct{}

// NewReader creates a file reader.
func NewReader() *Reader {
	return &Reader{}
}

// Load reads a dataset from r. name is the uploaded file name and doubles
// as the dataset name (extension stripped).
func (l *Reader) Load(ctx context.Context, name string, r io.Reader) (*profile.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(name))

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".xlsx", ".xls":
		rows, err = readExcelRows(r)
	default:
		rows, err = readCSVRows(r)
	}
	if err != nil {
		return nil, errors.LoaderError(fmt.Sprintf("failed to read %s", name), err)
	}

	ds, err := datasetFromRows(datasetName(name), rows)
	if err != nil {
		return nil, err
	}

	log.Printf("[Reader] Loaded %s (%d columns, %d rows)", name, len(ds.Columns), ds.Rows())
	return ds, nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1

	start := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	log.Printf("[Reader] Delimited text parsed in %.2fms (%d rows)", float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// sniffDelimiter picks the separator with the most occurrences in the header
// line. Comma wins ties, so plain CSV never changes behavior.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	best, bestCount := ',', bytes.Count(header, []byte{','})
	for _, c := range []byte{'\t', '|', ';'} {
		if n := bytes.Count(header, []byte{c}); n > bestCount {
			best, bestCount = rune(c), n
		}
	}
	return best
}

func readExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// First sheet, whatever it is named.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	start := time.Now()
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	log.Printf("[Reader] Sheet %q read in %.2fms (%d rows)", sheets[0], float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// datasetFromRows converts a header row plus data rows into a typed dataset.
// Cells are trimmed; empty strings become nulls. Short rows are padded with
// nulls so every column has the same length.
func datasetFromRows(name string, rows [][]string) (*profile.Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.InvalidInput("file has no rows")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) == 0 {
		return nil, errors.InvalidInput("file has no columns")
	}

	columns := make([]profile.Column, len(headers))
	for i, h := range headers {
		columns[i] = profile.Column{Name: h, Cells: make([]profile.Cell, 0, len(rows)-1)}
	}

	for _, row := range rows[1:] {
		for j := range columns {
			if j < len(row) {
				columns[j].Cells = append(columns[j].Cells, cellFromString(row[j]))
			} else {
				columns[j].Cells = append(columns[j].Cells, profile.NullCell())
			}
		}
	}

	for i := range columns {
		columns[i].Type = InferType(&columns[i])
	}

	return &profile.Dataset{
		ID:      core.DatasetID(core.NewID()),
		Name:    name,
		Columns: columns,
	}, nil
}

func cellFromString(s string) profile.Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return profile.NullCell()
	}
	return profile.TextCell(s)
}

func datasetName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
