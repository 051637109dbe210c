package tabular

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"datalens/domain/core"
	"datalens/domain/profile"
	"datalens/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// SQLReader loads query results as datasets. Column order follows the
// result set; driver NULLs become null cells.
type SQLReader struct {
	db *sqlx.DB
}

// NewSQLReader creates a reader over an open connection pool.
func NewSQLReader(db *sqlx.DB) *SQLReader {
	return &SQLReader{db: db}
}

// Connect opens a Postgres pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Query runs a read-only query and converts the result set to a dataset
// named after the given name.
func (l *SQLReader) Query(ctx context.Context, name, query string) (*profile.Dataset, error) {
	rows, err := l.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.LoaderError("query failed", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.LoaderError("failed to read result columns", err)
	}

	columns := make([]profile.Column, len(names))
	for i, n := range names {
		columns[i] = profile.Column{Name: n}
	}

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.LoaderError("failed to scan row", err)
		}
		for j := range columns {
			columns[j].Cells = append(columns[j].Cells, cellFromSQL(values[j]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.LoaderError("row iteration failed", err)
	}

	for i := range columns {
		columns[i].Type = InferType(&columns[i])
	}

	ds := &profile.Dataset{
		ID:      core.DatasetID(core.NewID()),
		Name:    name,
		Columns: columns,
	}
	log.Printf("[Reader] Loaded query result %q (%d columns, %d rows)", name, len(ds.Columns), ds.Rows())
	return ds, nil
}

func cellFromSQL(v interface{}) profile.Cell {
	switch val := v.(type) {
	case nil:
		return profile.NullCell()
	case []byte:
		return cellFromString(string(val))
	case string:
		return cellFromString(val)
	case int64:
		return profile.TextCell(strconv.FormatInt(val, 10))
	case float64:
		return profile.NumberCell(val)
	case bool:
		return profile.TextCell(strconv.FormatBool(val))
	case time.Time:
		return profile.TextCell(val.Format(time.RFC3339))
	default:
		return profile.TextCell(fmt.Sprintf("%v", val))
	}
}
