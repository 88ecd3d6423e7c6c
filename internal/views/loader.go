package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/campuslink/internal/listing"
)

// Loader materializes a tab's rows as engine records.
type Loader interface {
	Load(ctx context.Context, tab TabDef) ([]listing.Record, error)
}

type pgLoader struct {
	pool *pgxpool.Pool
}

// NewPGLoader returns the postgres-backed tab loader.
func NewPGLoader(pool *pgxpool.Pool) Loader {
	return &pgLoader{pool: pool}
}

func (l *pgLoader) Load(ctx context.Context, tab TabDef) ([]listing.Record, error) {
	columns := make([]string, 0, len(tab.Columns)+2)
	columns = append(columns, "id::text")
	for _, column := range tab.Columns {
		columns = append(columns, column+"::text")
	}
	columns = append(columns, tab.DateColumn)

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC, id DESC`,
		strings.Join(columns, ", "), tab.Table, tab.DateColumn)

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", tab.Name, err)
	}
	defer rows.Close()

	var records []listing.Record
	for rows.Next() {
		dest := make([]any, 0, len(tab.Columns)+2)
		var id string
		dest = append(dest, &id)
		values := make([]pgtype.Text, len(tab.Columns))
		for i := range values {
			dest = append(dest, &values[i])
		}
		var stamp pgtype.Timestamptz
		dest = append(dest, &stamp)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", tab.Name, err)
		}

		record := listing.Record{ID: id, Fields: make(map[string]string, len(tab.Columns))}
		for i, column := range tab.Columns {
			if values[i].Valid {
				record.Fields[column] = values[i].String
			}
		}
		if stamp.Valid {
			record.Date = stamp.Time
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
