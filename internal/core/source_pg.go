package core

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx used by FromQuery.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// FromQuery serves the result of a PostgreSQL query as a table. The header
// is the list of result field names; every value is rendered as text, with
// NULL becoming the empty string.
func FromQuery(q Querier, sql string, args ...any) Source {
	return querySource{q: q, sql: sql, args: args}
}

type querySource struct {
	q    Querier
	sql  string
	args []any
}

func (s querySource) Open(ctx context.Context) (RowReader, error) {
	if s.q == nil {
		return nil, invalidArg("source", "querier is nil")
	}
	if s.sql == "" {
		return nil, invalidArg("source", "query is empty")
	}
	rows, err := s.q.Query(ctx, s.sql, s.args...)
	if err != nil {
		return nil, ioFailure("query", "", err)
	}
	return &pgRowReader{rows: rows}, nil
}

type pgRowReader struct {
	rows       pgx.Rows
	headerSent bool
}

func (r *pgRowReader) Read() ([]string, error) {
	if !r.headerSent {
		r.headerSent = true
		fields := r.rows.FieldDescriptions()
		header := make([]string, len(fields))
		for i, f := range fields {
			header[i] = f.Name
		}
		return header, nil
	}

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, ioFailure("read", "", err)
		}
		return nil, io.EOF
	}

	values, err := r.rows.Values()
	if err != nil {
		return nil, ioFailure("decode", "", err)
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = textValue(v)
	}
	return row, nil
}

func (r *pgRowReader) Close() error {
	r.rows.Close()
	if err := r.rows.Err(); err != nil {
		return ioFailure("close", "", err)
	}
	return nil
}

// textValue renders a decoded pgx value the way it would appear in a CSV export.
func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339Nano)
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		if _, again := dv.(driver.Valuer); again {
			return fmt.Sprint(dv)
		}
		return textValue(dv)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
