package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// QueryError carries the failed statement and its parameters.
type QueryError struct {
	Statement string
	Params    []any
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Executor runs SQL written with ? placeholders against a pool or a transaction.
// Slice arguments are expanded for IN (?) clauses and placeholders are rebound
// to the driver's syntax before execution.
type Executor struct {
	ext    sqlx.ExtContext
	logger *slog.Logger
}

func NewExecutor(ext sqlx.ExtContext, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{ext: ext, logger: logger}
}

// Select scans every returned row into dest, which must be a pointer to a slice.
func (e *Executor) Select(ctx context.Context, dest any, query string, args ...any) error {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return err
	}
	if err := sqlx.SelectContext(ctx, e.ext, dest, q, a...); err != nil {
		return e.fail(q, a, err)
	}
	return nil
}

// Get scans a single row into dest. A query that returns no rows reports false with a nil error.
func (e *Executor) Get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return false, err
	}
	if err := sqlx.GetContext(ctx, e.ext, dest, q, a...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, e.fail(q, a, err)
	}
	return true, nil
}

// Exec runs a statement and returns the number of affected rows.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return 0, err
	}
	result, err := e.ext.ExecContext(ctx, q, a...)
	if err != nil {
		return 0, e.fail(q, a, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, e.fail(q, a, err)
	}
	return n, nil
}

// Query returns every row as a column-name map.
func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return nil, err
	}
	rows, err := e.ext.QueryxContext(ctx, q, a...)
	if err != nil {
		return nil, e.fail(q, a, err)
	}
	defer rows.Close()

	result := []map[string]any{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, e.fail(q, a, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.fail(q, a, err)
	}
	return result, nil
}

func (e *Executor) prepare(query string, args []any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, e.fail(query, args, err)
	}
	return e.ext.Rebind(q), a, nil
}

func (e *Executor) fail(query string, args []any, err error) error {
	e.logger.Error("query failed",
		"statement", query,
		"params", logParams(args),
		"error", err,
	)
	return &QueryError{Statement: query, Params: args, Err: err}
}

// logParams keeps binary payloads out of the log.
func logParams(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		if b, ok := arg.([]byte); ok {
			out[i] = fmt.Sprintf("<%d bytes>", len(b))
			continue
		}
		out[i] = arg
	}
	return out
}
