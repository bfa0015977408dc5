// Package txn runs ordered statement lists as single all-or-nothing SQLite
// transactions.
package txn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/mealdb/internal/logging"
)

// Beginner starts transactions. *store.Handle satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Executor applies transactions against an open store.
type Executor struct {
	logger *slog.Logger
}

// New creates an Executor. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Executor {
	return &Executor{logger: logging.With(logger, "txn")}
}

// Run applies stmts in order inside one transaction.
//
// On the first failing statement the transaction is rolled back and a
// *TxError carrying that statement's index is returned. On success the
// Outcome holds one Result per statement.
//
// Once the transaction has begun it runs to commit or rollback even if ctx
// is canceled; cancellation is only honoured before the first statement.
func (e *Executor) Run(ctx context.Context, b Beginner, stmts []Statement) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, &TxError{Index: 0, Cause: err}
	}
	ctx = context.WithoutCancel(ctx)

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, &TxError{Index: 0, Cause: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback() // No-op if committed

	out := Outcome{Results: make([]Result, len(stmts))}
	for i, stmt := range stmts {
		res, err := apply(ctx, tx, stmt)
		if err != nil {
			e.logger.Debug("statement failed, rolling back", "index", i, "kind", stmt.Kind, "error", err)
			return Outcome{}, &TxError{Index: i, Cause: err}
		}
		out.Results[i] = res
	}

	if err := tx.Commit(); err != nil {
		return Outcome{}, &TxError{Index: len(stmts), Cause: fmt.Errorf("commit: %w", err)}
	}
	e.logger.Debug("transaction committed", "statements", len(stmts))
	return out, nil
}

func apply(ctx context.Context, tx *sql.Tx, stmt Statement) (Result, error) {
	switch stmt.Kind {
	case KindExec:
		r, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return Result{}, err
		}
		n, err := r.RowsAffected()
		if err != nil {
			n = 0
		}
		return Result{RowsAffected: n}, nil
	case KindQuery:
		return query(ctx, tx, stmt)
	default:
		return Result{}, fmt.Errorf("unknown statement kind %v", stmt.Kind)
	}
}

func query(ctx context.Context, tx *sql.Tx, stmt Statement) (Result, error) {
	rows, err := tx.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	res := Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}
