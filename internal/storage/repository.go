package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tracker/internal/core"
	"tracker/internal/ledger"

	_ "modernc.org/sqlite"
)

// DefaultDSN keeps the database in memory for the life of the process.
const DefaultDSN = ":memory:"

// SQLiteRepository implements ledger.Store on top of SQLite. Order is kept by
// an autoincrement sequence so Replace never moves a record.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Prepend(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount_cents, tx_date, description, category) VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.Amount.Cents, tx.Date.String(), tx.Description, string(tx.Category))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)
	return nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, tx_date = ?, description = ?, category = ? WHERE id = ?`,
		tx.Amount.Cents, tx.Date.String(), tx.Description, string(tx.Category), tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, tx_date, description, category FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, tx_date, description, category FROM transactions ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Budget(ctx context.Context) (core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, amount_cents FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	b := core.NewBudget()
	for rows.Next() {
		var (
			cat   string
			cents int64
		)
		if err := rows.Scan(&cat, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b[core.Category(cat)] = core.Money{Cents: cents}
	}
	return b, rows.Err()
}

func (r *SQLiteRepository) SetBudget(ctx context.Context, c core.Category, amount core.Money) error {
	if !c.Valid() {
		return core.ErrUnknownCategory
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category, amount_cents) VALUES (?, ?)
		 ON CONFLICT(category) DO UPDATE SET amount_cents = excluded.amount_cents`,
		string(c), amount.Cents)
	if err != nil {
		return fmt.Errorf("set budget %s: %w", c, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		cents    int64
		date     string
		category string
	)
	if err := s.Scan(&tx.ID, &cents, &date, &tx.Description, &category); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	tx.Amount = core.Money{Cents: cents}
	tx.Date = d
	tx.Category = core.Category(category)
	return tx, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
