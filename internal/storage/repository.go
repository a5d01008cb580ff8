// Package storage persists transactions for the reference backend in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gofinances/internal/core"

	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed width so that text ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// NewTransaction is the input of CreateTransaction. A zero CreatedAt means now.
type NewTransaction struct {
	Title     string
	Value     core.Money
	Type      core.TransactionType
	Category  string
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListTransactions returns every transaction ordered by creation time, then
// insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.listTransactions(ctx, r.queries)
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, q *Queries) ([]core.Transaction, error) {
	rows, err := q.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Transaction{
			ID:        row.ID,
			Title:     row.Title,
			Value:     core.NewNullMoney(row.ValueCents),
			Type:      core.TransactionType(row.Type),
			Category:  core.Category{Title: row.CategoryTitle.String},
			CreatedAt: core.ParseTimestamp(row.CreatedAt),
		})
	}
	return out, nil
}

// Balance sums income and outcome; total is income minus outcome.
func (r *SQLiteRepository) Balance(ctx context.Context) (core.Balance, error) {
	return r.balance(ctx, r.queries)
}

func (r *SQLiteRepository) balance(ctx context.Context, q *Queries) (core.Balance, error) {
	income, outcome, err := q.SumByType(ctx)
	if err != nil {
		return core.Balance{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Balance{
		Income:  core.NewNullMoney(income),
		Outcome: core.NewNullMoney(outcome),
		Total:   core.NewNullMoney(income - outcome),
	}, nil
}

// FetchTransactions reads transactions and balance from one snapshot, so the
// two always agree.
func (r *SQLiteRepository) FetchTransactions(ctx context.Context) (core.Result, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Result{}, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	txs, err := r.listTransactions(ctx, q)
	if err != nil {
		return core.Result{}, err
	}
	bal, err := r.balance(ctx, q)
	if err != nil {
		return core.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Result{}, fmt.Errorf("commit read: %w", err)
	}
	return core.Result{Transactions: txs, Balance: bal}, nil
}

// CreateTransaction validates and stores a transaction with a fresh UUID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, in NewTransaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	created, err := r.createTransaction(ctx, r.queries.WithTx(tx), in)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", created.ID,
		"title", created.Title,
		"value_cents", created.Value.Cents,
		"type", created.Type)
	return created, nil
}

func (r *SQLiteRepository) createTransaction(ctx context.Context, q *Queries, in NewTransaction) (core.Transaction, error) {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	createdAt = createdAt.UTC()

	t := core.Transaction{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Value:     core.NewNullMoney(in.Value.Cents),
		Type:      in.Type,
		Category:  core.Category{Title: strings.TrimSpace(in.Category)},
		CreatedAt: core.NewTimestamp(createdAt),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	var categoryID sql.NullInt64
	if t.Category.Title != "" {
		id, err := q.EnsureCategory(ctx, t.Category.Title)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("ensure category %q: %w", t.Category.Title, err)
		}
		categoryID = sql.NullInt64{Int64: id, Valid: true}
	}

	err := q.CreateTransaction(ctx, CreateTransactionParams{
		ID:         t.ID,
		Title:      t.Title,
		ValueCents: t.Value.Cents,
		Type:       string(t.Type),
		CategoryID: categoryID,
		CreatedAt:  createdAt.Format(createdAtLayout),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// DemoTransactions is the data SeedDemo inserts.
func DemoTransactions() []NewTransaction {
	return []NewTransaction{
		{Title: "Desenvolvimento de site", Value: core.Money{Cents: 1200000}, Type: core.Income, Category: "Venda", CreatedAt: time.Date(2021, 2, 13, 12, 0, 0, 0, time.UTC)},
		{Title: "Hamburgueria Pizzy", Value: core.Money{Cents: 5900}, Type: core.Outcome, Category: "Alimentação", CreatedAt: time.Date(2021, 2, 10, 20, 30, 0, 0, time.UTC)},
		{Title: "Aluguel do apartamento", Value: core.Money{Cents: 120000}, Type: core.Outcome, Category: "Casa", CreatedAt: time.Date(2021, 2, 27, 9, 0, 0, 0, time.UTC)},
		{Title: "Computador", Value: core.Money{Cents: 540000}, Type: core.Income, Category: "Venda", CreatedAt: time.Date(2021, 3, 15, 15, 45, 0, 0, time.UTC)},
	}
}

// SeedDemo inserts the demo transactions when the table is empty and returns
// how many rows it added.
func (r *SQLiteRepository) SeedDemo(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	n, err := q.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Skipping demo seed, transactions present", "count", n)
		return 0, nil
	}

	demo := DemoTransactions()
	for _, in := range demo {
		if _, err := r.createTransaction(ctx, q, in); err != nil {
			return 0, fmt.Errorf("seed %q: %w", in.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Demo transactions seeded", "count", len(demo))
	return len(demo), nil
}
