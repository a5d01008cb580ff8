package storage

import (
	"context"
	"database/sql"
)

// TransactionRow is a transaction joined with its category title.
type TransactionRow struct {
	ID            string
	Title         string
	ValueCents    int64
	Type          string
	CategoryTitle sql.NullString
	CreatedAt     string
}

const listTransactions = `
SELECT t.id, t.title, t.value_cents, t.type, c.title, t.created_at
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
ORDER BY t.created_at, t.rowid
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []TransactionRow{}
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Title, &i.ValueCents, &i.Type, &i.CategoryTitle, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumByType = `
SELECT
    COALESCE(SUM(CASE WHEN type = 'income' THEN value_cents END), 0),
    COALESCE(SUM(CASE WHEN type = 'outcome' THEN value_cents END), 0)
FROM transactions
`

func (q *Queries) SumByType(ctx context.Context) (income, outcome int64, err error) {
	err = q.db.QueryRowContext(ctx, sumByType).Scan(&income, &outcome)
	return income, outcome, err
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const insertCategory = `INSERT OR IGNORE INTO categories (title) VALUES (?)`

const getCategoryID = `SELECT id FROM categories WHERE title = ?`

// EnsureCategory returns the id of the category with title, creating it if needed.
func (q *Queries) EnsureCategory(ctx context.Context, title string) (int64, error) {
	if _, err := q.db.ExecContext(ctx, insertCategory, title); err != nil {
		return 0, err
	}
	var id int64
	err := q.db.QueryRowContext(ctx, getCategoryID, title).Scan(&id)
	return id, err
}

// CreateTransactionParams are the columns of a new transaction.
type CreateTransactionParams struct {
	ID         string
	Title      string
	ValueCents int64
	Type       string
	CategoryID sql.NullInt64
	CreatedAt  string
}

const createTransaction = `
INSERT INTO transactions (id, title, value_cents, type, category_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.Title, arg.ValueCents, arg.Type, arg.CategoryID, arg.CreatedAt)
	return err
}
