// Package storage persists users and transactions in SQLite and runs the
// aggregation queries the API serves. Every exported operation touches at
// most one row or runs one read statement, so per-row atomicity comes from
// SQLite itself; no multi-statement transactions are needed.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the SQLite database at dbPath and
// applies pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive. Used by the readiness
// probe.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- users ---

// CreateUser inserts a new account. The email must be unique; a duplicate
// yields a ConflictError whether it is caught by the pre-check or by the
// UNIQUE constraint racing a concurrent registration.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	var existing int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	switch {
	case err == nil:
		return core.User{}, &core.ConflictError{Msg: "Email already registered"}
	case !errors.Is(err, sql.ErrNoRows):
		return core.User{}, &core.StoreError{Op: "check email", Err: err}
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)",
		name, email, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return core.User{}, &core.ConflictError{Msg: "Email already registered"}
		}
		return core.User{}, &core.StoreError{Op: "create user", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, &core.StoreError{Op: "create user", Err: err}
	}

	slog.InfoContext(ctx, "User created", "id", id, "email", email)
	return core.User{ID: id, Name: name, Email: email, PasswordHash: passwordHash}, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE email = ?", email))
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE id = ?", id))
}

func (r *Repository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, &core.NotFoundError{Msg: "User not found"}
	}
	if err != nil {
		return core.User{}, &core.StoreError{Op: "get user", Err: err}
	}
	return u, nil
}

// UpdateUserPassword replaces the stored hash. Previously issued tokens stay
// valid; tokens are stateless and carry no revocation epoch.
func (r *Repository) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return &core.StoreError{Op: "update password", Err: err}
	}
	if n, err := res.RowsAffected(); err != nil {
		return &core.StoreError{Op: "update password", Err: err}
	} else if n == 0 {
		return &core.NotFoundError{Msg: "User not found"}
	}
	return nil
}

// --- transactions ---

const txColumns = "id, user_id, type, category, amount_cents, tx_date, description"

// CreateTransaction persists a validated transaction owned by tx.UserID and
// returns the new row id.
func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions (user_id, type, category, amount_cents, tx_date, description) VALUES (?, ?, ?, ?, ?, ?)",
		tx.UserID, string(tx.Type), tx.Category, tx.Amount.Cents, tx.Date.String(), nullableString(tx.Description))
	if err != nil {
		return 0, &core.StoreError{Op: "create transaction", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Op: "create transaction", Err: err}
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id, "user_id", tx.UserID, "type", tx.Type, "amount_cents", tx.Amount.Cents)
	return id, nil
}

// ListTransactions returns the user's transactions ordered by date
// descending, ties broken by id descending (most recently entered first
// among same-date rows). An invalid filter means no filter.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, typeFilter core.TxType) ([]core.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE user_id = ?"
	args := []any{userID}
	if typeFilter.Valid() {
		query += " AND type = ?"
		args = append(args, string(typeFilter))
	}
	query += " ORDER BY tx_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "list transactions", Err: err}
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// RecentTransactions returns at most limit rows in List order. Callers are
// expected to clamp limit before reaching the store.
func (r *Repository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE user_id = ? ORDER BY tx_date DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, &core.StoreError{Op: "recent transactions", Err: err}
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ? AND user_id = ?", id, userID)

	tx, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Msg: "Not found"}
	}
	if err != nil {
		return core.Transaction{}, &core.StoreError{Op: "get transaction", Err: err}
	}
	return tx, nil
}

// UpdateTransaction writes a full merged record back. The merge itself
// happens in the service; here the row is replaced atomically, last write
// wins.
func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET type = ?, category = ?, amount_cents = ?, tx_date = ?, description = ? WHERE id = ? AND user_id = ?",
		string(tx.Type), tx.Category, tx.Amount.Cents, tx.Date.String(), nullableString(tx.Description), tx.ID, tx.UserID)
	if err != nil {
		return &core.StoreError{Op: "update transaction", Err: err}
	}
	if n, err := res.RowsAffected(); err != nil {
		return &core.StoreError{Op: "update transaction", Err: err}
	} else if n == 0 {
		return &core.NotFoundError{Msg: "Not found"}
	}
	return nil
}

// DeleteTransaction removes the row permanently; no history is retained.
// Rows owned by other users are invisible here, so deleting someone else's
// id reports NotFound and leaves their row untouched.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return &core.StoreError{Op: "delete transaction", Err: err}
	}
	if n, err := res.RowsAffected(); err != nil {
		return &core.StoreError{Op: "delete transaction", Err: err}
	} else if n == 0 {
		return &core.NotFoundError{Msg: "Not found"}
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

// --- aggregation ---

// Summary returns all-time income and expense totals plus their difference.
// A user with no transactions gets all zeros.
func (r *Repository) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	var income, expense int64
	err := r.db.QueryRowContext(ctx, `
		SELECT
		  COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ?`, userID).Scan(&income, &expense)
	if err != nil {
		return core.Summary{}, &core.StoreError{Op: "summary", Err: err}
	}
	return core.Summary{
		Income:  core.Money{Cents: income},
		Expense: core.Money{Cents: expense},
		Balance: core.Money{Cents: income - expense},
	}, nil
}

// ByMonth groups transactions dated on or after since (YYYY-MM-DD) by
// calendar year-month, ascending. Months with no transactions produce no
// row; the series may have gaps.
func (r *Repository) ByMonth(ctx context.Context, userID int64, since core.Date) ([]core.MonthlyPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(tx_date, 1, 7) AS ym,
		  SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END),
		  SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END)
		FROM transactions
		WHERE user_id = ? AND tx_date >= ?
		GROUP BY ym
		ORDER BY ym`, userID, since.String())
	if err != nil {
		return nil, &core.StoreError{Op: "by month", Err: err}
	}
	defer rows.Close()

	var points []core.MonthlyPoint
	for rows.Next() {
		var p core.MonthlyPoint
		var income, expense int64
		if err := rows.Scan(&p.YM, &income, &expense); err != nil {
			return nil, &core.StoreError{Op: "by month", Err: err}
		}
		p.Income = core.Money{Cents: income}
		p.Expense = core.Money{Cents: expense}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "by month", Err: err}
	}
	return points, nil
}

// --- scanning helpers ---

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, &core.StoreError{Op: "scan transaction", Err: err}
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "scan transactions", Err: err}
	}
	return txs, nil
}

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var (
		tx       core.Transaction
		typ      string
		cents    int64
		dateStr  string
		descNull sql.NullString
	)
	if err := scan(&tx.ID, &tx.UserID, &typ, &tx.Category, &cents, &dateStr, &descNull); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TxType(typ)
	tx.Amount = core.Money{Cents: cents}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored tx_date %q: %w", dateStr, err)
	}
	tx.Date = date
	tx.Description = descNull.String
	return tx, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
