// Package sqlite implements the transaction store and the user table on a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/store"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB connection.
type Store struct {
	conn *sql.DB
}

// Open opens the database at path and runs migrations. Use ":memory:" for an
// ephemeral database in tests.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			amount REAL NOT NULL,
			category TEXT NOT NULL,
			counterparty TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			date DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date
			ON transactions(user_id, date)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			business_name TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL DEFAULT 'UGX',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}

	return nil
}

// Insert writes a committed transaction.
func (s *Store) Insert(ctx context.Context, tx *domain.Transaction) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category, counterparty, note, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount, tx.Category, tx.Counterparty, tx.Note, tx.Date.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListByUser returns all of a user's transactions, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, type, amount, category, counterparty, note, date
		 FROM transactions WHERE user_id = ? ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByUserAndRange returns a user's transactions with from <= date < to,
// newest first.
func (s *Store) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, type, amount, category, counterparty, note, date
		 FROM transactions WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date DESC`,
		userID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions by range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var typ string
		if err := rows.Scan(&tx.ID, &tx.UserID, &typ, &tx.Amount, &tx.Category, &tx.Counterparty, &tx.Note, &tx.Date); err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		tx.Type = domain.TransactionType(typ)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

var _ store.Store = (*Store)(nil)
