// Package bigquery implements the transaction store on a BigQuery dataset,
// for deployments where the ledger feeds downstream analysis.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/store"
)

const transactionsTable = "transactions"

// transactionRow mirrors the dataset's transactions table schema.
type transactionRow struct {
	TransactionID   string     `bigquery:"transaction_id"`   // REQUIRED
	UserID          string     `bigquery:"user_id"`          // REQUIRED
	Type            string     `bigquery:"type"`             // REQUIRED
	Amount          float64    `bigquery:"amount"`           // REQUIRED
	Category        string     `bigquery:"category"`         // REQUIRED
	Counterparty    string     `bigquery:"counterparty"`     // NULLABLE
	Note            string     `bigquery:"note"`             // NULLABLE
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED DATE
	CreatedTS       time.Time  `bigquery:"created_ts"`       // REQUIRED (default CURRENT_TIMESTAMP)
}

// Store writes and reads transactions in <project>.<dataset>.transactions.
type Store struct {
	client  *bigquery.Client
	project string
	dataset string
}

// Open creates a BigQuery-backed store. The table must already exist.
func Open(ctx context.Context, project, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	return &Store{client: client, project: project, dataset: dataset}, nil
}

// Insert streams one transaction into the table.
func (s *Store) Insert(ctx context.Context, tx *domain.Transaction) error {
	row := &transactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Category:        tx.Category,
		Counterparty:    tx.Counterparty,
		Note:            tx.Note,
		TransactionDate: civil.DateOf(tx.Date.UTC()),
		CreatedTS:       time.Now().UTC(),
	}

	table := s.client.DatasetInProject(s.project, s.dataset).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, []*transactionRow{row}); err != nil {
		return fmt.Errorf("inserting transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListByUser returns all of a user's transactions, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT transaction_id, user_id, type, amount, category, counterparty, note, transaction_date
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY transaction_date DESC, created_ts DESC
	`, s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	return s.readTransactions(ctx, q)
}

// ListByUserAndRange returns a user's transactions with from <= date < to,
// newest first.
func (s *Store) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT transaction_id, user_id, type, amount, category, counterparty, note, transaction_date
		FROM %s.%s
		WHERE user_id = @user_id
		  AND transaction_date >= @from_date
		  AND transaction_date < @to_date
		ORDER BY transaction_date DESC, created_ts DESC
	`, s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "from_date", Value: civil.DateOf(from.UTC())},
		{Name: "to_date", Value: civil.DateOf(to.UTC())},
	}

	return s.readTransactions(ctx, q)
}

func (s *Store) readTransactions(ctx context.Context, q *bigquery.Query) ([]domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}

	var txs []domain.Transaction
	for {
		var r transactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating transactions: %w", err)
		}
		txs = append(txs, domain.Transaction{
			ID:           r.TransactionID,
			UserID:       r.UserID,
			Type:         domain.TransactionType(r.Type),
			Amount:       r.Amount,
			Category:     r.Category,
			Counterparty: r.Counterparty,
			Note:         r.Note,
			Date:         r.TransactionDate.In(time.UTC),
		})
	}

	return txs, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)
