package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
	"google.golang.org/api/iterator"
)

// InsertTransactions delegates to InsertTransactionsWithClient.
func (r *Repository) InsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error {
	return InsertTransactionsWithClient(ctx, r.client, r.datasetID, userID, txs)
}

// InsertTransactionsWithClient streams a batch of transactions into the
// transactions table.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" {
			return fmt.Errorf("InsertTransactions: transaction %d has no id", tx.BatchID)
		}
		rows = append(rows, NewTransactionRow(userID, tx, now))
	}

	inserter := client.Dataset(datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// ListTransactions delegates to ListTransactionsWithClient.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.datasetID, userID)
}

// ListTransactionsWithClient returns every transaction of a user, newest first.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string) ([]domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			transaction_date,
			description,
			amount,
			category,
			vendor,
			notes,
			created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY transaction_date DESC, created_ts DESC
	`, qualifiedTable(client.Project(), datasetID, transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		txs = append(txs, row.ToDomain())
	}
	return txs, nil
}

// DeleteTransaction delegates to DeleteTransactionWithClient.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return DeleteTransactionWithClient(ctx, r.client, r.datasetID, userID, transactionID)
}

// DeleteTransactionWithClient deletes one transaction owned by userID.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID, transactionID string) error {
	q := client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = @user_id
		  AND transaction_id = @transaction_id
	`, qualifiedTable(client.Project(), datasetID, transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteTransaction: %s: %w", transactionID, store.ErrNotFound)
	}
	return nil
}
