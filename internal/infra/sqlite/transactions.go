package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
)

func (db *DB) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT transaction_id, transaction_date, description, amount, category, vendor, notes
		FROM transactions
		WHERE user_id = ?
		ORDER BY transaction_date DESC, created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var date string
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &tx.Amount, &tx.Category, &tx.Vendor, &tx.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// InsertTransactions writes the batch in a single SQL transaction.
func (db *DB) InsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transactions: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO transactions (transaction_id, user_id, transaction_date, description, amount, category, vendor, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert transaction: %w", err)
	}
	defer stmt.Close()

	now := formatTS(time.Now())
	for _, tx := range txs {
		if tx.ID == "" {
			return fmt.Errorf("insert transaction %d: missing id", tx.BatchID)
		}
		if _, err := stmt.ExecContext(ctx, tx.ID, userID, tx.Date.Format(dateLayout), tx.Description,
			tx.Amount, tx.Category, tx.Vendor, tx.Notes, now); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit insert transactions: %w", err)
	}
	return nil
}

func (db *DB) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND transaction_id = ?`, userID, transactionID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, store.ErrNotFound)
	}
	return nil
}
