package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finsight/internal/store"
)

func (db *DB) GetCashOnHand(ctx context.Context, userID string) (float64, error) {
	var amount float64
	err := db.QueryRowContext(ctx, `SELECT amount FROM cash_on_hand WHERE user_id = ?`, userID).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("cash on hand for %s: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query cash on hand: %w", err)
	}
	return amount, nil
}

func (db *DB) SetCashOnHand(ctx context.Context, userID string, amount float64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cash_on_hand (user_id, amount, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
	`, userID, amount, formatTS(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert cash on hand: %w", err)
	}
	return nil
}
