package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finsight/internal/store"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

// CashRow is one row of the cash_on_hand table, keyed by user.
type CashRow struct {
	UserID    string    `bigquery:"user_id"`
	Amount    *big.Rat  `bigquery:"amount"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

// GetCashOnHand delegates to GetCashOnHandWithClient.
func (r *Repository) GetCashOnHand(ctx context.Context, userID string) (float64, error) {
	return GetCashOnHandWithClient(ctx, r.client, r.datasetID, userID)
}

// GetCashOnHandWithClient returns store.ErrNotFound if the user has no row.
func GetCashOnHandWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string) (float64, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT user_id, amount, updated_ts
		FROM %s
		WHERE user_id = @user_id
		LIMIT 1
	`, qualifiedTable(client.Project(), datasetID, cashTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("GetCashOnHand: reading query: %w", err)
	}

	var row CashRow
	err = it.Next(&row)
	if err == iterator.Done {
		return 0, fmt.Errorf("GetCashOnHand: %s: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("GetCashOnHand: iterating: %w", err)
	}
	if row.Amount == nil {
		return 0, nil
	}
	amount, _ := row.Amount.Float64()
	return amount, nil
}

// SetCashOnHand delegates to SetCashOnHandWithClient.
func (r *Repository) SetCashOnHand(ctx context.Context, userID string, amount float64) error {
	return SetCashOnHandWithClient(ctx, r.client, r.datasetID, userID, amount)
}

// SetCashOnHandWithClient upserts the user's cash row.
func SetCashOnHandWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string, amount float64) error {
	q := client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id, @amount AS amount, @updated_ts AS updated_ts) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN
			UPDATE SET amount = S.amount, updated_ts = S.updated_ts
		WHEN NOT MATCHED THEN
			INSERT (user_id, amount, updated_ts) VALUES (S.user_id, S.amount, S.updated_ts)
	`, qualifiedTable(client.Project(), datasetID, cashTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "amount", Value: decimal.NewFromFloat(amount).Rat()},
		{Name: "updated_ts", Value: time.Now().UTC()},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SetCashOnHand: %w", err)
	}
	return nil
}
