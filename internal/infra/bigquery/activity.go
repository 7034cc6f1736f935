package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finsight/internal/domain"
	"google.golang.org/api/iterator"
)

// ActivityRow is one audit log entry.
type ActivityRow struct {
	ActivityID string              `bigquery:"activity_id"`
	UserID     string              `bigquery:"user_id"`
	Action     string              `bigquery:"action"`
	Details    bigquery.NullString `bigquery:"details"`
	CreatedTS  time.Time           `bigquery:"created_ts"`
}

// RecordActivity delegates to RecordActivityWithClient.
func (r *Repository) RecordActivity(ctx context.Context, entry domain.ActivityEntry) error {
	return RecordActivityWithClient(ctx, r.client, r.datasetID, entry)
}

// RecordActivityWithClient appends one entry using DML so it is immediately
// visible to ListActivity.
func RecordActivityWithClient(ctx context.Context, client *bigquery.Client, datasetID string, entry domain.ActivityEntry) error {
	q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (activity_id, user_id, action, details, created_ts)
		VALUES (@activity_id, @user_id, @action, @details, @created_ts)
	`, qualifiedTable(client.Project(), datasetID, activityTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "activity_id", Value: entry.ID},
		{Name: "user_id", Value: entry.UserID},
		{Name: "action", Value: entry.Action},
		{Name: "details", Value: nullString(entry.Details)},
		{Name: "created_ts", Value: entry.Timestamp},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("RecordActivity: %w", err)
	}
	return nil
}

// ListActivity delegates to ListActivityWithClient.
func (r *Repository) ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	return ListActivityWithClient(ctx, r.client, r.datasetID, userID, limit)
}

// ListActivityWithClient returns the user's entries newest first.
func ListActivityWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string, limit int) ([]domain.ActivityEntry, error) {
	query := fmt.Sprintf(`
		SELECT activity_id, user_id, action, details, created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC
	`, qualifiedTable(client.Project(), datasetID, activityTable))
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	if limit > 0 {
		query += "LIMIT @limit\n"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: limit})
	}

	q := client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActivity: reading query: %w", err)
	}

	var entries []domain.ActivityEntry
	for {
		var row ActivityRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActivity: iterating: %w", err)
		}
		entries = append(entries, domain.ActivityEntry{
			ID:        row.ActivityID,
			UserID:    row.UserID,
			Action:    row.Action,
			Details:   row.Details.StringVal,
			Timestamp: row.CreatedTS,
		})
	}
	return entries, nil
}
