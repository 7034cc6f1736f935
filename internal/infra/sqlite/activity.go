package sqlite

import (
	"context"
	"fmt"

	"github.com/dvloznov/finsight/internal/domain"
)

func (db *DB) RecordActivity(ctx context.Context, entry domain.ActivityEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO activity_log (activity_id, user_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Action, entry.Details, formatTS(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (db *DB) ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	query := `
		SELECT activity_id, user_id, action, details, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		var created string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Details, &created); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if e.Timestamp, err = parseTS(created); err != nil {
			return nil, fmt.Errorf("parse activity timestamp %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
