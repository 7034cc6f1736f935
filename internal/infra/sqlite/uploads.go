package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
)

func (db *DB) InsertUpload(ctx context.Context, u *store.Upload) error {
	report, err := json.Marshal(u.Report)
	if err != nil {
		return fmt.Errorf("encode upload report: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO uploads (upload_id, user_id, filename, status, total_transactions, imported_count, archive_uri, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.UploadID, u.UserID, u.Filename, u.Status, u.TotalTransactions, u.ImportedCount, u.ArchiveURI, string(report), formatTS(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (db *DB) GetUpload(ctx context.Context, userID, uploadID string) (*store.Upload, error) {
	var u store.Upload
	var report, created string
	var confirmed sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT upload_id, user_id, filename, status, total_transactions, imported_count, archive_uri, report_json, created_at, confirmed_at
		FROM uploads
		WHERE user_id = ? AND upload_id = ?
	`, userID, uploadID).Scan(&u.UploadID, &u.UserID, &u.Filename, &u.Status, &u.TotalTransactions,
		&u.ImportedCount, &u.ArchiveURI, &report, &created, &confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query upload: %w", err)
	}

	if u.CreatedAt, err = parseTS(created); err != nil {
		return nil, fmt.Errorf("parse upload created_at: %w", err)
	}
	if confirmed.Valid {
		ts, err := parseTS(confirmed.String)
		if err != nil {
			return nil, fmt.Errorf("parse upload confirmed_at: %w", err)
		}
		u.ConfirmedAt = &ts
	}

	var r domain.AnalysisReport
	if err := json.Unmarshal([]byte(report), &r); err != nil {
		return nil, fmt.Errorf("decode upload report: %w", err)
	}
	u.Report = &r
	return &u, nil
}

// MarkUploadConfirmed only updates uploads still in the analyzed state.
func (db *DB) MarkUploadConfirmed(ctx context.Context, userID, uploadID string, imported int) error {
	result, err := db.ExecContext(ctx, `
		UPDATE uploads
		SET status = ?, imported_count = ?, confirmed_at = ?
		WHERE user_id = ? AND upload_id = ? AND status = ?
	`, store.UploadStatusConfirmed, imported, formatTS(time.Now()), userID, uploadID, store.UploadStatusAnalyzed)
	if err != nil {
		return fmt.Errorf("confirm upload: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm upload: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("upload %s: %w", uploadID, store.ErrNotFound)
	}
	return nil
}
