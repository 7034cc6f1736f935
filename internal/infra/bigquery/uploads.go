package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
	"google.golang.org/api/iterator"
)

// UploadRow is one staged upload. The analysis report is kept as JSON text.
type UploadRow struct {
	UploadID          string                 `bigquery:"upload_id"`
	UserID            string                 `bigquery:"user_id"`
	Filename          string                 `bigquery:"filename"`
	Status            string                 `bigquery:"status"`
	TotalTransactions int64                  `bigquery:"total_transactions"`
	ImportedCount     int64                  `bigquery:"imported_count"`
	ArchiveURI        bigquery.NullString    `bigquery:"archive_uri"`
	ReportJSON        string                 `bigquery:"report_json"`
	CreatedTS         time.Time              `bigquery:"created_ts"`
	ConfirmedTS       bigquery.NullTimestamp `bigquery:"confirmed_ts"`
}

func (r *UploadRow) toStore() (*store.Upload, error) {
	u := &store.Upload{
		UploadID:          r.UploadID,
		UserID:            r.UserID,
		Filename:          r.Filename,
		Status:            r.Status,
		TotalTransactions: int(r.TotalTransactions),
		ImportedCount:     int(r.ImportedCount),
		ArchiveURI:        r.ArchiveURI.StringVal,
		CreatedAt:         r.CreatedTS,
	}
	if r.ConfirmedTS.Valid {
		ts := r.ConfirmedTS.Timestamp
		u.ConfirmedAt = &ts
	}
	if r.ReportJSON != "" {
		var report domain.AnalysisReport
		if err := json.Unmarshal([]byte(r.ReportJSON), &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		u.Report = &report
	}
	return u, nil
}

// InsertUpload delegates to InsertUploadWithClient.
func (r *Repository) InsertUpload(ctx context.Context, upload *store.Upload) error {
	return InsertUploadWithClient(ctx, r.client, r.datasetID, upload)
}

// InsertUploadWithClient stages an analyzed upload. DML is used instead of
// streaming so the row can be updated on confirmation right away.
func InsertUploadWithClient(ctx context.Context, client *bigquery.Client, datasetID string, upload *store.Upload) error {
	report, err := json.Marshal(upload.Report)
	if err != nil {
		return fmt.Errorf("InsertUpload: encode report: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			upload_id, user_id, filename, status,
			total_transactions, imported_count, archive_uri,
			report_json, created_ts
		)
		VALUES (
			@upload_id, @user_id, @filename, @status,
			@total_transactions, 0, @archive_uri,
			@report_json, @created_ts
		)
	`, qualifiedTable(client.Project(), datasetID, uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "upload_id", Value: upload.UploadID},
		{Name: "user_id", Value: upload.UserID},
		{Name: "filename", Value: upload.Filename},
		{Name: "status", Value: upload.Status},
		{Name: "total_transactions", Value: upload.TotalTransactions},
		{Name: "archive_uri", Value: nullString(upload.ArchiveURI)},
		{Name: "report_json", Value: string(report)},
		{Name: "created_ts", Value: upload.CreatedAt},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertUpload: %w", err)
	}
	return nil
}

// GetUpload delegates to GetUploadWithClient.
func (r *Repository) GetUpload(ctx context.Context, userID, uploadID string) (*store.Upload, error) {
	return GetUploadWithClient(ctx, r.client, r.datasetID, userID, uploadID)
}

// GetUploadWithClient loads a staged upload owned by userID.
func GetUploadWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID, uploadID string) (*store.Upload, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			upload_id, user_id, filename, status,
			total_transactions, imported_count, archive_uri,
			report_json, created_ts, confirmed_ts
		FROM %s
		WHERE user_id = @user_id
		  AND upload_id = @upload_id
		LIMIT 1
	`, qualifiedTable(client.Project(), datasetID, uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "upload_id", Value: uploadID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetUpload: reading query: %w", err)
	}

	var row UploadRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetUpload: %s: %w", uploadID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUpload: iterating: %w", err)
	}

	u, err := row.toStore()
	if err != nil {
		return nil, fmt.Errorf("GetUpload: %w", err)
	}
	return u, nil
}

// MarkUploadConfirmed delegates to MarkUploadConfirmedWithClient.
func (r *Repository) MarkUploadConfirmed(ctx context.Context, userID, uploadID string, imported int) error {
	return MarkUploadConfirmedWithClient(ctx, r.client, r.datasetID, userID, uploadID, imported)
}

// MarkUploadConfirmedWithClient flips a staged upload to confirmed. Only
// uploads still in the analyzed state are updated.
func MarkUploadConfirmedWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID, uploadID string, imported int) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @confirmed,
		    imported_count = @imported_count,
		    confirmed_ts = @confirmed_ts
		WHERE user_id = @user_id
		  AND upload_id = @upload_id
		  AND status = @analyzed
	`, qualifiedTable(client.Project(), datasetID, uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "confirmed", Value: store.UploadStatusConfirmed},
		{Name: "analyzed", Value: store.UploadStatusAnalyzed},
		{Name: "imported_count", Value: imported},
		{Name: "confirmed_ts", Value: time.Now().UTC()},
		{Name: "user_id", Value: userID},
		{Name: "upload_id", Value: uploadID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("MarkUploadConfirmed: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("MarkUploadConfirmed: %s: %w", uploadID, store.ErrNotFound)
	}
	return nil
}
