// Package bigquery implements the store contracts on a BigQuery dataset.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finsight/internal/store"
)

// Table names inside the dataset.
const (
	transactionsTable = "transactions"
	cashTable         = "cash_on_hand"
	activityTable     = "activity_log"
	uploadsTable      = "uploads"
)

var _ store.Repository = (*Repository)(nil)

// Repository holds a shared BigQuery client so that every operation reuses
// one connection.
type Repository struct {
	client    *bigquery.Client
	datasetID string
}

// NewRepository creates a client for projectID and binds it to datasetID.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewRepository: project id is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, datasetID string) *Repository {
	return &Repository{
		client:    client,
		datasetID: datasetID,
	}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func qualifiedTable(projectID, datasetID, name string) string {
	return "`" + projectID + "." + datasetID + "." + name + "`"
}

// runDML runs a statement to completion and returns the number of affected rows.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}
