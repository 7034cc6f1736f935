// Package migrations embeds the versioned BigQuery schema migrations.
//
// Files are named NNNN_name.sql and may reference {{PROJECT_ID}} and
// {{DATASET_ID}}, which are substituted when they are applied.
package migrations

import "embed"

//go:embed bigquery/*.sql
var BigQuery embed.FS

// BigQueryDir is the directory of BigQuery migrations inside BigQuery.
const BigQueryDir = "bigquery"
