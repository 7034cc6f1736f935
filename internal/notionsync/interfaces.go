// Package notionsync exports a user's confirmed transactions to a Notion database.
package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService defines the subset of the Notion API used by the exporter.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// DeletePage archives a page.
	DeletePage(ctx context.Context, pageID string) error
}
