package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// NotionClient reads and writes the pages of a Notion ledger database, one
// page per confirmed transaction.
type NotionClient struct {
	client *notionapi.Client
}

var _ NotionService = (*NotionClient)(nil)

// NewNotionClient authenticates with the integration token shared with the
// ledger database.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage adds a transaction page to the ledger database.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: ledger database %s: %w", databaseID, err)
	}
	return page, nil
}

// UpdatePage overwrites the transaction properties of an existing page.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: transaction page %s: %w", pageID, err)
	}
	return page, nil
}

// QueryDatabase returns one page of ledger rows matching filter.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), filter)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: ledger database %s: %w", databaseID, err)
	}
	return resp, nil
}

// DeletePage archives the page of a transaction that no longer exists in the
// store. Notion has no hard delete.
func (n *NotionClient) DeletePage(ctx context.Context, pageID string) error {
	_, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived: true,
	})
	if err != nil {
		return fmt.Errorf("DeletePage: transaction page %s: %w", pageID, err)
	}
	return nil
}
