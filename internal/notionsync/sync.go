package notionsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/internal/store"
)

// PageSize is the number of pages requested per database query.
const PageSize = 100

// SyncResult counts what one export run did.
type SyncResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// SyncTransactions mirrors a user's committed transactions into a Notion database.
// Pages are matched by their "Transaction ID" property: missing transactions get a new
// page, existing ones are refreshed, and pages of the same user whose transaction no
// longer exists are archived. With dryRun nothing is written.
func SyncTransactions(ctx context.Context, repo store.TransactionRepository, notionClient NotionService, notionDBID, userID string, dryRun bool) (SyncResult, error) {
	var result SyncResult
	if notionDBID == "" {
		return result, errors.New("SyncTransactions: notion database id is required")
	}

	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Bool("dry_run", dryRun).
		Logger()

	transactions, err := repo.ListTransactions(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("SyncTransactions: list transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(transactions)).Msg("Starting transaction sync to Notion")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID, userID)
	if err != nil {
		return result, fmt.Errorf("SyncTransactions: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	pageByTxID := make(map[string]string, len(pages))
	for _, page := range pages {
		if txID := extractTransactionID(page); txID != "" {
			pageByTxID[txID] = string(page.ID)
		}
	}

	valid := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("SyncTransactions: %w", err)
		}
		valid[tx.ID] = true
		props := TransactionToNotionProperties(userID, tx)

		if pageID, ok := pageByTxID[tx.ID]; ok {
			if !dryRun {
				if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to update Notion page")
					result.Failed++
					continue
				}
			}
			result.Updated++
			continue
		}

		if !dryRun {
			if _, err := notionClient.CreatePage(ctx, notionDBID, props); err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
				result.Failed++
				continue
			}
		}
		result.Created++
	}

	for _, page := range pages {
		txID := extractTransactionID(page)
		if valid[txID] {
			continue
		}
		if !dryRun {
			if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				result.Failed++
				continue
			}
		}
		result.Archived++
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("archived", result.Archived).
		Int("failed", result.Failed).
		Msg("Transaction sync completed")

	return result, nil
}

// queryAllNotionPages returns every page of the user in the database, following cursors.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID, userID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter: notionapi.PropertyFilter{
				Property: PropUserID,
				RichText: &notionapi.TextFilterCondition{Equals: userID},
			},
			PageSize: PageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
