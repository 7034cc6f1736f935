package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/finsight/internal/domain"
)

// Property names of the transactions database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropUserID        = "User ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCategory      = "Category"
	PropVendor        = "Vendor"
	PropNotes         = "Notes"
	PropType          = "Type"
)

// TransactionToNotionProperties maps a committed transaction onto the database's properties.
func TransactionToNotionProperties(userID string, tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		PropDescription:   notionapi.TitleProperty{Title: richText(tx.Description)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
		PropUserID:        notionapi.RichTextProperty{RichText: richText(userID)},
		PropAmount:        notionapi.NumberProperty{Number: tx.Amount},
		PropType:          notionapi.SelectProperty{Select: notionapi.Option{Name: transactionType(tx)}},
	}

	if !tx.Date.IsZero() {
		d := notionapi.Date(tx.Date)
		props[PropDate] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
	}

	category := tx.Category
	if category == "" {
		category = domain.CategoryOperations
	}
	props[PropCategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: category}}

	if tx.Vendor != "" {
		props[PropVendor] = notionapi.RichTextProperty{RichText: richText(tx.Vendor)}
	}
	if tx.Notes != "" {
		props[PropNotes] = notionapi.RichTextProperty{RichText: richText(tx.Notes)}
	}

	return props
}

func transactionType(tx domain.Transaction) string {
	if tx.IsExpense() {
		return "Expense"
	}
	return "Revenue"
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// extractTransactionID reads the "Transaction ID" property of a page, or "" when absent.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}
