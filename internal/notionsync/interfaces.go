package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService defines the Notion operations the fetcher needs.
// This interface enables mocking of the Notion API in tests.
type NotionService interface {
	// QueryDatabase returns one page of database results starting at req.StartCursor.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}
