package traversal

import (
	"context"

	"github.com/danielolaszy/starburst/pkg/models"
)

// IssueStore is the narrow contract the engine needs from an issue tracker.
// Implementations own pagination, retries, timeouts and authentication.
type IssueStore interface {
	// SearchByQuery returns every issue matching criteria, including links.
	SearchByQuery(ctx context.Context, criteria models.SearchCriteria) ([]models.RawIssue, error)

	// FetchByKeys returns the issues for keys. Unknown keys are ignored.
	FetchByKeys(ctx context.Context, keys []string) ([]models.RawIssue, error)
}
