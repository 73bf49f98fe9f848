// Package lookup provides the optional external-context capability consumed
// by the additional-context stage. The pipeline works without it.
package lookup

import "context"

// Event is one candidate external occurrence a stage may tie to the data.
type Event struct {
	Source      string `json:"source"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Client searches an external event source. Implementations must be safe for
// concurrent use.
type Client interface {
	Search(ctx context.Context, query string) ([]Event, error)
}
