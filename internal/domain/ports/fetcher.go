package ports

import "context"

// SourceFetcher retrieves the text of a verification source.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
