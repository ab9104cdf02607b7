package mocks

import "context"

// SourceFetcher is a mock implementation of ports.SourceFetcher.
type SourceFetcher struct {
	Text string
	Err  error

	// Call tracking
	FetchedURLs []string
}

// Fetch returns the configured text or error.
func (m *SourceFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.FetchedURLs = append(m.FetchedURLs, url)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
