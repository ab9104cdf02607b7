// Package fetcher downloads verification sources and extracts their readable text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ersonp/legis/internal/infrastructure/config"
)

// Fetcher retrieves verification_url pages over HTTP.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// New creates a Fetcher from cfg.
func New(cfg config.FetcherConfig) *Fetcher {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		maxBytes:  maxBytes,
		userAgent: cfg.UserAgent,
	}
}

// Fetch returns the text content of rawURL. HTML pages are reduced to their
// visible text; other content types are returned as is.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	text := string(body)
	if isHTML(resp.Header.Get("Content-Type")) {
		text = extractText(text)
	} else {
		text = strings.Join(strings.Fields(text), " ")
	}
	if text == "" {
		return "", errors.New("no text content found")
	}
	return text, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true,
}

// extractText walks the parsed document and joins its text nodes.
func extractText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}
