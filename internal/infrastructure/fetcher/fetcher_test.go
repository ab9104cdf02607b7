package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/infrastructure/config"
)

func newFetcher() *Fetcher {
	return New(config.FetcherConfig{Timeout: 5 * time.Second, MaxBytes: 1 << 20, UserAgent: "legis-test"})
}

func TestFetcher_Fetch_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "legis-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><style>p{}</style><script>var x = 1;</script></head>
<body><nav>Meniu</nav><h1>HG 1506/2024</h1>
<p>Salariul minim brut pe țară garantat în plată se stabilește la <b>4.050 lei</b> lunar.</p></body></html>`))
	}))
	defer srv.Close()

	text, err := newFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "HG 1506/2024 Salariul minim brut pe țară garantat în plată se stabilește la 4.050 lei lunar.", text)
}

func TestFetcher_Fetch_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  cota standard TVA:\n 19% <nu e html>  "))
	}))
	defer srv.Close()

	text, err := newFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "cota standard TVA: 19% <nu e html>", text)
}

func TestFetcher_Fetch_TruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	f := New(config.FetcherConfig{Timeout: time.Second, MaxBytes: 10})
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, text, 10)
}

func TestFetcher_Fetch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><script>only()</script></html>"))
		}
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		url    string
		errMsg string
	}{
		{"unsupported scheme", "ftp://example.com/file", "unsupported scheme"},
		{"no scheme", "example.com", "unsupported scheme"},
		{"http error", srv.URL + "/missing", "HTTP 404"},
		{"no text", srv.URL + "/empty", "no text content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFetcher().Fetch(context.Background(), tt.url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestIsHTML(t *testing.T) {
	assert.True(t, isHTML(""))
	assert.True(t, isHTML("text/html; charset=utf-8"))
	assert.True(t, isHTML("application/xhtml+xml"))
	assert.False(t, isHTML("text/plain"))
	assert.False(t, isHTML("application/json"))
}
