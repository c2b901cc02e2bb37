package ingestor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextier/signal-engine/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sample Wire</title>
    <item>
      <title>Clash reported near Makurdi</title>
      <link>https://example.test/articles/1</link>
      <description>Herders and farmers clashed overnight.</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestRSSScraper_ParsesItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	scraper := NewRSSScraper()
	articles, err := scraper.Scrape(context.Background(), Source{
		Name: "sample-wire",
		URL:  server.URL,
		Type: domain.SourceTypeRSS,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Clash reported near Makurdi", a.Title)
	assert.Equal(t, "https://example.test/articles/1", a.URL)
	assert.Equal(t, "sample-wire", a.Source)
	assert.Equal(t, domain.SourceTypeRSS, a.SourceType)
	assert.NotEmpty(t, a.Fingerprint)
}

func TestRSSScraper_InvalidFeedErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer server.Close()

	scraper := NewRSSScraper()
	_, err := scraper.Scrape(context.Background(), Source{Name: "broken", URL: server.URL})
	assert.Error(t, err)
}
