package ingestor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextier/signal-engine/internal/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Fallback Title</title></head>
<body>
  <h1>Security incident reported in Jos North</h1>
  <article>Armed men attacked a convoy near Jos North on Tuesday.</article>
</body>
</html>`

func TestHTMLScraper_ExtractsTitleAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	scraper := NewHTMLScraper(5 * time.Second)
	articles, err := scraper.Scrape(context.Background(), Source{
		Name: "local-daily",
		URL:  server.URL,
		Type: domain.SourceTypeWeb,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Security incident reported in Jos North", a.Title)
	assert.Contains(t, a.Content, "convoy near Jos North")
	assert.Equal(t, domain.SourceTypeWeb, a.SourceType)
}

func TestHTMLScraper_NonOKStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	scraper := NewHTMLScraper(5 * time.Second)
	_, err := scraper.Scrape(context.Background(), Source{Name: "missing", URL: server.URL})
	assert.Error(t, err)
}
