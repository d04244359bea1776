package providers

import (
	"context"
	"fmt"

	"github.com/aulalabs/aula/rag/providers/exa"
	"github.com/aulalabs/aula/rag/providers/scrape"
	"github.com/aulalabs/aula/rag/providers/tavily"
	"github.com/aulalabs/aula/rag/types"
)

// Provider exposes one external search or scrape integration behind a
// uniform contract. Implementations tag the documents they return with
// their own source.
type Provider interface {
	Name() string
	Source() types.Source
	Search(ctx context.Context, query string, maxResults int) ([]types.Document, error)
}

type Kind string

const (
	TavilyProvider Kind = "tavily"
	ExaProvider    Kind = "exa"
	ScrapeProvider Kind = "scrape"
)

// Config carries the credentials and knobs each provider constructor needs.
// No provider reads process-wide state.
type Config struct {
	TavilyAPIKey string
	ExaAPIKey    string

	// ScrapeSources are authoritative page or sitemap URLs the deep
	// scraper draws from.
	ScrapeSources []string
}

func New(kind Kind, cfg Config) (Provider, error) {
	switch kind {
	case TavilyProvider:
		return &tavily.Search{APIKey: cfg.TavilyAPIKey}, nil
	case ExaProvider:
		return &exa.Search{APIKey: cfg.ExaAPIKey}, nil
	case ScrapeProvider:
		return scrape.New(cfg.ScrapeSources), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", kind)
	}
}
