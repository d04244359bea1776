package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aulalabs/aula/pkg/fingerprint"
	"github.com/aulalabs/aula/rag/types"
	"github.com/mudler/xlog"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
	"golang.org/x/time/rate"
	"jaytaylor.com/html2text"
)

const (
	maxPageChars = 20000
	cacheTTL     = 24 * time.Hour
)

// Scraper is a depth-oriented provider. It fetches a small set of
// authoritative pages derived from its configured sources and extracts
// their text content. Sitemap URLs are expanded into the pages whose
// location matches the query.
type Scraper struct {
	sources []string
	client  *http.Client
	limiter *rate.Limiter
	cache   *pageCache
}

func New(sources []string) *Scraper {
	return &Scraper{
		sources: sources,
		client:  &http.Client{Timeout: 15 * time.Second},
		// Politeness cap towards the scraped sites.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		cache:   newPageCache(cacheTTL),
	}
}

func (s *Scraper) Name() string         { return "scrape" }
func (s *Scraper) Source() types.Source { return types.SourceDeepScrape }

func (s *Scraper) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	urls := s.candidateURLs(ctx, query, maxResults)

	var out []types.Document
	for _, u := range urls {
		if len(out) >= maxResults {
			break
		}
		content, err := s.fetchPage(ctx, u)
		if err != nil {
			xlog.Warn("Failed to scrape page", "url", u, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		fp := fingerprint.Sum(content)
		out = append(out, types.Document{
			ID:          fp,
			Content:     content,
			Source:      types.SourceDeepScrape,
			Fingerprint: fp,
			Metadata: map[string]string{
				"url":          u,
				"query":        query,
				"retrieved_at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	}
	return out, nil
}

// candidateURLs expands the configured sources into up to maxResults page
// URLs. Sitemaps contribute the entries whose location matches a query
// term, plain URLs contribute themselves.
func (s *Scraper) candidateURLs(ctx context.Context, query string, maxResults int) []string {
	terms := queryTerms(query)

	var urls []string
	for _, src := range s.sources {
		if len(urls) >= maxResults {
			break
		}
		if !strings.HasSuffix(src, "sitemap.xml") {
			urls = append(urls, src)
			continue
		}

		err := sitemap.ParseFromSite(src, func(e sitemap.Entry) error {
			if len(urls) >= maxResults {
				return io.EOF
			}
			if matchesTerms(e.GetLocation(), terms) {
				urls = append(urls, e.GetLocation())
			}
			return nil
		})
		if err != nil && err != io.EOF {
			xlog.Warn("Failed to walk sitemap", "url", src, "error", err)
		}
	}
	return urls
}

func (s *Scraper) fetchPage(ctx context.Context, url string) (string, error) {
	if content, ok := s.cache.get(url); ok {
		return content, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape: unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	content, err := html2text.FromString(string(body), html2text.Options{PrettyTables: true})
	if err != nil {
		return "", err
	}
	if len(content) > maxPageChars {
		cut := maxPageChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	s.cache.put(url, content)
	return content, nil
}

func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, "¿?¡!.,:;\"'()")
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

func matchesTerms(url string, terms []string) bool {
	lowered := strings.ToLower(url)
	for _, t := range terms {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}
