package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aulalabs/aula/pkg/fingerprint"
	"github.com/aulalabs/aula/rag/types"
)

const defaultBaseURL = "https://api.tavily.com"

// Search is a breadth-oriented provider backed by the Tavily search API.
type Search struct {
	APIKey  string
	BaseURL string // overridable for tests
}

func (s *Search) Name() string         { return "tavily" }
func (s *Search) Source() types.Source { return types.SourceBreadth }

func (s *Search) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	// https://docs.tavily.com/docs/rest-api/api-reference
	base := s.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	payload, _ := json.Marshal(map[string]any{
		"api_key":      s.APIKey,
		"query":        query,
		"search_depth": "advanced",
		"max_results":  maxResults,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", base+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []types.Document
	for i, r := range raw.Results {
		if i >= maxResults {
			break
		}
		if r.Content == "" {
			continue
		}
		fp := fingerprint.Sum(r.Content)
		out = append(out, types.Document{
			ID:          fp,
			Content:     r.Content,
			Source:      types.SourceBreadth,
			Fingerprint: fp,
			Metadata: map[string]string{
				"title":        r.Title,
				"url":          r.URL,
				"query":        query,
				"retrieved_at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	}
	return out, nil
}
