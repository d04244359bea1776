package exa

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

const defaultBaseURL = "https://api.exa.ai"

// Search is a semantic provider backed by the Exa neural search API. It
// favors conceptual similarity over lexical match.
type Search struct {
	APIKey  string
	BaseURL string // overridable for tests
}

func (s *Search) Name() string         { return "exa" }
func (s *Search) Source() types.Source { return types.SourceSemantic }

func (s *Search) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	// https://docs.exa.ai/reference/search
	base := s.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	payload, _ := json.Marshal(map[string]any{
		"query":      query,
		"numResults": maxResults,
		"contents":   map[string]any{"text": true},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", base+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exa: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Text    string `json:"text"`
			Summary string `json:"summary"`
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
		content := r.Text
		if content == "" {
			content = r.Summary
		}
		if content == "" {
			continue
		}
		fp := fingerprint.Sum(content)
		out = append(out, types.Document{
			ID:          fp,
			Content:     content,
			Source:      types.SourceSemantic,
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
