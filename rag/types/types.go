package types

// Source identifies where a document came from.
type Source string

const (
	SourceLocal      Source = "local"
	SourceBreadth    Source = "breadth-search"
	SourceSemantic   Source = "semantic-search"
	SourceDeepScrape Source = "deep-scrape"
)

// MaxDistance is the distance reported for an empty or unqueryable index.
// Distances are 1 - cosine similarity, so the range is [0, 2].
const MaxDistance float32 = 2.0

// Document is a single retrievable unit of knowledge. Documents are
// immutable after creation; superseded content becomes a new entry.
type Document struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	Source      Source            `json:"source"`
	Fingerprint string            `json:"fingerprint"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// QueryResult is the outcome of a vector index query. Documents are
// ordered nearest first and Distance is the distance of the top result.
type QueryResult struct {
	Documents []Document `json:"documents"`
	Distance  float32    `json:"distance"`
}

// AugmentationDecision describes what the augmenter did for one query.
// It lives for a single GetContext call and is never persisted.
type AugmentationDecision struct {
	Query                string   `json:"query"`
	Sufficient           bool     `json:"sufficient"`
	TriggeredWebResearch bool     `json:"triggered_web_research"`
	SourcesUsed          []string `json:"sources_used,omitempty"`
	FinalDistance        float32  `json:"final_distance"`
	Warnings             []string `json:"warnings,omitempty"`
}
