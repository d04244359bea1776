package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/aulalabs/aula/rag/types"
	"github.com/mudler/xlog"
	chromem "github.com/philippgille/chromem-go"
	"github.com/sashabaranov/go-openai"
)

// ChromemIndex is a vector index backed by a persistent chromem-go
// collection. Documents are keyed by content fingerprint, which makes
// re-ingestion of the same content a no-op.
type ChromemIndex struct {
	collectionName string
	collection     *chromem.Collection
	db             *chromem.DB
	embed          chromem.EmbeddingFunc

	mu sync.Mutex
}

// NewChromemIndex creates a persistent index at path using the OpenAI
// embeddings API for vectorization.
func NewChromemIndex(collection, path string, openaiClient *openai.Client, embeddingsModel string) (*ChromemIndex, error) {
	return NewChromemIndexWithEmbedding(collection, path, openAIEmbedding(openaiClient, embeddingsModel))
}

// NewChromemIndexWithEmbedding creates a persistent index with a custom
// embedding function.
func NewChromemIndexWithEmbedding(collection, path string, embed chromem.EmbeddingFunc) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, err
	}

	c, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, err
	}

	return &ChromemIndex{
		collectionName: collection,
		collection:     c,
		db:             db,
		embed:          embed,
	}, nil
}

func openAIEmbedding(client *openai.Client, model string) chromem.EmbeddingFunc {
	return chromem.EmbeddingFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			resp, err := client.CreateEmbeddings(ctx,
				openai.EmbeddingRequestStrings{
					Input: []string{text},
					Model: openai.EmbeddingModel(model),
				},
			)
			if err != nil {
				return []float32{}, fmt.Errorf("error creating embedding: %v", err)
			}

			if len(resp.Data) == 0 {
				return []float32{}, fmt.Errorf("no response from embeddings API")
			}

			return resp.Data[0].Embedding, nil
		},
	)
}

func (c *ChromemIndex) Count() int {
	return c.collection.Count()
}

func (c *ChromemIndex) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.DeleteCollection(c.collectionName); err != nil {
		return fmt.Errorf("error deleting collection: %v", err)
	}
	collection, err := c.db.GetOrCreateCollection(c.collectionName, nil, c.embed)
	if err != nil {
		return fmt.Errorf("error creating collection: %v", err)
	}
	c.collection = collection
	return nil
}

// Query embeds text and returns up to limit documents ordered by ascending
// distance (1 - cosine similarity), plus the distance of the nearest one.
// An empty index, or a failing embedding step, yields an empty result with
// MaxDistance so that callers treat local context as insufficient.
func (c *ChromemIndex) Query(ctx context.Context, text string, limit int) (types.QueryResult, error) {
	empty := types.QueryResult{Distance: types.MaxDistance}

	count := c.collection.Count()
	if count == 0 {
		return empty, nil
	}
	if limit > count {
		limit = count
	}

	results, err := c.collection.Query(ctx, text, limit, nil, nil)
	if err != nil {
		xlog.Warn("Vector query failed, returning empty result", "error", err)
		return empty, nil
	}
	if len(results) == 0 {
		return empty, nil
	}

	docs := make([]types.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, documentFromResult(r))
	}

	return types.QueryResult{
		Documents: docs,
		Distance:  1 - results[0].Similarity,
	}, nil
}

// Upsert inserts documents whose fingerprint is not already present.
// Documents with a known fingerprint are skipped, so concurrent and repeated
// upserts of the same content converge on a single copy.
func (c *ChromemIndex) Upsert(ctx context.Context, docs []types.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	toAdd := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		if d.Content == "" {
			continue
		}
		if d.Fingerprint == "" {
			return fmt.Errorf("document %q has no fingerprint", d.ID)
		}
		if _, err := c.collection.GetByID(ctx, d.Fingerprint); err == nil {
			xlog.Debug("Skipping already indexed document", "fingerprint", d.Fingerprint)
			continue
		}

		meta := map[string]string{"source": string(d.Source)}
		for k, v := range d.Metadata {
			meta[k] = v
		}
		toAdd = append(toAdd, chromem.Document{
			ID:       d.Fingerprint,
			Content:  d.Content,
			Metadata: meta,
		})
	}

	if len(toAdd) == 0 {
		return nil
	}

	return c.collection.AddDocuments(ctx, toAdd, 2)
}

func documentFromResult(r chromem.Result) types.Document {
	source := types.SourceLocal
	meta := map[string]string{}
	for k, v := range r.Metadata {
		if k == "source" {
			source = types.Source(v)
			continue
		}
		meta[k] = v
	}
	return types.Document{
		ID:          r.ID,
		Content:     r.Content,
		Source:      source,
		Fingerprint: r.ID,
		Metadata:    meta,
	}
}
