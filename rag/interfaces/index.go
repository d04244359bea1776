package interfaces

import (
	"context"

	"github.com/aulalabs/aula/rag/types"
)

// Index defines the interface for vector indexes
type Index interface {
	Query(ctx context.Context, text string, limit int) (types.QueryResult, error)
	Upsert(ctx context.Context, docs []types.Document) error
	Count() int
	Reset() error
}
