package rag

import (
	"context"
	"time"

	"github.com/aulalabs/aula/pkg/fingerprint"
	"github.com/aulalabs/aula/rag/providers"
	"github.com/aulalabs/aula/rag/types"
	"github.com/mudler/xlog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBreadthResults  = 3
	DefaultSemanticResults = 3
	DefaultDeepResults     = 5

	DefaultProviderTimeout = 1500 * time.Millisecond
)

// ProviderSlot binds a provider to its result cap and timeout. Slot order
// is the concatenation order, which decides dedup tie-breaks.
type ProviderSlot struct {
	Provider   providers.Provider
	MaxResults int
	Timeout    time.Duration
}

// Aggregator fans a query out to all of its providers concurrently, waits
// for each to finish or time out, and merges the results with first-seen
// deduplication by content fingerprint.
type Aggregator struct {
	slots []ProviderSlot
}

func NewAggregator(slots ...ProviderSlot) *Aggregator {
	return &Aggregator{slots: slots}
}

// Collect returns the deduplicated documents gathered from all providers
// plus the names of the providers that contributed at least one document.
// A provider that errors or times out contributes nothing; partial results
// are always acceptable.
func (a *Aggregator) Collect(ctx context.Context, query string) ([]types.Document, []string) {
	results := make([][]types.Document, len(a.slots))

	var g errgroup.Group
	for i, slot := range a.slots {
		g.Go(func() error {
			timeout := slot.Timeout
			if timeout <= 0 {
				timeout = DefaultProviderTimeout
			}
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			docs, err := slot.Provider.Search(pctx, query, slot.MaxResults)
			if err != nil {
				xlog.Warn("Provider search failed", "provider", slot.Provider.Name(), "error", err)
				return nil
			}
			if len(docs) > slot.MaxResults {
				docs = docs[:slot.MaxResults]
			}
			results[i] = docs
			return nil
		})
	}
	g.Wait()

	seen := map[string]bool{}
	var merged []types.Document
	var sources []string
	for i, docs := range results {
		contributed := false
		for _, d := range docs {
			if d.Fingerprint == "" {
				d.Fingerprint = fingerprint.Sum(d.Content)
			}
			if seen[d.Fingerprint] {
				continue
			}
			seen[d.Fingerprint] = true
			merged = append(merged, d)
			contributed = true
		}
		if contributed {
			sources = append(sources, a.slots[i].Provider.Name())
		}
	}

	return merged, sources
}
