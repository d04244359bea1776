package rag

import (
	"context"
	"time"

	"github.com/aulalabs/aula/rag/interfaces"
	"github.com/aulalabs/aula/rag/types"
	"github.com/mudler/xlog"
)

const (
	// DefaultThreshold is the sufficiency threshold: a nearest-neighbor
	// distance at or below it means the local corpus can ground a
	// response on its own. Tunable, not a law of the system.
	DefaultThreshold float32 = 0.7

	DefaultContextLimit = 5

	DefaultLocalTimeout   = 100 * time.Millisecond
	DefaultAugmentTimeout = 2 * time.Second
)

// Augmenter decides, per query, whether the local index has sufficient
// context and triggers web research when it does not. Augmentation runs at
// most once per call; a still-insufficient relookup is returned as the best
// available context.
type Augmenter struct {
	index      interfaces.Index
	aggregator *Aggregator

	threshold      float32
	limit          int
	localTimeout   time.Duration
	augmentTimeout time.Duration
}

// AugmenterOption tweaks an Augmenter.
type AugmenterOption func(*Augmenter)

func WithThreshold(t float32) AugmenterOption {
	return func(a *Augmenter) { a.threshold = t }
}

func WithContextLimit(n int) AugmenterOption {
	return func(a *Augmenter) { a.limit = n }
}

func WithTimeouts(local, augment time.Duration) AugmenterOption {
	return func(a *Augmenter) {
		a.localTimeout = local
		a.augmentTimeout = augment
	}
}

func NewAugmenter(index interfaces.Index, aggregator *Aggregator, opts ...AugmenterOption) *Augmenter {
	a := &Augmenter{
		index:          index,
		aggregator:     aggregator,
		threshold:      DefaultThreshold,
		limit:          DefaultContextLimit,
		localTimeout:   DefaultLocalTimeout,
		augmentTimeout: DefaultAugmentTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetContext returns the documents to ground a response for query, plus a
// decision record for observability. It never returns an error: every
// failure mode degrades to fewer or no documents.
func (a *Augmenter) GetContext(ctx context.Context, query string) ([]types.Document, types.AugmentationDecision) {
	decision := types.AugmentationDecision{Query: query}

	lctx, cancel := context.WithTimeout(ctx, a.localTimeout)
	local, err := a.index.Query(lctx, query, a.limit)
	cancel()
	if err != nil {
		xlog.Warn("Local lookup failed", "query", query, "error", err)
		local = types.QueryResult{Distance: types.MaxDistance}
	}

	if local.Distance <= a.threshold {
		decision.Sufficient = true
		decision.FinalDistance = local.Distance
		return local.Documents, decision
	}

	decision.TriggeredWebResearch = true
	xlog.Info("Local context insufficient, gathering fresh data", "query", query, "distance", local.Distance)

	actx, cancel := context.WithTimeout(ctx, a.augmentTimeout)
	defer cancel()

	collected, sources := a.aggregator.Collect(actx, query)
	decision.SourcesUsed = sources

	persisted := true
	if len(collected) > 0 {
		if err := a.index.Upsert(actx, collected); err != nil {
			// Non-fatal: the fresh material is still usable as
			// context even when it cannot be persisted.
			xlog.Warn("Failed to persist collected documents", "query", query, "error", err)
			decision.Warnings = append(decision.Warnings, "storage: "+err.Error())
			persisted = false
		}
	}

	if !persisted {
		decision.FinalDistance = local.Distance
		return collected, decision
	}

	relookup, err := a.index.Query(actx, query, a.limit)
	if err != nil {
		xlog.Warn("Relookup failed", "query", query, "error", err)
		relookup = types.QueryResult{Distance: types.MaxDistance}
	}
	decision.FinalDistance = relookup.Distance

	// The relookup is authoritative even when its distance is still above
	// the threshold. If it somehow surfaced nothing, fall back to the raw
	// aggregation results rather than dropping them.
	if len(relookup.Documents) == 0 && len(collected) > 0 {
		return collected, decision
	}
	return relookup.Documents, decision
}
