package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aulalabs/aula/rag/sources"
	"github.com/mudler/xlog"
)

// ExternalSource is a curriculum source that is re-ingested periodically.
type ExternalSource struct {
	URL            string
	UpdateInterval time.Duration
	LastUpdate     time.Time
}

// SourceManager keeps registered curriculum sources fresh in the lesson
// library. Refreshes run in background goroutines; the fingerprint skip in
// the index makes repeated ingestion of unchanged pages a no-op.
type SourceManager struct {
	library *Library

	mu      sync.RWMutex
	sources []ExternalSource
}

func NewSourceManager(library *Library) *SourceManager {
	return &SourceManager{library: library}
}

// AddSource registers a source and triggers an immediate refresh.
func (sm *SourceManager) AddSource(ctx context.Context, url string, updateInterval time.Duration) error {
	if url == "" {
		return fmt.Errorf("source URL is empty")
	}

	sm.mu.Lock()
	sm.sources = append(sm.sources, ExternalSource{
		URL:            url,
		UpdateInterval: updateInterval,
		LastUpdate:     time.Now(),
	})
	sm.mu.Unlock()

	// The refresh outlives the caller; an HTTP handler's request context
	// is cancelled as soon as it returns.
	go sm.updateSource(context.WithoutCancel(ctx), url)
	return nil
}

// RemoveSource unregisters a source. Already ingested content stays in the
// index; pruning is out of scope.
func (sm *SourceManager) RemoveSource(url string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for i, s := range sm.sources {
		if s.URL == url {
			sm.sources = append(sm.sources[:i], sm.sources[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("source %s not found", url)
}

// ListSources returns the registered sources.
func (sm *SourceManager) ListSources() []ExternalSource {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	out := make([]ExternalSource, len(sm.sources))
	copy(out, sm.sources)
	return out
}

func (sm *SourceManager) updateSource(ctx context.Context, url string) {
	xlog.Info("Updating curriculum source", "url", url)

	content, err := sources.SourceRouter(ctx, url)
	if err != nil {
		xlog.Error("Error updating source", "url", url, "error", err)
		return
	}

	if err := sm.library.SeedStrings(ctx, map[string]string{"url": url}, content); err != nil {
		xlog.Error("Error storing source content", "url", url, "error", err)
		return
	}

	sm.mu.Lock()
	for i := range sm.sources {
		if sm.sources[i].URL == url {
			sm.sources[i].LastUpdate = time.Now()
		}
	}
	sm.mu.Unlock()

	xlog.Info("Curriculum source updated", "url", url)
}

// Start launches the background refresh loop. It stops when ctx is done.
func (sm *SourceManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			sm.mu.RLock()
			due := []string{}
			for _, s := range sm.sources {
				if time.Since(s.LastUpdate) >= s.UpdateInterval {
					due = append(due, s.URL)
				}
			}
			sm.mu.RUnlock()

			for _, url := range due {
				go sm.updateSource(ctx, url)
			}
		}
	}()
}
