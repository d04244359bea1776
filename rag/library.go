package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aulalabs/aula/pkg/chunk"
	"github.com/aulalabs/aula/pkg/fingerprint"
	"github.com/aulalabs/aula/rag/interfaces"
	"github.com/aulalabs/aula/rag/types"
)

// Library is the persistent record of lesson files seeded into the vector
// index. The state file tracks which files have been ingested; the
// fingerprint-based skip in the index makes re-seeding idempotent.
type Library struct {
	index interfaces.Index

	mu           sync.Mutex
	files        []string
	path         string
	assetDir     string
	maxChunkSize int
}

func loadLibraryState(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	files := []string{}
	err = json.Unmarshal(data, &files)
	return files, err
}

func NewLibrary(stateFile, assetDir string, index interfaces.Index, maxChunkSize int) (*Library, error) {
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, err
	}

	lib := &Library{
		index:        index,
		files:        []string{},
		path:         stateFile,
		assetDir:     assetDir,
		maxChunkSize: maxChunkSize,
	}

	if _, err := os.Stat(stateFile); err != nil {
		lib.mu.Lock()
		defer lib.mu.Unlock()
		return lib, lib.save()
	}

	files, err := loadLibraryState(stateFile)
	if err != nil {
		return nil, err
	}
	lib.files = files

	return lib, nil
}

func (l *Library) save() error {
	data, err := json.Marshal(l.files)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}

// Seed copies a lesson file into the asset directory, chunks it and upserts
// the chunks as local documents. Seeding the same content twice leaves the
// index unchanged.
func (l *Library) Seed(ctx context.Context, entry string, metadata map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("file does not exist: %s", entry)
	}

	if err := copyFile(entry, l.assetDir); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	fileName := filepath.Base(entry)
	stored := filepath.Join(l.assetDir, fileName)

	chunks, err := chunkFile(stored, l.maxChunkSize)
	if err != nil {
		return err
	}

	docs := make([]types.Document, 0, len(chunks))
	for _, c := range chunks {
		meta := map[string]string{"file": fileName}
		for k, v := range metadata {
			meta[k] = v
		}
		fp := fingerprint.Sum(c)
		docs = append(docs, types.Document{
			ID:          fp,
			Content:     c,
			Source:      types.SourceLocal,
			Fingerprint: fp,
			Metadata:    meta,
		})
	}

	if err := l.index.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	if !l.hasEntry(fileName) {
		l.files = append(l.files, fileName)
	}
	return l.save()
}

// SeedStrings chunks free-form content and upserts it as local documents.
func (l *Library) SeedStrings(ctx context.Context, metadata map[string]string, content ...string) error {
	var docs []types.Document
	for _, c := range content {
		for _, piece := range chunk.SplitParagraphIntoChunks(c, l.maxChunkSize) {
			fp := fingerprint.Sum(piece)
			docs = append(docs, types.Document{
				ID:          fp,
				Content:     piece,
				Source:      types.SourceLocal,
				Fingerprint: fp,
				Metadata:    metadata,
			})
		}
	}
	if len(docs) == 0 {
		return nil
	}
	return l.index.Upsert(ctx, docs)
}

func (l *Library) ListEntries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]string, len(l.files))
	copy(entries, l.files)
	return entries
}

func (l *Library) EntryExists(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasEntry(filepath.Base(entry))
}

func (l *Library) hasEntry(name string) bool {
	for _, e := range l.files {
		if e == name {
			return true
		}
	}
	return false
}

// Reset removes all seeded files and clears the index.
func (l *Library) Reset() error {
	l.mu.Lock()
	for _, f := range l.files {
		os.Remove(filepath.Join(l.assetDir, f))
	}
	l.files = []string{}
	err := l.save()
	l.mu.Unlock()
	if err != nil {
		return err
	}

	return l.index.Reset()
}

func copyFile(src, dstDir string) error {
	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dstDir, filepath.Base(src)), in, 0644)
}
