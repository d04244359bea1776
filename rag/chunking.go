package rag

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aulalabs/aula/pkg/chunk"
	"github.com/dslipak/pdf"
)

// chunkFile reads a lesson file and splits it into word-safe chunks.
// Supported formats: .txt, .md and .pdf.
func chunkFile(path string, maxChunkSize int) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}

	switch filepath.Ext(path) {
	case ".pdf":
		r, err := pdf.Open(path)
		if err != nil {
			return nil, err
		}
		b, err := r.GetPlainText()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(b); err != nil {
			return nil, err
		}
		return chunk.SplitParagraphIntoChunks(buf.String(), maxChunkSize), nil
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return chunk.SplitParagraphIntoChunks(string(content), maxChunkSize), nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}
