package chunk

import (
	"strings"
)

// SplitParagraphIntoChunks splits paragraph into chunks of at most
// maxChunkSize bytes without breaking words. A word longer than
// maxChunkSize becomes its own chunk. Empty input yields no chunks.
func SplitParagraphIntoChunks(paragraph string, maxChunkSize int) []string {
	if strings.TrimSpace(paragraph) == "" {
		return nil
	}
	if len(paragraph) <= maxChunkSize {
		return []string{paragraph}
	}

	var chunks []string
	var current strings.Builder

	for _, word := range strings.Fields(paragraph) {
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() == 0 && len(word) > maxChunkSize {
			chunks = append(chunks, word)
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
