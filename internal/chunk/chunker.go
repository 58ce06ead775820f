package chunk

import (
	"fmt"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

// Default chunking parameters for ingested HR documents.
const (
	DefaultSize    = 1200
	DefaultOverlap = 200
)

// Split cuts text into overlapping windows of at most size characters.
// After each window the next one starts overlap characters before the
// previous end, so every character lands in at least one chunk and
// consecutive chunks share exactly overlap characters. An empty text
// yields no chunks.
func Split(text string, size, overlap int) ([]core.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", core.ErrInvalidConfig, overlap)
	}
	// overlap >= size would keep the window from ever advancing.
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than size %d", core.ErrInvalidConfig, overlap, size)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []core.Chunk
	start := 0
	for {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, core.Chunk{
			Text:  string(runes[start:end]),
			Index: len(chunks),
		})

		if end == len(runes) {
			break
		}

		start = end - overlap
		if start < 0 {
			start = 0
		}
	}

	return chunks, nil
}
