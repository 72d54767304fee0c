package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
)

// Chunker splits text into windows of at most MaxSize characters. Each window
// after the first repeats the last Overlap characters of its predecessor.
type Chunker struct {
	maxSize   int
	overlap   int
	separator string
}

func NewChunker(cfg config.ChunkingConfig) (*Chunker, error) {
	if cfg.MaxSize <= 0 {
		return nil, ragErrors.New(ragErrors.InvalidConfig, fmt.Sprintf("chunk max size must be positive, got %d", cfg.MaxSize), nil)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxSize {
		return nil, ragErrors.New(ragErrors.InvalidConfig,
			fmt.Sprintf("chunk overlap must be in [0, %d), got %d", cfg.MaxSize, cfg.Overlap), nil)
	}
	return &Chunker{maxSize: cfg.MaxSize, overlap: cfg.Overlap, separator: cfg.Separator}, nil
}

// Split walks the text window by window. A window ends just after the last
// separator it contains, as long as that keeps the window longer than the
// overlap; otherwise it is cut hard at MaxSize. Sizes count runes.
func (c *Chunker) Split(text string) []commonModels.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []commonModels.Chunk
	start := 0
	for {
		end := start + c.maxSize
		if end >= n {
			chunks = append(chunks, c.newChunk(runes, start, n, len(chunks)))
			return chunks
		}

		cut := c.findCut(runes, start, end)
		chunks = append(chunks, c.newChunk(runes, start, cut, len(chunks)))
		// cut > start+overlap, so the next window always moves forward
		start = cut - c.overlap
	}
}

func (c *Chunker) findCut(runes []rune, start int, end int) int {
	if c.separator == "" {
		return end
	}
	window := string(runes[start:end])
	idx := strings.LastIndex(window, c.separator)
	if idx < 0 {
		return end
	}
	cut := start + utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(c.separator)
	if cut <= start+c.overlap {
		return end
	}
	return cut
}

func (c *Chunker) newChunk(runes []rune, start int, end int, position int) commonModels.Chunk {
	return commonModels.Chunk{
		Text:     string(runes[start:end]),
		Position: position,
		Offset:   start,
	}
}

func (c *Chunker) Overlap() int {
	return c.overlap
}
