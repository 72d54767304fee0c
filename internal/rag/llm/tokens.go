package llm

import (
	"unicode/utf8"

	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/pkoukk/tiktoken-go"
)

type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// ApproxCounter estimates four characters per token. It needs no vocabulary
// download, which makes it the choice for offline runs and tests.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// NewTokenCounter loads the named BPE encoding, falling back to ApproxCounter
// when the vocabulary cannot be fetched.
func NewTokenCounter(encoding string) TokenCounter {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		logger_i.NewLogger("tokenizer").Warn("tiktoken unavailable, estimating tokens", "encoding", encoding, "error", err)
		return ApproxCounter{}
	}
	return &tiktokenCounter{enc: enc}
}
