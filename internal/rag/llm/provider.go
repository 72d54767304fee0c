package llm

import (
	"context"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
)

// GenerationRequest is everything a provider needs for one answer: the
// retrieved passages, every prior turn of the session, and the new question.
type GenerationRequest struct {
	Question  string
	Grounding []commonModels.ScoredChunk
	History   []commonModels.Turn
}

type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
