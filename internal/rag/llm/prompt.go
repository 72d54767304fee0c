package llm

import (
	"fmt"
	"strings"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/metrics"
)

// Prompt is a provider neutral rendering of a GenerationRequest. History is
// replayed as alternating chat messages; User carries the retrieved context
// followed by the question.
type Prompt struct {
	System  string
	History []commonModels.Turn
	User    string
	Tokens  int
}

type PromptBuilder struct {
	system           string
	counter          TokenCounter
	maxHistoryTokens int
}

// NewPromptBuilder returns a builder. maxHistoryTokens of zero keeps the whole
// history; otherwise the oldest turns are left out of the prompt until the
// rest fits. The stored history is never touched.
func NewPromptBuilder(system string, counter TokenCounter, maxHistoryTokens int) *PromptBuilder {
	if counter == nil {
		counter = ApproxCounter{}
	}
	return &PromptBuilder{system: system, counter: counter, maxHistoryTokens: maxHistoryTokens}
}

func (b *PromptBuilder) Build(req GenerationRequest) Prompt {
	p := Prompt{
		System:  b.system,
		History: b.trimHistory(req.History),
		User:    RenderQuestion(req.Question, req.Grounding),
	}

	p.Tokens = b.counter.Count(p.System) + b.counter.Count(p.User)
	for _, t := range p.History {
		p.Tokens += b.counter.Count(t.Question) + b.counter.Count(t.Answer)
	}
	metrics.CapturePromptTokens(p.Tokens)
	return p
}

func (b *PromptBuilder) trimHistory(history []commonModels.Turn) []commonModels.Turn {
	if b.maxHistoryTokens <= 0 {
		return history
	}
	budget := b.maxHistoryTokens
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := b.counter.Count(history[i].Question) + b.counter.Count(history[i].Answer)
		if cost > budget {
			break
		}
		budget -= cost
		start = i
	}
	return history[start:]
}

// RenderQuestion lays out the retrieved passages ahead of the question.
func RenderQuestion(question string, grounding []commonModels.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	if len(grounding) == 0 {
		sb.WriteString("(no passages matched)\n")
	}
	for i, c := range grounding {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, strings.TrimSpace(c.Chunk.Text))
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
