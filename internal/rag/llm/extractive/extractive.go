// Package extractive answers without a language model by quoting the
// retrieved sentences that share the most vocabulary with the question.
package extractive

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/rag/llm"
)

const (
	maxSentences = 2
	NoAnswer     = "I don't know. The indexed documents do not seem to cover that."
)

var (
	tokenPattern    = regexp.MustCompile(`[\p{L}\p{N}]+`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

type provider struct {
	prompts   *llm.PromptBuilder
	stopwords map[string]struct{}
}

func NewExtractiveProvider(cfg config.LLMConfig) llm.Provider {
	return &provider{
		prompts:   llm.NewPromptBuilder(cfg.SystemPrompt, llm.ApproxCounter{}, cfg.MaxHistoryTokens),
		stopwords: defaultStopwords(),
	}
}

func (p *provider) Name() string { return config.LLMProviderExtractive }

func (p *provider) Generate(ctx context.Context, req llm.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// built for the token metric only; nothing is sent anywhere
	p.prompts.Build(req)

	question := p.terms(req.Question)
	type candidate struct {
		text  string
		rank  int
		score float64
	}
	var candidates []candidate
	for _, g := range req.Grounding {
		for _, s := range sentencePattern.FindAllString(g.Chunk.Text, -1) {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			words := p.terms(s)
			overlap := 0
			for w := range words {
				if _, ok := question[w]; ok {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			candidates = append(candidates, candidate{
				text:  s,
				rank:  len(candidates),
				score: float64(overlap) / math.Sqrt(float64(len(words))),
			})
		}
	}
	if len(candidates) == 0 {
		return NoAnswer, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	picked := candidates[:min(maxSentences, len(candidates))]
	// keep the passage order among the picked sentences
	sort.Slice(picked, func(i, j int) bool { return picked[i].rank < picked[j].rank })

	seen := map[string]struct{}{}
	out := make([]string, 0, len(picked))
	for _, c := range picked {
		if _, dup := seen[c.text]; dup {
			continue
		}
		seen[c.text] = struct{}{}
		out = append(out, c.text)
	}
	return strings.Join(out, " "), nil
}

func (p *provider) terms(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := p.stopwords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "for", "to", "of", "in", "on", "at", "by", "with", "as",
		"is", "are", "was", "were", "be", "been", "it", "this", "that", "these", "those", "from", "what", "which",
		"who", "how", "when", "where", "why", "do", "does", "did", "can", "will", "should", "about", "i", "you", "me",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
