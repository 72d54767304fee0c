package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

// Extractor turns the raw bytes of one document into plain text in reading order.
type Extractor func(ctx context.Context, content []byte) (string, error)

type Diagnostic struct {
	Document string
	Format   commonModels.DocType
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s (%s): %v", d.Document, d.Format, d.Err)
}

type NormalizedText struct {
	Text        string
	Supported   int
	Diagnostics []Diagnostic
}

func (n NormalizedText) DiagnosticMessages() []string {
	out := make([]string, 0, len(n.Diagnostics))
	for _, d := range n.Diagnostics {
		out = append(out, d.String())
	}
	return out
}

type Normalizer struct {
	extractors map[commonModels.DocType]Extractor
	logger     *logger_i.Logger
}

func NewNormalizer() *Normalizer {
	return NewNormalizerWith(map[commonModels.DocType]Extractor{
		commonModels.PDF:  extractPDF,
		commonModels.DOCX: extractDOCX,
	})
}

func NewNormalizerWith(extractors map[commonModels.DocType]Extractor) *Normalizer {
	return &Normalizer{
		extractors: extractors,
		logger:     logger_i.NewLogger("Normalizer"),
	}
}

// Normalize concatenates the text of every supported document in input order
// with no separator. Unsupported or unreadable documents are skipped and
// reported as diagnostics; only cancellation of ctx is returned as an error.
func (n *Normalizer) Normalize(ctx context.Context, docs []commonModels.Document) (NormalizedText, error) {
	log := n.logger.WithContext(ctx)
	var result NormalizedText
	var text strings.Builder

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return NormalizedText{}, err
		}

		extract, ok := n.extractors[doc.Format]
		if !ok {
			log.Warn("skipping document", "document", doc.Name, "format", doc.Format)
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Document: doc.Name,
				Format:   doc.Format,
				Err:      ragErrors.ErrUnsupportedFormat,
			})
			continue
		}

		content, err := extract(ctx, doc.Content)
		if err != nil {
			log.Warn("could not extract document", "document", doc.Name, "format", doc.Format, "error", err)
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Document: doc.Name, Format: doc.Format, Err: err})
			continue
		}
		log.Debug("extracted document", "document", doc.Name, "characters", len([]rune(content)))
		text.WriteString(content)
		result.Supported++
	}

	result.Text = text.String()
	return result, nil
}
