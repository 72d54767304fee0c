package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
)

func newTestChunker(t *testing.T, max int, overlap int, sep string) *Chunker {
	t.Helper()
	c, err := NewChunker(config.ChunkingConfig{MaxSize: max, Overlap: overlap, Separator: sep})
	if err != nil {
		t.Fatalf("NewChunker(%d, %d) failed: %v", max, overlap, err)
	}
	return c
}

// reassemble strips the repeated overlap from every chunk after the first.
func reassemble(chunks []commonModels.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.Text)
			continue
		}
		b.WriteString(string([]rune(c.Text)[overlap:]))
	}
	return b.String()
}

func TestNewChunker_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		overlap int
	}{
		{"overlap equals max", 100, 100},
		{"overlap above max", 100, 150},
		{"zero max", 0, 0},
		{"negative overlap", 100, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(config.ChunkingConfig{MaxSize: tt.max, Overlap: tt.overlap})
			if !errors.Is(err, ragErrors.ErrInvalidConfig) {
				t.Errorf("NewChunker(%d, %d) error = %v; want InvalidConfig", tt.max, tt.overlap, err)
			}
		})
	}
}

func TestSplit_ThreeChunksForLongText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 250) // 2500 characters, no separator
	c := newTestChunker(t, 1000, 200, "\n")

	chunks := c.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	first := chunks[0].Text
	if !strings.HasPrefix(chunks[1].Text, first[len(first)-200:]) {
		t.Errorf("Chunk 2 does not start with the last 200 characters of chunk 1")
	}
	if got := reassemble(chunks, 200); got != text {
		t.Errorf("Reassembled text differs from the source")
	}
}

func TestSplit_PrefersSeparator(t *testing.T) {
	c := newTestChunker(t, 6, 1, "\n")

	chunks := c.Split("aaaa\nbbbb\ncccc")

	want := []string{"aaaa\n", "\nbbbb\n", "\ncccc"}
	if len(chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d = %q; want %q", i, chunks[i].Text, w)
		}
		if chunks[i].Position != i {
			t.Errorf("chunk %d position = %d", i, chunks[i].Position)
		}
	}
}

func TestSplit_CoverageAndSizeBound(t *testing.T) {
	inputs := []struct {
		name    string
		text    string
		max     int
		overlap int
		sep     string
	}{
		{"short text", "hello", 10, 2, "\n"},
		{"exact window", strings.Repeat("x", 10), 10, 3, "\n"},
		{"lines", strings.Repeat("line of text\n", 40), 50, 10, "\n"},
		{"separator inside overlap", strings.Repeat("\nabcdefghijklmnop", 12), 20, 15, "\n"},
		{"multi rune separator", strings.Repeat("one. two. three. ", 30), 25, 5, ". "},
		{"unicode", strings.Repeat("héllo wörld ünïcode ", 30), 33, 7, " "},
		{"no overlap", strings.Repeat("0123456789\n", 20), 16, 0, "\n"},
		{"no separator configured", strings.Repeat("z", 95), 10, 4, ""},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChunker(t, tt.max, tt.overlap, tt.sep)
			chunks := c.Split(tt.text)

			for i, ch := range chunks {
				if n := len([]rune(ch.Text)); n > tt.max {
					t.Errorf("chunk %d has %d characters; max is %d", i, n, tt.max)
				}
				if i > 0 {
					prev := []rune(chunks[i-1].Text)
					head := string([]rune(ch.Text)[:tt.overlap])
					if tail := string(prev[len(prev)-tt.overlap:]); head != tail {
						t.Errorf("chunk %d does not repeat the previous %d characters", i, tt.overlap)
					}
				}
			}
			if got := reassemble(chunks, tt.overlap); got != tt.text {
				t.Errorf("Reassembled text differs from the source:\n got %q\nwant %q", got, tt.text)
			}
		})
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c := newTestChunker(t, 10, 2, "\n")
	if chunks := c.Split(""); len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := newTestChunker(t, 40, 8, "\n")
	text := strings.Repeat("some words on a line\nand another one\n", 10)

	a := c.Split(text)
	b := c.Split(text)
	if len(a) != len(b) {
		t.Fatalf("Split is not deterministic: %d vs %d chunks", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestNormalize(t *testing.T) {
	fakePDF := func(ctx context.Context, content []byte) (string, error) {
		return "pdf:" + string(content), nil
	}
	fakeDOCX := func(ctx context.Context, content []byte) (string, error) {
		if string(content) == "broken" {
			return "", errors.New("corrupt archive")
		}
		return "docx:" + string(content), nil
	}
	n := NewNormalizerWith(map[commonModels.DocType]Extractor{
		commonModels.PDF:  fakePDF,
		commonModels.DOCX: fakeDOCX,
	})

	tests := []struct {
		name            string
		docs            []commonModels.Document
		wantText        string
		wantSupported   int
		wantDiagnostics int
	}{
		{
			name: "concatenates in order with no separator",
			docs: []commonModels.Document{
				{Name: "a.pdf", Format: commonModels.PDF, Content: []byte("one")},
				{Name: "b.docx", Format: commonModels.DOCX, Content: []byte("two")},
			},
			wantText:      "pdf:onedocx:two",
			wantSupported: 2,
		},
		{
			name: "skips unsupported formats",
			docs: []commonModels.Document{
				{Name: "notes.txt", Format: commonModels.Unsupported, Content: []byte("ignored")},
				{Name: "a.pdf", Format: commonModels.PDF, Content: []byte("kept")},
			},
			wantText:        "pdf:kept",
			wantSupported:   1,
			wantDiagnostics: 1,
		},
		{
			name: "unreadable document becomes a diagnostic",
			docs: []commonModels.Document{
				{Name: "bad.docx", Format: commonModels.DOCX, Content: []byte("broken")},
			},
			wantText:        "",
			wantDiagnostics: 1,
		},
		{
			name:     "no documents",
			docs:     nil,
			wantText: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(context.Background(), tt.docs)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q; want %q", got.Text, tt.wantText)
			}
			if got.Supported != tt.wantSupported {
				t.Errorf("Supported = %d; want %d", got.Supported, tt.wantSupported)
			}
			if len(got.Diagnostics) != tt.wantDiagnostics {
				t.Errorf("Diagnostics = %v; want %d entries", got.Diagnostics, tt.wantDiagnostics)
			}
		})
	}
}

func TestNormalize_UnsupportedDiagnosticKind(t *testing.T) {
	n := NewNormalizerWith(map[commonModels.DocType]Extractor{})
	got, err := n.Normalize(context.Background(), []commonModels.Document{{Name: "x.png", Format: commonModels.Unsupported}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(got.Diagnostics) != 1 || !errors.Is(got.Diagnostics[0].Err, ragErrors.ErrUnsupportedFormat) {
		t.Errorf("Expected one UnsupportedFormat diagnostic, got %v", got.Diagnostics)
	}
}

func TestNormalize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewNormalizer().Normalize(ctx, []commonModels.Document{{Name: "a.pdf", Format: commonModels.PDF}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExtractPDF_RejectsGarbage(t *testing.T) {
	if _, err := extractPDF(context.Background(), []byte("definitely not a pdf")); err == nil {
		t.Error("Expected an error for non-pdf content")
	}
}
