package commonModels

import (
	"path/filepath"
	"strings"
	"time"
)

type DocType string

const (
	PDF         DocType = "PDF"
	DOCX        DocType = "DOCX"
	Unsupported DocType = "UNSUPPORTED"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DocTypeFromMIME maps an upload content type onto a format tag.
func DocTypeFromMIME(contentType string) DocType {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case mimePDF:
		return PDF
	case mimeDOCX:
		return DOCX
	default:
		return Unsupported
	}
}

func DocTypeFromName(name string) DocType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	default:
		return Unsupported
	}
}

// ResolveDocType prefers the declared content type and falls back to the
// file extension when the content type is missing or generic.
func ResolveDocType(contentType string, name string) DocType {
	if t := DocTypeFromMIME(contentType); t != Unsupported {
		return t
	}
	return DocTypeFromName(name)
}

type Document struct {
	Name    string  `json:"doc_name"`
	Format  DocType `json:"format"`
	Content []byte  `json:"-"`
}

// Chunk is a slice of the normalized text. Position is the insertion order
// and Offset the rune offset of the first character in the source text.
type Chunk struct {
	Text     string `json:"content"`
	Position int    `json:"position"`
	Offset   int    `json:"offset"`
}

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

type Turn struct {
	Question  string        `json:"question"`
	Answer    string        `json:"answer"`
	Retrieved []ScoredChunk `json:"retrieved"`
	AskedAt   time.Time     `json:"asked_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript row handed to presentation layers.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript flattens turns into alternating user and assistant rows.
func Transcript(turns []Turn) []Message {
	messages := make([]Message, 0, len(turns)*2)
	for _, t := range turns {
		messages = append(messages,
			Message{Role: RoleUser, Text: t.Question},
			Message{Role: RoleAssistant, Text: t.Answer},
		)
	}
	return messages
}

func Sources(chunks []ScoredChunk) []string {
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, c.Chunk.Text)
	}
	return sources
}
