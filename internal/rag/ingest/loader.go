package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
)

// LoadDocument reads a file from disk. An empty declared format falls back to
// the file extension.
func LoadDocument(path string, name string, declared commonModels.DocType) (commonModels.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return commonModels.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	format := declared
	if format == "" {
		format = commonModels.DocTypeFromName(name)
	}
	return commonModels.Document{Name: name, Format: format, Content: content}, nil
}

func LoadDocuments(paths []string) ([]commonModels.Document, error) {
	docs := make([]commonModels.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadDocument(p, "", "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SupportedFiles lists the pdf and docx files directly inside dir, sorted by name.
func SupportedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if commonModels.DocTypeFromName(e.Name()) != commonModels.Unsupported {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
