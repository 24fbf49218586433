// Package loader turns source files into documents.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Load reads path into a document whose Source is the path itself.
// Plain text (.txt, .md) is read as-is; PDFs are extracted page by page.
func Load(path string) (domain.Document, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text", ".markdown":
		text, err = loadText(path)
	case ".pdf":
		text, err = loadPDF(path)
	default:
		return domain.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Source: path, Text: normalize(text)}, nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf %s page %d: %w", path, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n\n"), nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
