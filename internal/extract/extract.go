// Package extract pulls plain text out of uploaded documents so it can be
// fed to the prompt builder. PDF and DOCX are the supported inputs.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"slideforge/internal/logging"
)

var (
	// ErrUnsupportedFormat is returned for document types the extractor
	// does not understand.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoText is returned when a document parses cleanly but yields no
	// usable text, which would produce an empty prompt downstream.
	ErrNoText = errors.New("document contains no extractable text")
)

// Text extracts the plain text of the document at path. The format is
// chosen by file extension.
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	logging.Extract("extracting text from %s (format %s)", path, ext)

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = fromPDF(path)
	case ".docx":
		text, err = fromDOCX(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		logging.ExtractError("extraction failed for %s: %v", path, err)
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	logging.Extract("extracted %d characters from %s", len(text), path)
	return text, nil
}
