// Package pdfextract turns a PDF payload into plain text.
package pdfextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

var ErrEmptyPayload = errors.New("pdf payload is empty")

// Extractor is stateless; the zero value is ready to use.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// ExtractText parses b as a PDF. A document without extractable text (a
// scanned image, for instance) yields "" and no error.
func (e *Extractor) ExtractText(b []byte) (text string, err error) {
	if len(b) == 0 {
		return "", ErrEmptyPayload
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf failed: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}
