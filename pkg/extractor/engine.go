package extractor

import (
	"context"
	"fmt"
	"strings"
)

// ProcessingError represents a non-retryable document processing error
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// DocInfo holds document-level properties read from the file itself
type DocInfo struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
}

// Result is the outcome of one text extraction attempt. Expected failure
// modes (invalid bytes, missing capability) set Success=false and Error;
// callers treat that as "text unavailable", not a fatal condition.
type Result struct {
	Success   bool    `json:"success"`
	Text      string  `json:"text"`
	PageCount int     `json:"page_count"`
	Info      DocInfo `json:"info"`
	Error     string  `json:"error,omitempty"`
}

// Extractor converts one document format into plain text
type Extractor interface {
	Extract(ctx context.Context, content []byte) (*Result, error)
}

// Engine dispatches extraction by file type. Types without a registered
// extractor resolve to a stub that reports the capability as unavailable,
// so a missing parser is a recoverable per-document condition.
type Engine struct {
	extractors map[string]Extractor
}

func NewEngine() *Engine {
	return &Engine{
		extractors: map[string]Extractor{
			"pdf":  &PDFExtractor{MaxPages: 1000},
			"docx": &DOCXExtractor{},
			"doc":  &DOCXExtractor{}, // best effort: treat .doc as .docx
			"html": &HTMLExtractor{},
			"htm":  &HTMLExtractor{},
			"txt":  &TextExtractor{},
			"text": &TextExtractor{},
		},
	}
}

// Extract runs the extractor registered for fileType
func (e *Engine) Extract(ctx context.Context, content []byte, fileType string) (*Result, error) {
	ext, ok := e.extractors[strings.ToLower(fileType)]
	if !ok {
		ext = &unavailableExtractor{fileType: fileType}
	}
	return ext.Extract(ctx, content)
}

// Supports reports whether a real extractor is registered for fileType
func (e *Engine) Supports(fileType string) bool {
	_, ok := e.extractors[strings.ToLower(fileType)]
	return ok
}

// TextExtractor handles plain text files
type TextExtractor struct{}

func (t *TextExtractor) Extract(ctx context.Context, content []byte) (*Result, error) {
	// plain text has no page structure
	return &Result{
		Success: true,
		Text:    string(content),
	}, nil
}

// unavailableExtractor stands in for formats with no parsing capability
type unavailableExtractor struct {
	fileType string
}

func (u *unavailableExtractor) Extract(ctx context.Context, content []byte) (*Result, error) {
	msg := fmt.Sprintf("no text extraction capability for %q files", u.fileType)
	return &Result{Success: false, Error: msg}, &ProcessingError{Message: msg}
}
