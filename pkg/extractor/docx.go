package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCXExtractor extracts text from DOCX content
type DOCXExtractor struct{}

// Extract extracts text from DOCX content
func (d *DOCXExtractor) Extract(ctx context.Context, content []byte) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("failed to parse DOCX: %v", r)
			res = &Result{Success: false, Error: msg}
			err = &ProcessingError{Message: msg}
		}
	}()

	// DOCX files are ZIP archives
	if len(content) < 4 || content[0] != 0x50 || content[1] != 0x4B {
		msg := "not a valid DOCX file - missing ZIP signature"
		return &Result{Success: false, Error: msg}, &ProcessingError{Message: msg}
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		msg := fmt.Sprintf("failed to parse DOCX: %v", err)
		return &Result{Success: false, Error: msg}, &ProcessingError{Message: msg}
	}

	text := stripXMLTags(doc.Editable().GetContent())
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	// the docx library exposes no page boundaries, so no page count
	return &Result{
		Success: true,
		Text:    text,
	}, nil
}

// stripXMLTags removes markup from the raw document.xml content, inserting
// newlines at paragraph ends so block structure survives.
func stripXMLTags(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	var b strings.Builder
	inTag := false
	for _, ch := range content {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
