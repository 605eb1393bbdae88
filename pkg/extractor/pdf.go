package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts the text layer and info dictionary from PDF content
type PDFExtractor struct {
	MaxPages int
}

// Extract extracts text and document info from PDF content
func (p *PDFExtractor) Extract(ctx context.Context, content []byte) (res *Result, err error) {
	// The pdf library panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("failed to parse PDF: %v", r)
			res = &Result{Success: false, Error: msg}
			err = &ProcessingError{Message: msg}
		}
	}()

	if len(content) < 4 || string(content[:4]) != "%PDF" {
		msg := "not a valid PDF file - missing %PDF header"
		return &Result{Success: false, Error: msg}, &ProcessingError{Message: msg}
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		msg := fmt.Sprintf("failed to parse PDF: %v", err)
		return &Result{Success: false, Error: msg}, &ProcessingError{Message: msg}
	}

	var textBuilder strings.Builder
	pageCount := reader.NumPage()
	extracted := pageCount
	if p.MaxPages > 0 && extracted > p.MaxPages {
		extracted = p.MaxPages
	}

	for i := 1; i <= extracted; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages, keep the rest
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	return &Result{
		Success:   true,
		Text:      strings.TrimSpace(textBuilder.String()),
		PageCount: pageCount,
		Info:      readDocInfo(reader),
	}, nil
}

// readDocInfo pulls the standard fields out of the PDF info dictionary
func readDocInfo(reader *pdf.Reader) DocInfo {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return DocInfo{}
	}
	return DocInfo{
		Title:        infoString(info, "Title"),
		Author:       infoString(info, "Author"),
		Subject:      infoString(info, "Subject"),
		CreationDate: infoString(info, "CreationDate"),
	}
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.Text())
}
