package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor extracts readable text from HTML content
type HTMLExtractor struct{}

// Extract parses the HTML tree and collects its text content
func (h *HTMLExtractor) Extract(ctx context.Context, content []byte) (*Result, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		msg := fmt.Sprintf("failed to parse HTML: %v", err)
		return &Result{Success: false, Error: msg}, &ProcessingError{Message: msg}
	}

	var textBuilder strings.Builder
	var title string
	walkText(doc, &textBuilder, &title)

	return &Result{
		Success: true,
		Text:    collapseLines(textBuilder.String()),
		Info:    DocInfo{Title: title},
	}, nil
}

func walkText(n *html.Node, w io.Writer, title *string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "nav", "header", "footer", "aside":
			return
		case "title":
			if *title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				*title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
	}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if n.Parent != nil && isBlockElement(n.Parent.Data) {
				fmt.Fprintf(w, "\n%s\n", text)
			} else {
				fmt.Fprintf(w, " %s ", text)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, w, title)
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote",
		"article", "section", "main", "pre", "td", "th", "dt", "dd":
		return true
	}
	return false
}

func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, strings.Join(strings.Fields(line), " "))
		}
	}
	return strings.Join(cleaned, "\n")
}
