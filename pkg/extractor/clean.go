package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// imageTextThreshold is the average characters-per-page below which a
// document is assumed to be scanned images with no real text layer.
const imageTextThreshold = 100

// cleanRule is one substitution in the cleaning pass. The rules run in
// slice order; later rules assume the earlier ones already applied.
type cleanRule struct {
	name  string
	apply func(string) string
}

var (
	spaceRuns       = regexp.MustCompile(`[ \t]+`)
	spaceAfterBreak = regexp.MustCompile(`\n[ \t]+`)
	spaceBeforeEnd  = regexp.MustCompile(`[ \t]+\n`)
	blankRuns       = regexp.MustCompile(`\n{3,}`)
	pageArtifact    = regexp.MustCompile(`(?m)^- ?\d+ ?-$`)
	bulletGlyphs    = regexp.MustCompile(`[·∙◦‣▪]`)

	fullWidthPunct = strings.NewReplacer(
		"：", ":",
		"？", "?",
		"！", "!",
		"，", ",",
		"．", ".",
		"（", "(",
		"）", ")",
	)
)

var cleanRules = []cleanRule{
	{"collapse_spaces", func(s string) string { return spaceRuns.ReplaceAllString(s, " ") }},
	{"trim_line_starts", func(s string) string { return spaceAfterBreak.ReplaceAllString(s, "\n") }},
	{"trim_line_ends", func(s string) string { return spaceBeforeEnd.ReplaceAllString(s, "\n") }},
	{"limit_blank_lines", func(s string) string { return blankRuns.ReplaceAllString(s, "\n\n") }},
	{"strip_page_numbers", func(s string) string { return pageArtifact.ReplaceAllString(s, "") }},
	{"normalize_bullets", func(s string) string { return bulletGlyphs.ReplaceAllString(s, "•") }},
	{"normalize_punctuation", fullWidthPunct.Replace},
}

// Clean normalizes extracted document text for downstream parsing.
// Newlines are preserved so paragraph structure survives.
func Clean(text string) string {
	for _, rule := range cleanRules {
		text = rule.apply(text)
	}
	return strings.TrimSpace(text)
}

// IsImageBased reports whether the document looks like scanned images:
// too little extracted text for its page count. Such documents need an
// OCR stage this pipeline does not provide.
func IsImageBased(text string, pageCount int) bool {
	if pageCount <= 0 {
		return utf8.RuneCountInString(strings.TrimSpace(text)) == 0
	}
	return utf8.RuneCountInString(text)/pageCount < imageTextThreshold
}
