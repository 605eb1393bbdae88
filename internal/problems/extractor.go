package problems

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hakbank/harvester/pkg/exam"
	"github.com/hakbank/harvester/pkg/logging"
)

const (
	// minBlockLength is the shortest segment worth parsing at all
	minBlockLength = 20
	// minFallbackChunkLength filters paragraph chunks when no
	// question-number structure was found
	minFallbackChunkLength = 30
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Extractor turns cleaned exam text into structured problems
type Extractor struct {
	logger zerolog.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{logger: logging.GetLogger("problem-extractor")}
}

// ExtractProblems segments the text into candidate blocks, parses each into
// a problem, and mines document-level metadata from the whole text.
func (e *Extractor) ExtractProblems(text string) exam.ExtractionResult {
	blocks := segmentBlocks(text)

	problems := make([]exam.Problem, 0, len(blocks))
	for _, block := range blocks {
		if p := parseBlock(block); p != nil {
			problems = append(problems, *p)
		}
	}

	result := exam.ExtractionResult{
		Problems:   problems,
		Metadata:   ExtractMetadata(text),
		Text:       text,
		Confidence: exam.MeanConfidence(problems),
	}

	e.logger.Debug().
		Int("blocks", len(blocks)).
		Int("problems", len(problems)).
		Float64("confidence", result.Confidence).
		Msg("Problem extraction completed")

	return result
}

// segmentBlocks splits text into per-question blocks. Primary strategy:
// two or more question-number matches split the text at each match
// boundary. Fallback: blank-line chunks longer than the fallback minimum.
func segmentBlocks(text string) []string {
	matches := questionBoundary.FindAllStringIndex(text, -1)

	var blocks []string
	if len(matches) >= 2 {
		for i, m := range matches {
			end := len(text)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			blocks = append(blocks, strings.TrimSpace(text[m[0]:end]))
		}
	} else {
		for _, chunk := range paragraphBreak.Split(text, -1) {
			chunk = strings.TrimSpace(chunk)
			if utf8.RuneCountInString(chunk) > minFallbackChunkLength {
				blocks = append(blocks, chunk)
			}
		}
	}

	kept := blocks[:0]
	for _, block := range blocks {
		if utf8.RuneCountInString(block) >= minBlockLength {
			kept = append(kept, block)
		}
	}
	return kept
}

// parseBlock runs the scoring rules over one block and derives the prompt.
// Returns nil when the block degenerates to noise.
func parseBlock(block string) *exam.Problem {
	b := &builder{
		block:       block,
		firstOption: -1,
		problem:     exam.Problem{Type: exam.ShortAnswer},
	}

	confidence := baseConfidence
	for _, rule := range scoringRules {
		if rule.apply(b) {
			confidence += rule.delta
		}
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	b.problem.Confidence = confidence

	prompt := b.block[b.numberEnd:]
	if b.problem.Type == exam.MultipleChoice && b.firstOption >= b.numberEnd {
		// options must never leak into the prompt
		prompt = b.block[b.numberEnd:b.firstOption]
	}
	prompt = strings.Join(strings.Fields(prompt), " ")
	if utf8.RuneCountInString(prompt) < exam.MinPromptLength {
		return nil
	}
	b.problem.Prompt = prompt

	return &b.problem
}
