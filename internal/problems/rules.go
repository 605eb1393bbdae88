package problems

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hakbank/harvester/pkg/exam"
)

const (
	baseConfidence = 0.5
	maxConfidence  = 1.0
)

// questionNumberPatterns detect a question number at the start of a block.
// The same forms drive block segmentation; keep the two lists in sync.
var questionNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(\d{1,3})\.\s+`),
	regexp.MustCompile(`^\s*(\d{1,3})\)\s+`),
	regexp.MustCompile(`^\s*\[(\d{1,3})\]\s*`),
	regexp.MustCompile(`^\s*【(\d{1,3})】\s*`),
	regexp.MustCompile(`^\s*문\s*(\d{1,3})\s*[:.]\s*`),
	regexp.MustCompile(`^\s*제\s*(\d{1,3})\s*문\s*`),
}

// questionBoundary matches any question-number form at a line start, used
// to split a document into per-question blocks.
var questionBoundary = regexp.MustCompile(
	`(?m)^[ \t]*(?:\d{1,3}[.)][ \t]+|\[\d{1,3}\][ \t]*|【\d{1,3}】[ \t]*|문[ \t]*\d{1,3}[ \t]*[:.]|제[ \t]*\d{1,3}[ \t]*문)`)

// circledMarks are the option markers of Korean exam documents
var circledMarks = []string{"①", "②", "③", "④", "⑤"}

var anyCircledMark = regexp.MustCompile(`[①②③④⑤]`)

// optionPatterns capture the text of each circled-numeral option, one
// pattern per numeral, stopping at the next numeral or end of line.
var optionPatterns = buildOptionPatterns()

func buildOptionPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(circledMarks))
	for i, mark := range circledMarks {
		patterns[i] = regexp.MustCompile(mark + `\s*([^①②③④⑤` + "\n" + `]+)`)
	}
	return patterns
}

var (
	trueFalseMarkers = regexp.MustCompile(`O\s*/\s*X|참\s*/\s*거짓|\(O\)\s*\(X\)`)
	essayKeywords    = regexp.MustCompile(`서술하시오|논술하시오|설명하시오`)
)

var answerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`정답\s*[:：]\s*([^\n]+)`),
	regexp.MustCompile(`(?m)(?:^|\s)답\s*[:：]\s*([^\n]+)`),
	regexp.MustCompile(`\[정답\]\s*([^\n]+)`),
}

// explanationPatterns capture non-greedily up to the next question number
// or end of text
var explanationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)해설\s*[:：]\s*(.+?)\s*(?:\n[ \t]*\d{1,3}[.)][ \t]|\z)`),
	regexp.MustCompile(`(?s)\[해설\]\s*(.+?)\s*(?:\n[ \t]*\d{1,3}[.)][ \t]|\z)`),
	regexp.MustCompile(`(?s)풀이\s*[:：]\s*(.+?)\s*(?:\n[ \t]*\d{1,3}[.)][ \t]|\z)`),
}

// builder accumulates one problem while the scoring rules run over a block
type builder struct {
	block       string
	numberEnd   int // byte offset past the matched question-number prefix
	firstOption int // byte offset of the first circled numeral, -1 if none
	problem     exam.Problem
}

// scoringRule is one heuristic signal: a detector plus the confidence it
// contributes when it fires. Rules run in slice order; type classification
// is last-rule-wins.
type scoringRule struct {
	name  string
	delta float64
	apply func(b *builder) bool
}

var scoringRules = []scoringRule{
	{"question_number", 0.1, detectNumber},
	{"options", 0.2, detectOptions},
	{"true_false", 0.1, detectTrueFalse},
	{"essay", 0.1, detectEssay},
	{"answer", 0.15, detectAnswer},
	{"explanation", 0.1, detectExplanation},
}

func detectNumber(b *builder) bool {
	for _, pattern := range questionNumberPatterns {
		m := pattern.FindStringSubmatchIndex(b.block)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(b.block[m[2]:m[3]])
		if err != nil {
			continue
		}
		b.problem.Number = n
		b.numberEnd = m[1]
		return true
	}
	return false
}

func detectOptions(b *builder) bool {
	if idx := anyCircledMark.FindStringIndex(b.block); idx != nil {
		b.firstOption = idx[0]
	}

	var options []string
	for _, pattern := range optionPatterns {
		m := pattern.FindStringSubmatch(b.block)
		if m == nil {
			continue
		}
		option := strings.Join(strings.Fields(m[1]), " ")
		if option != "" {
			options = append(options, option)
		}
	}
	if len(options) < 2 {
		return false
	}

	b.problem.Type = exam.MultipleChoice
	b.problem.Options = options
	return true
}

func detectTrueFalse(b *builder) bool {
	if !trueFalseMarkers.MatchString(b.block) {
		return false
	}
	b.problem.Type = exam.TrueFalse
	b.problem.Options = nil
	return true
}

func detectEssay(b *builder) bool {
	if !essayKeywords.MatchString(b.block) {
		return false
	}
	b.problem.Type = exam.Essay
	b.problem.Options = nil
	return true
}

func detectAnswer(b *builder) bool {
	for _, pattern := range answerPatterns {
		if m := pattern.FindStringSubmatch(b.block); m != nil {
			b.problem.Answer = strings.TrimSpace(m[1])
			return true
		}
	}
	return false
}

func detectExplanation(b *builder) bool {
	for _, pattern := range explanationPatterns {
		if m := pattern.FindStringSubmatch(b.block); m != nil {
			b.problem.Explanation = strings.TrimSpace(m[1])
			return true
		}
	}
	return false
}
