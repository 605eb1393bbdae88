package exam

import (
	"fmt"
	"unicode/utf8"
)

// ProblemType classifies an extracted problem
type ProblemType string

const (
	MultipleChoice ProblemType = "MULTIPLE_CHOICE"
	ShortAnswer    ProblemType = "SHORT_ANSWER"
	Essay          ProblemType = "ESSAY"
	TrueFalse      ProblemType = "TRUE_FALSE"
)

// MinPromptLength is the shortest prompt a problem may carry. Candidates
// whose prompt falls below this are dropped during extraction, never emitted.
const MinPromptLength = 10

// Problem is one question detected within a document
type Problem struct {
	Number      int         `json:"number"` // 0 if undetected
	Prompt      string      `json:"prompt"`
	Options     []string    `json:"options,omitempty"`     // empty unless multiple choice
	Answer      string      `json:"answer,omitempty"`      // empty if undetected
	Explanation string      `json:"explanation,omitempty"` // empty if undetected
	Type        ProblemType `json:"type"`
	Confidence  float64     `json:"confidence"` // in [0,1]
}

// DocumentMetadata holds document-level exam attributes mined from the whole
// text. Zero values mean the attribute was not detected.
type DocumentMetadata struct {
	Year       int    `json:"year,omitempty"`
	Month      int    `json:"month,omitempty"`
	ExamName   string `json:"exam_name,omitempty"`
	Subject    string `json:"subject,omitempty"`
	GradeLevel string `json:"grade_level,omitempty"`
}

// ExtractionResult is the per-document output of problem extraction
type ExtractionResult struct {
	Problems   []Problem        `json:"problems"`
	Metadata   DocumentMetadata `json:"metadata"`
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"` // mean over problems, 0 if none
}

// Validate checks if the problem satisfies the emission invariants
func (p *Problem) Validate() error {
	if utf8.RuneCountInString(p.Prompt) < MinPromptLength {
		return fmt.Errorf("prompt must be at least %d characters", MinPromptLength)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %f outside [0,1]", p.Confidence)
	}
	switch p.Type {
	case MultipleChoice, ShortAnswer, Essay, TrueFalse:
	default:
		return fmt.Errorf("unknown problem type %q", p.Type)
	}
	if p.Type != MultipleChoice && len(p.Options) > 0 {
		return fmt.Errorf("%s problem cannot carry options", p.Type)
	}
	return nil
}

// MeanConfidence returns the arithmetic mean of the problems' confidences,
// or 0 when the slice is empty.
func MeanConfidence(problems []Problem) float64 {
	if len(problems) == 0 {
		return 0
	}
	var sum float64
	for _, p := range problems {
		sum += p.Confidence
	}
	return sum / float64(len(problems))
}
