package problems

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hakbank/harvester/pkg/exam"
)

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})학년도`),
	regexp.MustCompile(`(\d{4})년\s*(?:수능|모의)`),
}

var monthPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})월\s*(?:모의|학력)`),
}

var examNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`수능`),
	regexp.MustCompile(`모의고사|모의평가`),
	regexp.MustCompile(`학력평가`),
	regexp.MustCompile(`전국연합|전국모의`),
	regexp.MustCompile(`중간고사|기말고사`),
}

// subjectNames is checked in order; compound names precede their prefixes
// so 사회문화 wins over 사회.
var subjectNames = []string{
	"생활과 윤리", "윤리와 사상", "한국지리", "세계지리", "동아시아사", "세계사",
	"사회문화", "정치와 법", "생명과학", "지구과학", "물리학", "물리", "화학",
	"한국사", "국어", "수학", "영어", "경제", "사회", "과학", "역사", "도덕",
	"기술가정", "음악", "미술", "체육",
}

var gradePatterns = []*regexp.Regexp{
	regexp.MustCompile(`고등학교\s*([1-3])\s*학년`),
	regexp.MustCompile(`중학교\s*([1-3])\s*학년`),
	regexp.MustCompile(`([고중])\s*([1-3])`),
}

// ExtractMetadata mines document-level exam attributes from the whole text.
// Each category stops at its first match; everything is best-effort and a
// missing match just leaves the field unset.
func ExtractMetadata(text string) exam.DocumentMetadata {
	var meta exam.DocumentMetadata

	for _, pattern := range yearPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			meta.Year, _ = strconv.Atoi(m[1])
			break
		}
	}

	for _, pattern := range monthPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			meta.Month, _ = strconv.Atoi(m[1])
			break
		}
	}

	for _, pattern := range examNamePatterns {
		if m := pattern.FindString(text); m != "" {
			meta.ExamName = m
			break
		}
	}

	for _, name := range subjectNames {
		if strings.Contains(text, name) {
			meta.Subject = name
			break
		}
	}

	meta.GradeLevel = detectGrade(text)

	return meta
}

func detectGrade(text string) string {
	if m := gradePatterns[0].FindStringSubmatch(text); m != nil {
		return "고" + m[1]
	}
	if m := gradePatterns[1].FindStringSubmatch(text); m != nil {
		return "중" + m[1]
	}
	if m := gradePatterns[2].FindStringSubmatch(text); m != nil {
		return m[1] + m[2]
	}
	return ""
}
