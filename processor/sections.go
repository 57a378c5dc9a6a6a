package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"pdfcrop/types"
)

const maxHeadingLength = 50

var headingRe = regexp.MustCompile(`^(\d+(?:\.\d+){0,2})(?:\s+|$)`)

// sentenceEnds are the runes after which a following line starts a new paragraph.
var sentenceEnds = []string{"。", "；", "!", "?", ".", "”"}

func IsHeading(line string) bool {
	if utf8.RuneCountInString(line) > maxHeadingLength {
		return false
	}
	return headingRe.MatchString(line)
}

// HeadingLevel returns 1, 2 or 3 for headings numbered "1", "1.2" or
// "1.2.3", and 0 for any other line.
func HeadingLevel(line string) int {
	if utf8.RuneCountInString(line) > maxHeadingLength {
		return 0
	}
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return strings.Count(m[1], ".") + 1
}

// CleanHeading strips the leading number from a heading. A heading that is
// only a number is returned unchanged.
func CleanHeading(line string) string {
	loc := headingRe.FindStringIndex(line)
	if loc == nil {
		return line
	}
	if rest := strings.TrimSpace(line[loc[1]:]); rest != "" {
		return rest
	}
	return line
}

// SplitLeveledSections tracks up to three heading levels and emits one row
// per heading with the content that follows it. A heading resets every
// deeper level. Lines before the first heading are dropped.
func SplitLeveledSections(lines []string) []types.LeveledSection {
	var (
		sections []types.LeveledSection
		levels   [3]string
		body     []string
		started  bool
	)
	flush := func() {
		if started {
			sections = append(sections, types.LeveledSection{
				Level1:  levels[0],
				Level2:  levels[1],
				Level3:  levels[2],
				Content: strings.Join(MergeLines(body), "\n"),
			})
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		level := HeadingLevel(line)
		if level == 0 {
			if started {
				body = append(body, line)
			}
			continue
		}

		flush()
		levels[level-1] = CleanHeading(line)
		for i := level; i < len(levels); i++ {
			levels[i] = ""
		}
		body = nil
		started = true
	}
	flush()

	return sections
}

// SplitSections groups lines under the numbered heading that precedes them.
// Lines before the first heading are dropped.
func SplitSections(lines []string) []types.Section {
	var (
		sections []types.Section
		title    string
		body     []string
	)
	flush := func() {
		if title != "" {
			sections = append(sections, types.Section{
				Title:   title,
				Content: strings.Join(MergeLines(body), "\n"),
			})
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsHeading(line) {
			flush()
			title = line
			body = nil
		} else if title != "" {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// MergeLines rejoins lines broken by page layout: a line continues the
// previous one unless the previous one ends a sentence.
func MergeLines(lines []string) []string {
	var result []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		if n := len(result); n > 0 && !endsSentence(result[n-1]) {
			result[n-1] += " " + line
		} else {
			result = append(result, line)
		}
	}
	return result
}

func endsSentence(s string) bool {
	for _, end := range sentenceEnds {
		if strings.HasSuffix(s, end) {
			return true
		}
	}
	return false
}
