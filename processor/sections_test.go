package processor

import (
	"strings"
	"testing"

	"pdfcrop/types"

	"github.com/google/go-cmp/cmp"
)

func TestIsHeading(t *testing.T) {
	testCases := []struct {
		line string
		want bool
	}{
		{line: "1 总则", want: true},
		{line: "1.1 适用范围", want: true},
		{line: "3.2.4 Materials", want: true},
		{line: "12", want: true},
		{line: "1.2.3.4 too deep", want: false},
		{line: "2020年发布", want: false},
		{line: "第1章", want: false},
		{line: "1.5m spacing", want: false},
		{line: "1 " + strings.Repeat("长", 50), want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			if got := IsHeading(tc.line); got != tc.want {
				t.Errorf("IsHeading(%q) = %v, want %v", tc.line, got, tc.want)
			}
		})
	}
}

func TestMergeLines(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "broken sentence",
			lines: []string{"本规范适用于新建", "和改建工程。", "下一段。"},
			want:  []string{"本规范适用于新建 和改建工程。", "下一段。"},
		},
		{
			name:  "each ends a sentence",
			lines: []string{"a.", "b?", "c!"},
			want:  []string{"a.", "b?", "c!"},
		},
		{
			name:  "colon continues",
			lines: []string{"包括以下内容：", "继续"},
			want:  []string{"包括以下内容： 继续"},
		},
		{
			name:  "closing quote",
			lines: []string{"他说：“完成。”", "新行"},
			want:  []string{"他说：“完成。”", "新行"},
		},
		{
			name:  "blank lines skipped",
			lines: []string{"", "x", ""},
			want:  []string{"x"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeLines(tc.lines)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("MergeLines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitSections(t *testing.T) {
	lines := []string{
		"封面文字",
		"1 总则",
		"1.1 目的",
		"为规范施工",
		"制定本标准。",
		"  ",
		"2 术语",
		"2.1 基准面",
		"计算高度的起始面。",
	}

	want := []types.Section{
		{Title: "1 总则", Content: ""},
		{Title: "1.1 目的", Content: "为规范施工 制定本标准。"},
		{Title: "2 术语", Content: ""},
		{Title: "2.1 基准面", Content: "计算高度的起始面。"},
	}

	got := SplitSections(lines)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitSections mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitSectionsNoHeadings(t *testing.T) {
	if got := SplitSections([]string{"just text", "more text"}); len(got) != 0 {
		t.Errorf("expected no sections, got %d", len(got))
	}
}

func TestHeadingLevel(t *testing.T) {
	testCases := []struct {
		line  string
		level int
		clean string
	}{
		{line: "1 总则", level: 1, clean: "总则"},
		{line: "2.3 材料要求", level: 2, clean: "材料要求"},
		{line: "4.1.2 Concrete", level: 3, clean: "Concrete"},
		{line: "7", level: 1, clean: "7"},
		{line: "1.2.3.4 too deep", level: 0, clean: "1.2.3.4 too deep"},
		{line: "本条为正文", level: 0, clean: "本条为正文"},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			if got := HeadingLevel(tc.line); got != tc.level {
				t.Errorf("HeadingLevel(%q) = %d, want %d", tc.line, got, tc.level)
			}
			if got := CleanHeading(tc.line); got != tc.clean {
				t.Errorf("CleanHeading(%q) = %q, want %q", tc.line, got, tc.clean)
			}
		})
	}
}

func TestSplitLeveledSections(t *testing.T) {
	lines := []string{
		"封面文字",
		"1 总则",
		"1.1 适用范围",
		"本规范适用于新建",
		"和改建工程。",
		"1.1.1 一般规定",
		"应符合下列规定。",
		"1.2 术语",
		"2 材料",
		"2.1.1 钢筋",
		"钢筋应检验。",
	}

	want := []types.LeveledSection{
		{Level1: "总则"},
		{Level1: "总则", Level2: "适用范围", Content: "本规范适用于新建 和改建工程。"},
		{Level1: "总则", Level2: "适用范围", Level3: "一般规定", Content: "应符合下列规定。"},
		{Level1: "总则", Level2: "术语"},
		{Level1: "材料"},
		{Level1: "材料", Level3: "钢筋", Content: "钢筋应检验。"},
	}

	got := SplitLeveledSections(lines)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitLeveledSections mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitLeveledSectionsNoHeadings(t *testing.T) {
	if got := SplitLeveledSections([]string{"正文", "更多正文"}); len(got) != 0 {
		t.Errorf("expected no sections, got %v", got)
	}
}
