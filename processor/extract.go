package processor

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"pdfcrop/types"

	lpdf "github.com/ledongthuc/pdf"
)

// defaultPageHeight is A4 in points, used when a page carries no MediaBox.
const defaultPageHeight = 842.0

// rowTolerance is how far apart two baselines may be and still form one line.
const rowTolerance = 2.0

type glyph struct {
	X, Y, W, Size float64
	S             string
}

// row is one visual line of a page: its baseline, largest font size and text.
type row struct {
	Y    float64
	Size float64
	Text string
}

// pageBounds is the vertical extent of a page's MediaBox.
type pageBounds struct {
	Bottom float64
	Top    float64
}

// ExtractLines returns the text lines of every page that fall between the
// top and bottom margins, in reading order.
func ExtractLines(r io.ReaderAt, size int64, m types.Margins) (lines []string, err error) {
	err = walkPages(r, size, 0, func(bounds pageBounds, glyphs []glyph) {
		lines = append(lines, buildLines(glyphs, bounds.Top-m.Top, bounds.Bottom+m.Bottom)...)
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// walkPages calls fn with the bounds and glyphs of each page, stopping after
// limit pages when limit is positive.
func walkPages(r io.ReaderAt, size int64, limit int, fn func(pageBounds, []glyph)) (err error) {
	// ledongthuc panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to read PDF content: %v", rec)
		}
	}()

	reader, err := lpdf.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}

	n := reader.NumPage()
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		glyphs := make([]glyph, 0, len(content.Text))
		for _, t := range content.Text {
			glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
		}
		fn(mediaBounds(page), glyphs)
	}
	return nil
}

// mediaBounds reads the page MediaBox, inherited from the page tree if the
// page has none of its own.
func mediaBounds(page lpdf.Page) pageBounds {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == lpdf.Array && box.Len() == 4 {
			lly, ury := box.Index(1).Float64(), box.Index(3).Float64()
			if lly > ury {
				lly, ury = ury, lly
			}
			return pageBounds{Bottom: lly, Top: ury}
		}
	}
	return pageBounds{Top: defaultPageHeight}
}

// buildLines groups glyphs whose baseline lies within [minY, maxY] into
// lines, ordered top to bottom then left to right.
func buildLines(glyphs []glyph, maxY, minY float64) []string {
	rows := buildRows(glyphs, maxY, minY)
	lines := make([]string, 0, len(rows))
	for _, rw := range rows {
		lines = append(lines, rw.Text)
	}
	return lines
}

func buildRows(glyphs []glyph, maxY, minY float64) []row {
	var kept []glyph
	for _, g := range glyphs {
		if g.Y > maxY || g.Y < minY {
			continue
		}
		kept = append(kept, g)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Y > kept[j].Y })

	var (
		rows []row
		cur  []glyph
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if text := strings.TrimSpace(joinRow(cur)); text != "" {
			rw := row{Y: cur[0].Y, Text: text}
			for _, g := range cur {
				rw.Size = math.Max(rw.Size, g.Size)
			}
			rows = append(rows, rw)
		}
		cur = cur[:0]
	}

	for _, g := range kept {
		if len(cur) > 0 && math.Abs(cur[0].Y-g.Y) > rowTolerance {
			flush()
		}
		cur = append(cur, g)
	}
	flush()

	return rows
}

func joinRow(row []glyph) string {
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

	var sb strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > math.Max(prev.Size*0.2, 1) && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return sb.String()
}
