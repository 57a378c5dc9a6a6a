package processor

import (
	"io"
	"math"
	"os"
	"sort"

	"pdfcrop/types"
)

const (
	// detectSamplePages is how many leading pages feed margin detection.
	detectSamplePages = 5
	// detectBand is the distance from a page edge, in points, within which
	// the outermost line counts as a header or footer.
	detectBand = 150.0
	// fallbackMargin is used for a side where no page showed a header or footer.
	fallbackMargin = 50.0
	// descentRatio approximates how far glyphs reach below the baseline.
	descentRatio = 0.25
)

// DetectMargins estimates header and footer heights in points from the
// first pages of a PDF. On each page the topmost line within detectBand of
// the top edge is taken as a header and the bottommost line within
// detectBand of the bottom edge as a footer; the most common height across
// pages wins.
func DetectMargins(r io.ReaderAt, size int64) (types.Margins, error) {
	var headers, footers []float64

	err := walkPages(r, size, detectSamplePages, func(bounds pageBounds, glyphs []glyph) {
		rows := buildRows(glyphs, math.Inf(1), math.Inf(-1))
		if len(rows) == 0 {
			return
		}

		first := rows[0]
		isHeader := bounds.Top-(first.Y+first.Size) < detectBand
		if isHeader {
			headers = append(headers, math.Max(0, math.Ceil(bounds.Top-(first.Y-descentRatio*first.Size))))
		}

		last := rows[len(rows)-1]
		if len(rows) == 1 && isHeader {
			return
		}
		if (last.Y-descentRatio*last.Size)-bounds.Bottom < detectBand {
			footers = append(footers, math.Max(0, math.Ceil(last.Y+last.Size-bounds.Bottom)))
		}
	})
	if err != nil {
		return types.Margins{}, err
	}

	return types.Margins{
		Top:    mostCommon(headers, fallbackMargin),
		Bottom: mostCommon(footers, fallbackMargin),
	}, nil
}

// mostCommon returns the most frequent value, preferring the larger one on
// a tie, or fallback when values is empty.
func mostCommon(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}

	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	keys := make([]float64, 0, len(counts))
	for v := range counts {
		keys = append(keys, v)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] > keys[j]
	})
	return keys[0]
}

// resolveMargins replaces the sides of m flagged for detection with the
// heights detected in the PDF at path.
func resolveMargins(path string, m types.Margins) (types.Margins, error) {
	if !m.IsAuto() {
		return m, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Margins{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return types.Margins{}, err
	}

	detected, err := DetectMargins(f, info.Size())
	if err != nil {
		return types.Margins{}, err
	}

	resolved := types.Margins{Top: m.Top, Bottom: m.Bottom}
	if m.AutoTop {
		resolved.Top = detected.Top
	}
	if m.AutoBottom {
		resolved.Bottom = detected.Bottom
	}
	return resolved, nil
}
