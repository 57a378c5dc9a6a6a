package processor

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"pdfcrop/types"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// MarginError reports margins that leave nothing visible on a page.
type MarginError struct {
	Page    int
	Height  float64
	Margins types.Margins
}

func (e *MarginError) Error() string {
	return fmt.Sprintf("margins top=%.2fpt bottom=%.2fpt leave no content on page %d (height %.2fpt)",
		e.Margins.Top, e.Margins.Bottom, e.Page, e.Height)
}

// CropFile trims the top and bottom margins of every page of inputPath and
// writes the result to outputPath. Margins are given in points and must
// leave some height on every page.
func CropFile(inputPath, outputPath string, m types.Margins) error {
	if m.IsZero() {
		return copyFile(inputPath, outputPath)
	}

	pages, err := pageBoxes(inputPath)
	if err != nil {
		return err
	}
	if err := checkMargins(pages, m); err != nil {
		return err
	}

	conf := model.NewDefaultConfiguration()

	box, err := model.ParseBox(cropBox(m), pdftypes.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse crop box: %w", err)
	}

	if err := api.CropFile(inputPath, outputPath, []string{"1-"}, box, conf); err != nil {
		return fmt.Errorf("failed to crop PDF: %w", err)
	}

	return nil
}

// TrimPage writes page (1-based) of inputPath as a single page PDF.
func TrimPage(inputPath, outputPath string, page int) error {
	conf := model.NewDefaultConfiguration()
	if err := api.TrimFile(inputPath, outputPath, []string{strconv.Itoa(page)}, conf); err != nil {
		return fmt.Errorf("failed to extract page %d: %w", page, err)
	}
	return nil
}

// cropBox renders margins as a pdfcpu relative box: top right bottom left.
func cropBox(m types.Margins) string {
	return fmt.Sprintf("%.2f 0 %.2f 0", m.Top, m.Bottom)
}

func pageBoxes(path string) ([]model.PageBoundaries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := api.Boxes(f, nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read page boxes: %w", err)
	}
	return pages, nil
}

func checkMargins(pages []model.PageBoundaries, m types.Margins) error {
	for i, pb := range pages {
		media := pb.MediaBox()
		if media == nil {
			continue
		}
		if h := media.Height(); m.Top+m.Bottom >= h {
			return &MarginError{Page: i + 1, Height: h, Margins: m}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy PDF: %w", err)
	}
	return out.Close()
}
