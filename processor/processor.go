package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"pdfcrop/types"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPreviewPage is shown when a preview names no page.
	DefaultPreviewPage = 3
	batchWorkers       = 4
)

type Result struct {
	Archive  []byte
	Sections int
	// Margins are the margins applied, with detected sides resolved.
	Margins types.Margins
}

type PDFProcessor interface {
	Process(ctx context.Context, src io.Reader, opts types.ProcessOptions) (*Result, error)
	Preview(ctx context.Context, src io.Reader, m types.Margins, page int) ([]byte, error)
}

// Processor crops an uploaded PDF and extracts its numbered sections,
// returning both as a zip archive.
type Processor struct {
	logger *slog.Logger
}

func New() *Processor {
	return &Processor{
		logger: slog.Default(),
	}
}

func (p *Processor) Process(ctx context.Context, src io.Reader, opts types.ProcessOptions) (*Result, error) {
	tempDir, err := os.MkdirTemp("", "pdfcrop-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	croppedPath := filepath.Join(tempDir, "cropped.pdf")

	if err := saveSource(src, sourcePath); err != nil {
		return nil, err
	}

	m, err := resolveMargins(sourcePath, opts.Margins)
	if err != nil {
		return nil, err
	}
	if opts.Margins.IsAuto() {
		p.logger.Info("margins detected", "topPt", m.Top, "bottomPt", m.Bottom)
	}

	var (
		writeCSV CSVWriter
		rows     int
	)
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return CropFile(sourcePath, croppedPath, m)
	})

	g.Go(func() error {
		lines, err := extractFile(sourcePath, m)
		if err != nil {
			return err
		}
		if opts.Layout == types.LayoutLevels {
			sections := SplitLeveledSections(lines)
			writeCSV, rows = LeveledCSV(sections), len(sections)
		} else {
			sections := SplitSections(lines)
			writeCSV, rows = SectionsCSV(sections), len(sections)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, croppedPath, writeCSV); err != nil {
		return nil, err
	}

	p.logger.Info("PDF processed", "sections", rows, "layout", opts.Layout, "archiveBytes", buf.Len())
	return &Result{Archive: buf.Bytes(), Sections: rows, Margins: m}, nil
}

// Preview crops the PDF and returns one page of the result as a PDF. Pages
// below 1 select DefaultPreviewPage; pages past the end select the last page.
func (p *Processor) Preview(ctx context.Context, src io.Reader, m types.Margins, page int) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "pdfcrop-preview-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	croppedPath := filepath.Join(tempDir, "cropped.pdf")
	previewPath := filepath.Join(tempDir, "preview.pdf")

	if err := saveSource(src, sourcePath); err != nil {
		return nil, err
	}

	m, err = resolveMargins(sourcePath, m)
	if err != nil {
		return nil, err
	}
	if err := CropFile(sourcePath, croppedPath, m); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := pageBoxes(croppedPath)
	if err != nil {
		return nil, err
	}
	page = previewPage(page, len(pages))

	if err := TrimPage(croppedPath, previewPath, page); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(previewPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read preview: %w", err)
	}

	p.logger.Info("preview rendered", "page", page, "pages", len(pages), "bytes", len(data))
	return data, nil
}

func previewPage(page, count int) int {
	if page < 1 {
		page = DefaultPreviewPage
	}
	if page > count {
		page = count
	}
	return page
}

// Source is one uploaded file of a batch.
type Source struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

type BatchResult struct {
	Archive []byte
	Results []*Result
}

// ProcessBatch runs p over every source with bounded concurrency and merges
// the per-file bundles into one archive. The first failure cancels the rest.
func ProcessBatch(ctx context.Context, p PDFProcessor, sources []Source, opts types.ProcessOptions) (*BatchResult, error) {
	results := make([]*Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)

	for i, src := range sources {
		g.Go(func() error {
			rc, err := src.Open()
			if err != nil {
				return fmt.Errorf("%s: %w", src.Filename, err)
			}
			defer rc.Close()

			res, err := p.Process(gctx, rc, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Filename, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]BatchEntry, len(sources))
	for i, src := range sources {
		entries[i] = BatchEntry{Filename: src.Filename, Archive: results[i].Archive}
	}

	var buf bytes.Buffer
	if err := WriteBatchBundle(&buf, entries); err != nil {
		return nil, err
	}
	return &BatchResult{Archive: buf.Bytes(), Results: results}, nil
}

func extractFile(path string, m types.Margins) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ExtractLines(f, info.Size(), m)
}

func saveSource(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create source file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to save uploaded PDF: %w", err)
	}
	return f.Close()
}
