package processor

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"pdfcrop/types"
)

const (
	CroppedName = "output_cropped.pdf"
	CSVName     = "output.csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes the CSV entry of a bundle.
type CSVWriter func(io.Writer) error

func SectionsCSV(sections []types.Section) CSVWriter {
	return func(w io.Writer) error {
		return WriteSectionsCSV(w, sections)
	}
}

func LeveledCSV(sections []types.LeveledSection) CSVWriter {
	return func(w io.Writer) error {
		return WriteLeveledCSV(w, sections)
	}
}

// WriteSectionsCSV writes sections as a BOM-prefixed UTF-8 CSV so that
// spreadsheet tools pick the right encoding.
func WriteSectionsCSV(w io.Writer, sections []types.Section) error {
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{s.Title, s.Content})
	}
	return writeTable(w, []string{"标题", "内容"}, rows)
}

// WriteLeveledCSV writes one row per heading with its three heading levels.
func WriteLeveledCSV(w io.Writer, sections []types.LeveledSection) error {
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{s.Level1, s.Level2, s.Level3, s.Content})
	}
	return writeTable(w, []string{"一级标题", "二级标题", "三级标题", "内容"}, rows)
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteBundle zips the cropped PDF at croppedPath together with the CSV
// produced by writeCSV.
func WriteBundle(w io.Writer, croppedPath string, writeCSV CSVWriter) error {
	zw := zip.NewWriter(w)

	pdfEntry, err := zw.Create(CroppedName)
	if err != nil {
		return err
	}
	f, err := os.Open(croppedPath)
	if err != nil {
		return fmt.Errorf("failed to open cropped PDF: %w", err)
	}
	_, err = io.Copy(pdfEntry, f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to add cropped PDF to archive: %w", err)
	}

	csvEntry, err := zw.Create(CSVName)
	if err != nil {
		return err
	}
	if err := writeCSV(csvEntry); err != nil {
		return fmt.Errorf("failed to add CSV to archive: %w", err)
	}

	return zw.Close()
}

// BatchEntry is the bundle produced for one file of a batch.
type BatchEntry struct {
	Filename string
	Archive  []byte
}

// WriteBatchBundle merges per-file bundles into one zip, placing each
// bundle's entries under a directory named after its file. Repeated names
// get a numeric suffix.
func WriteBatchBundle(w io.Writer, entries []BatchEntry) error {
	zw := zip.NewWriter(w)
	used := make(map[string]bool)

	for _, e := range entries {
		base := batchDir(e.Filename)
		dir := base
		for i := 2; used[dir]; i++ {
			dir = fmt.Sprintf("%s_%d", base, i)
		}
		used[dir] = true

		zr, err := zip.NewReader(bytes.NewReader(e.Archive), int64(len(e.Archive)))
		if err != nil {
			return fmt.Errorf("failed to read bundle for %s: %w", e.Filename, err)
		}
		for _, f := range zr.File {
			if err := copyEntry(zw, path.Join(dir, f.Name), f); err != nil {
				return fmt.Errorf("failed to add %s to batch archive: %w", e.Filename, err)
			}
		}
	}

	return zw.Close()
}

func batchDir(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}

func copyEntry(zw *zip.Writer, name string, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, rc)
	return err
}
