package processor

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"pdfcrop/types"

	"github.com/google/go-cmp/cmp"
)

func TestWriteSectionsCSV(t *testing.T) {
	var buf bytes.Buffer
	sections := []types.Section{
		{Title: "1 总则", Content: "第一行\n第二行"},
		{Title: "2 术语", Content: `含 "引号", 逗号`},
	}
	if err := WriteSectionsCSV(&buf, sections); err != nil {
		t.Fatalf("WriteSectionsCSV: %v", err)
	}

	data := buf.Bytes()
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatalf("CSV does not start with a UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}

	want := [][]string{
		{"标题", "内容"},
		{"1 总则", "第一行\n第二行"},
		{"2 术语", `含 "引号", 逗号`},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBundle(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "cropped.pdf")
	pdfBytes := []byte("%PDF-1.4 fake")
	if err := os.WriteFile(pdfPath, pdfBytes, 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, pdfPath, SectionsCSV([]types.Section{{Title: "1 总则", Content: "x"}})); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	var names []string
	contents := map[string][]byte{}
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = b
	}

	if diff := cmp.Diff([]string{CroppedName, CSVName}, names); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(contents[CroppedName], pdfBytes) {
		t.Errorf("cropped PDF entry = %q, want %q", contents[CroppedName], pdfBytes)
	}
	if !bytes.HasPrefix(contents[CSVName], utf8BOM) {
		t.Errorf("CSV entry missing BOM")
	}
}

func TestWriteBundleMissingPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBundle(&buf, filepath.Join(t.TempDir(), "missing.pdf"), SectionsCSV(nil)); err == nil {
		t.Fatal("expected error for missing cropped PDF")
	}
}

func TestWriteLeveledCSV(t *testing.T) {
	var buf bytes.Buffer
	sections := []types.LeveledSection{
		{Level1: "总则", Content: ""},
		{Level1: "总则", Level2: "适用范围", Level3: "一般规定", Content: "应符合下列规定。"},
	}
	if err := WriteLeveledCSV(&buf, sections); err != nil {
		t.Fatalf("WriteLeveledCSV: %v", err)
	}

	want := [][]string{
		{"一级标题", "二级标题", "三级标题", "内容"},
		{"总则", "", "", ""},
		{"总则", "适用范围", "一般规定", "应符合下列规定。"},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBatchBundle(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "cropped.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0644); err != nil {
		t.Fatal(err)
	}
	var single bytes.Buffer
	if err := WriteBundle(&single, pdfPath, SectionsCSV(nil)); err != nil {
		t.Fatal(err)
	}

	entries := []BatchEntry{
		{Filename: "report.pdf", Archive: single.Bytes()},
		{Filename: `C:\uploads\report.pdf`, Archive: single.Bytes()},
		{Filename: "report_2.pdf", Archive: single.Bytes()},
		{Filename: ".pdf", Archive: single.Bytes()},
	}

	var buf bytes.Buffer
	if err := WriteBatchBundle(&buf, entries); err != nil {
		t.Fatalf("WriteBatchBundle: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	want := []string{
		"report/" + CroppedName, "report/" + CSVName,
		"report_2/" + CroppedName, "report_2/" + CSVName,
		"report_2_2/" + CroppedName, "report_2_2/" + CSVName,
		"document/" + CroppedName, "document/" + CSVName,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("batch entries mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBatchBundleRejectsBadArchive(t *testing.T) {
	var buf bytes.Buffer
	err := WriteBatchBundle(&buf, []BatchEntry{{Filename: "x.pdf", Archive: []byte("not a zip")}})
	if err == nil {
		t.Fatal("expected error for corrupt bundle")
	}
}
