package client

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFormDefaults(t *testing.T) {
	req := NewForm().Snapshot()
	if req.TopMarginCm != "2" || req.BottomMarginCm != "2" {
		t.Errorf("margins = %q/%q, want 2/2", req.TopMarginCm, req.BottomMarginCm)
	}
	if req.File != nil {
		t.Errorf("file = %+v, want none", req.File)
	}
}

func TestFormSettersAreIndependent(t *testing.T) {
	f := NewForm()
	f.SetTopMarginCm("not a number")
	if got := f.Snapshot(); got.TopMarginCm != "not a number" || got.BottomMarginCm != "2" {
		t.Errorf("after SetTopMarginCm: %+v", got)
	}

	f.SetBottomMarginCm("")
	f.SetFile(memFile("a.pdf", "x"))
	got := f.Snapshot()
	if got.BottomMarginCm != "" || got.TopMarginCm != "not a number" || got.File == nil || got.File.Name != "a.pdf" {
		t.Errorf("after SetBottomMarginCm/SetFile: %+v", got)
	}

	f.ClearFile()
	if f.Snapshot().File != nil {
		t.Error("ClearFile left a file selected")
	}
}

func TestFileFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	f := FileFromPath(path)
	if f.Name != "report.pdf" {
		t.Errorf("Name = %q", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "%PDF" {
		t.Errorf("content = %q", b)
	}
}

func TestPickPDF(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	testCases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "pdf", path: write("doc.pdf", "%PDF-1.7\n...")},
		{name: "upper case extension", path: write("DOC.PDF", "%PDF-1.4")},
		{name: "wrong extension", path: write("doc.txt", "%PDF-1.7"), wantErr: true},
		{name: "wrong header", path: write("fake.pdf", "hello world"), wantErr: true},
		{name: "too short", path: write("short.pdf", "%P"), wantErr: true},
		{name: "missing", path: filepath.Join(dir, "missing.pdf"), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			file, err := PickPDF(tc.path)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("PickPDF(%q) succeeded, want error", tc.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("PickPDF(%q): %v", tc.path, err)
			}
			if file.Name != filepath.Base(tc.path) {
				t.Errorf("Name = %q, want %q", file.Name, filepath.Base(tc.path))
			}
		})
	}

	if _, err := PickPDF(filepath.Join(dir, "fake.pdf")); !errors.Is(err, ErrNotPDF) {
		t.Errorf("error = %v, want ErrNotPDF", err)
	}
}
