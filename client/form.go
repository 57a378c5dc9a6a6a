package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const DefaultMarginCm = "2"

// File is a picked file: its original name and a way to read its bytes.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileFromPath picks a file from disk, keeping its base name.
func FileFromPath(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

var ErrNotPDF = errors.New("not a PDF file")

var pdfMagic = []byte("%PDF")

// PickPDF picks path only if it is named *.pdf and starts with the PDF
// header, mirroring a file picker restricted to PDFs.
func PickPDF(path string) (File, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return File{}, fmt.Errorf("%s: %w: expected a .pdf extension", path, ErrNotPDF)
	}

	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return File{}, fmt.Errorf("%s: %w: missing %%PDF header", path, ErrNotPDF)
	}

	return FileFromPath(path), nil
}

// CropRequest is a snapshot of the form taken when a submission starts.
type CropRequest struct {
	TopMarginCm    string
	BottomMarginCm string
	File           *File
}

// Form holds the user's current input. Setters store values verbatim.
type Form struct {
	mu             sync.Mutex
	topMarginCm    string
	bottomMarginCm string
	file           *File
}

func NewForm() *Form {
	return &Form{
		topMarginCm:    DefaultMarginCm,
		bottomMarginCm: DefaultMarginCm,
	}
}

func (f *Form) SetTopMarginCm(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topMarginCm = v
}

func (f *Form) SetBottomMarginCm(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bottomMarginCm = v
}

func (f *Form) SetFile(file File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.file = &file
}

func (f *Form) ClearFile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.file = nil
}

func (f *Form) Snapshot() CropRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return CropRequest{
		TopMarginCm:    f.topMarginCm,
		BottomMarginCm: f.bottomMarginCm,
		File:           f.file,
	}
}
