package client

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const DownloadName = "processed_output.zip"

// Downloader materialises a response body under name and reports where it
// went and how many bytes were written.
type Downloader interface {
	Download(name string, body io.Reader) (path string, size int64, err error)
}

// DirDownloader saves downloads into Dir, replacing any earlier file of the
// same name only once the new one is complete.
type DirDownloader struct {
	Dir string
}

func (d DirDownloader) Download(name string, body io.Reader) (string, int64, error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, "."+name+".*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("failed to write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}

	dest := filepath.Join(d.Dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	return dest, n, nil
}
