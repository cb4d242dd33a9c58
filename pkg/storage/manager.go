package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "apodget/pkg/errors"

	"github.com/google/uuid"
)

// partSuffix marks an in-progress download
const partSuffix = ".part"

// FileNameFromURL returns the text after the final "/" of rawURL, without any
// query or fragment. It returns fallback when that text is empty.
func FileNameFromURL(rawURL, fallback string) string {
	i := strings.LastIndex(rawURL, "/")
	if i < 0 {
		return fallback
	}
	name := rawURL[i+1:]
	if j := strings.IndexAny(name, "?#"); j >= 0 {
		name = name[:j]
	}
	if name == "" || name == "." || name == ".." {
		return fallback
	}
	return name
}

// Manager saves files into an existing directory
type Manager struct {
	outputDir string
}

// NewManager creates a storage manager over dir. The directory must already exist.
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeDownload,
			Message: "download directory is not accessible",
			Path:    dir,
			Err:     err,
		}
	}
	if !info.IsDir() {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeDownload,
			Message: "download path is not a directory",
			Path:    dir,
		}
	}

	return &Manager{outputDir: dir}, nil
}

// Path returns the destination path for name
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether a file called name is already in the directory
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Save streams r into name. Data is written to a uniquely named partial file
// first and renamed into place, so the destination is never half written.
func (m *Manager) Save(r io.Reader, name string) (string, error) {
	filename := m.Path(name)
	tempFile := fmt.Sprintf("%s.%s%s", filename, uuid.NewString(), partSuffix)

	fail := func(msg string, err error) (string, error) {
		os.Remove(tempFile)
		return "", &errs.Error{
			Type:    errs.ErrorTypeDownload,
			Message: fmt.Sprintf("%s (destination %s)", msg, filename),
			Path:    tempFile,
			Err:     err,
		}
	}

	out, err := os.OpenFile(tempFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeDownload,
			Message: "failed to create partial file",
			Path:    tempFile,
			Err:     err,
		}
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		return fail("failed to write image data", err)
	}
	if closeErr != nil {
		return fail("failed to close file", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		return fail("failed to rename partial file", err)
	}

	return filename, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
