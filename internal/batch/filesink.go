package batch

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes entries under a destination directory with atomic
// writes. Content goes to a temp file in the target directory first and
// is renamed into place on Commit, so a partially written file is never
// visible at its final path.
type FileSink struct {
	destDir   string
	overwrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite controls whether existing files are replaced. When false,
// an existing file is left alone and the entry is skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// NewFileSink creates a FileSink rooted at destDir. Parent directories of
// individual entries are created as needed.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		destDir:   destDir,
		overwrite: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Writer opens a committer for the given sink-relative slash path. A nil
// committer (with nil error) means the entry should be skipped because
// the file exists and overwriting is disabled.
func (s *FileSink) Writer(name string) (*Committer, error) {
	destPath := filepath.Join(s.destDir, filepath.FromSlash(name))

	if !s.overwrite {
		if _, err := os.Stat(destPath); err == nil {
			return nil, nil
		}
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".nds-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &Committer{
		destPath: destPath,
		tempFile: tempFile,
	}, nil
}

// Committer accumulates one entry's bytes in a temp file and renames it
// to the final path on Commit.
type Committer struct {
	destPath string
	tempFile *os.File
}

// Write implements io.Writer.
func (c *Committer) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *Committer) Commit() error {
	tempPath := c.tempFile.Name()

	if err := c.tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, c.destPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}

	return nil
}

// Discard closes and removes the temp file.
func (c *Committer) Discard() error {
	tempPath := c.tempFile.Name()
	_ = c.tempFile.Close()
	return os.Remove(tempPath)
}
