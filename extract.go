package nds

import (
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meigma/nds/internal/batch"
)

// Names of the fixed outputs and top-level directories extraction
// produces under the destination root.
const (
	headerName = "header.bin"
	arm9Name   = "arm9.bin"
	arm7Name   = "arm7.bin"
	overlayDir = "overlay"
	dataDir    = "data"
)

// Failure describes one file that could not be extracted.
type Failure = batch.Failure

// ExtractError aggregates per-entry extraction failures. Every file not
// named in Failures was written successfully.
type ExtractError struct {
	Failures []Failure
}

func (e *ExtractError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "nds: %d file(s) failed to extract:", len(e.Failures))
	for _, f := range e.Failures {
		sb.WriteString("\n\t")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

// Extract materializes the image under dest:
//
//	dest/header.bin
//	dest/arm9.bin
//	dest/arm7.bin
//	dest/overlay/overlay_NNNN
//	dest/data/<tree>
//
// The destination root, the fixed dumps, and the two top-level
// directories are written first; any failure there aborts immediately,
// since nothing downstream could proceed. Overlays and named files are
// then written as two independent best-effort parallel batches: a failing
// entry is recorded and its siblings keep going, and overlay failures do
// not stop the file batch. If any entry failed, Extract returns an
// *ExtractError naming each one; files already written stay written.
func (r *ROM) Extract(dest string, opts ...ExtractOption) error {
	cfg := extractConfig{overwrite: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Decode before touching the destination: a structural error must
	// leave zero output behind.
	fsys, err := r.Filesystem()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return fmt.Errorf("create destination root: %w", err)
	}

	sink := batch.NewFileSink(dest, batch.WithOverwrite(cfg.overwrite))
	proc := batch.NewProcessor(r.source, batch.WithWorkers(cfg.workers))

	fixed := []struct {
		name   string
		offset uint32
		length uint32
	}{
		{headerName, 0, r.header.HeaderSize},
		{arm9Name, r.header.ARM9.ROMOffset, r.header.ARM9.Size},
		{arm7Name, r.header.ARM7.ROMOffset, r.header.ARM7.Size},
	}
	for _, f := range fixed {
		end := uint64(f.offset) + uint64(f.length)
		if end > math.MaxUint32 {
			return fmt.Errorf("write %s: %w", f.name, batch.ErrRangeBounds)
		}
		entry := batch.Entry{Name: f.name, Start: f.offset, End: uint32(end)}
		if err := proc.Copy(entry, sink); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	for _, dir := range []string{overlayDir, dataDir} {
		if err := os.MkdirAll(filepath.Join(dest, dir), 0o750); err != nil {
			return fmt.Errorf("create %s directory: %w", dir, err)
		}
	}

	failures := proc.Process(batchEntries(overlayDir, fsys.Overlays()), sink)
	failures = append(failures, proc.Process(batchEntries(dataDir, fsys.Files()), sink)...)

	if len(failures) > 0 {
		return &ExtractError{Failures: failures}
	}
	return nil
}

func batchEntries(prefix string, files []FileEntry) []batch.Entry {
	entries := make([]batch.Entry, len(files))
	for i, f := range files {
		entries[i] = batch.Entry{
			ID:    f.ID,
			Name:  path.Join(prefix, f.Path),
			Start: f.Alloc.Start,
			End:   f.Alloc.End,
		}
	}
	return entries
}

// ValidateExtractedDir checks that root holds the layout Extract
// produces. Validity is a point-in-time fact; later operations on the
// tree can still fail.
func ValidateExtractedDir(root string) error {
	for _, dir := range []string{dataDir, overlayDir} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: missing directory %q", ErrLayout, dir)
		}
	}
	for _, name := range []string{headerName, arm9Name, arm7Name} {
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil || info.IsDir() {
			return fmt.Errorf("%w: missing file %q", ErrLayout, name)
		}
	}
	return nil
}
