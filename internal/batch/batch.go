// Package batch copies resolved byte ranges from a shared random-access
// source onto the filesystem, fanning entries out across a bounded worker
// pool. A single entry's failure is recorded and never stops its
// siblings: the batch is best effort, then report.
package batch

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrRangeBounds is returned for an entry whose byte range is inverted or
// runs past the end of the source image.
var ErrRangeBounds = errors.New("batch: byte range out of image bounds")

// ByteSource provides random access to the image. It must be safe for
// concurrent ReadAt calls.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Entry is one byte range to materialize. Name is the slash-separated
// path relative to the sink's destination directory.
type Entry struct {
	ID    uint16
	Name  string
	Start uint32
	End   uint32
}

// Failure records one entry that could not be written, with enough
// context to diagnose it.
type Failure struct {
	Name string
	ID   uint16
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (id %d): %v", f.Name, f.ID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Processor fans independent range copies out across workers. The source
// is read-only and shared without locking; the failure list is the only
// shared mutable state.
type Processor struct {
	source  ByteSource
	workers int // 0 = auto, <0 = serial, >0 = fixed count
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of workers. Values < 0 force serial
// processing, zero sizes the pool from GOMAXPROCS.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// NewProcessor creates a processor reading from source.
func NewProcessor(source ByteSource, opts ...ProcessorOption) *Processor {
	p := &Processor{source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process writes every entry through the sink and returns the failures.
// Entries are independent: no ordering is guaranteed, and an entry that
// fails does not abort the rest. A nil return means the whole batch
// succeeded.
func (p *Processor) Process(entries []Entry, sink *FileSink) []Failure {
	if len(entries) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures []Failure
	)

	var g errgroup.Group
	g.SetLimit(p.workerCount(len(entries)))

	for _, entry := range entries {
		g.Go(func() error {
			if err := p.Copy(entry, sink); err != nil {
				mu.Lock()
				failures = append(failures, Failure{Name: entry.Name, ID: entry.ID, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}

	// Workers only record failures, they never return errors, so Wait is
	// purely a join.
	_ = g.Wait()

	return failures
}

// Copy validates the entry's range and copies it to the sink. The write
// is all or fail: the sink only exposes the file at its final path once
// every byte has been committed.
func (p *Processor) Copy(entry Entry, sink *FileSink) error {
	if entry.End < entry.Start || int64(entry.End) > p.source.Size() {
		return fmt.Errorf("%w: [%#x, %#x) of %#x", ErrRangeBounds, entry.Start, entry.End, p.source.Size())
	}

	w, err := sink.Writer(entry.Name)
	if err != nil {
		return err
	}
	if w == nil {
		// Existing file, overwrite disabled.
		return nil
	}

	length := int64(entry.End) - int64(entry.Start)
	sr := io.NewSectionReader(p.source, int64(entry.Start), length)

	n, err := io.Copy(w, sr)
	if err == nil && n != length {
		err = fmt.Errorf("batch: short read (%d of %d bytes)", n, length)
	}
	if err != nil {
		_ = w.Discard()
		return err
	}

	return w.Commit()
}

func (p *Processor) workerCount(entries int) int {
	if p.workers < 0 || entries < 2 {
		return 1
	}
	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > entries {
		workers = entries
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
