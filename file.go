package nds

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// ByteSource provides random access to a whole image. Implementations
// must support concurrent ReadAt calls; extraction reads from many
// workers at once.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileSource) Size() int64 {
	return s.size
}

// mmapSource adapts a memory mapping to ByteSource.
type mmapSource struct {
	r *mmap.ReaderAt
}

func (s mmapSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

func (s mmapSource) Size() int64 {
	return int64(s.r.Len())
}

// ROMFile wraps a ROM with the memory mapping backing it. Close must be
// called to release the mapping.
type ROMFile struct {
	*ROM
	mapping *mmap.ReaderAt
}

// Close releases the mapping. The ROM and anything derived from it must
// not be used afterwards.
func (rf *ROMFile) Close() error {
	if rf.mapping == nil {
		return nil
	}
	err := rf.mapping.Close()
	rf.mapping = nil
	return err
}

// Open memory-maps the image at path and parses it. Mapping rather than
// reading keeps extraction of large images from copying the whole blob
// through the heap. The returned ROMFile must be closed.
func Open(path string, opts ...Option) (*ROMFile, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("map image: %w", err)
	}

	rom, err := New(mmapSource{r: m}, opts...)
	if err != nil {
		m.Close()
		return nil, err
	}

	return &ROMFile{
		ROM:     rom,
		mapping: m,
	}, nil
}

// NewFromFile parses an image from an already open file. The caller keeps
// ownership of the file and must keep it open for the ROM's lifetime.
func NewFromFile(f *os.File, opts ...Option) (*ROM, error) {
	source, err := newFileSource(f)
	if err != nil {
		return nil, err
	}
	return New(source, opts...)
}

// FromBytes parses an in-memory image.
func FromBytes(data []byte, opts ...Option) (*ROM, error) {
	return New(bytes.NewReader(data), opts...)
}

var _ ByteSource = (*fileSource)(nil)
var _ ByteSource = mmapSource{}
var _ ByteSource = (*bytes.Reader)(nil)
