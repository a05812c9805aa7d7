package nds

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/meigma/nds/internal/crc16"
	"github.com/meigma/nds/internal/nitrofs"
)

// ROM is a parsed image. The header is decoded eagerly; the filesystem
// view is decoded on first use and cached. A ROM and everything derived
// from it is immutable and safe for concurrent use, and stays valid only
// as long as the underlying source.
type ROM struct {
	source ByteSource
	header Header

	fsOnce sync.Once
	fsys   *FileSystem
	fsErr  error
}

// New parses an image from a random-access source.
//
// Images smaller than MinImageSize fail with ErrTooSmall before any table
// is touched. With WithVerifyChecksum, the header CRC is recomputed over
// the fixed prefix and compared against the stored value; a mismatch
// fails with ErrChecksumMismatch.
func New(source ByteSource, opts ...Option) (*ROM, error) {
	var cfg romConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if source.Size() < MinImageSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooSmall, source.Size(), int64(MinImageSize))
	}

	buf := make([]byte, headerLen)
	if _, err := source.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if cfg.verifyChecksum {
		stored := binary.LittleEndian.Uint16(buf[checksumRegionEnd:])
		if computed := crc16.Checksum(buf[:checksumRegionEnd]); computed != stored {
			return nil, fmt.Errorf("%w: computed %#04x, stored %#04x", ErrChecksumMismatch, computed, stored)
		}
	}

	return &ROM{
		source: source,
		header: decodeHeader(buf),
	}, nil
}

// Header returns the decoded boot header.
func (r *ROM) Header() Header {
	return r.header
}

// Filesystem decodes the image's directory and allocation tables into a
// queryable view. The decode happens once; subsequent calls return the
// cached view (or the cached structural error).
func (r *ROM) Filesystem() (*FileSystem, error) {
	r.fsOnce.Do(func() {
		r.fsys, r.fsErr = r.decodeFilesystem()
	})
	return r.fsys, r.fsErr
}

func (r *ROM) decodeFilesystem() (*FileSystem, error) {
	fnt, err := r.readRegion(r.header.FNT, "directory table")
	if err != nil {
		return nil, err
	}
	fat, err := r.readRegion(r.header.FAT, "allocation table")
	if err != nil {
		return nil, err
	}
	return nitrofs.DecodeFileSystem(fnt, fat)
}

// readRegion copies a header-declared sub-table out of the image, bounds
// checked against the source size.
func (r *ROM) readRegion(region TableRegion, what string) ([]byte, error) {
	end := int64(region.Offset) + int64(region.Length)
	if end > r.source.Size() {
		return nil, fmt.Errorf("%w: %s [%#x, %#x) in image of %#x bytes",
			ErrRegionBounds, what, region.Offset, end, r.source.Size())
	}

	buf := make([]byte, region.Length)
	if region.Length == 0 {
		// ReaderAt implementations report EOF for any read at the end of
		// the source, even an empty one, and an empty table at EOF is
		// legitimate.
		return buf, nil
	}
	if _, err := r.source.ReadAt(buf, int64(region.Offset)); err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return buf, nil
}
