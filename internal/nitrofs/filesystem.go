// Package nitrofs decodes the virtual filesystem embedded in a NitroROM
// image: the allocation table (byte range per file ID) and the directory
// table (recursive name hierarchy), joined into a queryable view.
package nitrofs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"slices"
)

// Sentinel errors for structural corruption. All of these are fatal: they
// mean the image's tables cannot be trusted.
var (
	// ErrAllocTableSize is returned when the allocation table length is
	// not a multiple of the record size.
	ErrAllocTableSize = errors.New("nitrofs: allocation table length is not a multiple of 8")

	// ErrTruncated is returned when a read runs past the end of the
	// directory table.
	ErrTruncated = errors.New("nitrofs: directory table truncated")

	// ErrDirectoryCount is returned when the declared directory count
	// does not fit the reserved directory-ID block.
	ErrDirectoryCount = errors.New("nitrofs: directory count overflows the id space")

	// ErrUnknownDirectory is returned when a name stream references a
	// directory ID with no record in the info table.
	ErrUnknownDirectory = errors.New("nitrofs: unknown directory id")

	// ErrDirectoryCycle is returned when a directory is referenced by
	// more than one parent, which would make the tree a graph.
	ErrDirectoryCycle = errors.New("nitrofs: directory referenced more than once")

	// ErrMissingAllocation is returned when a declared file or overlay ID
	// has no allocation record.
	ErrMissingAllocation = errors.New("nitrofs: no allocation record")
)

// dirTagBit marks a name-stream entry as a subdirectory. Tags 0x01..0x80
// are files (tag = name length), 0x81..0xFF are subdirectories (name
// length in the low bits), and 0x00 terminates the stream.
const dirTagBit = 0x80

// FileSystem is the decoded, immutable view of a NitroROM's directory and
// allocation tables. The directory tree is held as a flat map keyed by
// directory ID; parent/child links are ID fields resolved through it.
type FileSystem struct {
	dirs     map[uint16]*Directory
	overlays []FileEntry
	fat      *AllocTable
}

// DecodeFileSystem decodes the directory table and allocation table
// sub-regions of an image and joins them by file ID. Every named file and
// every overlay must have an allocation record; a missing record is
// structural corruption, not a per-file condition.
func DecodeFileSystem(fnt, fat []byte) (*FileSystem, error) {
	table, err := DecodeAllocTable(fat)
	if err != nil {
		return nil, err
	}

	// The directory count lives inside the root's own info record, at the
	// parent-or-count field.
	if len(fnt) < dirInfoSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(fnt), dirInfoSize)
	}
	count := binary.LittleEndian.Uint16(fnt[6:])
	if count == 0 {
		return nil, fmt.Errorf("%w: directory count is zero", ErrTruncated)
	}
	// Directory IDs occupy [RootDirID, 0xFFFF]; a larger count would wrap
	// and collide IDs.
	if int(count) > 0x10000-int(RootDirID) {
		return nil, fmt.Errorf("%w: %d directories", ErrDirectoryCount, count)
	}
	if int(count)*dirInfoSize > len(fnt) {
		return nil, fmt.Errorf("%w: %d directories need %d bytes, have %d",
			ErrTruncated, count, int(count)*dirInfoSize, len(fnt))
	}

	dirs := make(map[uint16]*Directory, count)
	for i := uint16(0); i < count; i++ {
		rec := fnt[int(i)*dirInfoSize:]
		dirs[RootDirID+i] = &Directory{
			id:      RootDirID + i,
			offset:  binary.LittleEndian.Uint32(rec),
			firstID: binary.LittleEndian.Uint16(rec[4:]),
			value:   binary.LittleEndian.Uint16(rec[6:]),
		}
	}

	fsys := &FileSystem{
		dirs: dirs,
		fat:  table,
	}

	cur := &cursor{buf: fnt}
	visited := make(map[uint16]bool, count)
	if err := fsys.populate(cur, "", RootDirID, visited); err != nil {
		return nil, err
	}
	if err := fsys.buildOverlays(); err != nil {
		return nil, err
	}

	return fsys, nil
}

// populate walks one directory's name stream, assigning file IDs in entry
// order from the directory's declared first ID and recursing depth-first
// into subdirectories. Child streams are interleaved arbitrarily in the
// buffer relative to the parent's, so the cursor position is saved before
// each recursion and restored after.
func (fsys *FileSystem) populate(cur *cursor, dirPath string, id uint16, visited map[uint16]bool) error {
	dir, ok := fsys.dirs[id]
	if !ok {
		return fmt.Errorf("%w: %#06x", ErrUnknownDirectory, id)
	}
	if visited[id] {
		return fmt.Errorf("%w: %#06x", ErrDirectoryCycle, id)
	}
	visited[id] = true

	dir.path = dirPath
	cur.seek(int(dir.offset))

	fileID := dir.firstID

	for {
		tag, err := cur.u8()
		if err != nil {
			return err
		}
		if tag == 0 {
			return nil
		}

		if tag > dirTagBit {
			// Subdirectory: low bits give the name length, then the
			// child's directory ID follows the name.
			name, err := cur.take(int(tag &^ dirTagBit))
			if err != nil {
				return err
			}
			childID, err := cur.u16()
			if err != nil {
				return err
			}

			pos := cur.pos
			if err := fsys.populate(cur, path.Join(dirPath, string(name)), childID, visited); err != nil {
				return err
			}
			cur.seek(pos)

			dir.children = append(dir.children, childID)
			continue
		}

		// File: the name table stores no per-file ID, so the running
		// counter is the identity.
		name, err := cur.take(int(tag))
		if err != nil {
			return err
		}
		alloc, ok := fsys.fat.Get(fileID)
		if !ok {
			return fmt.Errorf("%w for file %q (id %d)", ErrMissingAllocation, string(name), fileID)
		}
		dir.files = append(dir.files, FileEntry{
			ID:    fileID,
			Path:  path.Join(dirPath, string(name)),
			Alloc: alloc,
		})
		fileID++
	}
}

// buildOverlays synthesizes entries for every ID below the root's first
// file ID. Overlays have no name in the directory table; they exist only
// as allocation records, so a declared overlay with no record means the
// image is corrupt.
func (fsys *FileSystem) buildOverlays() error {
	first := fsys.dirs[RootDirID].firstID
	overlays := make([]FileEntry, 0, first)

	for id := uint16(0); id < first; id++ {
		alloc, ok := fsys.fat.Get(id)
		if !ok {
			return fmt.Errorf("%w for overlay %d", ErrMissingAllocation, id)
		}
		overlays = append(overlays, FileEntry{
			ID:    id,
			Path:  fmt.Sprintf("overlay_%04d", id),
			Alloc: alloc,
		})
	}

	fsys.overlays = overlays
	return nil
}

// Files returns every named file in the tree with its resolved path and
// byte range. Order is stable within a directory but unspecified across
// directories.
func (fsys *FileSystem) Files() []FileEntry {
	var files []FileEntry
	for _, dir := range fsys.dirs {
		files = append(files, dir.files...)
	}
	return files
}

// Overlays returns the synthesized overlay entries in ID order.
func (fsys *FileSystem) Overlays() []FileEntry {
	return fsys.overlays
}

// Resolve returns the byte range for a file or overlay ID. Unlike
// AllocTable.Get, a missing record here is a hard error: every ID handed
// out by this view was joined against the table at decode time.
func (fsys *FileSystem) Resolve(id uint16) (AllocInfo, error) {
	alloc, ok := fsys.fat.Get(id)
	if !ok {
		return AllocInfo{}, fmt.Errorf("%w for id %d", ErrMissingAllocation, id)
	}
	return alloc, nil
}

// Count returns the number of directories in the tree.
func (fsys *FileSystem) Count() int {
	return len(fsys.dirs)
}

// Dir returns the directory with the given ID.
func (fsys *FileSystem) Dir(id uint16) (*Directory, bool) {
	dir, ok := fsys.dirs[id]
	return dir, ok
}

// Dirs returns all directories sorted by ID.
func (fsys *FileSystem) Dirs() []*Directory {
	dirs := make([]*Directory, 0, len(fsys.dirs))
	for _, dir := range fsys.dirs {
		dirs = append(dirs, dir)
	}
	slices.SortFunc(dirs, func(a, b *Directory) int {
		return int(a.id) - int(b.id)
	})
	return dirs
}

// cursor is a seekable little-endian reader over the directory table.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) seek(off int) {
	c.pos = off
}

func (c *cursor) u8() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, fmt.Errorf("%w at offset %d", ErrTruncated, c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.pos < 0 || c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("%w at offset %d", ErrTruncated, c.pos)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
