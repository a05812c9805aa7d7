package nitrofs

// RootDirID is the ID of the root directory. Directory IDs are assigned
// densely upward from here in table order, so a table with N directories
// occupies [RootDirID, RootDirID+N).
const RootDirID uint16 = 0xF000

// dirInfoSize is the size of one directory-info record: a uint32 subtable
// offset, the uint16 ID of the directory's first file, and a uint16 that
// holds the parent ID (or, for the root record, the directory count).
const dirInfoSize = 8

// FileEntry is a named file in the directory tree, or a synthesized
// overlay entry. Path is slash-separated and relative to the tree root
// (for overlays it is just the synthesized name).
type FileEntry struct {
	ID    uint16
	Path  string
	Alloc AllocInfo
}

// Directory is one directory of the name table. Subdirectory relations
// are plain ID references resolved through the owning FileSystem, never
// embedded pointers; the table stores records adjacent by ID while the
// name streams are walked depth-first, so ownership cannot follow the
// walk.
type Directory struct {
	id      uint16
	offset  uint32
	firstID uint16

	// value is the raw dual-meaning field: total directory count on the
	// root record, parent directory ID everywhere else. It is consulted
	// for the count only while decoding; afterwards it is only ever read
	// through ParentID.
	value uint16

	path     string
	files    []FileEntry
	children []uint16
}

// ID returns the directory's ID.
func (d *Directory) ID() uint16 {
	return d.id
}

// Path returns the directory's slash-separated path relative to the tree
// root. The root directory's path is empty.
func (d *Directory) Path() string {
	return d.path
}

// FirstFileID returns the ID assigned to the first file in this
// directory's name stream. File IDs are not stored per entry; they count
// up from here in entry order.
func (d *Directory) FirstFileID() uint16 {
	return d.firstID
}

// IsRoot reports whether this is the root directory.
func (d *Directory) IsRoot() bool {
	return d.id == RootDirID
}

// ParentID returns the ID of the parent directory. The root directory has
// no parent; its raw field holds the directory count instead, so ParentID
// returns RootDirID for it.
func (d *Directory) ParentID() uint16 {
	if d.IsRoot() {
		return RootDirID
	}
	return d.value
}

// Files returns the directory's files in name-stream order. The returned
// slice is owned by the directory and must not be modified.
func (d *Directory) Files() []FileEntry {
	return d.files
}

// Children returns the IDs of the directory's subdirectories in
// name-stream order.
func (d *Directory) Children() []uint16 {
	return d.children
}
