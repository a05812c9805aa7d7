package nds

import (
	"errors"

	"github.com/meigma/nds/internal/nitrofs"
)

// Re-export types from internal/nitrofs for the public API.
type (
	// FileSystem is the decoded view of an image's directory and
	// allocation tables.
	FileSystem = nitrofs.FileSystem

	// Directory is one directory of the decoded tree.
	Directory = nitrofs.Directory

	// FileEntry is a named file or synthesized overlay with its resolved
	// path and byte range.
	FileEntry = nitrofs.FileEntry

	// AllocInfo is a half-open byte range into the image.
	AllocInfo = nitrofs.AllocInfo
)

// RootDirID is the ID of the root directory in the directory table.
const RootDirID = nitrofs.RootDirID

// Sentinel errors specific to the nds package.
var (
	// ErrTooSmall is returned when an image cannot even hold the boot
	// header. Nothing is decoded from such an image.
	ErrTooSmall = errors.New("nds: image too small")

	// ErrChecksumMismatch is returned by New when checksum verification
	// is requested and the header CRC does not match.
	ErrChecksumMismatch = errors.New("nds: header checksum mismatch")

	// ErrRegionBounds is returned when a table region declared by the
	// header runs past the end of the image.
	ErrRegionBounds = errors.New("nds: table region out of image bounds")

	// ErrLayout is returned by ValidateExtractedDir when a directory is
	// missing part of the extracted ROM layout.
	ErrLayout = errors.New("nds: not an extracted ROM directory")
)

// Structural decode errors re-exported from internal/nitrofs.
var (
	// ErrAllocTableSize is returned when the allocation table length is
	// not a multiple of the record size.
	ErrAllocTableSize = nitrofs.ErrAllocTableSize

	// ErrTruncated is returned when decoding runs past the end of the
	// directory table.
	ErrTruncated = nitrofs.ErrTruncated

	// ErrDirectoryCount is returned when the declared directory count
	// does not fit the reserved directory-ID block.
	ErrDirectoryCount = nitrofs.ErrDirectoryCount

	// ErrUnknownDirectory is returned when a name stream references a
	// directory ID that has no record.
	ErrUnknownDirectory = nitrofs.ErrUnknownDirectory

	// ErrDirectoryCycle is returned when a directory is referenced by
	// more than one parent.
	ErrDirectoryCycle = nitrofs.ErrDirectoryCycle

	// ErrMissingAllocation is returned when a declared file or overlay
	// has no allocation record.
	ErrMissingAllocation = nitrofs.ErrMissingAllocation
)
