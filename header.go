package nds

import (
	"encoding/binary"
	"strings"
)

// Image layout constants.
const (
	// headerLen is the size of the boot header block.
	headerLen = 0x180

	// MinImageSize is the smallest image New accepts: large enough to
	// hold the boot header, whose trailing field is its own checksum.
	MinImageSize = headerLen

	// checksumRegionEnd is the exclusive end of the prefix covered by the
	// header CRC. The stored CRC is the little-endian uint16 immediately
	// after it.
	checksumRegionEnd = 0x15E
)

// CPU describes one of the two processor binaries stored in the image,
// outside the directory tree.
type CPU struct {
	ROMOffset     uint32
	EntryAddress  uint32
	LoadAddress   uint32
	Size          uint32
	OverlayOffset uint32
	OverlayLength uint32
	Autoload      uint32
}

// TableRegion locates a sub-table inside the image.
type TableRegion struct {
	Offset uint32
	Length uint32
}

// Header is the decoded boot header. Fields are read from fixed
// little-endian offsets; there is no algorithmic content here beyond the
// trailing CRC, which New verifies on request.
type Header struct {
	Title          string
	GameCode       string
	MakerCode      string
	UnitCode       byte
	EncryptionSeed byte
	DeviceCapacity byte
	GameRevision   uint16
	ROMVersion     byte
	InternalFlags  byte

	ARM9 CPU
	ARM7 CPU

	FNT TableRegion
	FAT TableRegion

	NormalCardSettings    uint32
	SecureCardSettings    uint32
	IconBannerOffset      uint32
	SecureAreaCRC         uint16
	SecureTransferTimeout uint16
	SecureDisable         uint64
	NTRRegionSize         uint32
	HeaderSize            uint32

	Logo      [156]byte
	LogoCRC   uint16
	HeaderCRC uint16
	Debugger  [32]byte
}

// decodeHeader reads every field from a headerLen-byte buffer. Offsets
// follow the cartridge header table; title strings are padded with NULs
// and spaces that carry no meaning.
func decodeHeader(b []byte) Header {
	le := binary.LittleEndian

	var h Header
	h.Title = trimPadding(b[0x00:0x0C])
	h.GameCode = trimPadding(b[0x0C:0x10])
	h.MakerCode = trimPadding(b[0x10:0x12])
	h.UnitCode = b[0x12]
	h.EncryptionSeed = b[0x13]
	h.DeviceCapacity = b[0x14]
	h.GameRevision = le.Uint16(b[0x1C:])
	h.ROMVersion = b[0x1E]
	h.InternalFlags = b[0x1F]

	h.ARM9 = CPU{
		ROMOffset:     le.Uint32(b[0x20:]),
		EntryAddress:  le.Uint32(b[0x24:]),
		LoadAddress:   le.Uint32(b[0x28:]),
		Size:          le.Uint32(b[0x2C:]),
		OverlayOffset: le.Uint32(b[0x50:]),
		OverlayLength: le.Uint32(b[0x54:]),
		Autoload:      le.Uint32(b[0x70:]),
	}
	h.ARM7 = CPU{
		ROMOffset:     le.Uint32(b[0x30:]),
		EntryAddress:  le.Uint32(b[0x34:]),
		LoadAddress:   le.Uint32(b[0x38:]),
		Size:          le.Uint32(b[0x3C:]),
		OverlayOffset: le.Uint32(b[0x58:]),
		OverlayLength: le.Uint32(b[0x5C:]),
		Autoload:      le.Uint32(b[0x74:]),
	}

	h.FNT = TableRegion{Offset: le.Uint32(b[0x40:]), Length: le.Uint32(b[0x44:])}
	h.FAT = TableRegion{Offset: le.Uint32(b[0x48:]), Length: le.Uint32(b[0x4C:])}

	h.NormalCardSettings = le.Uint32(b[0x60:])
	h.SecureCardSettings = le.Uint32(b[0x64:])
	h.IconBannerOffset = le.Uint32(b[0x68:])
	h.SecureAreaCRC = le.Uint16(b[0x6C:])
	h.SecureTransferTimeout = le.Uint16(b[0x6E:])
	h.SecureDisable = le.Uint64(b[0x78:])
	h.NTRRegionSize = le.Uint32(b[0x80:])
	h.HeaderSize = le.Uint32(b[0x84:])

	copy(h.Logo[:], b[0xC0:0x15C])
	h.LogoCRC = le.Uint16(b[0x15C:])
	h.HeaderCRC = le.Uint16(b[0x15E:])
	copy(h.Debugger[:], b[0x160:0x180])

	return h
}

func trimPadding(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}
