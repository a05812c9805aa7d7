package nitrofs

import (
	"encoding/binary"
	"fmt"
)

// allocRecordSize is the size of one allocation record: two little-endian
// uint32 bounds.
const allocRecordSize = 8

// AllocInfo is one record of the file allocation table: a half-open byte
// range into the image.
type AllocInfo struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes the range covers.
func (a AllocInfo) Len() uint32 {
	return a.End - a.Start
}

// AllocTable maps numeric file IDs to byte ranges. Record order in the
// raw table is ID order. Immutable after decode.
type AllocTable struct {
	records []AllocInfo
}

// DecodeAllocTable decodes a raw allocation table. The table is a flat
// array of 8-byte records, so any length that is not a multiple of 8
// means the region is malformed.
func DecodeAllocTable(b []byte) (*AllocTable, error) {
	if len(b)%allocRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocTableSize, len(b))
	}

	records := make([]AllocInfo, len(b)/allocRecordSize)
	for i := range records {
		rec := b[i*allocRecordSize:]
		records[i] = AllocInfo{
			Start: binary.LittleEndian.Uint32(rec),
			End:   binary.LittleEndian.Uint32(rec[4:]),
		}
	}

	return &AllocTable{records: records}, nil
}

// Get returns the byte range for a file ID. The second return value is
// false when the ID is past the end of the table; whether that is fatal
// is the caller's call.
func (t *AllocTable) Get(id uint16) (AllocInfo, bool) {
	if int(id) >= len(t.records) {
		return AllocInfo{}, false
	}
	return t.records[id], true
}

// Len returns the number of records in the table.
func (t *AllocTable) Len() int {
	return len(t.records)
}
