// Package crc16 implements the bit-reflected CRC-16 variant used by
// NitroROM images (polynomial 0xA001, seed 0xFFFF, no final XOR).
package crc16

// masks holds the per-bit XOR values. Mask i is applied shifted left by
// 7-i when a carry falls out of the register on bit i of a byte.
var masks = [8]uint16{0xC0C1, 0xC181, 0xC301, 0xC601, 0xCC01, 0xD801, 0xF001, 0xA001}

// Checksum computes the CRC-16 of data.
func Checksum(data []byte) uint16 {
	crc := uint16(0xFFFF)

	for _, b := range data {
		crc ^= uint16(b)

		for i, mask := range masks {
			carry := crc&1 != 0
			crc >>= 1
			if carry {
				crc ^= mask << (7 - i)
			}
		}
	}

	return crc
}
