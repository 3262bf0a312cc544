package badblock

import "encoding/binary"

const (
	// Magic identifies a page's OOB area as carrying a BBT record
	// header. Its absence marks a free slot. "nbbt" little-endian.
	Magic uint32 = 0x7462626E

	// MaxReserved is the largest number of flash blocks this package
	// will track as eligible BBT hosts.
	MaxReserved = 8

	// DiscoveryReadAttempts is how many stride-offset reads discovery
	// will try per reserved block before giving up on it.
	DiscoveryReadAttempts = 6

	// oobHeaderSize is the on-flash, serialised size of OOBHeader.
	oobHeaderSize = 4 + 2 + 2
)

// OOBHeader is stored in the out-of-band area of every page belonging
// to a BBT record.
type OOBHeader struct {
	Magic      uint32
	PECycles   uint16
	Generation uint16
}

// Marshal serialises h into buf, which must be at least oobHeaderSize
// bytes. Little-endian, matching the rest of this package's on-flash
// encoding.
func (h OOBHeader) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.PECycles)
	binary.LittleEndian.PutUint16(buf[6:8], h.Generation)
}

// UnmarshalOOBHeader decodes a header from buf, which must be at least
// oobHeaderSize bytes.
func UnmarshalOOBHeader(buf []byte) OOBHeader {
	return OOBHeader{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		PECycles:   binary.LittleEndian.Uint16(buf[4:6]),
		Generation: binary.LittleEndian.Uint16(buf[6:8]),
	}
}
