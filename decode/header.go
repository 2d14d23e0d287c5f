// Package decode implements the FIT binary stream decoder: header and
// trailer validation, the record-level interpreter that maintains per-file
// local message definitions and developer field descriptors, and typed field
// decoding with sentinel stripping.
//
// A Decoder holds all mutable state for one pass over one buffer; separate
// buffers need separate Decoders. The profile registry it reads is immutable
// and shared.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tormoder/fit/dyncrc16"
)

const (
	headerSizeNoCRC = 12
	headerSizeCRC   = 14

	fileTypeMarker = ".FIT"
)

// Fatal format errors. Anything else found in the stream is a warning.
var (
	ErrTooShort       = errors.New("buffer shorter than minimum fit header")
	ErrHeaderSize     = errors.New("header size is neither 12 nor 14")
	ErrFileTypeMarker = errors.New("missing .FIT marker at offset 8")
)

// Header stores the parsed FIT file header values.
type Header struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	DataType        string
}

// CRCCheck describes one CRC validation result. Mismatches are reported,
// never fatal: some devices write non-conformant checksums.
type CRCCheck struct {
	Present  bool
	Stored   uint16
	Computed uint16
	Valid    bool
}

// parseHeader validates the structural header and, for 14-byte headers,
// verifies the header CRC. Structural problems are fatal; a CRC mismatch is
// reflected in the returned CRCCheck only.
func parseHeader(data []byte) (Header, CRCCheck, error) {
	if len(data) < headerSizeNoCRC {
		return Header{}, CRCCheck{}, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}
	size := data[0]
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return Header{}, CRCCheck{}, fmt.Errorf("%w: got %d", ErrHeaderSize, size)
	}
	if len(data) < int(size) {
		return Header{}, CRCCheck{}, fmt.Errorf("%w: truncated %d-byte header", ErrTooShort, size)
	}

	h := Header{
		Size:            size,
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		DataType:        string(data[8:12]),
	}
	if h.DataType != fileTypeMarker {
		return Header{}, CRCCheck{}, fmt.Errorf("%w: %q", ErrFileTypeMarker, h.DataType)
	}

	check := CRCCheck{Present: size == headerSizeCRC, Valid: true}
	if check.Present {
		stored := binary.LittleEndian.Uint16(data[12:14])
		check.Stored = stored
		if stored != 0 {
			check.Computed = dyncrc16.Checksum(data[:12])
			check.Valid = stored == check.Computed
		}
	}
	return h, check, nil
}

// checkFileCRC verifies the trailing 2-byte file CRC over the header plus
// data section.
func checkFileCRC(data []byte, dataEnd int) CRCCheck {
	if dataEnd+2 > len(data) {
		return CRCCheck{}
	}
	stored := binary.LittleEndian.Uint16(data[dataEnd : dataEnd+2])
	computed := dyncrc16.Checksum(data[:dataEnd])
	return CRCCheck{
		Present:  true,
		Stored:   stored,
		Computed: computed,
		Valid:    stored == computed,
	}
}
