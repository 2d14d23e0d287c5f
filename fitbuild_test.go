package fitlink

import (
	"encoding/binary"
	"io"
	"log/slog"
	"time"

	"github.com/tormoder/fit/dyncrc16"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fitFile assembles a FIT byte buffer record by record for tests: a 14-byte
// header with a valid CRC, the given records, and a valid trailing file CRC.
type fitFile struct {
	records []byte
}

// def appends a little-endian definition record for the given local slot.
// Each field is a (field number, byte size, base type) triplet.
func (f *fitFile) def(local uint8, global uint16, fields ...[3]byte) {
	f.records = append(f.records, 0x40|local, 0x00, 0x00)
	f.records = binary.LittleEndian.AppendUint16(f.records, global)
	f.records = append(f.records, uint8(len(fields)))
	for _, fd := range fields {
		f.records = append(f.records, fd[0], fd[1], fd[2])
	}
}

// data appends a data record for the given local slot.
func (f *fitFile) data(local uint8, payload ...byte) {
	f.records = append(f.records, local)
	f.records = append(f.records, payload...)
}

func (f *fitFile) encode() []byte {
	header := make([]byte, 14)
	header[0] = 14
	header[1] = 0x20
	binary.LittleEndian.PutUint16(header[2:4], 2140)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(f.records)))
	copy(header[8:12], ".FIT")
	binary.LittleEndian.PutUint16(header[12:14], dyncrc16.Checksum(header[:12]))

	out := append(header, f.records...)
	return binary.LittleEndian.AppendUint16(out, dyncrc16.Checksum(out))
}

var testEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

func tsBytes(t time.Time) []byte {
	return le32(uint32(t.Sub(testEpoch) / time.Second))
}

func le16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
