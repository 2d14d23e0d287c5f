package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/pedalsmith/fitlink/profile"
)

const (
	compressedHeaderMask       = 0x80
	compressedLocalMesgNumMask = 0x60
	compressedTimeMask         = 0x1F
	mesgDefinitionMask         = 0x40
	devDataMask                = 0x20
	localMesgNumMask           = 0x0F
)

var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// Message is one decoded data record: the message kind, its stable name, and
// the field-name to typed-value mapping with invalid sentinels already
// removed. Absent fields are absent from the map, never zero.
type Message struct {
	Kind   profile.MessageKind
	Name   string
	Global uint16
	Fields map[string]any
}

// Timestamp returns the message timestamp field when present.
func (m Message) Timestamp() (time.Time, bool) {
	ts, ok := m.Fields[profile.FieldTimestamp].(time.Time)
	return ts, ok
}

// Float returns a numeric field as float64 regardless of its decoded width.
func (m Message) Float(name string) (float64, bool) {
	return asFloat(m.Fields[name])
}

// Uint returns an unsigned numeric field.
func (m Message) Uint(name string) (uint64, bool) {
	switch v := m.Fields[name].(type) {
	case uint64:
		return v, true
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	case float64:
		if v >= 0 {
			return uint64(math.Round(v)), true
		}
	}
	return 0, false
}

// Str returns a string field.
func (m Message) Str(name string) (string, bool) {
	s, ok := m.Fields[name].(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case uint64:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

type fieldLayout struct {
	num  uint8
	size uint8
	base profile.BaseType
	spec profile.FieldSpec
}

type devFieldLayout struct {
	num    uint8
	size   uint8
	devIdx uint8
}

type localDef struct {
	global    uint16
	kind      profile.MessageKind
	name      string
	order     binary.ByteOrder
	fields    []fieldLayout
	devFields []devFieldLayout
	dataSize  int
}

type devKey struct {
	devIdx uint8
	num    uint8
}

type devDesc struct {
	name string
	base profile.BaseType
}

// Decoder walks one FIT byte buffer record by record. All definition state is
// local to the Decoder; concurrent decodes of different buffers need their
// own Decoders.
type Decoder struct {
	data    []byte
	pos     int
	dataEnd int

	header    Header
	headerCRC CRCCheck
	fileCRC   CRCCheck

	defs        map[uint8]*localDef
	devDescs    map[devKey]devDesc
	lastDefSize int

	lastTimestamp  uint32
	lastTimeOffset int32

	definitions  int
	dataMessages int
	warnings     []string

	log      *slog.Logger
	finished bool
}

// New validates the file header and prepares a decoder positioned at the
// first record. Structural header problems are fatal; CRC problems are
// recorded as warnings and decoding proceeds.
func New(data []byte, log *slog.Logger) (*Decoder, error) {
	if log == nil {
		log = slog.Default()
	}
	header, headerCRC, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		data:      data,
		pos:       int(header.Size),
		header:    header,
		headerCRC: headerCRC,
		defs:      make(map[uint8]*localDef),
		devDescs:  make(map[devKey]devDesc),
		log:       log,
	}
	if !headerCRC.Valid {
		d.warnf("header crc mismatch: stored 0x%04X computed 0x%04X", headerCRC.Stored, headerCRC.Computed)
	}

	d.dataEnd = int(header.Size) + int(header.DataSize)
	if d.dataEnd+2 > len(data) {
		d.warnf("file shorter than declared data size: have %d bytes, need %d", len(data), d.dataEnd+2)
		if d.dataEnd > len(data) {
			d.dataEnd = len(data)
		}
	}
	return d, nil
}

// Header returns the parsed file header.
func (d *Decoder) Header() Header { return d.header }

// HeaderCRC returns the header CRC validation result.
func (d *Decoder) HeaderCRC() CRCCheck { return d.headerCRC }

// FileCRC returns the whole-file CRC validation result. Populated once the
// decode loop has reached the trailer.
func (d *Decoder) FileCRC() CRCCheck { return d.fileCRC }

// Definitions returns the number of definition records seen so far.
func (d *Decoder) Definitions() int { return d.definitions }

// DataMessages returns the number of data records decoded so far.
func (d *Decoder) DataMessages() int { return d.dataMessages }

// Warnings returns the deduplicated integrity warnings accumulated so far.
func (d *Decoder) Warnings() []string {
	seen := make(map[string]struct{}, len(d.warnings))
	out := make([]string, 0, len(d.warnings))
	for _, w := range d.warnings {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Next decodes and returns the next record. Definition records come back
// with Kind KindDefinition; data records carry their decoded fields. Next
// returns io.EOF once the cursor reaches the trailer, after verifying the
// file CRC (mismatch is a warning, not an error).
func (d *Decoder) Next() (Message, error) {
	for {
		if d.pos >= d.dataEnd {
			d.finish()
			return Message{}, io.EOF
		}

		start := d.pos
		hdr := d.data[d.pos]
		d.pos++

		switch {
		case hdr&compressedHeaderMask == compressedHeaderMask:
			local := (hdr & compressedLocalMesgNumMask) >> 5
			msg, ok := d.decodeData(start, hdr, local, true)
			if !ok {
				continue
			}
			return msg, nil
		case hdr&mesgDefinitionMask == mesgDefinitionMask:
			msg, ok := d.decodeDefinition(hdr)
			if !ok {
				continue
			}
			return msg, nil
		default:
			msg, ok := d.decodeData(start, hdr, hdr&localMesgNumMask, false)
			if !ok {
				continue
			}
			return msg, nil
		}
	}
}

func (d *Decoder) finish() {
	if d.finished {
		return
	}
	d.finished = true

	end := int(d.header.Size) + int(d.header.DataSize)
	if end+2 > len(d.data) {
		d.warnf("missing file trailer crc")
		return
	}
	d.fileCRC = checkFileCRC(d.data, end)
	if !d.fileCRC.Valid {
		d.warnf("file crc mismatch: stored 0x%04X computed 0x%04X", d.fileCRC.Stored, d.fileCRC.Computed)
	}
	if leftover := len(d.data) - (end + 2); leftover > 0 {
		d.warnf("leftover trailing bytes: %d", leftover)
	}
}

// abort gives up on the remainder of the data section. Used when the stream
// is no longer self-describing (bad architecture byte, truncated definition):
// everything decoded so far is kept.
func (d *Decoder) abort(reason string) {
	d.warnf("decode aborted at byte %d: %s", d.pos, reason)
	d.pos = d.dataEnd
}

func (d *Decoder) take(n int) ([]byte, bool) {
	if d.pos+n > d.dataEnd {
		return nil, false
	}
	out := d.data[d.pos : d.pos+n]
	d.pos += n
	return out, true
}

func (d *Decoder) decodeDefinition(hdr uint8) (Message, bool) {
	local := hdr & localMesgNumMask

	fixed, ok := d.take(5) // reserved, arch, global(2), field count
	if !ok {
		d.abort("truncated definition record")
		return Message{}, false
	}

	var order binary.ByteOrder
	switch fixed[1] {
	case 0:
		order = binary.LittleEndian
	case 1:
		order = binary.BigEndian
	default:
		d.abort(fmt.Sprintf("invalid architecture byte %d", fixed[1]))
		return Message{}, false
	}
	global := order.Uint16(fixed[2:4])
	numFields := int(fixed[4])

	def := &localDef{
		global: global,
		kind:   profile.KindOf(global),
		name:   profile.GlobalName(global),
		order:  order,
		fields: make([]fieldLayout, 0, numFields),
	}
	for i := 0; i < numFields; i++ {
		raw, ok := d.take(3)
		if !ok {
			d.abort("truncated field definitions")
			return Message{}, false
		}
		def.fields = append(def.fields, fieldLayout{
			num:  raw[0],
			size: raw[1],
			base: profile.Canonical(profile.BaseType(raw[2])),
			spec: profile.Field(global, raw[0]),
		})
		def.dataSize += int(raw[1])
	}

	if hdr&devDataMask == devDataMask {
		countRaw, ok := d.take(1)
		if !ok {
			d.abort("truncated developer field count")
			return Message{}, false
		}
		for i := 0; i < int(countRaw[0]); i++ {
			raw, ok := d.take(3)
			if !ok {
				d.abort("truncated developer field definitions")
				return Message{}, false
			}
			def.devFields = append(def.devFields, devFieldLayout{num: raw[0], size: raw[1], devIdx: raw[2]})
			def.dataSize += int(raw[1])
		}
	}

	d.defs[local] = def
	d.lastDefSize = def.dataSize
	d.definitions++

	return Message{
		Kind:   profile.KindDefinition,
		Name:   profile.KindDefinition.String(),
		Global: global,
		Fields: map[string]any{
			"global_message_num": uint64(global),
			"num_fields":         uint64(numFields),
		},
	}, true
}

func (d *Decoder) decodeData(start int, hdr, local uint8, compressed bool) (Message, bool) {
	def, ok := d.defs[local]
	if !ok {
		// Best effort: a data record for an undefined slot cannot be
		// interpreted, but the cursor can often step over it using the most
		// recent layout size.
		if d.lastDefSize > 0 && d.pos+d.lastDefSize <= d.dataEnd {
			d.warnf("data record at byte %d references undefined local slot %d, skipped", start, local)
			d.pos += d.lastDefSize
			return Message{}, false
		}
		d.abort(fmt.Sprintf("data record references undefined local slot %d", local))
		return Message{}, false
	}

	if d.pos+def.dataSize > d.dataEnd {
		d.abort(fmt.Sprintf("truncated %s data record", def.name))
		return Message{}, false
	}

	fields := make(map[string]any, len(def.fields)+len(def.devFields))

	if compressed {
		offset := int32(hdr & compressedTimeMask)
		if d.lastTimestamp != 0 {
			d.lastTimestamp += uint32((offset - d.lastTimeOffset) & int32(compressedTimeMask))
			d.lastTimeOffset = offset
			fields[profile.FieldTimestamp] = fitEpoch.Add(time.Duration(d.lastTimestamp) * time.Second)
		}
	}

	for _, fl := range def.fields {
		raw, _ := d.take(int(fl.size))
		value, ok := d.decodeField(raw, fl, def.order)
		if !ok {
			continue
		}
		if fl.num == profile.TimestampFieldNum {
			if ts, isRaw := rawTimestamp(raw, fl, def.order); isRaw {
				d.lastTimestamp = ts
				d.lastTimeOffset = int32(ts & compressedTimeMask)
			}
		}
		fields[fl.spec.Name] = value
	}

	for _, dfl := range def.devFields {
		raw, _ := d.take(int(dfl.size))
		desc, known := d.devDescs[devKey{devIdx: dfl.devIdx, num: dfl.num}]
		if !known {
			// No descriptor seen yet for this developer field; skip the bytes.
			continue
		}
		layout := fieldLayout{num: dfl.num, size: dfl.size, base: desc.base, spec: profile.FieldSpec{Name: desc.name}}
		if value, ok := d.decodeField(raw, layout, def.order); ok {
			fields[desc.name] = value
		}
	}

	d.dataMessages++

	msg := Message{Kind: def.kind, Name: def.name, Global: def.global, Fields: fields}
	if def.kind == profile.KindFieldDescription {
		d.registerDeveloperField(msg)
	}
	return msg, true
}

// registerDeveloperField records a developer field descriptor so later data
// records can resolve (developer data index, field number) pairs.
func (d *Decoder) registerDeveloperField(msg Message) {
	idx, okIdx := msg.Uint(profile.FieldDeveloperDataIndex)
	num, okNum := msg.Uint(profile.FieldFieldDefinitionNumber)
	name, okName := msg.Str(profile.FieldFieldName)
	if !okIdx || !okNum || !okName {
		d.warnf("field description missing index, number, or name")
		return
	}
	base := profile.BaseUint8
	if rawBase, ok := msg.Uint(profile.FieldFitBaseTypeID); ok {
		base = profile.Canonical(profile.BaseType(rawBase))
	}
	if _, ok := profile.Base(base); !ok {
		base = profile.BaseUint8
	}
	d.devDescs[devKey{devIdx: uint8(idx), num: uint8(num)}] = devDesc{name: name, base: base}
}

// decodeField turns raw field bytes into a typed value, dropping invalid
// sentinels and applying the registry scale/offset transform. The bool is
// false when the field is absent (sentinel) or undecodable.
func (d *Decoder) decodeField(raw []byte, fl fieldLayout, order binary.ByteOrder) (any, bool) {
	spec, known := profile.Base(fl.base)
	if !known {
		// Unknown base types stay raw so forward compatibility holds.
		return append([]byte(nil), raw...), true
	}

	switch fl.base {
	case profile.BaseString:
		s := cstring(raw)
		if s == "" {
			return nil, false
		}
		return s, true
	case profile.BaseByte:
		if allBytes(raw, 0xFF) {
			return nil, false
		}
		return append([]byte(nil), raw...), true
	}

	if spec.Size <= 0 || len(raw)%spec.Size != 0 {
		d.warnf("field %s size %d not divisible by base size %d", fl.spec.Name, len(raw), spec.Size)
		return nil, false
	}

	count := len(raw) / spec.Size
	if count == 1 {
		v, valid := decodeScalar(raw, fl.base, order)
		if !valid {
			return nil, false
		}
		return transform(v, fl.spec), true
	}

	// Array-valued field: drop invalid elements, then keep or reduce per the
	// registry policy.
	values := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		part := raw[i*spec.Size : (i+1)*spec.Size]
		v, valid := decodeScalar(part, fl.base, order)
		if !valid {
			continue
		}
		f, ok := asFloat(transform(v, fl.spec))
		if !ok {
			continue
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return nil, false
	}
	if fl.spec.Array == profile.ArrayMean {
		return mean(values), true
	}
	return values, true
}

// transform applies the registry transform: timestamps become time.Time,
// scaled fields become float64 physical values, everything else passes
// through.
func transform(v any, spec profile.FieldSpec) any {
	if spec.Time {
		if raw, ok := v.(uint64); ok && raw <= math.MaxUint32 {
			return fitEpoch.Add(time.Duration(raw) * time.Second)
		}
		return v
	}
	if spec.Scale > 0 {
		if f, ok := asFloat(v); ok {
			return f/spec.Scale - spec.Offset
		}
	}
	return v
}

// decodeScalar decodes one element of a numeric base type, reporting the
// per-type invalid sentinel as invalid.
func decodeScalar(raw []byte, bt profile.BaseType, order binary.ByteOrder) (any, bool) {
	switch bt {
	case profile.BaseEnum:
		v := raw[0]
		return uint64(v), v != 0xFF
	case profile.BaseSint8:
		v := int8(raw[0])
		return int64(v), v != math.MaxInt8
	case profile.BaseUint8:
		v := raw[0]
		return uint64(v), v != 0xFF
	case profile.BaseSint16:
		v := int16(order.Uint16(raw))
		return int64(v), v != math.MaxInt16
	case profile.BaseUint16:
		v := order.Uint16(raw)
		return uint64(v), v != 0xFFFF
	case profile.BaseSint32:
		v := int32(order.Uint32(raw))
		return int64(v), v != math.MaxInt32
	case profile.BaseUint32:
		v := order.Uint32(raw)
		return uint64(v), v != 0xFFFFFFFF
	case profile.BaseFloat32:
		bits := order.Uint32(raw)
		return float64(math.Float32frombits(bits)), bits != 0xFFFFFFFF
	case profile.BaseFloat64:
		bits := order.Uint64(raw)
		return math.Float64frombits(bits), bits != 0xFFFFFFFFFFFFFFFF
	case profile.BaseUint8z:
		v := raw[0]
		return uint64(v), v != 0
	case profile.BaseUint16z:
		v := order.Uint16(raw)
		return uint64(v), v != 0
	case profile.BaseUint32z:
		v := order.Uint32(raw)
		return uint64(v), v != 0
	case profile.BaseSint64:
		v := int64(order.Uint64(raw))
		return v, v != math.MaxInt64
	case profile.BaseUint64:
		v := order.Uint64(raw)
		return v, v != math.MaxUint64
	case profile.BaseUint64z:
		v := order.Uint64(raw)
		return v, v != 0
	default:
		return nil, false
	}
}

// rawTimestamp extracts the raw uint32 epoch seconds from a timestamp field
// before the time.Time transform, for compressed-header reconstruction.
func rawTimestamp(raw []byte, fl fieldLayout, order binary.ByteOrder) (uint32, bool) {
	if fl.base != profile.BaseUint32 || len(raw) != 4 {
		return 0, false
	}
	v := order.Uint32(raw)
	if v == 0xFFFFFFFF {
		return 0, false
	}
	return v, true
}

func cstring(raw []byte) string {
	for i := range raw {
		if raw[i] == 0x00 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

func allBytes(raw []byte, value byte) bool {
	if len(raw) == 0 {
		return false
	}
	for _, b := range raw {
		if b != value {
			return false
		}
	}
	return true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func (d *Decoder) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, msg)
	d.log.Warn(msg)
}
