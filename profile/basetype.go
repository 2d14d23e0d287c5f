// Package profile holds the static, read-only FIT profile tables: base type
// descriptors, global message numbers, per-field names with scale/offset, and
// the enumerated lookup tables (manufacturers, products, battery status,
// primary benefit). Everything in this package is immutable after init and
// safe to share across concurrent decodes.
package profile

// BaseType is the raw base-type byte from a field definition. The high bit
// marks multi-byte endian-sensitive types; the low five bits select the type.
type BaseType uint8

const (
	BaseEnum    BaseType = 0x00
	BaseSint8   BaseType = 0x01
	BaseUint8   BaseType = 0x02
	BaseSint16  BaseType = 0x83
	BaseUint16  BaseType = 0x84
	BaseSint32  BaseType = 0x85
	BaseUint32  BaseType = 0x86
	BaseString  BaseType = 0x07
	BaseFloat32 BaseType = 0x88
	BaseFloat64 BaseType = 0x89
	BaseUint8z  BaseType = 0x0A
	BaseUint16z BaseType = 0x8B
	BaseUint32z BaseType = 0x8C
	BaseByte    BaseType = 0x0D
	BaseSint64  BaseType = 0x8E
	BaseUint64  BaseType = 0x8F
	BaseUint64z BaseType = 0x90
)

// BaseSpec describes how values of one base type are decoded and which raw
// bit pattern marks a value as absent.
type BaseSpec struct {
	Name          string
	Size          int
	Signed        bool
	Floating      bool
	ZeroIsInvalid bool
}

var baseSpecs = map[BaseType]BaseSpec{
	BaseEnum:    {Name: "enum", Size: 1},
	BaseSint8:   {Name: "sint8", Size: 1, Signed: true},
	BaseUint8:   {Name: "uint8", Size: 1},
	BaseSint16:  {Name: "sint16", Size: 2, Signed: true},
	BaseUint16:  {Name: "uint16", Size: 2},
	BaseSint32:  {Name: "sint32", Size: 4, Signed: true},
	BaseUint32:  {Name: "uint32", Size: 4},
	BaseString:  {Name: "string", Size: 1},
	BaseFloat32: {Name: "float32", Size: 4, Signed: true, Floating: true},
	BaseFloat64: {Name: "float64", Size: 8, Signed: true, Floating: true},
	BaseUint8z:  {Name: "uint8z", Size: 1, ZeroIsInvalid: true},
	BaseUint16z: {Name: "uint16z", Size: 2, ZeroIsInvalid: true},
	BaseUint32z: {Name: "uint32z", Size: 4, ZeroIsInvalid: true},
	BaseByte:    {Name: "byte", Size: 1},
	BaseSint64:  {Name: "sint64", Size: 8, Signed: true},
	BaseUint64:  {Name: "uint64", Size: 8},
	BaseUint64z: {Name: "uint64z", Size: 8, ZeroIsInvalid: true},
}

// Base returns the spec for a base type byte, canonicalizing the endian bit
// first. The second return is false for base types this profile ignores.
func Base(bt BaseType) (BaseSpec, bool) {
	spec, ok := baseSpecs[Canonical(bt)]
	return spec, ok
}

// Canonical restores the endian-capable high bit for base-type bytes that
// devices emit with the bit cleared.
func Canonical(b BaseType) BaseType {
	switch b & 0x1F {
	case 0x03:
		return BaseSint16
	case 0x04:
		return BaseUint16
	case 0x05:
		return BaseSint32
	case 0x06:
		return BaseUint32
	case 0x08:
		return BaseFloat32
	case 0x09:
		return BaseFloat64
	case 0x0B:
		return BaseUint16z
	case 0x0C:
		return BaseUint32z
	case 0x0E:
		return BaseSint64
	case 0x0F:
		return BaseUint64
	case 0x10:
		return BaseUint64z
	default:
		return b & 0x1F
	}
}
