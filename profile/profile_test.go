package profile

import "testing"

func TestKindOfUnknownGlobal(t *testing.T) {
	if KindOf(60000) != KindUnknown {
		t.Fatal("unregistered global must map to KindUnknown")
	}
	if got := GlobalName(60000); got != "global_60000" {
		t.Fatalf("fallback name: %q", got)
	}
	if got := GlobalName(GlobalSession); got != "session" {
		t.Fatalf("session name: %q", got)
	}
}

func TestFieldFallback(t *testing.T) {
	spec := Field(GlobalSession, 9)
	if spec.Name != FieldTotalDistance || spec.Scale != 100 {
		t.Fatalf("total_distance spec: %+v", spec)
	}

	spec = Field(GlobalSession, 250)
	if spec.Name != "field_250" || spec.Scale != 0 {
		t.Fatalf("unknown field spec: %+v", spec)
	}
}

func TestBaseCanonical(t *testing.T) {
	// 0x84 is uint16 with the endian-ability bit set; the canonical form
	// keeps it as is, while a stripped 0x04 is restored.
	if Canonical(BaseType(0x84)) != BaseUint16 {
		t.Fatal("uint16 canonical form")
	}
	if Canonical(BaseType(0x04)) != BaseUint16 {
		t.Fatal("endian bit restoration")
	}
	if Canonical(BaseUint8) != BaseUint8 {
		t.Fatal("single byte types carry no endian bit")
	}

	spec, ok := Base(BaseUint16)
	if !ok || spec.Size != 2 || spec.Signed {
		t.Fatalf("uint16 spec: %+v", spec)
	}
	if _, ok := Base(BaseType(0x5E)); ok {
		t.Fatal("unregistered base type must not resolve")
	}
}

func TestNameLookups(t *testing.T) {
	if ManufacturerName(1) != "garmin" || ManufacturerName(32) != "wahoo_fitness" {
		t.Fatal("vendor names")
	}
	if ManufacturerName(40000) != "40000" {
		t.Fatal("unknown manufacturer falls back to its code")
	}
	if ProductName(1, 3121) != "edge_530" {
		t.Fatal("garmin product lookup")
	}
	if ProductName(32, 28) != "elemnt_bolt" {
		t.Fatal("wahoo product lookup")
	}
	if ProductName(7, 3121) != "" {
		t.Fatal("unmapped vendor products must be empty")
	}
	if PrimaryBenefitName(5) != "VO2Max" {
		t.Fatal("benefit table")
	}
	if PrimaryBenefitName(8) != "" {
		t.Fatal("codes past the table must stay undecoded")
	}
}
