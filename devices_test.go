package fitlink

import (
	"testing"
	"time"
)

func deviceInfoDef(f *fitFile, local uint8) {
	f.def(local, 23,
		[3]byte{253, 4, 0x86},
		[3]byte{0, 1, 0x02},  // device_index
		[3]byte{2, 2, 0x84},  // manufacturer
		[3]byte{3, 4, 0x8C},  // serial_number, uint32z
		[3]byte{4, 2, 0x84},  // product
		[3]byte{11, 1, 0x02}, // battery_status
	)
}

func TestDevicesDeduplicateByIdentity(t *testing.T) {
	var f fitFile
	deviceInfoDef(&f, 0)
	// Same Edge 530 reported twice with different timestamps and battery
	// readings. Identity collapses them; the first battery reading wins.
	f.data(0, cat(tsBytes(rideStart), []byte{0}, le16(1), le32(12345), le16(3121), []byte{2})...)
	f.data(0, cat(tsBytes(rideStart.Add(time.Hour)), []byte{0}, le16(1), le32(12345), le16(3121), []byte{4})...)

	s := summarize(t, f.encode())

	if len(s.Devices) != 1 {
		t.Fatalf("devices: got %v, want exactly one", s.Devices)
	}
	if s.Devices[0] != "garmin.edge530.12345" {
		t.Fatalf("identity: got %q", s.Devices[0])
	}
	if len(s.DeviceBatteries) != 1 || s.DeviceBatteries[0].Status != "good" {
		t.Fatalf("battery: got %+v, want first reading (good)", s.DeviceBatteries)
	}
}

func TestDevicesRequireManufacturerAndSerial(t *testing.T) {
	var f fitFile
	deviceInfoDef(&f, 0)
	// Serial is the uint32z zero sentinel, so the entry has no stable
	// identity and is dropped.
	f.data(0, cat(tsBytes(rideStart), []byte{0}, le16(1), le32(0), le16(3121), []byte{2})...)

	s := summarize(t, f.encode())

	if len(s.Devices) != 0 {
		t.Fatalf("devices without serial must be dropped, got %v", s.Devices)
	}
}

func TestDevicesFallBackToDeviceType(t *testing.T) {
	var f fitFile
	f.def(0, 23,
		[3]byte{1, 1, 0x02}, // device_type
		[3]byte{2, 2, 0x84},
		[3]byte{3, 4, 0x8C},
	)
	// Paired heart-rate strap with no registered product: identity falls
	// back to the ANT+ device type name.
	f.data(0, cat([]byte{120}, le16(255), le32(777))...)

	s := summarize(t, f.encode())

	if len(s.Devices) != 1 || s.Devices[0] != "development.heartrate.777" {
		t.Fatalf("identity: got %v", s.Devices)
	}
}
