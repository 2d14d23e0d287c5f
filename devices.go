package fitlink

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pedalsmith/fitlink/decode"
	"github.com/pedalsmith/fitlink/profile"
)

// fillDevices reduces device_info messages to a deduplicated identity list
// plus the first reported battery status per identity. Entries without a
// manufacturer and serial number are dropped: they cannot be told apart
// across files.
func (c *collector) fillDevices(dst *Summary) {
	seen := make(map[string]struct{})
	battery := make(map[string]string)

	for _, di := range c.deviceInfos {
		id, ok := deviceIdentity(di)
		if !ok {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			dst.Devices = append(dst.Devices, id)
		}
		if _, have := battery[id]; !have {
			if code, ok := di.Uint(profile.FieldBatteryStatus); ok && code <= math.MaxUint8 {
				if status := profile.BatteryStatusName(uint8(code)); status != "" {
					battery[id] = status
				}
			}
		}
	}

	for id, status := range battery {
		dst.DeviceBatteries = append(dst.DeviceBatteries, DeviceBattery{DeviceID: id, Status: status})
	}
	sort.Slice(dst.DeviceBatteries, func(i, j int) bool {
		return dst.DeviceBatteries[i].DeviceID < dst.DeviceBatteries[j].DeviceID
	})
}

// deviceIdentity builds the canonical "<manufacturer>.<product>.<serial>"
// identity. The middle segment falls back from product name to device type
// to device index so paired sensors without a registered product still get a
// stable identity.
func deviceIdentity(msg decode.Message) (string, bool) {
	man, okMan := msg.Uint(profile.FieldManufacturer)
	serial, okSerial := msg.Uint(profile.FieldSerialNumber)
	if !okMan || !okSerial || man > math.MaxUint16 {
		return "", false
	}

	middle := ""
	if name, ok := msg.Str(profile.FieldProductName); ok {
		middle = name
	}
	if middle == "" {
		if product, ok := msg.Uint(profile.FieldProduct); ok && product <= math.MaxUint16 {
			middle = profile.ProductName(uint16(man), uint16(product))
		}
	}
	if middle == "" {
		if devType, ok := msg.Uint(profile.FieldDeviceType); ok && devType <= math.MaxUint8 {
			middle = profile.DeviceTypeName(uint8(devType))
		}
	}
	if middle == "" {
		if idx, ok := msg.Uint(profile.FieldDeviceIndex); ok {
			middle = fmt.Sprintf("device%d", idx)
		}
	}
	if middle == "" {
		return "", false
	}

	id := fmt.Sprintf("%s.%s.%d", profile.ManufacturerName(uint16(man)), middle, serial)
	return sanitizeIdentity(id), true
}

// sanitizeIdentity removes separators that vary between firmware revisions
// of the same device so "HRM_Pro" and "HRM Pro" collapse to one identity.
func sanitizeIdentity(id string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ', '\t', '-':
			return -1
		}
		return r
	}, id))
}
