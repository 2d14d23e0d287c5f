package profile

import "strconv"

// Manufacturer codes from the FIT profile, limited to vendors that show up
// in the activity files we ingest.
var manufacturerNames = map[uint16]string{
	1:   "garmin",
	7:   "quarq",
	9:   "powertap",
	13:  "dynastream_oem",
	15:  "dynastream",
	23:  "suunto",
	32:  "wahoo_fitness",
	48:  "pioneer",
	63:  "specialized",
	67:  "favero_electronics",
	69:  "stages_cycling",
	76:  "bryton",
	89:  "tacx",
	95:  "stryd",
	107: "magene",
	255: "development",
	260: "zwift",
	265: "hammerhead",
}

// ManufacturerName returns the profile name for a manufacturer code, or the
// decimal code when the manufacturer is not registered.
func ManufacturerName(code uint16) string {
	if name, ok := manufacturerNames[code]; ok {
		return name
	}
	return strconv.Itoa(int(code))
}

var garminProducts = map[uint16]string{
	1561: "edge_1000",
	1752: "hrm_run",
	2067: "edge_520",
	2530: "edge_820",
	2697: "fenix_5",
	2713: "edge_1030",
	3077: "forerunner_245",
	3121: "edge_530",
	3122: "edge_830",
	3589: "forerunner_945",
	3843: "hrm_pro",
	3990: "fenix_7",
	4062: "edge_1040",
}

var wahooProducts = map[uint16]string{
	27: "elemnt",
	28: "elemnt_bolt",
	29: "elemnt_roam",
}

// ProductName resolves (manufacturer code, product code) to a product name.
// Returns "" when the pair is not registered; callers fall back to the
// device type or index.
func ProductName(manufacturer, product uint16) string {
	switch manufacturer {
	case 1:
		return garminProducts[product]
	case 32:
		return wahooProducts[product]
	default:
		return ""
	}
}

// ANT+ device type codes carried by device_info messages.
var deviceTypeNames = map[uint8]string{
	4:   "stride_speed_distance",
	11:  "bike_power",
	17:  "fitness_equipment",
	120: "heart_rate",
	121: "bike_speed_cadence",
	122: "bike_cadence",
	123: "bike_speed",
}

// DeviceTypeName returns the ANT+ name for a device type code, or "" when
// unregistered.
func DeviceTypeName(code uint8) string {
	return deviceTypeNames[code]
}

var batteryStatusNames = map[uint8]string{
	1: "new",
	2: "good",
	3: "ok",
	4: "low",
	5: "critical",
	6: "charging",
	7: "unknown",
}

// BatteryStatusName decodes a battery status code. Returns "" for codes
// outside the profile so absent stays absent.
func BatteryStatusName(code uint8) string {
	return batteryStatusNames[code]
}

var primaryBenefitNames = map[uint8]string{
	0: "None",
	1: "Recovery",
	2: "Base",
	3: "Tempo",
	4: "Threshold",
	5: "VO2Max",
	6: "Anaerobic",
	7: "Sprint",
}

// PrimaryBenefitName decodes a primary-benefit code. Codes outside the
// 8-entry table return "" and the caller passes the raw code through.
func PrimaryBenefitName(code uint8) string {
	return primaryBenefitNames[code]
}
