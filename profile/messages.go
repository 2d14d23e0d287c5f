package profile

import "fmt"

// MessageKind is the closed set of message kinds the aggregator dispatches
// on. Unrecognized global message numbers map to KindUnknown and are carried
// through under their numeric name.
type MessageKind uint8

const (
	KindUnknown MessageKind = iota
	KindFileID
	KindSport
	KindSession
	KindLap
	KindRecord
	KindEvent
	KindWorkout
	KindWorkoutStep
	KindDeviceInfo
	KindCoursePoint
	KindSoftware
	KindMonitoring
	KindMonitoringInfo
	KindLength
	KindStressLevel
	KindFieldDescription
	KindDeveloperDataID
	KindDiveGas

	// KindDefinition is synthetic: it tags definition records emitted by the
	// decoder so consumers can count them. It has no global message number.
	KindDefinition
)

// Global message numbers from the FIT profile.
const (
	GlobalFileID           uint16 = 0
	GlobalSport            uint16 = 12
	GlobalSession          uint16 = 18
	GlobalLap              uint16 = 19
	GlobalRecord           uint16 = 20
	GlobalEvent            uint16 = 21
	GlobalDeviceInfo       uint16 = 23
	GlobalWorkout          uint16 = 26
	GlobalWorkoutStep      uint16 = 27
	GlobalCoursePoint      uint16 = 32
	GlobalSoftware         uint16 = 35
	GlobalMonitoring       uint16 = 55
	GlobalLength           uint16 = 101
	GlobalMonitoringInfo   uint16 = 103
	GlobalFieldDescription uint16 = 206
	GlobalDeveloperDataID  uint16 = 207
	GlobalStressLevel      uint16 = 227
	GlobalDiveGas          uint16 = 259
)

var kindByGlobal = map[uint16]MessageKind{
	GlobalFileID:           KindFileID,
	GlobalSport:            KindSport,
	GlobalSession:          KindSession,
	GlobalLap:              KindLap,
	GlobalRecord:           KindRecord,
	GlobalEvent:            KindEvent,
	GlobalDeviceInfo:       KindDeviceInfo,
	GlobalWorkout:          KindWorkout,
	GlobalWorkoutStep:      KindWorkoutStep,
	GlobalCoursePoint:      KindCoursePoint,
	GlobalSoftware:         KindSoftware,
	GlobalMonitoring:       KindMonitoring,
	GlobalLength:           KindLength,
	GlobalMonitoringInfo:   KindMonitoringInfo,
	GlobalFieldDescription: KindFieldDescription,
	GlobalDeveloperDataID:  KindDeveloperDataID,
	GlobalStressLevel:      KindStressLevel,
	GlobalDiveGas:          KindDiveGas,
}

var kindNames = map[MessageKind]string{
	KindUnknown:          "unknown",
	KindFileID:           "file_id",
	KindSport:            "sport",
	KindSession:          "session",
	KindLap:              "lap",
	KindRecord:           "record",
	KindEvent:            "event",
	KindWorkout:          "workout",
	KindWorkoutStep:      "workout_step",
	KindDeviceInfo:       "device_info",
	KindCoursePoint:      "course_point",
	KindSoftware:         "software",
	KindMonitoring:       "monitoring",
	KindMonitoringInfo:   "monitoring_info",
	KindLength:           "length",
	KindStressLevel:      "stress_level",
	KindFieldDescription: "field_description",
	KindDeveloperDataID:  "developer_data_id",
	KindDiveGas:          "dive_gas",
	KindDefinition:       "definition",
}

// KindOf maps a global message number to its kind. Unknown numbers return
// KindUnknown; the caller decides whether to keep or drop the message.
func KindOf(global uint16) MessageKind {
	return kindByGlobal[global]
}

func (k MessageKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// GlobalName returns a stable name for a global message number, falling back
// to global_<n> for numbers outside the registered profile.
func GlobalName(global uint16) string {
	if kind, ok := kindByGlobal[global]; ok {
		return kind.String()
	}
	return fmt.Sprintf("global_%d", global)
}

// ArrayPolicy declares what the decoder does with array-valued fields.
type ArrayPolicy uint8

const (
	// ArrayKeep keeps the valid elements as a list.
	ArrayKeep ArrayPolicy = iota
	// ArrayMean reduces the valid elements to their mean.
	ArrayMean
)

// FieldSpec is one registry entry: the field name, the linear transform
// applied to raw numeric values (physical = raw/Scale - Offset), whether the
// field is a FIT epoch timestamp, and the array reduction policy.
type FieldSpec struct {
	Name   string
	Scale  float64
	Offset float64
	Time   bool
	Array  ArrayPolicy
}

// Field names shared by the aggregator.
const (
	FieldTimestamp                = "timestamp"
	FieldStartTime                = "start_time"
	FieldTotalElapsedTime         = "total_elapsed_time"
	FieldTotalDistance            = "total_distance"
	FieldEvent                    = "event"
	FieldEventType                = "event_type"
	FieldPrimaryBenefit           = "primary_benefit"
	FieldIntensityFactor          = "intensity_factor"
	FieldTrainingStressScore      = "training_stress_score"
	FieldTrainingLoadPeak         = "training_load_peak"
	FieldTotalTrainingEffect      = "total_training_effect"
	FieldAnaerobicTrainingEffect  = "total_anaerobic_training_effect"
	FieldLeftRightBalance         = "left_right_balance"
	FieldLeftPedalSmoothness      = "avg_left_pedal_smoothness"
	FieldRightPedalSmoothness     = "avg_right_pedal_smoothness"
	FieldCombinedPedalSmoothness  = "avg_combined_pedal_smoothness"
	FieldLeftTorqueEffectiveness  = "avg_left_torque_effectiveness"
	FieldRightTorqueEffectiveness = "avg_right_torque_effectiveness"
	FieldManufacturer             = "manufacturer"
	FieldProduct                  = "product"
	FieldProductName              = "product_name"
	FieldSerialNumber             = "serial_number"
	FieldDeviceIndex              = "device_index"
	FieldDeviceType               = "device_type"
	FieldBatteryStatus            = "battery_status"
	FieldSportName                = "name"
	FieldWorkoutName              = "wkt_name"
	FieldNotes                    = "notes"
	FieldDeveloperDataIndex       = "developer_data_index"
	FieldFieldDefinitionNumber    = "field_definition_number"
	FieldFitBaseTypeID            = "fit_base_type_id"
	FieldFieldName                = "field_name"
)

// Timer event constants (event message, fields event/event_type).
const (
	EventTimer         uint64 = 0
	EventTypeStart     uint64 = 0
	EventTypeStop      uint64 = 1
	EventTypeStopAll   uint64 = 4
	TimestampFieldNum  uint8  = 253
)

var fieldsByMessage = map[uint16]map[uint8]FieldSpec{
	GlobalFileID: {
		0:   {Name: "type"},
		1:   {Name: FieldManufacturer},
		2:   {Name: FieldProduct},
		3:   {Name: FieldSerialNumber},
		4:   {Name: "time_created", Time: true},
		5:   {Name: "number"},
		8:   {Name: FieldProductName},
		253: {Name: FieldTimestamp, Time: true},
	},
	GlobalSport: {
		0: {Name: "sport"},
		1: {Name: "sub_sport"},
		3: {Name: FieldSportName},
	},
	GlobalSession: {
		253: {Name: FieldTimestamp, Time: true},
		2:   {Name: FieldStartTime, Time: true},
		5:   {Name: "sport"},
		6:   {Name: "sub_sport"},
		7:   {Name: FieldTotalElapsedTime, Scale: 1000},
		8:   {Name: "total_timer_time", Scale: 1000},
		9:   {Name: FieldTotalDistance, Scale: 100},
		11:  {Name: "total_calories"},
		14:  {Name: "avg_speed", Scale: 1000},
		15:  {Name: "max_speed", Scale: 1000},
		16:  {Name: "avg_heart_rate"},
		17:  {Name: "max_heart_rate"},
		18:  {Name: "avg_cadence"},
		19:  {Name: "max_cadence"},
		20:  {Name: "avg_power"},
		21:  {Name: "max_power"},
		22:  {Name: "total_ascent"},
		23:  {Name: "total_descent"},
		24:  {Name: FieldTotalTrainingEffect, Scale: 10},
		34:  {Name: "normalized_power"},
		35:  {Name: FieldTrainingStressScore, Scale: 10},
		36:  {Name: FieldIntensityFactor, Scale: 1000},
		87:  {Name: FieldLeftRightBalance},
		101: {Name: FieldLeftTorqueEffectiveness, Scale: 2, Array: ArrayMean},
		102: {Name: FieldRightTorqueEffectiveness, Scale: 2, Array: ArrayMean},
		103: {Name: FieldLeftPedalSmoothness, Scale: 2, Array: ArrayMean},
		104: {Name: FieldRightPedalSmoothness, Scale: 2, Array: ArrayMean},
		105: {Name: FieldCombinedPedalSmoothness, Scale: 2, Array: ArrayMean},
		110: {Name: "time_in_hr_zone", Scale: 1000, Array: ArrayKeep},
		137: {Name: FieldAnaerobicTrainingEffect, Scale: 10},
		168: {Name: FieldTrainingLoadPeak, Scale: 65536},
		188: {Name: FieldPrimaryBenefit},
	},
	GlobalLap: {
		253: {Name: FieldTimestamp, Time: true},
		2:   {Name: FieldStartTime, Time: true},
		7:   {Name: FieldTotalElapsedTime, Scale: 1000},
		8:   {Name: "total_timer_time", Scale: 1000},
		9:   {Name: FieldTotalDistance, Scale: 100},
		15:  {Name: "avg_heart_rate"},
		16:  {Name: "max_heart_rate"},
		19:  {Name: "avg_power"},
		20:  {Name: "max_power"},
	},
	GlobalRecord: {
		253: {Name: FieldTimestamp, Time: true},
		2:   {Name: "altitude", Scale: 5, Offset: 500},
		3:   {Name: "heart_rate"},
		4:   {Name: "cadence"},
		5:   {Name: "distance", Scale: 100},
		6:   {Name: "speed", Scale: 1000},
		7:   {Name: "power"},
		13:  {Name: "temperature"},
	},
	GlobalEvent: {
		253: {Name: FieldTimestamp, Time: true},
		0:   {Name: FieldEvent},
		1:   {Name: FieldEventType},
		2:   {Name: "data16"},
		3:   {Name: "data"},
		4:   {Name: "event_group"},
	},
	GlobalDeviceInfo: {
		253: {Name: FieldTimestamp, Time: true},
		0:   {Name: FieldDeviceIndex},
		1:   {Name: FieldDeviceType},
		2:   {Name: FieldManufacturer},
		3:   {Name: FieldSerialNumber},
		4:   {Name: FieldProduct},
		5:   {Name: "software_version", Scale: 100},
		10:  {Name: "battery_voltage", Scale: 256},
		11:  {Name: FieldBatteryStatus},
		27:  {Name: FieldProductName},
	},
	GlobalWorkout: {
		4: {Name: FieldWorkoutName},
		5: {Name: "sport"},
		6: {Name: "sub_sport"},
		7: {Name: "num_valid_steps"},
	},
	GlobalWorkoutStep: {
		254: {Name: "message_index"},
		0:   {Name: "wkt_step_name"},
		1:   {Name: "duration_type"},
		2:   {Name: "duration_value"},
		7:   {Name: "intensity"},
		8:   {Name: FieldNotes},
	},
	GlobalCoursePoint: {
		1: {Name: FieldTimestamp, Time: true},
		5: {Name: "type"},
		6: {Name: FieldSportName},
	},
	GlobalSoftware: {
		3: {Name: "version", Scale: 100},
		5: {Name: "part_number"},
	},
	GlobalMonitoring: {
		253: {Name: FieldTimestamp, Time: true},
		0:   {Name: FieldDeviceIndex},
		2:   {Name: "calories"},
		3:   {Name: "distance", Scale: 100},
		4:   {Name: "cycles", Scale: 2},
	},
	GlobalMonitoringInfo: {
		253: {Name: FieldTimestamp, Time: true},
		0:   {Name: "local_timestamp"},
	},
	GlobalLength: {
		253: {Name: FieldTimestamp, Time: true},
		0:   {Name: FieldEvent},
		1:   {Name: FieldEventType},
		3:   {Name: FieldTotalElapsedTime, Scale: 1000},
		4:   {Name: "total_timer_time", Scale: 1000},
	},
	GlobalStressLevel: {
		0: {Name: "stress_level_value"},
		1: {Name: "stress_level_time", Time: true},
	},
	GlobalFieldDescription: {
		0: {Name: FieldDeveloperDataIndex},
		1: {Name: FieldFieldDefinitionNumber},
		2: {Name: FieldFitBaseTypeID},
		3: {Name: FieldFieldName},
		6: {Name: "native_mesg_num"},
		7: {Name: "native_field_num"},
		8: {Name: "units"},
	},
	GlobalDeveloperDataID: {
		0: {Name: "developer_id"},
		1: {Name: "application_id"},
		2: {Name: "manufacturer_id"},
		3: {Name: FieldDeveloperDataIndex},
		4: {Name: "application_version"},
	},
	GlobalDiveGas: {
		254: {Name: "message_index"},
		0:   {Name: "helium_content"},
		1:   {Name: "oxygen_content"},
		2:   {Name: "status"},
	},
}

// Field resolves (global message number, field number) to its spec. Unknown
// fields get a synthetic field_<n> name with no transform so they are still
// decodable and forward compatible.
func Field(global uint16, field uint8) FieldSpec {
	if m, ok := fieldsByMessage[global]; ok {
		if spec, ok := m[field]; ok {
			return spec
		}
	}
	return FieldSpec{Name: fmt.Sprintf("field_%d", field)}
}
