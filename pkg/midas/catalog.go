// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import "sort"

// Access describes which operations a parameter supports.
type Access int

const (
	AccessGet Access = 1 << iota
	AccessSet

	AccessGetSet = AccessGet | AccessSet
)

func (a Access) CanGet() bool { return a&AccessGet != 0 }
func (a Access) CanSet() bool { return a&AccessSet != 0 }

func (a Access) String() string {
	switch a {
	case AccessGet:
		return "get"
	case AccessSet:
		return "set"
	case AccessGetSet:
		return "get-set"
	default:
		return "none"
	}
}

// Group is the functional area a parameter belongs to.
type Group string

const (
	GroupStatus      Group = "status"
	GroupPressure    Group = "pressure"
	GroupTemperature Group = "temperature"
	GroupPump        Group = "pump"
	GroupPurge       Group = "purge"
	GroupSystem      Group = "system"
)

// Parameter is one device controlled quantity.
type Parameter struct {
	Name        string
	Code        string
	Access      Access
	Domain      Domain
	Group       Group
	Unit        string
	Description string
}

// Bit meanings, least significant bit first.
var (
	StatusFlags = []string{
		"tank filling",
		"purging",
		"tank heater output on",
		"external heater output on",
		"cure lamp output on",
		"internal recirculation",
		"head lockoff valve open",
		"system enabled",
		"preheat active",
		"bypass active",
		"drain system active",
		"flush system active",
		"calibration in progress",
	}

	AlarmFlags = []string{
		"vacuum/pressure alarm",
		"pump timeout",
		"ink level warning",
		"ink bottle empty",
		"tank thermocouple fault",
		"degas fault",
		"recirculation fault",
		"failsafe alarm",
		"meniscus pump running too slow",
		"meniscus pump running too fast",
		"recirculation pump running too slow",
		"recirculation pump running too fast",
	}

	AlarmOutputFlags = []string{
		"meniscus sensor fault",
		"pump timeout",
		"ink level warning",
		"ink bottle empty",
		"tank thermocouple fault",
		"degas fault",
		"recirculation sensor fault",
		"failsafe alarm",
		"meniscus pump running too slow",
		"meniscus pump running too fast",
		"recirculation pump running too slow",
		"recirculation pump running too fast",
	}

	EnableFlags = []string{
		"ink enabled",
		"tank heater enabled",
		"external heater enabled",
		"recirculation enabled",
		"user pwm enabled",
		"pressure data streaming",
		"onboard purge button enabled",
		"use internal signals",
		"hard purge from hardware inputs",
		"external purge signal enabled",
		"pin 12 as bulk level",
		"invert bottle empty signal",
		"invert user input signal",
		"degas enabled",
		"use manual recirculation speed",
		"pull mode enabled",
	}

	ExtendedEnableFlags = []string{
		"disable system enable on power off",
		"disable PID loop separation",
		"disable fill purge blocking",
		"disable fill recirculation on mixer",
	}

	HeadFlags = []string{"head 1", "head 2", "head 3", "head 4", "head 5", "head 6"}
)

var offOn = []Choice{{0, "off"}, {1, "on"}}

// Status parameters
var (
	ParamStatusWord     = &Parameter{Name: "status_word", Code: "STA", Access: AccessGet, Domain: Bitmask(16, StatusFlags), Group: GroupStatus, Description: "System status word"}
	ParamStatusBits     = &Parameter{Name: "status_bits", Code: "SSB", Access: AccessGet, Domain: Bitmask(16, StatusFlags), Group: GroupStatus, Description: "System status bits"}
	ParamLastErrorCode  = &Parameter{Name: "last_error_code", Code: "SLE", Access: AccessGet, Domain: Number(), Group: GroupStatus, Description: "Last error code reported by the controller"}
	ParamAlarms         = &Parameter{Name: "alarms", Code: "SA1", Access: AccessGetSet, Domain: Bitmask(16, AlarmFlags), Group: GroupStatus, Description: "Active alarm byte, write 0 to reset"}
	ParamRunningHours   = &Parameter{Name: "running_hours", Code: "SVN", Access: AccessGet, Domain: Text(), Group: GroupStatus, Unit: "h-min", Description: "System running hours"}
	ParamAlarmMask      = &Parameter{Name: "alarm_mask", Code: "SAB", Access: AccessGetSet, Domain: Bitmask(16, AlarmOutputFlags), Group: GroupStatus, Description: "Alarms that drive the alarm output"}
	ParamCriticalAlarms = &Parameter{Name: "critical_alarms", Code: "SAM", Access: AccessGetSet, Domain: Bitmask(16, AlarmOutputFlags), Group: GroupStatus, Description: "Alarms that shut the system down (bits 0, 6 and 7 always on)"}
	ParamFillCycles     = &Parameter{Name: "fill_cycles", Code: "SFC", Access: AccessGet, Domain: Number(), Group: GroupStatus, Description: "Fill cycles completed"}
)

// Pressure parameters
var (
	ParamReturnPressure            = &Parameter{Name: "return_pressure", Code: "SVP", Access: AccessGetSet, Domain: Range(0, 1500), Group: GroupPressure, Unit: "0.1 mbar", Description: "Target meniscus pressure (recirculating meniscus on recirculating systems)"}
	ParamNonRecircMeniscusPressure = &Parameter{Name: "non_recirc_meniscus_pressure", Code: "SV2", Access: AccessGetSet, Domain: Range(0, 1500), Group: GroupPressure, Unit: "0.1 mbar", Description: "Target vacuum pressure (non recirculating meniscus on recirculating systems)"}
	ParamInfeedPressure            = &Parameter{Name: "infeed_pressure", Code: "SRS", Access: AccessGetSet, Domain: Range(0, 255), Group: GroupPressure, Unit: "mbar", Description: "Target recirculation pump pressure"}
	ParamPressureSensorType        = &Parameter{Name: "pressure_sensor_type", Code: "SSR", Access: AccessGetSet, Domain: Enum(Choice{0, "internal"}, Choice{1, "remote manifold"}), Group: GroupPressure, Description: "Pressure sensor source"}
)

// Temperature parameters
var (
	ParamHeater1Temperature = &Parameter{Name: "heater_1_temperature", Code: "ST3", Access: AccessGet, Domain: Text(), Group: GroupTemperature, Unit: "°C", Description: "Spare thermocouple on the manifold"}
	ParamTankTemperature    = &Parameter{Name: "tank_temperature", Code: "SHT", Access: AccessGetSet, Domain: Range(0, 60), Group: GroupTemperature, Unit: "°C", Description: "Target tank heater temperature"}
	ParamAuxTemperature     = &Parameter{Name: "aux_temperature", Code: "SH2", Access: AccessGetSet, Domain: Range(0, 60), Group: GroupTemperature, Unit: "°C", Description: "Target auxiliary heater temperature (450 only)"}
	ParamPreheatTime        = &Parameter{Name: "preheat_time", Code: "SPH", Access: AccessGetSet, Domain: Range(0, 600), Group: GroupTemperature, Unit: "s", Description: "Preheat time"}
	ParamHeater1Duty        = &Parameter{Name: "heater_1_duty", Code: "SHD", Access: AccessGetSet, Domain: Range(0, 100), Group: GroupTemperature, Unit: "%", Description: "Heater 1 duty"}
	ParamHeater2Duty        = &Parameter{Name: "heater_2_duty", Code: "SHA", Access: AccessGetSet, Domain: Range(0, 100), Group: GroupTemperature, Unit: "%", Description: "Heater 2 duty"}
)

// Pump parameters
var (
	ParamPumpTimeout         = &Parameter{Name: "pump_timeout", Code: "STO", Access: AccessGetSet, Domain: Range(0, 90), Group: GroupPump, Unit: "s", Description: "Fill pump timeout"}
	ParamManualRecircSpeed   = &Parameter{Name: "manual_recirc_speed", Code: "SMR", Access: AccessGetSet, Domain: Range(0, 700), Group: GroupPump, Description: "Manual recirculation speed"}
	ParamFillSpeed           = &Parameter{Name: "fill_speed", Code: "SFS", Access: AccessGetSet, Domain: Range(0, 255), Group: GroupPump, Unit: "ml/min", Description: "Fill pump speed"}
	ParamRecircPumpCommand   = &Parameter{Name: "recirc_pump_command", Code: "SVR", Access: AccessGet, Domain: Number(), Group: GroupPump, Description: "Current recirculation pump command"}
	ParamManualMeniscus      = &Parameter{Name: "manual_meniscus", Code: "SNI", Access: AccessGetSet, Domain: Enum(offOn...), Group: GroupPump, Description: "Run the meniscus pump at fixed minimum speed (HV controllers)"}
	ParamMeniscusPumpCommand = &Parameter{Name: "meniscus_pump_command", Code: "SVM", Access: AccessGet, Domain: Number(), Group: GroupPump, Description: "Current meniscus pump command"}
)

// Purge parameters
var (
	ParamPurgePressure  = &Parameter{Name: "purge_pressure", Code: "SPP", Access: AccessGetSet, Domain: Range(0, 500), Group: GroupPurge, Unit: "mbar", Description: "Target purge pressure"}
	ParamPurge          = &Parameter{Name: "purge", Code: "STP", Access: AccessGetSet, Domain: Enum(Choice{1, "soft"}, Choice{2, "hard"}, Choice{3, "cancel"}, Choice{4, "head de-airing"}, Choice{5, "release pressure"}), Group: GroupPurge, Description: "Trigger a purge cycle, reads back 1 while active"}
	ParamPurgeTime      = &Parameter{Name: "purge_time", Code: "SPT", Access: AccessGetSet, Domain: Range(0, 255), Group: GroupPurge, Unit: "0.1 s", Description: "Purge time"}
	ParamLocalPurgeTime = &Parameter{Name: "local_purge_time", Code: "SLP", Access: AccessGetSet, Domain: Range(0, 60), Group: GroupPurge, Unit: "s", Description: "Local purge time"}
)

// System parameters
var (
	ParamFirmwareVersion    = &Parameter{Name: "firmware_version", Code: "SVN", Access: AccessGet, Domain: Text(), Group: GroupSystem, Description: "Firmware version"}
	ParamSerialNumber       = &Parameter{Name: "serial_number", Code: "SSN", Access: AccessGet, Domain: Text(), Group: GroupSystem, Description: "System serial number"}
	ParamSystemType         = &Parameter{Name: "system_type", Code: "SUT", Access: AccessGet, Domain: Number(), Group: GroupSystem, Description: "Unit type used for system detection"}
	ParamActiveHeads        = &Parameter{Name: "active_heads", Code: "SAH", Access: AccessSet, Domain: Bitmask(6, HeadFlags), Group: GroupSystem, Description: "Open head valves"}
	ParamBypassTime         = &Parameter{Name: "bypass_time", Code: "SBT", Access: AccessGetSet, Domain: Range(0, 600), Group: GroupSystem, Unit: "s", Description: "Bypass time"}
	ParamStartupFunction    = &Parameter{Name: "startup_function", Code: "SCS", Access: AccessSet, Domain: Enum(Choice{0, "rerun preheat/bypass"}, Choice{1, "cancel preheat/bypass"}, Choice{2, "rerun bypass only"}, Choice{3, "run bypass indefinitely"}), Group: GroupSystem, Description: "Trigger a startup mode function"}
	ParamDrain              = &Parameter{Name: "drain", Code: "SDS", Access: AccessGetSet, Domain: Enum(Choice{0, "disabled"}, Choice{1, "active heads"}, Choice{2, "active heads with permanent purge"}, Choice{3, "active heads and de-airing with permanent purge"}), Group: GroupSystem, Description: "Drain system"}
	ParamPrime              = &Parameter{Name: "prime", Code: "SPR", Access: AccessGetSet, Domain: Enum(offOn...), Group: GroupSystem, Description: "Prime heads (ink enable bit must be clear)"}
	ParamNetworkID          = &Parameter{Name: "network_id", Code: "SNI", Access: AccessGetSet, Domain: networkIDs(), Group: GroupSystem, Description: "Network ID used for node addressing"}
	ParamEnableBits         = &Parameter{Name: "enable_bits", Code: "SEB", Access: AccessGetSet, Domain: Bitmask(16, EnableFlags), Group: GroupSystem, Description: "Enable bits defining system functionality"}
	ParamExtendedEnableBits = &Parameter{Name: "extended_enable_bits", Code: "SEE", Access: AccessGetSet, Domain: Bitmask(16, ExtendedEnableFlags), Group: GroupSystem, Description: "Extended enables"}
	ParamDynamicCalibration = &Parameter{Name: "dynamic_calibration", Code: "SDC", Access: AccessGetSet, Domain: Number(), Group: GroupSystem, Description: "Dynamic calibration state"}
)

func networkIDs() Domain {
	choices := make([]Choice, 0, NodeMax)
	for n := NodeID(1); n <= NodeMax; n++ {
		choices = append(choices, Choice{int(n), string(n.Letter())})
	}
	return Enum(choices...)
}

// Catalog lists every parameter in display order.
var Catalog = []*Parameter{
	ParamStatusWord, ParamStatusBits, ParamLastErrorCode, ParamAlarms,
	ParamRunningHours, ParamAlarmMask, ParamCriticalAlarms, ParamFillCycles,

	ParamReturnPressure, ParamNonRecircMeniscusPressure, ParamInfeedPressure,
	ParamPressureSensorType,

	ParamHeater1Temperature, ParamTankTemperature, ParamAuxTemperature,
	ParamPreheatTime, ParamHeater1Duty, ParamHeater2Duty,

	ParamPumpTimeout, ParamManualRecircSpeed, ParamFillSpeed,
	ParamRecircPumpCommand, ParamManualMeniscus, ParamMeniscusPumpCommand,

	ParamPurgePressure, ParamPurge, ParamPurgeTime, ParamLocalPurgeTime,

	ParamFirmwareVersion, ParamSerialNumber, ParamSystemType, ParamActiveHeads,
	ParamBypassTime, ParamStartupFunction, ParamDrain, ParamPrime,
	ParamNetworkID, ParamEnableBits, ParamExtendedEnableBits,
	ParamDynamicCalibration,
}

var catalogByName = func() map[string]*Parameter {
	m := make(map[string]*Parameter, len(Catalog))
	for _, p := range Catalog {
		m[p.Name] = p
	}
	return m
}()

// Lookup finds a parameter by name.
func Lookup(name string) (*Parameter, bool) {
	p, ok := catalogByName[name]
	return p, ok
}

// Names returns all parameter names sorted alphabetically.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for _, p := range Catalog {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// InGroup returns the parameters of one group in catalog order.
func InGroup(g Group) []*Parameter {
	var params []*Parameter
	for _, p := range Catalog {
		if p.Group == g {
			params = append(params, p)
		}
	}
	return params
}
