// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

// Status groups the status word, alarm and counter parameters.
type Status struct{ d *Device }

// StatusWord reads the system status word (see StatusFlags).
func (s *Status) StatusWord(node NodeID) (string, error) {
	return s.d.Read(node, ParamStatusWord)
}

// StatusBits reads the status bits as a decimal value.
func (s *Status) StatusBits(node NodeID) (string, error) {
	return s.d.Read(node, ParamStatusBits)
}

// LastErrorCode reads the raw last error code.
func (s *Status) LastErrorCode(node NodeID) (string, error) {
	return s.d.Read(node, ParamLastErrorCode)
}

// LastError reads the last error code and describes it.
func (s *Status) LastError(node NodeID) (string, error) {
	code, err := s.d.Read(node, ParamLastErrorCode)
	if err != nil {
		return "", err
	}
	return DescribeErrorCode(code), nil
}

// Alarms reads the active alarm byte (see AlarmFlags).
func (s *Status) Alarms(node NodeID) (string, error) {
	return s.d.Read(node, ParamAlarms)
}

// ActiveAlarms reads the alarm byte and names each active alarm.
func (s *Status) ActiveAlarms(node NodeID) ([]string, error) {
	raw, err := s.d.Read(node, ParamAlarms)
	if err != nil {
		return nil, err
	}
	return ParamAlarms.Domain.FlagNames(raw)
}

// ClearAlarms resets every alarm and reads the alarm byte back.
func (s *Status) ClearAlarms(node NodeID) (bool, error) {
	return s.d.Write(node, ParamAlarms, "0")
}

func (s *Status) RunningHours(node NodeID) (string, error) {
	return s.d.Read(node, ParamRunningHours)
}

func (s *Status) AlarmMask(node NodeID) (string, error) {
	return s.d.Read(node, ParamAlarmMask)
}

func (s *Status) SetAlarmMask(node NodeID, mask string) (bool, error) {
	return s.d.Write(node, ParamAlarmMask, mask)
}

func (s *Status) CriticalAlarms(node NodeID) (string, error) {
	return s.d.Read(node, ParamCriticalAlarms)
}

func (s *Status) SetCriticalAlarms(node NodeID, mask string) (bool, error) {
	return s.d.Write(node, ParamCriticalAlarms, mask)
}

func (s *Status) FillCycles(node NodeID) (string, error) {
	return s.d.Read(node, ParamFillCycles)
}

// Pressures groups the meniscus, infeed and sensor parameters. Meniscus
// pressures are in scaled units of 0.1 mbar.
type Pressures struct{ d *Device }

func (p *Pressures) ReturnPressure(node NodeID) (string, error) {
	return p.d.Read(node, ParamReturnPressure)
}

func (p *Pressures) SetReturnPressure(node NodeID, pressure string) (bool, error) {
	return p.d.Write(node, ParamReturnPressure, pressure)
}

func (p *Pressures) NonRecircMeniscusPressure(node NodeID) (string, error) {
	return p.d.Read(node, ParamNonRecircMeniscusPressure)
}

func (p *Pressures) SetNonRecircMeniscusPressure(node NodeID, pressure string) (bool, error) {
	return p.d.Write(node, ParamNonRecircMeniscusPressure, pressure)
}

func (p *Pressures) InfeedPressure(node NodeID) (string, error) {
	return p.d.Read(node, ParamInfeedPressure)
}

func (p *Pressures) SetInfeedPressure(node NodeID, pressure string) (bool, error) {
	return p.d.Write(node, ParamInfeedPressure, pressure)
}

func (p *Pressures) SensorType(node NodeID) (string, error) {
	return p.d.Read(node, ParamPressureSensorType)
}

func (p *Pressures) SetSensorType(node NodeID, sensorType string) (bool, error) {
	return p.d.Write(node, ParamPressureSensorType, sensorType)
}

// Temperatures groups the heater parameters.
type Temperatures struct{ d *Device }

// Heater1Temperature reads the spare manifold thermocouple as a decimal
// string such as "10.2".
func (t *Temperatures) Heater1Temperature(node NodeID) (string, error) {
	return t.d.Read(node, ParamHeater1Temperature)
}

func (t *Temperatures) TankTemperature(node NodeID) (string, error) {
	return t.d.Read(node, ParamTankTemperature)
}

func (t *Temperatures) SetTankTemperature(node NodeID, celsius string) (bool, error) {
	return t.d.Write(node, ParamTankTemperature, celsius)
}

func (t *Temperatures) AuxTemperature(node NodeID) (string, error) {
	return t.d.Read(node, ParamAuxTemperature)
}

func (t *Temperatures) SetAuxTemperature(node NodeID, celsius string) (bool, error) {
	return t.d.Write(node, ParamAuxTemperature, celsius)
}

func (t *Temperatures) PreheatTime(node NodeID) (string, error) {
	return t.d.Read(node, ParamPreheatTime)
}

func (t *Temperatures) SetPreheatTime(node NodeID, seconds string) (bool, error) {
	return t.d.Write(node, ParamPreheatTime, seconds)
}

func (t *Temperatures) Heater1Duty(node NodeID) (string, error) {
	return t.d.Read(node, ParamHeater1Duty)
}

func (t *Temperatures) SetHeater1Duty(node NodeID, percent string) (bool, error) {
	return t.d.Write(node, ParamHeater1Duty, percent)
}

func (t *Temperatures) Heater2Duty(node NodeID) (string, error) {
	return t.d.Read(node, ParamHeater2Duty)
}

func (t *Temperatures) SetHeater2Duty(node NodeID, percent string) (bool, error) {
	return t.d.Write(node, ParamHeater2Duty, percent)
}

// Pumps groups the fill, recirculation and meniscus pump parameters.
type Pumps struct{ d *Device }

func (p *Pumps) PumpTimeout(node NodeID) (string, error) {
	return p.d.Read(node, ParamPumpTimeout)
}

func (p *Pumps) SetPumpTimeout(node NodeID, seconds string) (bool, error) {
	return p.d.Write(node, ParamPumpTimeout, seconds)
}

func (p *Pumps) ManualRecircSpeed(node NodeID) (string, error) {
	return p.d.Read(node, ParamManualRecircSpeed)
}

func (p *Pumps) SetManualRecircSpeed(node NodeID, speed string) (bool, error) {
	return p.d.Write(node, ParamManualRecircSpeed, speed)
}

func (p *Pumps) FillSpeed(node NodeID) (string, error) {
	return p.d.Read(node, ParamFillSpeed)
}

func (p *Pumps) SetFillSpeed(node NodeID, mlPerMin string) (bool, error) {
	return p.d.Write(node, ParamFillSpeed, mlPerMin)
}

func (p *Pumps) RecircCommand(node NodeID) (string, error) {
	return p.d.Read(node, ParamRecircPumpCommand)
}

func (p *Pumps) ManualMeniscus(node NodeID) (string, error) {
	return p.d.Read(node, ParamManualMeniscus)
}

// SetManualMeniscus runs the meniscus pump at its fixed minimum speed so the
// minimum meniscus pressure can be set.
func (p *Pumps) SetManualMeniscus(node NodeID, enable string) (bool, error) {
	return p.d.Write(node, ParamManualMeniscus, enable)
}

func (p *Pumps) MeniscusCommand(node NodeID) (string, error) {
	return p.d.Read(node, ParamMeniscusPumpCommand)
}

// Purge groups the purge parameters.
type Purge struct{ d *Device }

func (p *Purge) Pressure(node NodeID) (string, error) {
	return p.d.Read(node, ParamPurgePressure)
}

func (p *Purge) SetPressure(node NodeID, mbar string) (bool, error) {
	return p.d.Write(node, ParamPurgePressure, mbar)
}

// Active reads 1 while a purge is running, 0 otherwise.
func (p *Purge) Active(node NodeID) (string, error) {
	return p.d.Read(node, ParamPurge)
}

// Trigger starts a purge cycle of the given type (see ParamPurge choices).
func (p *Purge) Trigger(node NodeID, purgeType string) (bool, error) {
	return p.d.Write(node, ParamPurge, purgeType)
}

// Time reads the purge time in tenths of a second.
func (p *Purge) Time(node NodeID) (string, error) {
	return p.d.Read(node, ParamPurgeTime)
}

func (p *Purge) SetTime(node NodeID, tenths string) (bool, error) {
	return p.d.Write(node, ParamPurgeTime, tenths)
}

func (p *Purge) LocalTime(node NodeID) (string, error) {
	return p.d.Read(node, ParamLocalPurgeTime)
}

func (p *Purge) SetLocalTime(node NodeID, seconds string) (bool, error) {
	return p.d.Write(node, ParamLocalPurgeTime, seconds)
}

// System groups identity and system wide configuration.
type System struct{ d *Device }

func (s *System) FirmwareVersion(node NodeID) (string, error) {
	return s.d.Read(node, ParamFirmwareVersion)
}

func (s *System) SerialNumber(node NodeID) (string, error) {
	return s.d.Read(node, ParamSerialNumber)
}

func (s *System) SystemType(node NodeID) (string, error) {
	return s.d.Read(node, ParamSystemType)
}

// SetActiveHeads opens the head valves given as a bitmask, e.g. "15" opens
// heads 1-4. The parameter cannot be queried, so only demand is recorded.
func (s *System) SetActiveHeads(node NodeID, heads string) (bool, error) {
	return s.d.Write(node, ParamActiveHeads, heads)
}

func (s *System) BypassTime(node NodeID) (string, error) {
	return s.d.Read(node, ParamBypassTime)
}

func (s *System) SetBypassTime(node NodeID, seconds string) (bool, error) {
	return s.d.Write(node, ParamBypassTime, seconds)
}

func (s *System) SetStartupFunction(node NodeID, function string) (bool, error) {
	return s.d.Write(node, ParamStartupFunction, function)
}

func (s *System) DrainStatus(node NodeID) (string, error) {
	return s.d.Read(node, ParamDrain)
}

// SetDrain turns off the meniscus and opens the head valves so the purge
// functions can push fluid out of the system.
func (s *System) SetDrain(node NodeID, drainType string) (bool, error) {
	return s.d.Write(node, ParamDrain, drainType)
}

func (s *System) PrimeStatus(node NodeID) (string, error) {
	return s.d.Read(node, ParamPrime)
}

func (s *System) SetPrime(node NodeID, enable string) (bool, error) {
	return s.d.Write(node, ParamPrime, enable)
}

func (s *System) NetworkID(node NodeID) (string, error) {
	return s.d.Read(node, ParamNetworkID)
}

func (s *System) SetNetworkID(node NodeID, id string) (bool, error) {
	return s.d.Write(node, ParamNetworkID, id)
}

func (s *System) EnableBits(node NodeID) (string, error) {
	return s.d.Read(node, ParamEnableBits)
}

func (s *System) SetEnableBits(node NodeID, bits string) (bool, error) {
	return s.d.Write(node, ParamEnableBits, bits)
}

func (s *System) ExtendedEnableBits(node NodeID) (string, error) {
	return s.d.Read(node, ParamExtendedEnableBits)
}

func (s *System) SetExtendedEnableBits(node NodeID, bits string) (bool, error) {
	return s.d.Write(node, ParamExtendedEnableBits, bits)
}

func (s *System) DynamicCalibration(node NodeID) (string, error) {
	return s.d.Read(node, ParamDynamicCalibration)
}

func (s *System) SetDynamicCalibration(node NodeID, state string) (bool, error) {
	return s.d.Write(node, ParamDynamicCalibration, state)
}
