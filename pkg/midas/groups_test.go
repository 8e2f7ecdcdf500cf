// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"errors"
	"reflect"
	"testing"
)

func TestGroupGetters(t *testing.T) {
	tests := []struct {
		name string
		get  func(d *Device) (string, error)
		want string
	}{
		{"StatusWord", func(d *Device) (string, error) { return d.Status.StatusWord(2) }, "BSTA?\r"},
		{"FillCycles", func(d *Device) (string, error) { return d.Status.FillCycles(2) }, "BSFC?\r"},
		{"ReturnPressure", func(d *Device) (string, error) { return d.Pressures.ReturnPressure(2) }, "BSVP?\r"},
		{"SensorType", func(d *Device) (string, error) { return d.Pressures.SensorType(2) }, "BSSR?\r"},
		{"Heater1Temperature", func(d *Device) (string, error) { return d.Temperatures.Heater1Temperature(2) }, "BST3?\r"},
		{"Heater2Duty", func(d *Device) (string, error) { return d.Temperatures.Heater2Duty(2) }, "BSHA?\r"},
		{"MeniscusCommand", func(d *Device) (string, error) { return d.Pumps.MeniscusCommand(2) }, "BSVM?\r"},
		{"PurgeActive", func(d *Device) (string, error) { return d.Purge.Active(2) }, "BSTP?\r"},
		{"SerialNumber", func(d *Device) (string, error) { return d.System.SerialNumber(2) }, "BSSN?\r"},
		{"ExtendedEnableBits", func(d *Device) (string, error) { return d.System.ExtendedEnableBits(2) }, "BSEE?\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, port := newTestDevice(t, ",1,C")

			got, err := tt.get(d)
			if err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if got != "1" {
				t.Errorf("%s = %q, want 1", tt.name, got)
			}
			if w := port.written(); len(w) != 1 || w[0] != tt.want {
				t.Errorf("written = %q, want [%q]", w, tt.want)
			}
		})
	}
}

func TestGroupSetters(t *testing.T) {
	tests := []struct {
		name string
		set  func(d *Device) (bool, error)
		want []string
	}{
		{
			name: "SetReturnPressure",
			set:  func(d *Device) (bool, error) { return d.Pressures.SetReturnPressure(4, "800") },
			want: []string{"DSVP,800\r", "DSVP?\r"},
		},
		{
			name: "TriggerPurge",
			set:  func(d *Device) (bool, error) { return d.Purge.Trigger(4, "3") },
			want: []string{"DSTP,3\r", "DSTP?\r"},
		},
		{
			name: "SetManualRecircSpeed",
			set:  func(d *Device) (bool, error) { return d.Pumps.SetManualRecircSpeed(4, "350") },
			want: []string{"DSMR,350\r", "DSMR?\r"},
		},
		{
			name: "SetActiveHeads",
			set:  func(d *Device) (bool, error) { return d.System.SetActiveHeads(4, "15") },
			want: []string{"DSAH,15\r"},
		},
		{
			name: "SetStartupFunction",
			set:  func(d *Device) (bool, error) { return d.System.SetStartupFunction(4, "2") },
			want: []string{"DSCS,2\r"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, port := newTestDevice(t, ",A,C", ",1,C")

			ok, err := tt.set(d)
			if err != nil || !ok {
				t.Fatalf("%s = %v, %v; want true, nil", tt.name, ok, err)
			}
			if w := port.written(); !reflect.DeepEqual(w, tt.want) {
				t.Errorf("written = %q, want %q", w, tt.want)
			}
		})
	}
}

func TestGroupSetterRejectsBeforeIO(t *testing.T) {
	tests := []struct {
		name string
		set  func(d *Device) (bool, error)
	}{
		{"tank too hot", func(d *Device) (bool, error) { return d.Temperatures.SetTankTemperature(1, "61") }},
		{"purge type", func(d *Device) (bool, error) { return d.Purge.Trigger(1, "6") }},
		{"too many heads", func(d *Device) (bool, error) { return d.System.SetActiveHeads(1, "64") }},
		{"network id zero", func(d *Device) (bool, error) { return d.System.SetNetworkID(1, "0") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, port := newTestDevice(t)

			ok, err := tt.set(d)
			if ok || !errors.Is(err, ErrInvalidValue) {
				t.Errorf("got %v, %v; want false, ErrInvalidValue", ok, err)
			}
			if w := port.written(); len(w) != 0 {
				t.Errorf("written = %q, want nothing", w)
			}
		})
	}
}
