// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
)

// ============================================================
// Read
// ============================================================

func TestRead_StatusWord(t *testing.T) {
	d, port := newTestDevice(t, ",128,C")

	got, err := d.Status.StatusWord(NodeNone)
	if err != nil {
		t.Fatalf("StatusWord failed: %v", err)
	}
	if got != "128" {
		t.Errorf("StatusWord = %q, want %q", got, "128")
	}
	if w := port.written(); !reflect.DeepEqual(w, []string{"STA?\r"}) {
		t.Errorf("written = %q, want [\"STA?\\r\"]", w)
	}

	st := d.State(NodeNone, ParamStatusWord)
	if !st.HasActual() || st.Actual != "128" {
		t.Errorf("cached actual = %q (set %v), want %q", st.Actual, st.HasActual(), "128")
	}

	names, err := ParamStatusWord.Domain.FlagNames(got)
	if err != nil {
		t.Fatalf("FlagNames failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"system enabled"}) {
		t.Errorf("FlagNames = %v, want [system enabled]", names)
	}
}

func TestRead_DeviceErrorsLeaveCacheUntouched(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr error
	}{
		{name: "malformed command", reply: ",?,C", wantErr: ErrMalformedCommand},
		{name: "missing data", reply: ">,C", wantErr: ErrMissingData},
		{name: "timeout", reply: "", wantErr: ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDevice(t, ",30,C", tt.reply)

			if _, err := d.Temperatures.TankTemperature(2); err != nil {
				t.Fatalf("first read failed: %v", err)
			}
			before := d.State(2, ParamTankTemperature)

			_, err := d.Temperatures.TankTemperature(2)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) || cmdErr.Code != "SHT" || cmdErr.Node != 2 {
				t.Errorf("error = %#v, want CommandError for SHT on node 2", err)
			}

			if after := d.State(2, ParamTankTemperature); after != before {
				t.Errorf("state changed from %+v to %+v", before, after)
			}
		})
	}
}

func TestRead_Timeout(t *testing.T) {
	d, port := newTestDevice(t, "")

	got, err := d.Status.StatusWord(NodeNone)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want transport failure", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout in chain", err)
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("error = %#v, want *TransportError in chain", err)
	}
	if got != "" {
		t.Errorf("value = %q, want empty", got)
	}
	if len(port.writes) != 1 {
		t.Errorf("writes = %d, want 1 (no retry)", len(port.writes))
	}
	if d.State(NodeNone, ParamStatusWord).HasActual() {
		t.Error("actual set after timeout")
	}
}

func TestRead_WriteOnlyParameter(t *testing.T) {
	d, port := newTestDevice(t)

	_, err := d.Read(NodeNone, ParamActiveHeads)
	if !errors.Is(err, ErrAccess) {
		t.Errorf("error = %v, want ErrAccess", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("writes = %d, want 0", len(port.writes))
	}
}

func TestRead_InvalidNode(t *testing.T) {
	d, port := newTestDevice(t)

	_, err := d.Status.StatusWord(16)
	if !errors.Is(err, ErrInvalidNode) {
		t.Errorf("error = %v, want ErrInvalidNode", err)
	}
	if !IsDomainError(err) {
		t.Errorf("IsDomainError(%v) = false", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("writes = %d, want 0", len(port.writes))
	}
}

func TestReadByName(t *testing.T) {
	d, port := newTestDevice(t, ",V1.2,C")

	got, err := d.ReadByName(1, "firmware_version")
	if err != nil {
		t.Fatalf("ReadByName failed: %v", err)
	}
	if got != "V1.2" {
		t.Errorf("ReadByName = %q, want V1.2", got)
	}
	if w := port.written(); w[0] != "ASVN?\r" {
		t.Errorf("written = %q, want ASVN?\\r", w[0])
	}

	if _, err := d.ReadByName(1, "no_such_param"); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("error = %v, want ErrUnknownParam", err)
	}
}

// ============================================================
// Write
// ============================================================

func TestWrite_ConfirmedReadsBack(t *testing.T) {
	d, port := newTestDevice(t, ",A,C", ",44,C")

	ok, err := d.Temperatures.SetTankTemperature(3, "45")
	if err != nil {
		t.Fatalf("SetTankTemperature failed: %v", err)
	}
	if !ok {
		t.Fatal("SetTankTemperature not confirmed")
	}

	want := []string{"CSHT,45\r", "CSHT?\r"}
	if w := port.written(); !reflect.DeepEqual(w, want) {
		t.Errorf("written = %q, want %q", w, want)
	}

	st := d.State(3, ParamTankTemperature)
	if st.Demand != "45" {
		t.Errorf("demand = %q, want 45", st.Demand)
	}
	if st.Actual != "44" {
		t.Errorf("actual = %q, want 44 (the readback, not the written value)", st.Actual)
	}

	if other := d.State(NodeNone, ParamTankTemperature); other.HasActual() || other.HasDemand() {
		t.Errorf("node 0 state changed: %+v", other)
	}
}

func TestWrite_NotConfirmed(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr error
	}{
		{name: "other token", reply: ",B,C"},
		{name: "malformed command", reply: ",?,C", wantErr: ErrMalformedCommand},
		{name: "missing data", reply: ">,C", wantErr: ErrMissingData},
		{name: "timeout", reply: "", wantErr: ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, port := newTestDevice(t, ",A,C", ",20,C", tt.reply)

			if ok, err := d.Purge.SetLocalTime(NodeNone, "20"); !ok || err != nil {
				t.Fatalf("first write = %v, %v", ok, err)
			}
			before := d.State(NodeNone, ParamLocalPurgeTime)

			ok, err := d.Purge.SetLocalTime(NodeNone, "30")
			if ok {
				t.Error("write reported confirmed")
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}

			if after := d.State(NodeNone, ParamLocalPurgeTime); after != before {
				t.Errorf("state changed from %+v to %+v", before, after)
			}
			if len(port.writes) != 3 {
				t.Errorf("writes = %d, want 3 (no readback after rejected write)", len(port.writes))
			}
		})
	}
}

func TestWrite_OutOfDomain(t *testing.T) {
	tests := []struct {
		name  string
		param *Parameter
		value string
	}{
		{name: "above range", param: ParamTankTemperature, value: "61"},
		{name: "below range", param: ParamPurgePressure, value: "-1"},
		{name: "not a number", param: ParamReturnPressure, value: "high"},
		{name: "enum miss", param: ParamNetworkID, value: "0"},
		{name: "bitmask too wide", param: ParamActiveHeads, value: "64"},
		{name: "bitmask 16 overflow", param: ParamEnableBits, value: "65536"},
		{name: "signed", param: ParamTankTemperature, value: "+45"},
		{name: "zero padded", param: ParamTankTemperature, value: "045"},
		{name: "read only", param: ParamSerialNumber, value: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, port := newTestDevice(t, ",A,C", ",A,C")

			ok, err := d.Write(NodeNone, tt.param, tt.value)
			if ok {
				t.Error("write reported confirmed")
			}
			if !IsDomainError(err) {
				t.Errorf("error = %v, want domain validation error", err)
			}
			if len(port.writes) != 0 {
				t.Errorf("writes = %d, want 0", len(port.writes))
			}
			if st := d.State(NodeNone, tt.param); st.HasDemand() {
				t.Errorf("demand set to %q", st.Demand)
			}
		})
	}
}

func TestWrite_SetOnlyRecordsDemand(t *testing.T) {
	d, port := newTestDevice(t, ",A,C")

	ok, err := d.System.SetActiveHeads(NodeNone, "15")
	if err != nil || !ok {
		t.Fatalf("SetActiveHeads = %v, %v", ok, err)
	}
	if len(port.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(port.writes))
	}

	st := d.State(NodeNone, ParamActiveHeads)
	if st.Demand != "15" || st.HasActual() {
		t.Errorf("state = %+v, want demand 15 and no actual", st)
	}
}

func TestWrite_ReadbackFailure(t *testing.T) {
	d, _ := newTestDevice(t, ",A,C", "")

	ok, err := d.Pressures.SetInfeedPressure(NodeNone, "100")
	if !ok {
		t.Error("write not reported confirmed")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want readback timeout", err)
	}

	st := d.State(NodeNone, ParamInfeedPressure)
	if st.Demand != "100" {
		t.Errorf("demand = %q, want 100", st.Demand)
	}
	if st.HasActual() {
		t.Errorf("actual = %q, want unset", st.Actual)
	}
}

func TestClearAlarms(t *testing.T) {
	d, port := newTestDevice(t, ",A,C", ",0,C")

	ok, err := d.Status.ClearAlarms(5)
	if err != nil || !ok {
		t.Fatalf("ClearAlarms = %v, %v", ok, err)
	}

	want := []string{"ESA1,0\r", "ESA1?\r"}
	if w := port.written(); !reflect.DeepEqual(w, want) {
		t.Errorf("written = %q, want %q", w, want)
	}
}

func TestActiveAlarms(t *testing.T) {
	d, _ := newTestDevice(t, ",9,C")

	alarms, err := d.Status.ActiveAlarms(NodeNone)
	if err != nil {
		t.Fatalf("ActiveAlarms failed: %v", err)
	}
	want := []string{"vacuum/pressure alarm", "ink bottle empty"}
	if !reflect.DeepEqual(alarms, want) {
		t.Errorf("ActiveAlarms = %v, want %v", alarms, want)
	}
}

func TestLastError(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{",0,C", "0 - No error reported"},
		{",50,C", "50 - Temperature heater 2 higher than upper limit"},
		{",99,C", "99 - Unrecognized error code"},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			d, _ := newTestDevice(t, tt.reply)
			got, err := d.Status.LastError(NodeNone)
			if err != nil {
				t.Fatalf("LastError failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("LastError = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// Lifecycle
// ============================================================

func TestClosedDevice(t *testing.T) {
	d, port := newTestDevice(t, ",A,C")
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !port.closed {
		t.Error("port not closed")
	}
	if d.IsOpen() {
		t.Error("IsOpen after Close")
	}

	ok, err := d.Temperatures.SetTankTemperature(NodeNone, "40")
	if ok {
		t.Error("write confirmed on closed device")
	}
	if !errors.Is(err, ErrPortClosed) {
		t.Errorf("error = %v, want ErrPortClosed", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("writes = %d, want 0 (dropped)", len(port.writes))
	}
}

func TestPortLostMidSession(t *testing.T) {
	d, port := newTestDevice(t, ",1,C")
	port.readErr = io.EOF

	if _, err := d.Read(NodeNone, ParamSystemType); !errors.Is(err, ErrPortClosed) {
		t.Fatalf("Read error = %v, want ErrPortClosed", err)
	}
	if d.IsOpen() {
		t.Fatal("IsOpen after the port reported EOF")
	}

	ok, err := d.Temperatures.SetTankTemperature(NodeNone, "40")
	if ok || !errors.Is(err, ErrPortClosed) {
		t.Errorf("Write = %v, %v; want false, ErrPortClosed", ok, err)
	}
	if len(port.writes) != 1 {
		t.Errorf("writes = %d, want 1 (later write dropped)", len(port.writes))
	}

	// Closing after the loss is a no-op
	if err := d.Close(); err != nil {
		t.Errorf("Close after loss = %v", err)
	}
}

func TestNeverOpenedDevice(t *testing.T) {
	d := NewDevice(DefaultConfig("unused"))
	if d.IsOpen() {
		t.Error("new device reports open")
	}
	if _, err := d.Status.StatusWord(NodeNone); !errors.Is(err, ErrPortClosed) {
		t.Errorf("error = %v, want ErrPortClosed", err)
	}
	if len(d.States(NodeNone)) != 0 {
		t.Error("new device has cached state")
	}
}

func TestOpenTwice(t *testing.T) {
	d, _ := newTestDevice(t)
	if err := d.Open(); err == nil {
		t.Error("second Open succeeded")
	}
}

func TestObserver(t *testing.T) {
	var seen []Exchange
	port := newScriptedPort(",A,C", ",12,C")
	d := NewDevice(DefaultConfig("test"),
		WithOpener(func(Config) (Port, error) { return port, nil }),
		WithObserver(ObserverFunc(func(e Exchange) { seen = append(seen, e) })),
	)
	if err := d.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := d.Pumps.SetFillSpeed(4, "12"); err != nil {
		t.Fatalf("SetFillSpeed failed: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("observed %d exchanges, want 2", len(seen))
	}
	if seen[0].Op != OpSet || seen[0].Outcome != OutcomeConfirmed || seen[0].Value != "12" {
		t.Errorf("first exchange = %+v", seen[0])
	}
	if seen[1].Op != OpGet || seen[1].Outcome != OutcomeValue || seen[1].Payload != "12" {
		t.Errorf("second exchange = %+v", seen[1])
	}
	if string(seen[0].Request) != "DSFS,12\r" {
		t.Errorf("request = %q, want DSFS,12\\r", seen[0].Request)
	}
}

func TestCommand_DoesNotTouchCache(t *testing.T) {
	d, _ := newTestDevice(t, ",3,C")

	res, err := d.Command(7, "SUT", OpGet, "")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if res.Outcome != OutcomeValue || res.Payload != "3" {
		t.Errorf("result = %+v", res)
	}
	if len(d.States(7)) != 0 {
		t.Error("Command changed the cache")
	}
}

// ============================================================
// Concurrency
// ============================================================

func TestWrite_ConcurrentCallersDoNotInterleave(t *testing.T) {
	const callers = 8

	var replies []string
	for i := 0; i < callers; i++ {
		replies = append(replies, ",A,C", ",1,C")
	}
	d, port := newTestDevice(t, replies...)

	var wg sync.WaitGroup
	for i := 1; i <= callers; i++ {
		wg.Add(1)
		go func(node NodeID) {
			defer wg.Done()
			if ok, err := d.Temperatures.SetTankTemperature(node, "45"); err != nil || !ok {
				t.Errorf("node %d: SetTankTemperature = %v, %v", node, ok, err)
			}
		}(NodeID(i))
	}
	wg.Wait()

	w := port.written()
	if len(w) != 2*callers {
		t.Fatalf("wrote %d frames, want %d", len(w), 2*callers)
	}
	for i := 0; i < len(w); i += 2 {
		letter := w[i][:1]
		if w[i] != letter+"SHT,45\r" || w[i+1] != letter+"SHT?\r" {
			t.Errorf("frames %d-%d = %q %q, want a set and its readback", i, i+1, w[i], w[i+1])
		}
	}
}
