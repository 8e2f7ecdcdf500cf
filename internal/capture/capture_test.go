// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

func sampleExchanges() []midas.Exchange {
	at := time.Date(2025, 6, 1, 8, 30, 0, 123456789, time.UTC)
	return []midas.Exchange{
		{
			Time: at, Node: 3, Code: "SHT", Op: midas.OpSet, Value: "45",
			Request: []byte("CSHT,45\r"), Reply: []byte(",A,C"),
			Outcome: midas.OutcomeConfirmed, Elapsed: 12 * time.Millisecond,
		},
		{
			Time: at.Add(time.Second), Code: "STA", Op: midas.OpGet,
			Request: []byte("STA?\r"), Reply: []byte(",128,C"),
			Outcome: midas.OutcomeValue, Payload: "128", Elapsed: 9 * time.Millisecond,
		},
		{
			Time: at.Add(2 * time.Second), Code: "STA", Op: midas.OpGet,
			Request: []byte("STA?\r"),
			Outcome: midas.OutcomeTransportFailure, Elapsed: time.Second,
			Err: errors.New("read: timeout"),
		},
	}
}

func TestRecordAndRead(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	in := sampleExchanges()
	for _, e := range in {
		rec.Observe(e)
	}
	if rec.Count() != len(in) {
		t.Errorf("Count = %d, want %d", rec.Count(), len(in))
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if r.Header().Port != "/dev/ttyUSB0" {
		t.Errorf("header port = %q", r.Header().Port)
	}

	for i, want := range in {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		e := got.Exchange()

		if !e.Time.Equal(want.Time) {
			t.Errorf("record %d: time = %v, want %v", i, e.Time, want.Time)
		}
		if e.Node != want.Node || e.Code != want.Code || e.Op != want.Op || e.Value != want.Value {
			t.Errorf("record %d: command = %+v", i, e)
		}
		if !bytes.Equal(e.Request, want.Request) || !bytes.Equal(e.Reply, want.Reply) {
			t.Errorf("record %d: frames = %q / %q", i, e.Request, e.Reply)
		}
		if e.Outcome != want.Outcome || e.Payload != want.Payload || e.Elapsed != want.Elapsed {
			t.Errorf("record %d: result = %+v", i, e)
		}
		if (want.Err == nil) != (e.Err == nil) || (e.Err != nil && e.Err.Error() != want.Err.Error()) {
			t.Errorf("record %d: err = %v, want %v", i, e.Err, want.Err)
		}
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next after last record = %v, want io.EOF", err)
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")
	rec, err := Create(path, "COM4")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rec.Observe(sampleExchanges()[0])
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open capture: %v", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Errorf("Next failed: %v", err)
	}
}

func TestReader_Truncated(t *testing.T) {
	var buf bytes.Buffer
	rec, _ := NewRecorder(&buf, "")
	rec.Observe(sampleExchanges()[1])

	data := buf.Bytes()[:buf.Len()-3]
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReader_BadHeader(t *testing.T) {
	other, _ := cbor.Marshal(Header{Format: "something-else", Version: Version})
	future, _ := cbor.Marshal(Header{Format: Format, Version: Version + 1})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"other format", other},
		{"future version", future},
		{"not cbor", []byte{0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReader(bytes.NewReader(tt.data)); err == nil {
				t.Error("NewReader succeeded")
			}
		})
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestRecorder_WriteError(t *testing.T) {
	w := &failingWriter{}
	rec, err := NewRecorder(w, "")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	for _, e := range sampleExchanges() {
		rec.Observe(e)
	}
	if rec.Err() == nil {
		t.Error("Err() = nil after failed write")
	}
	if rec.Count() != 0 {
		t.Errorf("Count = %d, want 0", rec.Count())
	}
	if w.writes != 2 {
		t.Errorf("writes = %d, want 2 (recording stops after first error)", w.writes)
	}
}
