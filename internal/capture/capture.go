// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records controller exchanges to a CBOR stream and reads
// them back for replay.
//
// A capture is a Header item followed by one Record item per exchange, each
// encoded as an integer keyed CBOR map.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

const (
	Format  = "midas-capture"
	Version = 1
)

// Header opens every capture.
type Header struct {
	Format  string `cbor:"1,keyasint"`
	Version uint   `cbor:"2,keyasint"`
	Port    string `cbor:"3,keyasint,omitempty"`
	Started int64  `cbor:"4,keyasint"` // unix nanoseconds
}

// Record is one captured exchange.
type Record struct {
	Time    int64  `cbor:"1,keyasint"` // unix nanoseconds
	Node    uint8  `cbor:"2,keyasint"`
	Code    string `cbor:"3,keyasint"`
	Op      uint8  `cbor:"4,keyasint"`
	Value   string `cbor:"5,keyasint,omitempty"`
	Request []byte `cbor:"6,keyasint"`
	Reply   []byte `cbor:"7,keyasint,omitempty"`
	Outcome uint8  `cbor:"8,keyasint"`
	Payload string `cbor:"9,keyasint,omitempty"`
	Elapsed int64  `cbor:"10,keyasint"` // nanoseconds
	Error   string `cbor:"11,keyasint,omitempty"`
}

// FromExchange converts an exchange to its capture form.
func FromExchange(e midas.Exchange) Record {
	rec := Record{
		Time:    e.Time.UnixNano(),
		Node:    uint8(e.Node),
		Code:    e.Code,
		Op:      uint8(e.Op),
		Value:   e.Value,
		Request: e.Request,
		Reply:   e.Reply,
		Outcome: uint8(e.Outcome),
		Payload: e.Payload,
		Elapsed: int64(e.Elapsed),
	}
	if e.Err != nil {
		rec.Error = e.Err.Error()
	}
	return rec
}

// Exchange converts the record back. The error, if any, only keeps its text.
func (r Record) Exchange() midas.Exchange {
	e := midas.Exchange{
		Time:    time.Unix(0, r.Time),
		Node:    midas.NodeID(r.Node),
		Code:    r.Code,
		Op:      midas.Op(r.Op),
		Value:   r.Value,
		Request: r.Request,
		Reply:   r.Reply,
		Outcome: midas.Outcome(r.Outcome),
		Payload: r.Payload,
		Elapsed: time.Duration(r.Elapsed),
	}
	if r.Error != "" {
		e.Err = errors.New(r.Error)
	}
	return e
}

// ============================================================
// Recorder
// ============================================================

// Recorder writes exchanges to a capture. It implements midas.Observer and
// is safe for concurrent use. The first write error stops recording and is
// reported by Err and Close.
type Recorder struct {
	mu     sync.Mutex
	enc    *cbor.Encoder
	closer io.Closer
	count  int
	err    error
}

// NewRecorder writes the capture header to w.
func NewRecorder(w io.Writer, port string) (*Recorder, error) {
	enc := cbor.NewEncoder(w)
	header := Header{
		Format:  Format,
		Version: Version,
		Port:    port,
		Started: time.Now().UnixNano(),
	}
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}

	r := &Recorder{enc: enc}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r, nil
}

// Create starts a capture file at path, truncating any existing file.
func Create(path, port string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture: %w", err)
	}
	r, err := NewRecorder(f, port)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Observe appends one exchange.
func (r *Recorder) Observe(e midas.Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.enc.Encode(FromExchange(e)); err != nil {
		r.err = fmt.Errorf("failed to write capture record: %w", err)
		return
	}
	r.count++
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the underlying writer when it is a Closer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	return r.err
}

// ============================================================
// Reader
// ============================================================

// Reader iterates over the records of a capture.
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader reads and checks the capture header.
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(r)

	var header Header
	if err := dec.Decode(&header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty capture")
		}
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if header.Format != Format {
		return nil, fmt.Errorf("not a capture file (format %q)", header.Format)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("unsupported capture version %d", header.Version)
	}

	return &Reader{dec: dec, header: header}, nil
}

// Header returns the capture header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record, or io.EOF after the last one. A capture cut
// short while recording returns io.ErrUnexpectedEOF.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("failed to decode capture record: %w", err)
	}
	return rec, nil
}
