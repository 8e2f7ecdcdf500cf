// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"io"
	"testing"
)

// ============================================================
// Scripted Port
// ============================================================

// scriptedPort answers each written frame with the next scripted reply.
// A nil reply makes the following read time out. chunk limits how many
// bytes one Read returns.
type scriptedPort struct {
	replies [][]byte
	writes  [][]byte
	pending []byte
	chunk   int
	closed  bool
	readErr error
}

func newScriptedPort(replies ...string) *scriptedPort {
	p := &scriptedPort{}
	for _, r := range replies {
		if r == "" {
			p.replies = append(p.replies, nil)
			continue
		}
		p.replies = append(p.replies, []byte(r))
	}
	return p
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	if len(p.replies) > 0 {
		p.pending = append(p.pending, p.replies[0]...)
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.pending) == 0 {
		return 0, nil
	}
	limit := len(b)
	if p.chunk > 0 && p.chunk < limit {
		limit = p.chunk
	}
	n := copy(b[:limit], p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *scriptedPort) Close() error {
	p.closed = true
	return nil
}

// written returns the frames written so far as strings.
func (p *scriptedPort) written() []string {
	out := make([]string, len(p.writes))
	for i, w := range p.writes {
		out[i] = string(w)
	}
	return out
}

// newTestDevice returns an opened Device talking to a scripted port.
func newTestDevice(t *testing.T, replies ...string) (*Device, *scriptedPort) {
	t.Helper()
	port := newScriptedPort(replies...)
	d := NewDevice(DefaultConfig("test"), WithOpener(func(Config) (Port, error) {
		return port, nil
	}))
	if err := d.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return d, port
}
