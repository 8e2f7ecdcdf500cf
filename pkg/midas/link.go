// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the byte stream a Link runs over. When the read timeout expires
// without data, Read returns (0, nil) or an error whose Timeout method
// reports true.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// inputResetter is implemented by ports that can discard unread input.
type inputResetter interface {
	ResetInputBuffer() error
}

// Link frames commands and replies over a Port. It supports one outstanding
// command at a time.
type Link struct {
	port    Port
	timeout time.Duration
	pending []byte
	open    bool
}

// NewLink wraps an already opened port. timeout bounds each ReadFrame call.
func NewLink(port Port, timeout time.Duration) *Link {
	return &Link{
		port:    port,
		timeout: timeout,
		pending: make([]byte, 0, MaxReplySize),
		open:    port != nil,
	}
}

// IsOpen reports whether the link can carry commands.
func (l *Link) IsOpen() bool {
	return l != nil && l.open
}

// Close closes the underlying port. Later writes are dropped and later reads
// fail with ErrPortClosed.
func (l *Link) Close() error {
	if !l.IsOpen() {
		return nil
	}
	l.open = false
	l.pending = l.pending[:0]
	return l.port.Close()
}

// WriteFrame sends one command frame. Unread input from earlier exchanges is
// discarded first so the next reply cannot be confused with a stale one.
//
// Writing to a closed link is a silent no-op; the following ReadFrame reports
// the closed port.
func (l *Link) WriteFrame(frame []byte) error {
	if !l.IsOpen() {
		return nil
	}

	l.pending = l.pending[:0]
	if r, ok := l.port.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return &TransportError{Op: "reset", Err: err}
		}
	}

	for len(frame) > 0 {
		n, err := l.port.Write(frame)
		if err != nil {
			return &TransportError{Op: "write", Err: l.portFailed(err)}
		}
		frame = frame[n:]
	}
	return nil
}

// ReadFrame reads up to and including the reply trailer.
func (l *Link) ReadFrame() ([]byte, error) {
	if !l.IsOpen() {
		return nil, &TransportError{Op: "read", Err: ErrPortClosed}
	}

	trailer := []byte(ReplyTrailer)
	deadline := time.Now().Add(l.timeout)
	buf := make([]byte, 64)

	for {
		if idx := bytes.Index(l.pending, trailer); idx >= 0 {
			end := idx + len(trailer)
			frame := append([]byte(nil), l.pending[:end]...)
			l.pending = append(l.pending[:0], l.pending[end:]...)
			return frame, nil
		}

		if len(l.pending) > MaxReplySize {
			n := len(l.pending)
			l.pending = l.pending[:0]
			return nil, fmt.Errorf("%w: no trailer in %d bytes", ErrBadReply, n)
		}

		if time.Now().After(deadline) {
			return nil, &TransportError{Op: "read", Err: ErrTimeout}
		}

		n, err := l.port.Read(buf)
		l.pending = append(l.pending, buf[:n]...)
		if err != nil {
			return nil, &TransportError{Op: "read", Err: l.portFailed(err)}
		}
		if n == 0 {
			return nil, &TransportError{Op: "read", Err: ErrTimeout}
		}
	}
}

// portFailed classifies a port error. A port that reports itself closed is
// released and the link stays closed from then on.
func (l *Link) portFailed(err error) error {
	err = classifyPortErr(err)
	if errors.Is(err, ErrPortClosed) {
		l.open = false
		l.pending = l.pending[:0]
		l.port.Close()
	}
	return err
}

// classifyPortErr maps low level errors onto ErrTimeout and ErrPortClosed
// while keeping the original error in the chain.
func classifyPortErr(err error) error {
	var t interface{ Timeout() bool }
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrPortClosed):
		return err
	case errors.As(err, &t) && t.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
		return fmt.Errorf("%w: %w", ErrPortClosed, err)
	}
	var pe *serial.PortError
	if errors.As(err, &pe) && pe.Code() == serial.PortClosed {
		return fmt.Errorf("%w: %w", ErrPortClosed, err)
	}
	return err
}
