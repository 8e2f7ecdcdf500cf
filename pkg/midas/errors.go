// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"errors"
	"fmt"
)

// Domain validation failures. These are detected before any I/O.
var (
	ErrInvalidValue = errors.New("value outside parameter domain")
	ErrInvalidNode  = errors.New("invalid node address")
	ErrAccess       = errors.New("operation not supported by parameter")
	ErrUnknownParam = errors.New("unknown parameter")
)

// Device reported failures
var (
	ErrMalformedCommand = errors.New("command not understood")
	ErrMissingData      = errors.New("command data missing")
	ErrBadReply         = errors.New("malformed reply frame")
)

// Transport failures
var (
	ErrTransport  = errors.New("transport failure")
	ErrTimeout    = errors.New("read timeout")
	ErrPortClosed = errors.New("port closed")
)

// CommandError is returned when the device answers a command with an error
// token, or when a command is rejected before it is sent.
type CommandError struct {
	Node NodeID
	Code string
	Op   Op
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s on node %s: %v", e.Code, e.Op, e.Node, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// TransportError wraps the low level cause of a failed exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IsDomainError reports whether err was raised by local validation, meaning no
// bytes reached the device.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidValue) || errors.Is(err, ErrInvalidNode) ||
		errors.Is(err, ErrAccess) || errors.Is(err, ErrUnknownParam)
}
