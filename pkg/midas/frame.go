// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"bytes"
	"fmt"
	"strings"
)

// Op is the operation a command performs.
type Op int

const (
	OpGet Op = iota
	OpSet
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	default:
		return "unknown"
	}
}

// EncodeCommand builds the wire form of a command:
//
//	[<NodeLetter>]<CODE>?\r
//	[<NodeLetter>]<CODE>,<value>\r
//
// The value is ignored for queries.
func EncodeCommand(code string, op Op, value string, node NodeID) ([]byte, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}
	if !validCode(code) {
		return nil, fmt.Errorf("%w: command code %q", ErrInvalidValue, code)
	}

	frame := make([]byte, 0, 1+len(code)+1+len(value)+1)
	if node != NodeNone {
		frame = append(frame, node.Letter())
	}
	frame = append(frame, code...)

	switch op {
	case OpGet:
		frame = append(frame, QueryMarker)
	case OpSet:
		if value == "" || strings.ContainsAny(value, ",?\r\n") {
			return nil, fmt.Errorf("%w: cannot encode %q", ErrInvalidValue, value)
		}
		frame = append(frame, ValueSep)
		frame = append(frame, value...)
	default:
		return nil, fmt.Errorf("unknown operation %d", op)
	}

	return append(frame, Terminator), nil
}

func validCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Reply is a reply frame split along the protocol grammar:
//
//	[prefix] [',' payload] ',C'
type Reply struct {
	Raw     []byte
	Prefix  string
	Payload string
	Check   byte // last byte before the trailer, 0 if the body is empty
}

// DecodeReply splits a raw reply frame. Leading line noise (CR, LF, spaces)
// left over from a previous exchange is discarded.
func DecodeReply(frame []byte) (Reply, error) {
	trimmed := bytes.TrimLeft(frame, "\r\n ")
	if !bytes.HasSuffix(trimmed, []byte(ReplyTrailer)) {
		return Reply{Raw: frame}, fmt.Errorf("%w: missing %q trailer in %q", ErrBadReply, ReplyTrailer, frame)
	}

	body := string(trimmed[:len(trimmed)-len(ReplyTrailer)])
	r := Reply{Raw: trimmed}
	if len(body) > 0 {
		r.Check = body[len(body)-1]
	}

	if idx := strings.IndexByte(body, ValueSep); idx >= 0 {
		r.Prefix = body[:idx]
		r.Payload = body[idx+1:]
	} else {
		r.Payload = body
	}

	return r, nil
}
