// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package midas implements the ASCII command/response protocol spoken by Midas
// ink delivery controllers.
//
// A request is a three character command code followed by either a query
// marker or a comma separated value, terminated by a carriage return. Up to
// fifteen controllers may share one serial line; each is selected by a node
// letter prepended to the command. Replies end with the ",C" trailer.
package midas

import "fmt"

// Request framing
const (
	Terminator  = '\r'
	QueryMarker = '?'
	ValueSep    = ','
	NodeBase    = '@'
	CodeLength  = 3
)

// Reply framing
const (
	ReplyTrailer = ",C"
	CheckBadCmd  = '?'
	CheckNoData  = '>'
	ConfirmToken = "A"
	MaxReplySize = 256
)

// Node addressing limits
const (
	NodeNone NodeID = 0
	NodeMax  NodeID = 15
)

// NodeID selects a controller on a shared line. Zero means the line carries a
// single controller and no node letter is sent.
type NodeID uint8

// Validate reports whether n is a usable node address.
func (n NodeID) Validate() error {
	if n > NodeMax {
		return fmt.Errorf("%w: %d (valid 0-%d)", ErrInvalidNode, n, NodeMax)
	}
	return nil
}

// Letter returns the node prefix letter, or 0 for NodeNone.
func (n NodeID) Letter() byte {
	if n == NodeNone {
		return 0
	}
	return byte(NodeBase + n)
}

func (n NodeID) String() string {
	if n == NodeNone {
		return "-"
	}
	return fmt.Sprintf("%c(%d)", n.Letter(), uint8(n))
}

// NodeFromLetter maps a prefix letter back to its node address.
func NodeFromLetter(b byte) (NodeID, bool) {
	if b <= NodeBase || b > NodeBase+byte(NodeMax) {
		return 0, false
	}
	return NodeID(b - NodeBase), true
}
