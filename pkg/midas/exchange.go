// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import "time"

// Exchange records one command sent to the device and what came back.
type Exchange struct {
	Time    time.Time
	Node    NodeID
	Code    string
	Op      Op
	Value   string
	Request []byte
	Reply   []byte
	Outcome Outcome
	Payload string
	Elapsed time.Duration
	Err     error
}

// Observer receives every completed exchange. Observers are called with the
// device lock held and must not call back into the Device.
type Observer interface {
	Observe(Exchange)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Exchange)

func (f ObserverFunc) Observe(e Exchange) {
	f(e)
}
