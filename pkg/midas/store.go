// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import "time"

// State holds the cached values of one parameter on one node.
//
// Actual is the last value read back from the device. Demand is the last
// value the device confirmed it accepted. Neither is ever set from an
// unconfirmed write.
type State struct {
	Actual   string
	Demand   string
	ActualAt time.Time
	DemandAt time.Time
}

// HasActual reports whether the parameter has been read at least once.
func (s State) HasActual() bool {
	return !s.ActualAt.IsZero()
}

// HasDemand reports whether a write to the parameter has been confirmed.
func (s State) HasDemand() bool {
	return !s.DemandAt.IsZero()
}

type stateKey struct {
	node NodeID
	name string
}

// store is the keyed actual/demand cache owned by a Device.
type store struct {
	states map[stateKey]State
}

func newStore() *store {
	return &store{states: make(map[stateKey]State)}
}

func (s *store) get(node NodeID, name string) State {
	return s.states[stateKey{node, name}]
}

func (s *store) setActual(node NodeID, name, value string, at time.Time) {
	k := stateKey{node, name}
	st := s.states[k]
	st.Actual = value
	st.ActualAt = at
	s.states[k] = st
}

func (s *store) setDemand(node NodeID, name, value string, at time.Time) {
	k := stateKey{node, name}
	st := s.states[k]
	st.Demand = value
	st.DemandAt = at
	s.states[k] = st
}

// node returns a copy of every cached state for one node keyed by parameter
// name.
func (s *store) node(node NodeID) map[string]State {
	out := make(map[string]State)
	for k, st := range s.states {
		if k.node == node {
			out[k.name] = st
		}
	}
	return out
}
