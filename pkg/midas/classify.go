// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

// Outcome classifies one command exchange.
type Outcome int

const (
	OutcomeValue Outcome = iota
	OutcomeConfirmed
	OutcomeNotConfirmed
	OutcomeMalformedCommand
	OutcomeMissingData
	OutcomeBadReply
	OutcomeTransportFailure
)

var outcomeNames = [...]string{
	OutcomeValue:            "value",
	OutcomeConfirmed:        "confirmed",
	OutcomeNotConfirmed:     "not_confirmed",
	OutcomeMalformedCommand: "malformed_command",
	OutcomeMissingData:      "missing_data",
	OutcomeBadReply:         "bad_reply",
	OutcomeTransportFailure: "transport_failure",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Failed reports whether the exchange produced no usable result.
// An unconfirmed set is a normal result, not a failure.
func (o Outcome) Failed() bool {
	return o >= OutcomeMalformedCommand
}

// Result is the classified reply to a command.
type Result struct {
	Outcome Outcome
	Payload string
}

// Err returns the sentinel error matching a failed outcome, or nil.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeMalformedCommand:
		return ErrMalformedCommand
	case OutcomeMissingData:
		return ErrMissingData
	case OutcomeBadReply:
		return ErrBadReply
	case OutcomeTransportFailure:
		return ErrTransport
	}
	return nil
}

// Classify decides the outcome of a decoded reply to an operation of kind op.
func Classify(r Reply, op Op) Result {
	switch r.Check {
	case CheckBadCmd:
		return Result{Outcome: OutcomeMalformedCommand}
	case CheckNoData:
		return Result{Outcome: OutcomeMissingData}
	}

	if op == OpSet {
		if r.Payload == ConfirmToken && echoPrefix(r.Prefix) {
			return Result{Outcome: OutcomeConfirmed}
		}
		return Result{Outcome: OutcomeNotConfirmed, Payload: r.Payload}
	}

	return Result{Outcome: OutcomeValue, Payload: r.Payload}
}

// echoPrefix accepts an empty prefix or a single node letter echo.
func echoPrefix(p string) bool {
	if p == "" {
		return true
	}
	if len(p) != 1 {
		return false
	}
	_, ok := NodeFromLetter(p[0])
	return ok
}

// ClassifyFrame decodes and classifies a raw frame in one step.
func ClassifyFrame(frame []byte, op Op) Result {
	r, err := DecodeReply(frame)
	if err != nil {
		return Result{Outcome: OutcomeBadReply}
	}
	return Classify(r, op)
}
