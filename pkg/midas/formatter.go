// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatExchange formats an exchange as a single human-readable line
func FormatExchange(e Exchange) string {
	timestamp := e.Time.Format("15:04:05.000")

	result := fmt.Sprintf("[%s] node=%s %s %s", timestamp, e.Node, e.Code, strings.ToUpper(e.Op.String()))
	if e.Op == OpSet {
		result += " " + e.Value
	}

	result += fmt.Sprintf(" -> %s", e.Outcome)
	if e.Outcome == OutcomeValue {
		result += fmt.Sprintf(" %q", e.Payload)
	}
	if e.Err != nil && e.Outcome.Failed() {
		result += fmt.Sprintf(" (%v)", e.Err)
	}

	return result + fmt.Sprintf(" [%s]\n", e.Elapsed.Round(100*time.Microsecond))
}

// FormatFrame renders raw frame bytes with control characters escaped
func FormatFrame(frame []byte) string {
	quoted := strconv.Quote(string(frame))
	return quoted[1 : len(quoted)-1]
}

// FormatValue renders a raw reply for display using the parameter's domain:
// bitmask flags are named, enum choices are named and the last error code is
// described.
func FormatValue(p *Parameter, raw string) string {
	if p == ParamLastErrorCode {
		return DescribeErrorCode(raw)
	}

	switch p.Domain.Kind {
	case KindBitmask:
		names, err := p.Domain.FlagNames(raw)
		if err != nil {
			return raw
		}
		if len(names) == 0 {
			return raw + " [none]"
		}
		return fmt.Sprintf("%s [%s]", raw, strings.Join(names, ", "))

	case KindEnum:
		if name, ok := p.Domain.ChoiceName(raw); ok {
			return fmt.Sprintf("%s (%s)", raw, name)
		}
	}

	if p.Unit != "" && raw != "" {
		return raw + " " + p.Unit
	}
	return raw
}
