// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"fmt"
	"strconv"
	"strings"
)

// DomainKind is the shape of the values a parameter accepts.
type DomainKind int

const (
	KindText DomainKind = iota
	KindNumber
	KindRange
	KindEnum
	KindBitmask
)

// Choice is one named value of an enumerated parameter.
type Choice struct {
	Value int
	Name  string
}

// Domain describes the values a parameter accepts on write and how its
// replies may be interpreted. Only writes are validated; replies are returned
// as the device sent them.
type Domain struct {
	Kind    DomainKind
	Min     int
	Max     int
	Choices []Choice
	Width   int      // bitmask width in bits
	Flags   []string // bitmask flag names indexed by bit, "" for spare bits
}

// Text is an opaque string domain.
func Text() Domain {
	return Domain{Kind: KindText}
}

// Number accepts any decimal integer.
func Number() Domain {
	return Domain{Kind: KindNumber}
}

// Range accepts decimal integers in [min, max].
func Range(min, max int) Domain {
	return Domain{Kind: KindRange, Min: min, Max: max}
}

// Enum accepts exactly the listed choices.
func Enum(choices ...Choice) Domain {
	return Domain{Kind: KindEnum, Choices: choices}
}

// Bitmask accepts integers that fit in width bits. flags names each bit.
func Bitmask(width int, flags []string) Domain {
	return Domain{Kind: KindBitmask, Width: width, Flags: flags}
}

// Validate checks a value before it is sent to the device.
func (d Domain) Validate(value string) error {
	if d.Kind == KindText {
		if value == "" {
			return fmt.Errorf("%w: empty value", ErrInvalidValue)
		}
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, value)
	}
	// The value is sent and cached as given, so it must be in plain form
	if strconv.Itoa(n) != value {
		return fmt.Errorf("%w: %q is not a plain integer (use %d)", ErrInvalidValue, value, n)
	}

	switch d.Kind {
	case KindRange:
		if n < d.Min || n > d.Max {
			return fmt.Errorf("%w: %d (valid %d-%d)", ErrInvalidValue, n, d.Min, d.Max)
		}
	case KindEnum:
		if _, ok := d.choice(n); !ok {
			return fmt.Errorf("%w: %d (valid %s)", ErrInvalidValue, n, d.choiceList())
		}
	case KindBitmask:
		if n < 0 || n > d.maxMask() {
			return fmt.Errorf("%w: %d (valid 0-%d)", ErrInvalidValue, n, d.maxMask())
		}
	}
	return nil
}

func (d Domain) maxMask() int {
	return 1<<d.Width - 1
}

func (d Domain) choice(n int) (Choice, bool) {
	for _, c := range d.Choices {
		if c.Value == n {
			return c, true
		}
	}
	return Choice{}, false
}

func (d Domain) choiceList() string {
	parts := make([]string, len(d.Choices))
	for i, c := range d.Choices {
		parts[i] = strconv.Itoa(c.Value)
	}
	return strings.Join(parts, ",")
}

// ChoiceName names an enumerated value. ok is false for other domains or
// values outside the enumeration.
func (d Domain) ChoiceName(raw string) (string, bool) {
	if d.Kind != KindEnum {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	c, ok := d.choice(n)
	return c.Name, ok
}

// FlagNames lists the names of the bits set in a bitmask value. Set bits
// without a name are reported as "bit N".
func (d Domain) FlagNames(raw string) ([]string, error) {
	if d.Kind != KindBitmask {
		return nil, fmt.Errorf("%w: not a bitmask", ErrAccess)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a bitmask", ErrBadReply, raw)
	}

	names := []string{}
	for bit := 0; bit < 64; bit++ {
		if n&(1<<uint(bit)) == 0 {
			continue
		}
		if bit < len(d.Flags) && d.Flags[bit] != "" {
			names = append(names, d.Flags[bit])
		} else {
			names = append(names, fmt.Sprintf("bit %d", bit))
		}
	}
	return names, nil
}

func (d Domain) String() string {
	switch d.Kind {
	case KindNumber:
		return "integer"
	case KindRange:
		return fmt.Sprintf("%d-%d", d.Min, d.Max)
	case KindEnum:
		parts := make([]string, len(d.Choices))
		for i, c := range d.Choices {
			parts[i] = fmt.Sprintf("%d=%s", c.Value, c.Name)
		}
		return strings.Join(parts, " ")
	case KindBitmask:
		return fmt.Sprintf("bitmask 0-%d", d.maxMask())
	default:
		return "text"
	}
}
