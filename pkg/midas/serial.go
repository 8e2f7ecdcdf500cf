// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Connection defaults
const (
	DefaultBaudRate = 115200
	DefaultDataBits = 8
	DefaultTimeout  = time.Second
)

// Parity selects the serial parity mode.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

var parityNames = map[Parity]string{
	ParityNone:  "none",
	ParityOdd:   "odd",
	ParityEven:  "even",
	ParityMark:  "mark",
	ParitySpace: "space",
}

func (p Parity) String() string {
	if s, ok := parityNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParseParity accepts none, odd, even, mark or space.
func ParseParity(s string) (Parity, error) {
	for p, name := range parityNames {
		if name == s {
			return p, nil
		}
	}
	return ParityNone, fmt.Errorf("unknown parity %q", s)
}

// StopBits selects the number of serial stop bits.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

var stopBitNames = map[StopBits]string{
	StopBitsOne:          "1",
	StopBitsOnePointFive: "1.5",
	StopBitsTwo:          "2",
}

func (s StopBits) String() string {
	if name, ok := stopBitNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStopBits accepts 1, 1.5 or 2.
func ParseStopBits(s string) (StopBits, error) {
	for b, name := range stopBitNames {
		if name == s {
			return b, nil
		}
	}
	return StopBitsOne, fmt.Errorf("unknown stop bits %q", s)
}

// Config holds the serial connection settings. It is consumed when the port
// is opened and never changed afterwards.
type Config struct {
	Port     string
	BaudRate int
	StopBits StopBits
	Parity   Parity
	DataBits int
	Timeout  time.Duration
}

// DefaultConfig returns the controller's factory serial settings for port.
func DefaultConfig(port string) Config {
	return Config{
		Port:     port,
		BaudRate: DefaultBaudRate,
		StopBits: StopBitsOne,
		Parity:   ParityNone,
		DataBits: DefaultDataBits,
		Timeout:  DefaultTimeout,
	}
}

// Validate checks the settings before a port is opened.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("serial port not specified")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("invalid data bits %d (valid 5-8)", c.DataBits)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %v", c.Timeout)
	}
	return nil
}

// Mode converts the settings to a go.bug.st/serial mode.
func (c Config) Mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	switch c.Parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	}

	switch c.StopBits {
	case StopBitsOnePointFive:
		mode.StopBits = serial.OnePointFiveStopBits
	case StopBitsTwo:
		mode.StopBits = serial.TwoStopBits
	}

	return mode
}

func (c Config) String() string {
	return fmt.Sprintf("%s @ %d baud %d%s%s", c.Port, c.BaudRate, c.DataBits,
		strings.ToUpper(c.Parity.String()[:1]), c.StopBits)
}

// SerialPort wraps a go.bug.st/serial port and reports a closed port as
// ErrPortClosed.
type SerialPort struct {
	serial.Port
}

func (s *SerialPort) Read(p []byte) (int, error) {
	n, err := s.Port.Read(p)
	return n, mapSerialErr(err)
}

func (s *SerialPort) Write(p []byte) (int, error) {
	n, err := s.Port.Write(p)
	return n, mapSerialErr(err)
}

func mapSerialErr(err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) && pe.Code() == serial.PortClosed {
		return fmt.Errorf("%w: %w", ErrPortClosed, err)
	}
	return err
}

// OpenSerial opens the serial port described by cfg with its read timeout
// applied.
func OpenSerial(cfg Config) (Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.Port, cfg.Mode())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}

	return &SerialPort{Port: port}, nil
}
