// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Opener opens the byte stream for a Device.
type Opener func(cfg Config) (Port, error)

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger exchanges are reported to.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Device) {
		d.log = log
	}
}

// WithObserver registers an exchange observer.
func WithObserver(o Observer) Option {
	return func(d *Device) {
		d.observers = append(d.observers, o)
	}
}

// WithOpener replaces the serial port opener, for example with a network
// bridge or a test double.
func WithOpener(open Opener) Option {
	return func(d *Device) {
		d.opener = open
	}
}

// Device is a client for one serial line carrying up to fifteen Midas
// controllers. It owns the line and the actual/demand cache of every
// parameter on every node.
//
// All methods are serialized: a read, or a write with its readback, holds the
// device for the whole command sequence.
type Device struct {
	mu        sync.Mutex
	cfg       Config
	opener    Opener
	link      *Link
	store     *store
	observers []Observer
	log       logrus.FieldLogger
	now       func() time.Time

	Status       *Status
	Pressures    *Pressures
	Temperatures *Temperatures
	Pumps        *Pumps
	Purge        *Purge
	System       *System
}

// NewDevice creates a closed Device with an empty parameter cache.
func NewDevice(cfg Config, opts ...Option) *Device {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	d := &Device{
		cfg:    cfg,
		opener: OpenSerial,
		store:  newStore(),
		log:    quiet,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.Status = &Status{d: d}
	d.Pressures = &Pressures{d: d}
	d.Temperatures = &Temperatures{d: d}
	d.Pumps = &Pumps{d: d}
	d.Purge = &Purge{d: d}
	d.System = &System{d: d}
	return d
}

// Config returns the connection settings.
func (d *Device) Config() Config {
	return d.cfg
}

// Open opens the transport.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.link.IsOpen() {
		return errors.New("device already open")
	}

	port, err := d.opener(d.cfg)
	if err != nil {
		return err
	}
	d.link = NewLink(port, d.cfg.Timeout)
	d.log.WithField("port", d.cfg.Port).Info("connection opened")
	return nil
}

// Close closes the transport. Cached parameter values are kept.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.link.IsOpen() {
		return nil
	}
	d.log.WithField("port", d.cfg.Port).Info("connection closed")
	return d.link.Close()
}

// IsOpen reports whether the transport is open.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.link.IsOpen()
}

// AddObserver registers an exchange observer after construction.
func (d *Device) AddObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// State returns the cached actual and demand values of p on node.
func (d *Device) State(node NodeID, p *Parameter) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.get(node, p.Name)
}

// States returns every cached parameter state of node keyed by name.
func (d *Device) States(node NodeID) map[string]State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.node(node)
}

// Read queries p on node and stores the reply as its actual value.
func (d *Device) Read(node NodeID, p *Parameter) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(node, p)
}

// Write sets p on node to value. It returns true when the device confirmed
// the write; the demand value is then updated and, for readable parameters,
// the actual value is refreshed by an immediate read. An unconfirmed write
// returns false with a nil error and leaves the cache untouched.
//
// If the write is confirmed but the readback fails, Write returns true
// together with the readback error.
func (d *Device) Write(node NodeID, p *Parameter, value string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(node, p, value)
}

// ReadByName is Read for a catalog parameter looked up by name.
func (d *Device) ReadByName(node NodeID, name string) (string, error) {
	p, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return d.Read(node, p)
}

// WriteByName is Write for a catalog parameter looked up by name.
func (d *Device) WriteByName(node NodeID, name, value string) (bool, error) {
	p, ok := Lookup(name)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return d.Write(node, p, value)
}

// Command sends an arbitrary command and returns the classified reply
// without touching the parameter cache.
func (d *Device) Command(node NodeID, code string, op Op, value string) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exchange(node, code, op, value)
}

func (d *Device) read(node NodeID, p *Parameter) (string, error) {
	if !p.Access.CanGet() {
		return "", &CommandError{Node: node, Code: p.Code, Op: OpGet,
			Err: fmt.Errorf("%w: %s is write-only", ErrAccess, p.Name)}
	}

	res, err := d.exchange(node, p.Code, OpGet, "")
	if err != nil {
		return "", err
	}

	d.store.setActual(node, p.Name, res.Payload, d.now())
	return res.Payload, nil
}

func (d *Device) write(node NodeID, p *Parameter, value string) (bool, error) {
	if !p.Access.CanSet() {
		return false, &CommandError{Node: node, Code: p.Code, Op: OpSet,
			Err: fmt.Errorf("%w: %s is read-only", ErrAccess, p.Name)}
	}
	if err := p.Domain.Validate(value); err != nil {
		return false, &CommandError{Node: node, Code: p.Code, Op: OpSet,
			Err: fmt.Errorf("%s: %w", p.Name, err)}
	}

	res, err := d.exchange(node, p.Code, OpSet, value)
	if err != nil {
		return false, err
	}
	if res.Outcome != OutcomeConfirmed {
		return false, nil
	}

	d.store.setDemand(node, p.Name, value, d.now())

	if p.Access.CanGet() {
		if _, err := d.read(node, p); err != nil {
			return true, fmt.Errorf("readback: %w", err)
		}
	}
	return true, nil
}

// exchange performs one command/reply round trip. Validation failures return
// before any byte is written.
func (d *Device) exchange(node NodeID, code string, op Op, value string) (Result, error) {
	frame, err := EncodeCommand(code, op, value, node)
	if err != nil {
		return Result{}, &CommandError{Node: node, Code: code, Op: op, Err: err}
	}

	ex := Exchange{
		Time:    d.now(),
		Node:    node,
		Code:    code,
		Op:      op,
		Value:   value,
		Request: frame,
	}

	wasOpen := d.link.IsOpen()
	start := time.Now()
	res, reply, err := d.transact(frame, op)
	ex.Elapsed = time.Since(start)
	if wasOpen && !d.link.IsOpen() {
		d.log.WithField("port", d.cfg.Port).Error("connection lost")
	}
	ex.Reply = reply
	ex.Outcome = res.Outcome
	ex.Payload = res.Payload

	if err != nil {
		err = &CommandError{Node: node, Code: code, Op: op, Err: err}
		ex.Err = err
	}
	d.notify(ex)

	return res, err
}

func (d *Device) transact(frame []byte, op Op) (Result, []byte, error) {
	if err := d.link.WriteFrame(frame); err != nil {
		return Result{Outcome: OutcomeTransportFailure}, nil, err
	}

	raw, err := d.link.ReadFrame()
	if err != nil {
		if errors.Is(err, ErrTransport) {
			return Result{Outcome: OutcomeTransportFailure}, nil, err
		}
		return Result{Outcome: OutcomeBadReply}, nil, err
	}

	reply, err := DecodeReply(raw)
	if err != nil {
		return Result{Outcome: OutcomeBadReply}, raw, err
	}

	res := Classify(reply, op)
	return res, reply.Raw, res.Err()
}

func (d *Device) notify(ex Exchange) {
	entry := d.log.WithFields(logrus.Fields{
		"node":    ex.Node.String(),
		"code":    ex.Code,
		"op":      ex.Op.String(),
		"outcome": ex.Outcome.String(),
		"elapsed": ex.Elapsed,
	})
	if ex.Err != nil {
		entry.WithError(ex.Err).Warn("command failed")
	} else {
		entry.WithField("payload", ex.Payload).Debug("command completed")
	}

	for _, o := range d.observers {
		o.Observe(ex)
	}
}
