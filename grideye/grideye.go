// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package grideye reads an 8x8 Panasonic Grid-EYE (AMG88xx) thermal sensor
// through a microcontroller exposing it as a USB serial port.
//
// The microcontroller polls the sensor over i²c and answers each 'r' byte
// with one line of text containing the 64 cells in °C. See ParseLine for the
// format.
//
// The sensor pixel registers are 12 bits sign-magnitude with 0.25°C per LSB,
// so readings are always multiples of 0.25°C. The sensor updates at 10fps.
package grideye

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// Opts describes the serial link.
type Opts struct {
	BaudRate    int           // Default: 9600.
	ReadTimeout time.Duration // Default: 1s.
}

// DefaultOpts is used when nil is passed to Open.
var DefaultOpts = Opts{BaudRate: 9600, ReadTimeout: time.Second}

// Dev is a Grid-EYE connected over a serial link.
type Dev struct {
	closed   int32
	port     io.ReadWriteCloser
	pending  []byte // Bytes received after the last line.
	line     []byte
	buf      [512]byte
	sequence uint32

	mu    sync.Mutex
	stats Stats
}

// Open opens the serial port name and returns a Dev.
func Open(name string, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		if opts.BaudRate != 0 {
			o.BaudRate = opts.BaudRate
		}
		if opts.ReadTimeout != 0 {
			o.ReadTimeout = opts.ReadTimeout
		}
	}
	mode := &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("grideye: %s: %w", name, err)
	}
	if err := p.SetReadTimeout(o.ReadTimeout); err != nil {
		p.Close()
		return nil, err
	}
	// Drop whatever the firmware sent before we connected.
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, err
	}
	return New(p), nil
}

// New returns a Dev talking over p.
//
// A Read on p returning 0 bytes and no error is considered a timeout, which
// is what go.bug.st/serial does.
func New(p io.ReadWriteCloser) *Dev {
	return &Dev{port: p}
}

// Close closes the port. It is safe to call concurrently with ReadFrame; the
// port is closed only once.
func (d *Dev) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return io.ErrClosedPipe
	}
	return d.port.Close()
}

// ReadFrame requests one frame and reads it into f.
//
// Returns ErrTimeout or an error wrapping ErrBadLine on transient failures.
// It must not be called concurrently.
func (d *Dev) ReadFrame(f *Frame) error {
	if atomic.LoadInt32(&d.closed) != 0 {
		return io.ErrClosedPipe
	}
	if _, err := d.port.Write([]byte{request}); err != nil {
		d.fail(err)
		return err
	}
	line, err := d.readLine()
	if err != nil {
		d.fail(err)
		return err
	}
	if err := ParseLine(line, &f.Readings); err != nil {
		d.fail(err)
		return err
	}
	d.sequence++
	f.Metadata = Metadata{Sequence: d.sequence, Captured: time.Now().UTC()}
	d.mu.Lock()
	d.stats.GoodFrames++
	d.stats.LastFail = nil
	d.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the link statistics.
func (d *Dev) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Stream reads frames from s and sends them to c until ctx is done.
//
// ctx is checked once per frame, a pending read is not interrupted. Transient
// errors (ErrTimeout, ErrBadLine) are skipped; any other error stops the
// loop and is returned. s is closed when Stream returns. interval is the
// pause between two frames.
func Stream(ctx context.Context, s Sensor, c chan<- *Frame, interval time.Duration) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		f := &Frame{}
		if err := s.ReadFrame(f); err != nil {
			if errors.Is(err, ErrTimeout) || errors.Is(err, ErrBadLine) {
				continue
			}
			return err
		}
		select {
		case c <- f:
		case <-ctx.Done():
			return nil
		}
		if interval > 0 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Private details.

// readLine returns the next line without its terminator. The returned slice
// is valid until the next call.
func (d *Dev) readLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(d.pending, '\n'); i != -1 {
			d.line = append(d.line[:0], bytes.TrimRight(d.pending[:i], "\r")...)
			d.pending = append(d.pending[:0], d.pending[i+1:]...)
			return d.line, nil
		}
		if len(d.pending) > maxLine {
			d.pending = d.pending[:0]
			return nil, fmt.Errorf("%w: no line terminator in %d bytes", ErrBadLine, maxLine)
		}
		n, err := d.port.Read(d.buf[:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Resync on the next request.
			d.pending = d.pending[:0]
			return nil, ErrTimeout
		}
		d.pending = append(d.pending, d.buf[:n]...)
	}
}

func (d *Dev) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case errors.Is(err, ErrTimeout):
		d.stats.Timeouts++
	case errors.Is(err, ErrBadLine):
		d.stats.BrokenLines++
	default:
		d.stats.TransferFails++
	}
	if d.stats.LastFail == nil {
		log.Printf("grideye: %s", err)
	}
	d.stats.LastFail = err
}

var _ Sensor = &Dev{}
