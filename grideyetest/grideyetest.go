// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package grideyetest implements fakes for a Grid-EYE, either at the frame
// level (Fake) or at the serial port level (Port).
package grideyetest

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/maruel/go-grideye/grideye"
)

// Fake is a fake for grideye.Sensor that generates warm blobs slowly
// drifting over a room temperature background.
type Fake struct {
	// Interval is the time ReadFrame sleeps to simulate the sensor rate.
	Interval time.Duration

	mu       sync.Mutex
	noise    *noise
	sequence uint32
	stats    grideye.Stats
	closed   bool
}

// New returns a fake running at 10fps, seeded with seed.
func New(seed int64) *Fake {
	return &Fake{Interval: 100 * time.Millisecond, noise: makeNoise(seed)}
}

func (f *Fake) ReadFrame(img *grideye.Frame) error {
	if f.Interval > 0 {
		time.Sleep(f.Interval)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.noise.update()
	f.noise.render(&img.Readings)
	f.sequence++
	img.Metadata = grideye.Metadata{Sequence: f.sequence, Captured: time.Now().UTC()}
	f.stats.GoodFrames++
	return nil
}

func (f *Fake) Stats() grideye.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.closed = true
	return nil
}

// Port is a fake serial port speaking the firmware protocol.
//
// Each 'r' written queues one line. Read returns 0 bytes when nothing is
// queued, like a serial port read timing out.
type Port struct {
	// Lines are sent in order, one per request. Once exhausted, lines are
	// generated from the noise model.
	Lines [][]byte
	// Chunk limits the number of bytes returned by each Read. 0 means
	// unlimited.
	Chunk int
	// ReadErr, when set, is returned by Read once the scripted Lines are
	// exhausted.
	ReadErr error

	mu       sync.Mutex
	noise    *noise
	out      bytes.Buffer
	requests int
	closes   int
}

// NewPort returns a Port generating frames seeded with seed.
func NewPort(seed int64) *Port {
	return &Port{noise: makeNoise(seed)}
}

func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closes != 0 {
		return 0, errClosed
	}
	for _, c := range b {
		if c != 'r' {
			continue
		}
		p.requests++
		if len(p.Lines) != 0 {
			p.out.Write(p.Lines[0])
			p.Lines = p.Lines[1:]
			continue
		}
		if p.ReadErr != nil {
			continue
		}
		var r [grideye.Side * grideye.Side]float64
		p.noise.update()
		p.noise.render(&r)
		p.out.Write(grideye.FormatLine(&r))
	}
	return len(b), nil
}

func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closes != 0 {
		return 0, errClosed
	}
	if p.out.Len() == 0 && p.ReadErr != nil {
		return 0, p.ReadErr
	}
	if p.Chunk > 0 && len(b) > p.Chunk {
		b = b[:p.Chunk]
	}
	n, _ := p.out.Read(b)
	return n, nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

// Requests returns the number of request bytes received.
func (p *Port) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

// Closes returns the number of times Close was called.
func (p *Port) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

//

var errClosed = errors.New("grideyetest: port closed")

type blob struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
type noise struct {
	rand  *rand.Rand
	blobs []blob
}

func makeNoise(seed int64) *noise {
	n := &noise{rand: rand.New(rand.NewSource(seed))}
	n.blobs = make([]blob, 3)
	for i := range n.blobs {
		n.blobs[i].intensity = 4 + n.rand.Float64()*10
		n.blobs[i].x = n.rand.Float64() * grideye.Side
		n.blobs[i].y = n.rand.Float64() * grideye.Side
	}
	return n
}

func (n *noise) update() {
	for i := range n.blobs {
		n.blobs[i].intensity += n.rand.NormFloat64() * 0.1
		n.blobs[i].x += n.rand.NormFloat64() * 0.1
		n.blobs[i].y += n.rand.NormFloat64() * 0.1
	}
}

// render fills r with readings quantized to 0.25°C like the sensor does,
// within [15, 45].
func (n *noise) render(r *[grideye.Side * grideye.Side]float64) {
	for y := 0; y < grideye.Side; y++ {
		fy := float64(y)
		for x := 0; x < grideye.Side; x++ {
			fx := float64(x)
			value := 22.
			for _, b := range n.blobs {
				distance := (b.x-fx)*(b.x-fx) + (b.y-fy)*(b.y-fy)
				value += b.intensity / (1 + distance)
			}
			value += n.rand.NormFloat64() * 0.25
			value = math.Round(value*4) / 4
			if value > 45 {
				value = 45
			}
			if value < 15 {
				value = 15
			}
			r[y*grideye.Side+x] = value
		}
	}
}

var _ grideye.Sensor = &Fake{}
