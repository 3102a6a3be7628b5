// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package grideye_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/maruel/go-grideye/grideye"
	"github.com/maruel/go-grideye/grideyetest"
)

func TestDev_ReadFrame(t *testing.T) {
	p := grideyetest.NewPort(1)
	// Split lines over many reads.
	p.Chunk = 7
	d := grideye.New(p)
	defer d.Close()
	for i := 1; i <= 3; i++ {
		f := grideye.Frame{}
		if err := d.ReadFrame(&f); err != nil {
			t.Fatal(err)
		}
		if f.Metadata.Sequence != uint32(i) {
			t.Fatal(f.Metadata.Sequence)
		}
		for j, v := range f.Readings {
			if v < 15 || v > 45 {
				t.Fatalf("%d: %g", j, v)
			}
		}
	}
	if p.Requests() != 3 {
		t.Fatal(p.Requests())
	}
	if s := d.Stats(); s.GoodFrames != 3 || s.LastFail != nil {
		t.Fatalf("%#v", s)
	}
}

func TestDev_ReadFrame_transient(t *testing.T) {
	valid := strings.Repeat("024.25", grideye.Side*grideye.Side)
	p := grideyetest.NewPort(2)
	p.Lines = [][]byte{
		[]byte("garbage\r\n"),
		[]byte(valid + "\n"),
	}
	d := grideye.New(p)
	defer d.Close()
	f := grideye.Frame{}
	if err := d.ReadFrame(&f); !errors.Is(err, grideye.ErrBadLine) {
		t.Fatal(err)
	}
	if err := d.ReadFrame(&f); err != nil {
		t.Fatal(err)
	}
	if f.Readings[0] != 24.25 || f.Readings[63] != 24.25 {
		t.Fatal(f.Readings)
	}
	// Nothing queued: the read times out.
	p.ReadErr = nil
	p.Lines = [][]byte{{}}
	if err := d.ReadFrame(&f); !errors.Is(err, grideye.ErrTimeout) {
		t.Fatal(err)
	}
	s := d.Stats()
	if s.GoodFrames != 1 || s.BrokenLines != 1 || s.Timeouts != 1 || s.TransferFails != 0 {
		t.Fatalf("%#v", s)
	}
	if !errors.Is(s.LastFail, grideye.ErrTimeout) {
		t.Fatal(s.LastFail)
	}
}

func TestDev_Close(t *testing.T) {
	p := grideyetest.NewPort(3)
	d := grideye.New(p)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != io.ErrClosedPipe {
		t.Fatal(err)
	}
	if err := d.ReadFrame(&grideye.Frame{}); err != io.ErrClosedPipe {
		t.Fatal(err)
	}
	if p.Closes() != 1 {
		t.Fatal(p.Closes())
	}
}

func TestStream_cancel(t *testing.T) {
	p := grideyetest.NewPort(4)
	d := grideye.New(p)
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan *grideye.Frame)
	done := make(chan error)
	go func() {
		done <- grideye.Stream(ctx, d, c, time.Millisecond)
	}()
	for i := 0; i < 5; i++ {
		f := <-c
		if f.Metadata.Sequence != uint32(i+1) {
			t.Fatal(f.Metadata.Sequence)
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stream didn't stop")
	}
	if p.Closes() != 1 {
		t.Fatal(p.Closes())
	}
}

func TestStream_error(t *testing.T) {
	p := grideyetest.NewPort(5)
	p.Lines = [][]byte{[]byte("short\n")}
	p.ReadErr = errors.New("unplugged")
	d := grideye.New(p)
	c := make(chan *grideye.Frame, 1)
	err := grideye.Stream(context.Background(), d, c, 0)
	if err == nil || err.Error() != "unplugged" {
		t.Fatal(err)
	}
	if p.Closes() != 1 {
		t.Fatal(p.Closes())
	}
	s := d.Stats()
	if s.BrokenLines != 1 || s.TransferFails != 1 {
		t.Fatalf("%#v", s)
	}
	if len(c) != 0 {
		t.Fatal("unexpected frame")
	}
}

func TestStream_fake(t *testing.T) {
	f := grideyetest.New(6)
	f.Interval = 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan *grideye.Frame)
	done := make(chan error)
	go func() {
		done <- grideye.Stream(ctx, f, c, 0)
	}()
	<-c
	<-c
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != io.ErrClosedPipe {
		t.Fatal("expected Stream to close the sensor", err)
	}
}
