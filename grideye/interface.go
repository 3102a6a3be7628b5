// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package grideye

import (
	"errors"
	"io"
	"time"

	"periph.io/x/periph/conn/physic"
)

// Side is the number of cells on each side of the sensor.
const Side = 8

// Errors returned by Sensor.ReadFrame. Both are transient: the next read
// usually succeeds.
var (
	ErrTimeout = errors.New("grideye: read timeout")
	ErrBadLine = errors.New("grideye: malformed line")
)

// Sensor reads frames from a Grid-EYE. This interface can be mocked.
type Sensor interface {
	io.Closer

	ReadFrame(f *Frame) error // ReadFrame blocks until a frame is read or the read times out.
	Stats() Stats             //
}

// Metadata is set by the Sensor for each frame.
type Metadata struct {
	Sequence uint32    // Number of good frames read since the Sensor was opened.
	Captured time.Time // UTC.
}

// Frame is one snapshot of all the sensor cells.
type Frame struct {
	Readings [Side * Side]float64 // Row-major, in °C.
	Metadata Metadata
}

// Celsius returns the reading of cell i as a physic.Temperature.
func (f *Frame) Celsius(i int) physic.Temperature {
	return ToTemperature(f.Readings[i])
}

// ToTemperature converts a value in °C.
func ToTemperature(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}

// Stats counts what happened on the link.
type Stats struct {
	LastFail      error
	GoodFrames    int
	Timeouts      int
	BrokenLines   int
	TransferFails int
}
