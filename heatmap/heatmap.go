// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package heatmap converts a grid of temperature readings into a smoothed,
// color-mapped image.
//
// The pipeline is FindRange -> Interpolate -> Palette.At. Every function in
// this package is pure: no state is kept between calls so frames can be
// rendered concurrently as long as the output images are not shared.
package heatmap

import (
	"errors"
	"fmt"
)

// Validation errors. Use errors.Is() to test for them, they may be wrapped.
var (
	ErrEmptyInput      = errors.New("heatmap: empty input")
	ErrInvalidScale    = errors.New("heatmap: scale must be at least 1")
	ErrInvalidGrid     = errors.New("heatmap: invalid grid")
	ErrDegenerateRange = errors.New("heatmap: degenerate range")
	ErrInvalidPalette  = errors.New("heatmap: palette needs at least 2 anchors")
)

// Range is a closed interval of values, usually in °C.
type Range struct {
	Min float64
	Max float64
}

// Check returns ErrDegenerateRange when the range has no span.
//
// It is informational: Palette.At handles a degenerate range by returning the
// first anchor.
func (r Range) Check() error {
	if r.Min == r.Max {
		return ErrDegenerateRange
	}
	if r.Min > r.Max {
		return fmt.Errorf("heatmap: inverted range %g > %g", r.Min, r.Max)
	}
	return nil
}

// Widen returns the range offset by the two margins.
func (r Range) Widen(low, high float64) Range {
	return Range{Min: r.Min + low, Max: r.Max + high}
}

func (r Range) String() string {
	return fmt.Sprintf("%.2f°C - %.2f°C", r.Min, r.Max)
}
