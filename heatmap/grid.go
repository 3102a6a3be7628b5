// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package heatmap

import (
	"fmt"
	"math"
)

// Grid is a square grid of values stored row-major.
type Grid struct {
	Side   int
	Values []float64 // len(Values) == Side*Side
}

// NewGrid wraps values as a square grid. values is not copied.
func NewGrid(values []float64) (Grid, error) {
	side := int(math.Sqrt(float64(len(values))))
	for side*side < len(values) {
		side++
	}
	g := Grid{Side: side, Values: values}
	return g, g.Validate()
}

// Validate returns ErrInvalidGrid if the grid cannot be interpolated.
func (g Grid) Validate() error {
	if g.Side < 2 {
		return fmt.Errorf("%w: side %d is smaller than 2", ErrInvalidGrid, g.Side)
	}
	if len(g.Values) != g.Side*g.Side {
		return fmt.Errorf("%w: %d values for side %d", ErrInvalidGrid, len(g.Values), g.Side)
	}
	return nil
}

// At returns the value at column x, row y.
func (g Grid) At(x, y int) float64 {
	return g.Values[y*g.Side+x]
}

// Interpolate upsamples src by scale with bilinear interpolation.
//
// The output corners are exactly the source corners. The last source
// row/column is never extrapolated: the final output cells blend the last two
// source samples with a weight of 1 on the last one.
func Interpolate(src Grid, scale int) (Grid, error) {
	if scale < 1 {
		return Grid{}, fmt.Errorf("%w: got %d", ErrInvalidScale, scale)
	}
	if err := src.Validate(); err != nil {
		return Grid{}, err
	}
	n := src.Side
	m := n * scale
	out := Grid{Side: m, Values: make([]float64, m*m)}
	for j := 0; j < m; j++ {
		h, fy := sourceCoord(j, n, m)
		row := j * m
		for i := 0; i < m; i++ {
			w, fx := sourceCoord(i, n, m)
			p1 := src.Values[h*n+w]
			p2 := src.Values[h*n+w+1]
			p3 := src.Values[(h+1)*n+w+1]
			p4 := src.Values[(h+1)*n+w]
			d1 := (1 - fx) * (1 - fy)
			d2 := fx * (1 - fy)
			d3 := fx * fy
			d4 := (1 - fx) * fy
			out.Values[row+i] = p1*d1 + p2*d2 + p3*d3 + p4*d4
		}
	}
	return out, nil
}

// sourceCoord maps output index i of an m wide grid to the integral and
// fractional source coordinate of an n wide grid.
//
// The product is done in integers then divided once, so that output indices
// that fall on a source sample map to it exactly.
func sourceCoord(i, n, m int) (int, float64) {
	if m == 1 {
		return 0, 0
	}
	t := float64(i*(n-1)) / float64(m-1)
	w := int(t)
	if w > n-2 {
		w = n - 2
	}
	return w, t - float64(w)
}
