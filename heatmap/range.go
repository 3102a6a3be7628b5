// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package heatmap

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FindRange returns the minimum and maximum of frame.
func FindRange(frame []float64) (Range, error) {
	if len(frame) == 0 {
		return Range{}, ErrEmptyInput
	}
	return Range{Min: floats.Min(frame), Max: floats.Max(frame)}, nil
}

// Extremes describes where the coldest and hottest cells are.
type Extremes struct {
	Range
	ColdIndex int     // Index of the first cell equal to Min.
	HotIndex  int     // Index of the first cell equal to Max.
	Mean      float64 //
}

// FindExtremes is FindRange with the location of the extremes and the mean.
func FindExtremes(frame []float64) (Extremes, error) {
	r, err := FindRange(frame)
	if err != nil {
		return Extremes{}, err
	}
	return Extremes{
		Range:     r,
		ColdIndex: floats.MinIdx(frame),
		HotIndex:  floats.MaxIdx(frame),
		Mean:      stat.Mean(frame, nil),
	}, nil
}
