// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package heatmap

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindRange(t *testing.T) {
	data := []struct {
		frame    []float64
		expected Range
	}{
		{[]float64{1}, Range{1, 1}},
		{[]float64{3, -2, 7.5, 0}, Range{-2, 7.5}},
		{[]float64{25, 25, 25}, Range{25, 25}},
	}
	for i, line := range data {
		r, err := FindRange(line.frame)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if r != line.expected {
			t.Fatalf("#%d: %v != %v", i, r, line.expected)
		}
	}
}

func TestFindRange_empty(t *testing.T) {
	if _, err := FindRange(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatal(err)
	}
	if _, err := FindExtremes([]float64{}); !errors.Is(err, ErrEmptyInput) {
		t.Fatal(err)
	}
}

func TestFindRange_random(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 100; n++ {
		frame := randomFrame(rnd, 64)
		r, err := FindRange(frame)
		if err != nil {
			t.Fatal(err)
		}
		foundMin, foundMax := false, false
		for _, v := range frame {
			if v < r.Min || v > r.Max {
				t.Fatalf("%g outside %v", v, r)
			}
			foundMin = foundMin || v == r.Min
			foundMax = foundMax || v == r.Max
		}
		if !foundMin || !foundMax {
			t.Fatalf("%v is not made of frame values", r)
		}
	}
}

func TestFindExtremes(t *testing.T) {
	frame := []float64{20, 21, 19, 30, 20, 30}
	e, err := FindExtremes(frame)
	if err != nil {
		t.Fatal(err)
	}
	expected := Extremes{Range: Range{19, 30}, ColdIndex: 2, HotIndex: 3, Mean: 140. / 6}
	if diff := cmp.Diff(expected, e); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRange_Check(t *testing.T) {
	if err := (Range{1, 2}).Check(); err != nil {
		t.Fatal(err)
	}
	if err := (Range{2, 2}).Check(); !errors.Is(err, ErrDegenerateRange) {
		t.Fatal(err)
	}
	if err := (Range{3, 2}).Check(); err == nil {
		t.Fatal("inverted range")
	}
	if r := (Range{20, 30}).Widen(-0.5, 0.5); r != (Range{19.5, 30.5}) {
		t.Fatal(r)
	}
}

//

// randomFrame returns n readings around room temperature.
func randomFrame(rnd *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 15 + rnd.Float64()*25
	}
	return out
}
