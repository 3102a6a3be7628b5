// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Default rendering parameters.
const (
	DefaultScale      = 10
	DefaultLowMargin  = -0.5
	DefaultHighMargin = 0.5
)

// Image is a rendered heat map. It implements image.Image.
type Image struct {
	Side  int
	Pix   []color.RGBA // Row-major, len(Pix) == Side*Side.
	Range Range        // Effective range used for the color mapping.
}

func (i *Image) ColorModel() color.Model {
	return color.RGBAModel
}

func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Side, i.Side)
}

func (i *Image) At(x, y int) color.Color {
	return i.RGBAAt(x, y)
}

// RGBAAt returns the pixel at column x, row y, or transparent black when out
// of bounds.
func (i *Image) RGBAAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= i.Side || y >= i.Side {
		return color.RGBA{}
	}
	return i.Pix[y*i.Side+x]
}

// Renderer holds the rendering parameters.
type Renderer struct {
	Scale      int     // Upsampling factor, at least 1.
	Palette    Palette //
	LowMargin  float64 // Added to the frame minimum, usually negative.
	HighMargin float64 // Added to the frame maximum, usually positive.
}

// DefaultRenderer returns a Renderer with the default parameters.
func DefaultRenderer() Renderer {
	return Renderer{
		Scale:      DefaultScale,
		Palette:    Rainbow,
		LowMargin:  DefaultLowMargin,
		HighMargin: DefaultHighMargin,
	}
}

// Render renders frame with the Renderer parameters.
func (r *Renderer) Render(frame []float64) (*Image, error) {
	return Render(frame, r.Scale, r.Palette, r.LowMargin, r.HighMargin)
}

// Render converts a square frame of readings into an image of side
// sqrt(len(frame))*scale.
//
// The palette spans the frame range widened by the margins, so that the most
// extreme cell does not saturate the palette ends. All arguments are
// validated before any pixel is computed. frame is not modified.
func Render(frame []float64, scale int, p Palette, lowMargin, highMargin float64) (*Image, error) {
	r, err := FindRange(frame)
	if err != nil {
		return nil, err
	}
	for i, v := range frame {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: cell %d is %g", ErrInvalidGrid, i, v)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	src, err := NewGrid(frame)
	if err != nil {
		return nil, err
	}
	g, err := Interpolate(src, scale)
	if err != nil {
		return nil, err
	}
	eff := r.Widen(lowMargin, highMargin)
	img := &Image{Side: g.Side, Pix: make([]color.RGBA, len(g.Values)), Range: eff}
	for i, v := range g.Values {
		img.Pix[i] = p.At(v, eff)
	}
	return img, nil
}
