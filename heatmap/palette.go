// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package heatmap

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is a color ramp. Its anchors are equally spaced over the range
// passed to At().
type Palette []color.RGBA

// Rainbow is the default palette, from deep blue through yellow to deep red.
var Rainbow = Palette{
	{28, 1, 108, 255},
	{31, 17, 218, 255},
	{50, 111, 238, 255},
	{63, 196, 229, 255},
	{64, 222, 135, 255},
	{192, 240, 14, 255},
	{223, 172, 18, 255},
	{209, 111, 14, 255},
	{210, 50, 28, 255},
	{194, 26, 0, 255},
	{132, 26, 0, 255},
}

// Iron goes from black through violet and orange to white.
var Iron = Palette{
	{0, 0, 5, 255},
	{7, 1, 97, 255},
	{51, 1, 194, 255},
	{110, 2, 212, 255},
	{158, 6, 150, 255},
	{197, 30, 58, 255},
	{218, 66, 0, 255},
	{237, 137, 0, 255},
	{246, 199, 23, 255},
	{251, 248, 117, 255},
	{252, 254, 253, 255},
}

// Palettes lists the built-in palettes by name.
var Palettes = map[string]Palette{
	"rainbow": Rainbow,
	"iron":    Iron,
}

// PaletteNames returns the sorted names in Palettes.
func PaletteNames() []string {
	out := make([]string, 0, len(Palettes))
	for k := range Palettes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParsePalette parses anchors formatted as "#rrggbb".
func ParsePalette(hex []string) (Palette, error) {
	p := make(Palette, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("heatmap: anchor %d: %w", i, err)
		}
		r, g, b := c.RGB255()
		p[i] = color.RGBA{r, g, b, 255}
	}
	return p, p.Validate()
}

// Hex returns the anchors formatted as "#rrggbb".
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	}
	return out
}

// Validate returns ErrInvalidPalette if p has fewer than 2 anchors.
func (p Palette) Validate() error {
	if len(p) < 2 {
		return ErrInvalidPalette
	}
	return nil
}

// At maps v to a color.
//
// Values below r.Min map to the first anchor. Values at or above r.Max map to
// the last anchor, so r.Max itself is never interpolated. A degenerate range
// maps everything to the first anchor.
func (p Palette) At(v float64, r Range) color.RGBA {
	switch len(p) {
	case 0:
		return color.RGBA{A: 255}
	case 1:
		return p[0]
	}
	if r.Min == r.Max || v < r.Min || math.IsNaN(v) {
		return p[0]
	}
	if v >= r.Max {
		return p[len(p)-1]
	}
	step := (r.Max - r.Min) / float64(len(p)-1)
	pos := (v - r.Min) / step
	if math.IsNaN(pos) {
		// A bound is NaN or infinite.
		return p[0]
	}
	k := int(pos)
	if k < 0 {
		k = 0
	}
	if k > len(p)-2 {
		k = len(p) - 2
	}
	f := pos - float64(k)
	c1 := p[k]
	c2 := p[k+1]
	return color.RGBA{
		R: blend(c1.R, c2.R, f),
		G: blend(c1.G, c2.G, f),
		B: blend(c1.B, c2.B, f),
		A: 255,
	}
}

// blend linearly interpolates a color channel, f in [0, 1].
func blend(a, b uint8, f float64) uint8 {
	v := math.Round(float64(a) + f*(float64(b)-float64(a)))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
