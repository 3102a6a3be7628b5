// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package grideye

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// The firmware answers each request byte with one line of text: 64 fields of
// 6 characters, formatted as "%03d.%02d" in °C, followed by "\r\n".
const (
	request    = 'r'
	fieldWidth = 6
	lineLength = Side * Side * fieldWidth
	maxLine    = 4 * lineLength // Garbage past this is dropped.
)

// ParseLine decodes a line sent by the firmware. The line terminator must
// already be stripped. Bytes past the 64 fields are ignored.
func ParseLine(line []byte, dst *[Side * Side]float64) error {
	if len(line) < lineLength {
		return fmt.Errorf("%w: %d bytes, expected %d", ErrBadLine, len(line), lineLength)
	}
	for i := range dst {
		field := bytes.TrimSpace(line[i*fieldWidth : (i+1)*fieldWidth])
		v, err := strconv.ParseFloat(string(field), 64)
		if err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrBadLine, i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: field %d: %q", ErrBadLine, i, field)
		}
		dst[i] = v
	}
	return nil
}

// FormatLine encodes readings the way the firmware does, including the "\r\n"
// terminator. Values are clamped to what fits in a field.
func FormatLine(readings *[Side * Side]float64) []byte {
	out := make([]byte, 0, lineLength+2)
	for _, v := range readings {
		if v > 999.99 {
			v = 999.99
		} else if v < -99.99 {
			v = -99.99
		}
		out = fmt.Appendf(out, "%06.2f", v)
	}
	return append(out, '\r', '\n')
}
