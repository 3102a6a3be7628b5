// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package grideye

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/periph/conn/physic"
)

func TestFormatLine(t *testing.T) {
	var r [Side * Side]float64
	for i := range r {
		r[i] = 20 + float64(i)*0.25
	}
	r[1] = -5.25
	r[2] = 2000
	line := FormatLine(&r)
	if len(line) != lineLength+2 {
		t.Fatal(len(line))
	}
	if !bytes.HasSuffix(line, []byte("\r\n")) {
		t.Fatalf("%q", line)
	}
	if s := string(line[:3*fieldWidth]); s != "020.00-05.25999.99" {
		t.Fatal(s)
	}
}

func TestParseLine(t *testing.T) {
	var r [Side * Side]float64
	for i := range r {
		r[i] = 18.5 + float64(i)*0.25
	}
	line := FormatLine(&r)
	var got [Side * Side]float64
	if err := ParseLine(line[:len(line)-2], &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	// Space padded fields are accepted too.
	padded := []byte(strings.Repeat(" 21.75", Side*Side))
	if err := ParseLine(padded, &got); err != nil {
		t.Fatal(err)
	}
	if got[63] != 21.75 {
		t.Fatal(got[63])
	}
}

func TestParseLine_fail(t *testing.T) {
	valid := strings.Repeat("025.00", Side*Side)
	data := []string{
		"",
		valid[:len(valid)-1],
		"abcdef" + valid[fieldWidth:],
		valid[:fieldWidth*10] + "   NaN" + valid[fieldWidth*11:],
		valid[:fieldWidth*63] + "  +Inf",
	}
	var r [Side * Side]float64
	for i, line := range data {
		if err := ParseLine([]byte(line), &r); !errors.Is(err, ErrBadLine) {
			t.Fatalf("#%d: %v", i, err)
		}
	}
}

func TestToTemperature(t *testing.T) {
	f := Frame{}
	f.Readings[3] = 25.5
	if got := f.Celsius(3); got != physic.ZeroCelsius+25500*physic.MilliKelvin {
		t.Fatal(got)
	}
	if s := f.Celsius(3).String(); !strings.HasSuffix(s, "°C") {
		t.Fatal(s)
	}
}
