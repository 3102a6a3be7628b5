// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/maruel/go-grideye/grideye"
)

func TestPrintPorts(t *testing.T) {
	ports := []grideye.PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", Product: "FT232R", SerialNumber: "A1"},
	}
	buf := bytes.Buffer{}
	if n := printPorts(&buf, ports, false); n != 2 {
		t.Fatal(n)
	}
	want := "/dev/ttyS0\n/dev/ttyUSB0 (USB 0403:6001 FT232R #A1)\n"
	if buf.String() != want {
		t.Fatalf("%q", buf.String())
	}
	buf.Reset()
	if n := printPorts(&buf, ports, true); n != 1 {
		t.Fatal(n)
	}
	if buf.String() != "/dev/ttyUSB0 (USB 0403:6001 FT232R #A1)\n" {
		t.Fatalf("%q", buf.String())
	}
}
