// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// grideye-list lists the serial ports a Grid-EYE bridge may be connected to.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maruel/go-grideye/grideye"
)

func printPorts(w io.Writer, ports []grideye.PortInfo, usbOnly bool) int {
	n := 0
	for i := range ports {
		if usbOnly && !ports[i].IsUSB {
			continue
		}
		fmt.Fprintf(w, "%s\n", ports[i].String())
		n++
	}
	return n
}

func mainImpl() error {
	usbOnly := flag.Bool("usb", false, "only list USB ports")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	ports, err := grideye.Ports()
	if err != nil {
		return err
	}
	if printPorts(os.Stdout, ports, *usbOnly) == 0 {
		fmt.Fprintf(os.Stderr, "No serial port found\n")
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ngrideye-list: %s.\n", err)
		os.Exit(1)
	}
}
