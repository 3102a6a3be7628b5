// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensor opens the Grid-EYE selected on the command line and ties its
// lifetime to Ctrl-C.
package sensor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/maruel/go-grideye/grideye"
	"github.com/maruel/go-grideye/grideyetest"
	"github.com/maruel/interrupt"
)

// ErrNoPort is returned when no serial port was specified and none is found.
var ErrNoPort = errors.New("no serial port found; use -serial or -fake")

// Open returns the sensor to use.
//
// When fake is set, a simulated sensor is returned. Otherwise name is opened;
// when name is empty, the first port found on the host is used.
func Open(name string, baudRate int, fake bool) (grideye.Sensor, error) {
	if fake {
		log.Printf("using a fake sensor")
		return grideyetest.New(time.Now().UnixNano()), nil
	}
	if name == "" {
		ports, err := grideye.Ports()
		if err != nil {
			return nil, err
		}
		if len(ports) == 0 {
			return nil, ErrNoPort
		}
		name = ports[0].Name
		log.Printf("using %s", ports[0].String())
	}
	opts := grideye.DefaultOpts
	if baudRate != 0 {
		opts.BaudRate = baudRate
	}
	return grideye.Open(name, &opts)
}

// Context returns a context canceled on Ctrl-C.
//
// interrupt.HandleCtrlC must have been called.
func Context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-interrupt.Channel:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
