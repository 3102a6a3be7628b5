// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// grideye-grab captures a single frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/maruel/go-grideye/grideye"
	"github.com/maruel/go-grideye/heatmap"
	"github.com/maruel/go-grideye/internal/config"
	"github.com/maruel/go-grideye/internal/sensor"
	"github.com/maruel/interrupt"
)

// grab reads one frame, retrying on transient errors up to tries times or
// until ctx is done.
func grab(ctx context.Context, s grideye.Sensor, tries int) (*grideye.Frame, error) {
	f := &grideye.Frame{}
	var err error
	for i := 0; i < tries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err = s.ReadFrame(f); err == nil {
			return f, nil
		}
		if !errors.Is(err, grideye.ErrTimeout) && !errors.Is(err, grideye.ErrBadLine) {
			return nil, err
		}
		log.Printf("try %d: %s", i+1, err)
	}
	return nil, err
}

// printRaw prints the readings as a table of fixed width columns.
func printRaw(w io.Writer, f *grideye.Frame) {
	for y := 0; y < grideye.Side; y++ {
		for x := 0; x < grideye.Side; x++ {
			fmt.Fprintf(w, "%6.2f", f.Readings[y*grideye.Side+x])
		}
		fmt.Fprint(w, "\n")
	}
}

func mainImpl() error {
	serialPort := flag.String("serial", "", "serial port; defaults to the config file, then to the first port found")
	fake := flag.Bool("fake", false, "use a fake sensor")
	scale := flag.Int("scale", 0, "upsampling factor; defaults to the config file")
	palette := flag.String("palette", "", fmt.Sprintf("one of %q; defaults to the config file", heatmap.PaletteNames()))
	raw := flag.Bool("raw", false, "print the readings")
	meta := flag.Bool("meta", false, "print metadata")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	interrupt.HandleCtrlC()

	if flag.NArg() > 1 || (flag.NArg() == 0 && !*raw) {
		return errors.New("supply path to PNG to save")
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	if *scale != 0 {
		cfg.Scale = *scale
	}
	if *palette != "" {
		cfg.Palette = *palette
		cfg.Anchors = nil
	}
	r, err := cfg.Renderer()
	if err != nil {
		return err
	}

	name := *serialPort
	if name == "" {
		name = cfg.Serial
	}
	s, err := sensor.Open(name, cfg.BaudRate, *fake)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx, cancel := sensor.Context()
	defer cancel()
	frame, err := grab(ctx, s, 5)
	if err != nil {
		return fmt.Errorf("%s\nIf testing without hardware, use -fake to simulate a sensor", err)
	}
	if *meta {
		ext, err := heatmap.FindExtremes(frame.Readings[:])
		if err != nil {
			return err
		}
		fmt.Printf("Sequence: %d\n", frame.Metadata.Sequence)
		fmt.Printf("Captured: %s\n", frame.Metadata.Captured)
		fmt.Printf("Min:      %s (cell %d)\n", grideye.ToTemperature(ext.Min), ext.ColdIndex)
		fmt.Printf("Max:      %s (cell %d)\n", grideye.ToTemperature(ext.Max), ext.HotIndex)
		fmt.Printf("Mean:     %s\n", grideye.ToTemperature(ext.Mean))
	}
	if *raw {
		printRaw(os.Stdout, frame)
	}
	if flag.NArg() == 0 {
		return nil
	}
	img, err := r.Render(frame.Readings[:])
	if err != nil {
		return err
	}
	f, err := os.Create(flag.Args()[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ngrideye-grab: %s.\n", err)
		os.Exit(1)
	}
}
