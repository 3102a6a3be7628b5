// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// grideye-term shows the live heat map in the terminal.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/maruel/go-grideye/grideye"
	"github.com/maruel/go-grideye/heatmap"
	"github.com/maruel/go-grideye/internal/config"
	"github.com/maruel/go-grideye/internal/sensor"
	"github.com/maruel/interrupt"
)

// fitScale returns the largest scale that fits a w×h cells terminal,
// keeping the last line for the status. Each cell shows two pixels stacked
// vertically.
func fitScale(w, h int) int {
	sw := w / grideye.Side
	sh := (h - 1) * 2 / grideye.Side
	if sh < sw {
		sw = sh
	}
	if sw < 1 {
		return 1
	}
	return sw
}

// draw paints img with half blocks and status on the line below.
func draw(s tcell.Screen, img *heatmap.Image, status string) {
	s.Clear()
	for y := 0; y < img.Side; y += 2 {
		for x := 0; x < img.Side; x++ {
			top := img.RGBAAt(x, y)
			// RGBAAt returns black past the last line when Side is odd.
			bottom := img.RGBAAt(x, y+1)
			st := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.SetContent(x, y/2, '▀', nil, st)
		}
	}
	row := (img.Side + 1) / 2
	for i, r := range []rune(status) {
		s.SetContent(i, row, r, nil, tcell.StyleDefault)
	}
	s.Show()
}

func statusLine(f *grideye.Frame, r heatmap.Range) string {
	ext, err := heatmap.FindExtremes(f.Readings[:])
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("#%d %s..%s mean %s; palette spans %s; q to quit",
		f.Metadata.Sequence, grideye.ToTemperature(ext.Min), grideye.ToTemperature(ext.Max), grideye.ToTemperature(ext.Mean), r)
}

func mainImpl() error {
	serialPort := flag.String("serial", "", "serial port; defaults to the config file, then to the first port found")
	fake := flag.Bool("fake", false, "use a fake sensor")
	palette := flag.String("palette", "", fmt.Sprintf("one of %q; defaults to the config file", heatmap.PaletteNames()))
	flag.Parse()
	// The terminal is taken over; logs would corrupt it.
	log.SetOutput(ioutil.Discard)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	interrupt.HandleCtrlC()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
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
	sens, err := sensor.Open(name, cfg.BaudRate, *fake)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		sens.Close()
		return err
	}
	if err := screen.Init(); err != nil {
		sens.Close()
		return err
	}
	defer screen.Fini()

	ctx, cancel := sensor.Context()
	defer cancel()
	frames := make(chan *grideye.Frame, 4)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- grideye.Stream(ctx, sens, frames, 5*time.Millisecond)
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				// Fini was called.
				return
			}
			events <- ev
		}
	}()

	r.Scale = fitScale(screen.Size())
	for {
		select {
		case <-ctx.Done():
			return <-streamErr
		case err := <-streamErr:
			return err
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					cancel()
				}
			case *tcell.EventResize:
				r.Scale = fitScale(screen.Size())
				screen.Sync()
			}
		case f := <-frames:
			img, err := r.Render(f.Readings[:])
			if err != nil {
				return err
			}
			draw(screen, img, statusLine(f, img.Range))
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ngrideye-term: %s.\n", err)
		os.Exit(1)
	}
}
