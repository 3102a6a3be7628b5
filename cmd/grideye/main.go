// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// grideye serves the live heat map of a Grid-EYE sensor over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/maruel/go-grideye/grideye"
	"github.com/maruel/go-grideye/heatmap"
	"github.com/maruel/go-grideye/internal/config"
	"github.com/maruel/go-grideye/internal/sensor"
	"github.com/maruel/interrupt"
)

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	port := flag.Int("port", 8010, "http port to listen on")
	serialPort := flag.String("serial", "", "serial port; defaults to the config file, then to the first port found")
	fake := flag.Bool("fake", false, "use a fake sensor")
	configPath := flag.String("config", config.Path(), "config file")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	log.SetFlags(log.Lmicroseconds)
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	r, err := cfg.Renderer()
	if err != nil {
		return err
	}
	var renderer atomic.Value
	renderer.Store(&r)

	name := *serialPort
	if name == "" {
		name = cfg.Serial
	}
	s, err := sensor.Open(name, cfg.BaudRate, *fake)
	if err != nil {
		return err
	}

	ctx, cancel := sensor.Context()
	defer cancel()

	frames := make(chan *grideye.Frame, 16)
	streamErr := make(chan error, 1)
	go func() {
		defer close(frames)
		streamErr <- grideye.Stream(ctx, s, frames, 5*time.Millisecond)
	}()

	server := StartWebServer(*port)
	seeder := NewSeeder(&cfg.Push)
	var toSeed chan *rendered
	if seeder != nil {
		toSeed = make(chan *rendered, 2*maxBatch)
		go seeder.Run(ctx, toSeed)
	}

	go func() {
		// Rendering is done in a separate loop to not miss a frame.
		for f := range frames {
			img, err := makeRendered(f, renderer.Load().(*heatmap.Renderer))
			if err != nil {
				log.Printf("render: %s", err)
				continue
			}
			server.AddImg(img)
			if toSeed != nil {
				select {
				case toSeed <- img:
				default:
					log.Printf("seeder is lagging; dropping frame %d", f.Metadata.Sequence)
				}
			}
		}
	}()

	go func() {
		err := config.Watch(ctx, *configPath, func(c *config.Config) {
			if r, err := c.Renderer(); err == nil {
				log.Printf("reloaded %s", *configPath)
				renderer.Store(&r)
			}
		})
		if err != nil {
			log.Printf("config: %s", err)
		}
	}()

	err = monitor(ctx, os.Stdout, s, seeder, streamErr)
	if err2 := server.Close(); err == nil {
		err = err2
	}
	return err
}

// monitor prints the statistics once per second until ctx is done or the
// stream stops. It returns once the stream returned, so the sensor is closed.
func monitor(ctx context.Context, w io.Writer, s grideye.Sensor, seeder *Seeder, streamErr <-chan error) error {
	for {
		select {
		case err := <-streamErr:
			fmt.Fprint(w, "\n")
			return err
		case <-ctx.Done():
			fmt.Fprint(w, "\n")
			return <-streamErr
		case <-time.After(time.Second):
		}
		st := s.Stats()
		fmt.Fprintf(w, "\r%d frames %d timeouts %d broken %d fail", st.GoodFrames, st.Timeouts, st.BrokenLines, st.TransferFails)
		if seeder != nil {
			ss := seeder.Stats()
			fmt.Fprintf(w, " %d pushed %d reqs %d push fail", ss.ImgsSent, ss.HTTPReqs, ss.Failures)
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ngrideye: %s.\n", err)
		os.Exit(1)
	}
}
