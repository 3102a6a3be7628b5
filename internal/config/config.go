// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the settings shared by the grideye tools from
// ~/.config/grideye/grideye.json.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/user"
	"path/filepath"

	"github.com/maruel/go-grideye/heatmap"
)

// Config is the content of the config file.
type Config struct {
	Serial     string   // Serial port. When empty, the first port found is used.
	BaudRate   int      //
	Scale      int      // Upsampling factor.
	Palette    string   // Name of a built-in palette; ignored when Anchors is set.
	Anchors    []string // Custom palette as "#rrggbb" colors.
	LowMargin  float64  // Added to the frame minimum.
	HighMargin float64  // Added to the frame maximum.
	Push       Push     // Optional remote collector.
}

// Push configures the upload of rendered frames.
type Push struct {
	ID     int64
	Secret []byte
	Server string // host[:port], or a full URL to force the scheme.
}

// IsValid returns true if pushing is configured.
func (p *Push) IsValid() bool {
	return p.ID != 0 && len(p.Secret) != 0 && len(p.Server) != 0
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BaudRate:   9600,
		Scale:      heatmap.DefaultScale,
		Palette:    "rainbow",
		LowMargin:  heatmap.DefaultLowMargin,
		HighMargin: heatmap.DefaultHighMargin,
	}
}

// Path returns the default path of the config file.
func Path() string {
	dir := ""
	if usr, err := user.Current(); err == nil {
		dir = usr.HomeDir
	} else {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, ".config", "grideye", "grideye.json")
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid BaudRate %d", c.BaudRate)
	}
	if c.LowMargin > c.HighMargin {
		return fmt.Errorf("LowMargin %g is larger than HighMargin %g", c.LowMargin, c.HighMargin)
	}
	_, err := c.Renderer()
	return err
}

// Renderer returns the heatmap.Renderer described by the config.
func (c *Config) Renderer() (heatmap.Renderer, error) {
	r := heatmap.Renderer{Scale: c.Scale, LowMargin: c.LowMargin, HighMargin: c.HighMargin}
	if c.Scale < 1 {
		return r, fmt.Errorf("%w: got %d", heatmap.ErrInvalidScale, c.Scale)
	}
	if len(c.Anchors) != 0 {
		p, err := heatmap.ParsePalette(c.Anchors)
		if err != nil {
			return r, err
		}
		r.Palette = p
		return r, nil
	}
	p, ok := heatmap.Palettes[c.Palette]
	if !ok {
		return r, fmt.Errorf("unknown palette %q; valid values are %q", c.Palette, heatmap.PaletteNames())
	}
	r.Palette = p
	return r, nil
}

// Load reads the config file at path.
//
// Keys missing from the file keep their default value. The file is rewritten
// in its normalized form when it differs, which creates it on first use.
func Load(path string) (*Config, error) {
	c, srcData, err := read(path)
	if err != nil {
		return nil, err
	}

	// Normalizes the config file.
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if !bytes.Equal(srcData, data) {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			log.Printf("failed to create %s: %s", filepath.Dir(path), err)
		} else if err := ioutil.WriteFile(path, data, 0600); err != nil {
			log.Printf("failed to write %s: %s", path, err)
		}
	}
	return c, nil
}

// read reads and validates the config file without rewriting it.
func read(path string) (*Config, []byte, error) {
	c := Default()
	srcData, err := ioutil.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, err
	}
	if len(srcData) != 0 {
		if err := json.Unmarshal(srcData, &c); err != nil {
			return nil, nil, fmt.Errorf("%s is invalid json: %w", path, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, srcData, nil
}
