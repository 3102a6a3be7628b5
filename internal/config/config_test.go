// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/go-grideye/heatmap"
)

func TestLoad_create(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "grideye.json")
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), *c); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Scale": 10`) {
		t.Fatal(string(data))
	}
	// Loading again yields the same thing.
	c2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(c, c2); diff != "" {
		t.Fatal(diff)
	}
}

func TestLoad_partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grideye.json")
	if err := ioutil.WriteFile(path, []byte(`{"Scale": 4, "LowMargin": 0, "Anchors": ["#000000", "#ffffff"]}`), 0600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Scale != 4 || c.LowMargin != 0 || c.HighMargin != heatmap.DefaultHighMargin || c.BaudRate != 9600 {
		t.Fatalf("%#v", c)
	}
	r, err := c.Renderer()
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Palette) != 2 || r.Palette[1].R != 255 {
		t.Fatal(r.Palette)
	}
}

func TestLoad_invalid(t *testing.T) {
	dir := t.TempDir()
	data := []struct {
		content string
		err     error
	}{
		{`{`, nil},
		{`{"Scale": 0}`, heatmap.ErrInvalidScale},
		{`{"Anchors": ["#000000"]}`, heatmap.ErrInvalidPalette},
		{`{"Palette": "sepia"}`, nil},
		{`{"LowMargin": 2, "HighMargin": 1}`, nil},
		{`{"BaudRate": -1}`, nil},
	}
	for i, line := range data {
		path := filepath.Join(dir, "grideye.json")
		if err := ioutil.WriteFile(path, []byte(line.content), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil {
			t.Fatalf("#%d: expected failure", i)
		}
		if line.err != nil && !errors.Is(err, line.err) {
			t.Fatalf("#%d: %v", i, err)
		}
	}
}

func TestPush_IsValid(t *testing.T) {
	p := Push{}
	if p.IsValid() {
		t.Fatal("empty")
	}
	p = Push{ID: 1, Secret: []byte("s"), Server: "localhost:8011"}
	if !p.IsValid() {
		t.Fatal("valid")
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grideye.json")
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan *Config, 10)
	done := make(chan error)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()
	// Give the watcher time to start.
	time.Sleep(100 * time.Millisecond)
	if err := ioutil.WriteFile(path, []byte(`{"Scale": 3}`), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		if c.Scale != 3 {
			t.Fatal(c.Scale)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change detected")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
