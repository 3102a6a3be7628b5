// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/maruel/go-grideye/api"
	"github.com/maruel/go-grideye/internal/config"
)

// maxBatch is the maximum number of images sent in a single request.
const maxBatch = 30

// Seeder uploads the rendered images to a collector.
type Seeder struct {
	id     int64
	secret []byte
	url    string
	client *http.Client

	mu    sync.Mutex
	stats SeederStats
}

// SeederStats is the upload statistics.
type SeederStats struct {
	ImgsSent int
	HTTPReqs int
	Failures int
}

// NewSeeder returns nil when pushing is not configured.
func NewSeeder(p *config.Push) *Seeder {
	if !p.IsValid() {
		return nil
	}
	fmt.Printf("Sending to %s as ID %d\n", p.Server, p.ID)
	return &Seeder{
		id:     p.ID,
		secret: p.Secret,
		url:    pushURL(p.Server),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Stats returns the upload statistics.
func (s *Seeder) Stats() SeederStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Run sends the images received on c until ctx is done or c is closed.
func (s *Seeder) Run(ctx context.Context, c <-chan *rendered) {
	imgs := make([]*rendered, 0, maxBatch)
	for {
		imgs = imgs[:0]
		select {
		case <-ctx.Done():
			return
		case i, ok := <-c:
			if !ok {
				return
			}
			imgs = append(imgs, i)
		}
		// Grab what is already queued.
		for loop := true; loop && len(imgs) < maxBatch; {
			select {
			case i, ok := <-c:
				if !ok {
					loop = false
				} else {
					imgs = append(imgs, i)
				}
			default:
				loop = false
			}
		}
		err := s.send(ctx, imgs)
		s.mu.Lock()
		s.stats.HTTPReqs++
		if err != nil {
			s.stats.Failures++
		} else {
			s.stats.ImgsSent += len(imgs)
		}
		s.mu.Unlock()
		if err != nil {
			log.Printf("Failed to push %d images: %s", len(imgs), err)
		}
	}
}

func (s *Seeder) send(ctx context.Context, imgs []*rendered) error {
	req := &api.PushRequest{
		ID:     s.id,
		Secret: s.secret,
		Items:  make([]api.PushRequestItem, len(imgs)),
	}
	var w bytes.Buffer
	for i, img := range imgs {
		if err := png.Encode(&w, img.img); err != nil {
			return err
		}
		req.Items[i] = api.PushRequestItem{
			Timestamp: img.meta.Captured.UTC(),
			Sequence:  img.meta.Sequence,
			Readings:  append([]float64(nil), img.readings[:]...),
			PNG:       append([]byte(nil), w.Bytes()...),
		}
		w.Reset()
	}
	if err := json.NewEncoder(&w).Encode(req); err != nil {
		return err
	}
	r, err := http.NewRequestWithContext(ctx, "POST", s.url, &w)
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out := api.PushResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%s: %w", resp.Status, err)
	}
	if !out.OK {
		if out.Error == "" {
			return errors.New(resp.Status)
		}
		return errors.New(out.Error)
	}
	return nil
}

// pushURL defaults to https when server has no scheme.
func pushURL(server string) string {
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	return strings.TrimRight(server, "/") + api.PushPath
}
