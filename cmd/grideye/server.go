// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/maruel/go-grideye/grideye"
	"github.com/maruel/go-grideye/heatmap"
	"github.com/maruel/serve-dir/loghttp"
	"golang.org/x/net/websocket"
)

//go:embed static
var staticFiles embed.FS

// metadata is sent along each image on the websocket.
type metadata struct {
	Sequence  uint32
	Captured  time.Time
	Min       float64 // Coldest reading.
	Max       float64 // Hottest reading.
	Mean      float64 //
	ColdIndex int     // Cell index of Min.
	HotIndex  int     // Cell index of Max.
	RangeMin  float64 // Value mapped to the first palette anchor.
	RangeMax  float64 // Value mapped to the last palette anchor.
	Text      string  // Human readable summary.
}

// rendered is a frame converted to a heat map.
type rendered struct {
	img      *heatmap.Image
	readings [grideye.Side * grideye.Side]float64
	meta     metadata
}

func makeRendered(f *grideye.Frame, r *heatmap.Renderer) (*rendered, error) {
	img, err := r.Render(f.Readings[:])
	if err != nil {
		return nil, err
	}
	ext, err := heatmap.FindExtremes(f.Readings[:])
	if err != nil {
		return nil, err
	}
	return &rendered{
		img:      img,
		readings: f.Readings,
		meta: metadata{
			Sequence:  f.Metadata.Sequence,
			Captured:  f.Metadata.Captured,
			Min:       ext.Min,
			Max:       ext.Max,
			Mean:      ext.Mean,
			ColdIndex: ext.ColdIndex,
			HotIndex:  ext.HotIndex,
			RangeMin:  img.Range.Min,
			RangeMax:  img.Range.Max,
			Text: fmt.Sprintf("min %s max %s mean %s",
				grideye.ToTemperature(ext.Min), grideye.ToTemperature(ext.Max), grideye.ToTemperature(ext.Mean)),
		},
	}, nil
}

// WebServer serves the rendered heat maps.
type WebServer struct {
	cond      sync.Cond
	closed    bool
	images    [10 * 10]*rendered // 10 seconds worth of images at 10fps.
	lastIndex int                // Index of the most recent image, -1 when none.
	server    http.Server
}

// AddImg makes img the current image and wakes up the streams.
func (s *WebServer) AddImg(img *rendered) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.lastIndex = (s.lastIndex + 1) % len(s.images)
	s.images[s.lastIndex] = img
	s.cond.Broadcast()
}

func newWebServer() *WebServer {
	return &WebServer{cond: sync.Cond{L: &sync.Mutex{}}, lastIndex: -1}
}

// StartWebServer starts serving on port.
func StartWebServer(port int) *WebServer {
	s := newWebServer()
	s.server = http.Server{Addr: fmt.Sprintf(":%d", port), Handler: &loghttp.Handler{Handler: s.mux()}}
	fmt.Printf("Listening on %d\n", port)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %s", err)
		}
	}()
	return s
}

// Close stops the streams and the server.
func (s *WebServer) Close() error {
	s.cond.L.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.cond.L.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *WebServer) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/still.png", s.still)
	mux.HandleFunc("/meta.json", s.meta)
	mux.Handle("/stream", websocket.Handler(s.stream))
	return mux
}

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	data, err := staticFiles.ReadFile("static/root.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write(data)
}

// last returns the most recent image or nil.
func (s *WebServer) last() *rendered {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	if s.lastIndex == -1 {
		return nil
	}
	return s.images[s.lastIndex]
}

func (s *WebServer) still(w http.ResponseWriter, r *http.Request) {
	img := s.last()
	if img == nil {
		http.Error(w, "No image yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := png.Encode(w, img.img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *WebServer) meta(w http.ResponseWriter, r *http.Request) {
	img := s.last()
	if img == nil {
		http.Error(w, "No image yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	json.NewEncoder(w).Encode(&img.meta)
}

// stream sends all images as websocket frames.
//
// Each image is sent as two frames: "I" followed by the base64 encoded PNG,
// then "M" followed by the JSON encoded metadata.
func (s *WebServer) stream(w *websocket.Conn) {
	log.Printf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	buf := &bytes.Buffer{}
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	lastIndex := -1
	for !s.closed {
		if lastIndex == s.lastIndex {
			s.cond.Wait()
			continue
		}
		// Skip ahead if the client is too slow.
		lastIndex = s.lastIndex
		img := s.images[lastIndex]
		s.cond.L.Unlock()
		// Do the actual I/O without the lock.
		err := sendImg(w, buf, img)
		s.cond.L.Lock()
		// To break out of the loop, the lock must be held.
		if err != nil {
			log.Printf("websocket err: %s", err)
			break
		}
	}
}

func sendImg(w *websocket.Conn, buf *bytes.Buffer, img *rendered) error {
	// Frame I is for Image.
	buf.Reset()
	buf.WriteString("I")
	encoder := base64.NewEncoder(base64.StdEncoding, buf)
	if err := png.Encode(encoder, img.img); err != nil {
		return err
	}
	encoder.Close()
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	// Frame M is for Metadata.
	buf.Reset()
	buf.WriteString("M")
	if err := json.NewEncoder(buf).Encode(&img.meta); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
