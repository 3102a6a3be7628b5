// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/maruel/go-grideye/api"
	"github.com/maruel/go-grideye/internal/config"
)

func TestPushURL(t *testing.T) {
	data := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com" + api.PushPath},
		{"localhost:8011", "https://localhost:8011" + api.PushPath},
		{"http://localhost:8011/", "http://localhost:8011" + api.PushPath},
	}
	for i, line := range data {
		if got := pushURL(line.in); got != line.want {
			t.Fatalf("#%d: %q != %q", i, got, line.want)
		}
	}
}

func TestNewSeeder_disabled(t *testing.T) {
	if s := NewSeeder(&config.Push{}); s != nil {
		t.Fatal("expected nil")
	}
}

func TestSeeder(t *testing.T) {
	var mu sync.Mutex
	var got []api.PushRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != api.PushPath {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		req := api.PushRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		got = append(got, req)
		mu.Unlock()
		json.NewEncoder(w).Encode(&api.PushResponse{OK: true})
	}))
	defer ts.Close()

	s := NewSeeder(&config.Push{ID: 42, Secret: []byte("secret"), Server: ts.URL})
	if s == nil {
		t.Fatal("expected a seeder")
	}
	c := make(chan *rendered, 10)
	for i := 0; i < 3; i++ {
		c <- testRendered(t, uint32(i+1))
	}
	close(c)
	s.Run(context.Background(), c)

	st := s.Stats()
	if st.ImgsSent != 3 || st.Failures != 0 || st.HTTPReqs == 0 {
		t.Fatalf("%#v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, req := range got {
		if req.ID != 42 || string(req.Secret) != "secret" {
			t.Fatalf("%#v", req)
		}
		for _, item := range req.Items {
			n++
			if item.Sequence != uint32(n) || len(item.Readings) != 64 || item.Readings[9] != 30 {
				t.Fatalf("%#v", item)
			}
			if len(item.PNG) < 8 || string(item.PNG[1:4]) != "PNG" {
				t.Fatal("not a PNG")
			}
			if !item.Timestamp.Equal(time.Unix(1000, 0)) {
				t.Fatal(item.Timestamp)
			}
		}
	}
	if n != 3 {
		t.Fatal(n)
	}
}

func TestSeeder_refused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(&api.PushResponse{Error: "bad secret"})
	}))
	defer ts.Close()
	s := NewSeeder(&config.Push{ID: 1, Secret: []byte("x"), Server: ts.URL})
	c := make(chan *rendered, 1)
	c <- testRendered(t, 1)
	close(c)
	s.Run(context.Background(), c)
	if st := s.Stats(); st.Failures != 1 || st.ImgsSent != 0 || st.HTTPReqs != 1 {
		t.Fatalf("%#v", st)
	}
}
