// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/maruel/go-grideye/api"
	"github.com/maruel/go-grideye/internal/store"
)

type collector struct {
	db *store.DB
}

func (c *collector) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.sourcesHdlr)
	mux.HandleFunc("/sources/", c.latestHdlr)
	mux.HandleFunc(api.PushPath, jsonAPI(c.pushHdlr))
	return mux
}

func returnJSON(w http.ResponseWriter, ret interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ret); err != nil {
		log.Printf("failed to write response: %s", err)
	}
}

func errorJSON(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&api.PushResponse{Error: err.Error()}); err != nil {
		log.Printf("failed to write response: %s", err)
	}
}

func jsonAPI(f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			errorJSON(w, errors.New("only POST is supported"), http.StatusMethodNotAllowed)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			errorJSON(w, errors.New("requires Content-Type: application/json"), http.StatusBadRequest)
			return
		}
		f(w, r)
	}
}

func (c *collector) pushHdlr(w http.ResponseWriter, r *http.Request) {
	req := &api.PushRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errorJSON(w, err, http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		errorJSON(w, errors.New("no item"), http.StatusBadRequest)
		return
	}
	if _, err := c.db.Push(r.Context(), req, r.RemoteAddr); err != nil {
		switch {
		case errors.Is(err, store.ErrUnknownSource):
			errorJSON(w, err, http.StatusNotFound)
		case errors.Is(err, store.ErrBadSecret):
			errorJSON(w, err, http.StatusForbidden)
		default:
			errorJSON(w, err, http.StatusInternalServerError)
		}
		return
	}
	returnJSON(w, &api.PushResponse{OK: true})
}

var sourcesTmpl = template.Must(template.New("sources").Funcs(template.FuncMap{
	"b64": func(b []byte) string { return base64.StdEncoding.EncodeToString(b) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <title>grideye sources</title>
</head>
<body>
  <h1>Sources</h1>
  <ul>
  {{range .}}
    <li>
      <a href="/sources/{{.ID}}/latest.png"><img src="/sources/{{.ID}}/latest.png" width="160"></a>
      #{{.ID}} {{.Name}} - {{.Created}} - {{.Frames}} frames
    </li>
  {{else}}
    <li>No source; add one with -add.</li>
  {{end}}
  </ul>
</body>
</html>
`))

func (c *collector) sourcesHdlr(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if r.Method != "GET" && r.Method != "HEAD" {
		http.Error(w, "Only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	sources, err := c.db.Sources(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := sourcesTmpl.Execute(w, sources); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// latestHdlr serves /sources/<id>/latest.png and /sources/<id>/latest.json.
func (c *collector) latestHdlr(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/sources/"), "/")
	if len(parts) != 2 || (parts[1] != "latest.png" && parts[1] != "latest.json") {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "Invalid source", http.StatusBadRequest)
		return
	}
	frames, err := c.db.Latest(r.Context(), id, 1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(frames) == 0 {
		http.Error(w, "No frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if parts[1] == "latest.png" {
		w.Header().Set("Content-Type", "image/png")
		w.Write(frames[0].PNG)
		return
	}
	f := frames[0]
	f.PNG = nil
	returnJSON(w, &f)
}
