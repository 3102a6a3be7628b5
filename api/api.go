// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package api defines the JSON messages exchanged between a viewer pushing
// frames and a collector.
package api

import (
	"time"
)

// PushPath is the collector endpoint.
const PushPath = "/api/grideye/v1/push"

// PushRequestItem is one rendered frame.
type PushRequestItem struct {
	Timestamp time.Time
	Sequence  uint32
	Readings  []float64 // Raw readings in °C, row-major.
	PNG       []byte    // Rendered heat map.
}

// PushRequest is sent by the viewer.
type PushRequest struct {
	ID     int64
	Secret []byte
	Items  []PushRequestItem
}

// PushResponse is returned by the collector.
type PushResponse struct {
	OK    bool
	Error string `json:",omitempty"`
}
