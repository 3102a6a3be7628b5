// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store keeps the frames pushed to the collector in a sqlite
// database.
package store

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maruel/go-grideye/api"
	_ "modernc.org/sqlite"
)

// ErrUnknownSource is returned when the source ID is not registered.
var ErrUnknownSource = errors.New("unknown source")

// ErrBadSecret is returned when the secret doesn't match the source.
var ErrBadSecret = errors.New("incorrect secret")

//go:embed schema.sql
var schemaSQL string

// DB is the collector database.
type DB struct {
	*sql.DB
}

// Source is a registered sensor allowed to push frames.
type Source struct {
	ID      int64
	Created time.Time
	Name    string
	Secret  []byte
	Frames  int64 // Number of frames stored.
}

// Frame is a stored frame.
type Frame struct {
	ID         int64
	SourceID   int64
	Received   time.Time
	RemoteAddr string
	Captured   time.Time
	Sequence   uint32
	Readings   []float64
	PNG        []byte
}

// Open opens or creates the database at path. Use ":memory:" in tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err = db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{db}, nil
}

// AddSource registers a new source with a random secret.
func (d *DB) AddSource(ctx context.Context, name string) (*Source, error) {
	s := &Source{Created: time.Now().UTC(), Name: name, Secret: make([]byte, 24)}
	if _, err := rand.Read(s.Secret); err != nil {
		return nil, err
	}
	res, err := d.ExecContext(ctx, `INSERT INTO sources (created_ns, name, secret) VALUES (?, ?, ?)`,
		s.Created.UnixNano(), s.Name, s.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return s, nil
}

// Sources returns all the sources, most recent first.
func (d *DB) Sources(ctx context.Context) ([]Source, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT s.id, s.created_ns, s.name, s.secret, COUNT(f.id)
		FROM sources s LEFT JOIN frames f ON f.source_id = s.id
		GROUP BY s.id
		ORDER BY s.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Source
	for rows.Next() {
		s := Source{}
		var created int64
		if err := rows.Scan(&s.ID, &created, &s.Name, &s.Secret, &s.Frames); err != nil {
			return nil, err
		}
		s.Created = time.Unix(0, created).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Push stores the items of req after checking its credentials. It returns
// the IDs of the new frames.
func (d *DB) Push(ctx context.Context, req *api.PushRequest, remoteAddr string) ([]int64, error) {
	var secret []byte
	err := d.QueryRowContext(ctx, `SELECT secret FROM sources WHERE id = ?`, req.ID).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSource, req.ID)
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(secret, req.Secret) != 1 {
		return nil, ErrBadSecret
	}
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := time.Now().UTC().UnixNano()
	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		readings, err := json.Marshal(item.Readings)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO frames (source_id, received_ns, remote_addr, captured_ns, sequence, readings, png)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			req.ID, now, remoteAddr, item.Timestamp.UnixNano(), item.Sequence, string(readings), item.PNG)
		if err != nil {
			return nil, fmt.Errorf("failed to insert frame: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, tx.Commit()
}

// Latest returns the up to limit most recent frames of a source, most recent
// first.
func (d *DB) Latest(ctx context.Context, sourceID int64, limit int) ([]Frame, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, source_id, received_ns, remote_addr, captured_ns, sequence, readings, png
		FROM frames WHERE source_id = ?
		ORDER BY id DESC LIMIT ?`, sourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Frame
	for rows.Next() {
		f := Frame{}
		var received, captured int64
		var readings string
		if err := rows.Scan(&f.ID, &f.SourceID, &received, &f.RemoteAddr, &captured, &f.Sequence, &readings, &f.PNG); err != nil {
			return nil, err
		}
		f.Received = time.Unix(0, received).UTC()
		f.Captured = time.Unix(0, captured).UTC()
		if err := json.Unmarshal([]byte(readings), &f.Readings); err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.ID, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
