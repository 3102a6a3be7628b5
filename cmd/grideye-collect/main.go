// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// grideye-collect receives the frames pushed by grideye and stores them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/go-grideye/internal/config"
	"github.com/maruel/go-grideye/internal/store"
	"github.com/maruel/interrupt"
	"github.com/maruel/serve-dir/loghttp"
)

func mainImpl() error {
	port := flag.Int("port", 8011, "http port to listen on")
	dbPath := flag.String("db", filepath.Join(filepath.Dir(config.Path()), "collect.db"), "sqlite database")
	add := flag.String("add", "", "register a source with this name and exit")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	log.SetFlags(log.Lmicroseconds)
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	interrupt.HandleCtrlC()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0700); err != nil {
		return err
	}
	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *add != "" {
		src, err := db.AddSource(context.Background(), *add)
		if err != nil {
			return err
		}
		// Printed as the "Push" section of grideye.json.
		data, err := json.MarshalIndent(&config.Push{ID: src.ID, Secret: src.Secret, Server: fmt.Sprintf("HOSTNAME:%d", *port)}, "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Add to grideye.json:\n  \"Push\": %s\n", data)
		return nil
	}

	c := &collector{db: db}
	s := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: &loghttp.Handler{Handler: c.mux()}}
	fmt.Printf("Listening on %d\n", *port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-interrupt.Channel:
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ngrideye-collect: %s.\n", err)
		os.Exit(1)
	}
}
