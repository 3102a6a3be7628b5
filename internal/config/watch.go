// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"context"
	"log"
	"path/filepath"

	fsnotify "gopkg.in/fsnotify.v1"
)

// Watch calls onChange with the reloaded config each time the file at path
// is modified, until ctx is done.
//
// The directory is watched instead of the file since editors usually replace
// the file. An invalid file is logged and ignored. The file is not rewritten.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	clean := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err = <-watcher.Errors:
			return err
		case ev := <-watcher.Events:
			if filepath.Clean(ev.Name) != clean || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c, data, err := read(path)
			if err == nil && len(data) == 0 {
				// Truncated, the content is coming.
				continue
			}
			if err != nil {
				log.Printf("config: ignoring change: %s", err)
				continue
			}
			onChange(c)
		}
	}
}
