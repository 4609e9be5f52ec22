// Copyright 2025 CamVault, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package spool feeds the video queue from the hand-off directory.
//
// The watcher drops each event as a pair of files, <base>.mp4 then
// <base>.json; the json file's presence marks the pair complete. Pairs are
// removed only after the queue has accepted them, so nothing is lost across
// a restart.
package spool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/camvault/nvrbackup/nvr"
	"github.com/camvault/nvrbackup/videoqueue"
	"github.com/mailru/easyjson"
	"go.uber.org/zap"
)

const defaultScanInterval = 5 * time.Second

type Scanner struct {
	Dir   string
	Queue *videoqueue.Queue

	// Interval between directory scans. Zero means the default.
	Interval time.Duration
}

// Run scans the spool directory until ctx is cancelled. ReadDir returns
// entries sorted by name, so producers that prefix bases with a timestamp
// get FIFO hand-off.
func (s *Scanner) Run(ctx context.Context) error {
	lgr := zap.S()
	lgr.Infow("starting_spool_scanner", "dir", s.Dir)

	interval := s.Interval
	if interval <= 0 {
		interval = defaultScanInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.scan(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// scan returns an error only when ctx is cancelled mid-enqueue. Broken
// pairs are logged and discarded; they must never stall the intake.
func (s *Scanner) scan(ctx context.Context) error {
	lgr := zap.S()
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		lgr.Errorw("spool_scan_error", "dir", s.Dir, "err", err)
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := s.intake(ctx, strings.TrimSuffix(entry.Name(), ".json")); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) intake(ctx context.Context, base string) error {
	lgr := zap.S()
	jsonPath := filepath.Join(s.Dir, base+".json")
	videoPath := filepath.Join(s.Dir, base+".mp4")

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if !os.IsNotExist(err) {
			lgr.Errorw("spool_read_error", "path", jsonPath, "err", err)
		}
		return nil
	}

	var event nvr.Event
	if err := easyjson.Unmarshal(data, &event); err != nil {
		lgr.Errorw("spool_bad_event", "path", jsonPath, "err", err)
		s.discard(jsonPath, videoPath)
		return nil
	}

	video, err := os.ReadFile(videoPath)
	if err != nil {
		// The json is written last, so a missing video is a broken pair,
		// not one still being written.
		lgr.Errorw("spool_missing_video", "event", event.ID, "path", videoPath, "err", err)
		s.discard(jsonPath)
		return nil
	}

	if err := s.Queue.Put(ctx, videoqueue.Item{Event: event, Video: video}); err != nil {
		return err
	}
	s.discard(jsonPath, videoPath)
	lgr.Debugw("spool_enqueued", "event", event.ID, "bytes", len(video))
	return nil
}

func (s *Scanner) discard(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.S().Errorw("spool_remove_error", "path", path, "err", err)
		}
	}
}
