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

// Package uploader is the terminal consumer of the backup pipeline: it
// drains the video queue and, per item, resolves a destination, streams the
// video through rclone, and records the backup in the ledger.
package uploader

import (
	"context"
	"errors"
	"time"

	"github.com/camvault/nvrbackup/destination"
	"github.com/camvault/nvrbackup/ledger"
	"github.com/camvault/nvrbackup/metrics"
	"github.com/camvault/nvrbackup/nvr"
	"github.com/camvault/nvrbackup/rclone"
	"github.com/camvault/nvrbackup/videoqueue"
	"go.uber.org/zap"
)

// Transferrer streams a video to the remote. *rclone.Client implements it.
type Transferrer interface {
	Rcat(ctx context.Context, destination string, video []byte) error
}

// Recorder persists the outcome of one upload. *ledger.Ledger implements it.
type Recorder interface {
	Record(ctx context.Context, event nvr.Event, dest destination.Destination) error
}

type stage string

const (
	stageResolve  stage = "resolve"
	stageTransfer stage = "transfer"
	stageRecord   stage = "record"
)

// itemResult is the outcome of processing one queued item: success, or a
// failure tagged with the stage that produced it. Failures never escape the
// loop; the item is logged and dropped.
type itemResult struct {
	destination destination.Destination
	stage       stage
	err         error
}

type Uploader struct {
	Queue    *videoqueue.Queue
	Resolver *destination.Resolver
	Transfer Transferrer
	Ledger   Recorder
}

// Run drains the queue until ctx is cancelled. A failed item is abandoned
// with a log line; the loop itself only ever stops with the context.
func (u *Uploader) Run(ctx context.Context) error {
	lgr := zap.S()
	lgr.Info("starting_uploader")
	for {
		item, err := u.Queue.Get(ctx)
		if err != nil {
			lgr.Infow("uploader_stopped", "err", err)
			return err
		}
		metrics.Uploader.QueueFiles.Set(float64(u.Queue.Len()))
		metrics.Uploader.QueueBytes.Set(float64(u.Queue.Bytes()))

		lgr.Infow("uploading_event", "event", item.Event.ID)
		lgr.Debugw("queue_status", "files", u.Queue.Len(), "bytes", u.Queue.Bytes())

		result := u.processOne(ctx, item)
		if result.err != nil {
			metrics.Uploader.UploadErrors.WithLabelValues(string(result.stage)).Inc()
			lgr.Warnw("event_abandoned",
				"event", item.Event.ID,
				"stage", result.stage,
				"kind", errKind(result.err),
				"destination", result.destination,
				"err", result.err)
			continue
		}

		metrics.Uploader.UploadedFiles.Inc()
		metrics.Uploader.UploadedBytes.Add(float64(len(item.Video)))
		metrics.Uploader.LastUploadAt.Set(float64(time.Now().Unix()))
		lgr.Debugw("uploaded_event", "event", item.Event.ID, "destination", result.destination)
	}
}

func (u *Uploader) processOne(ctx context.Context, item videoqueue.Item) itemResult {
	dest, err := u.Resolver.Resolve(ctx, item.Event)
	if err != nil {
		return itemResult{stage: stageResolve, err: err}
	}

	if err := u.Transfer.Rcat(ctx, string(dest), item.Video); err != nil {
		return itemResult{destination: dest, stage: stageTransfer, err: err}
	}

	if err := u.Ledger.Record(ctx, item.Event, dest); err != nil {
		return itemResult{destination: dest, stage: stageRecord, err: err}
	}

	return itemResult{destination: dest}
}

// errKind names the failure for the logs: one of the pipeline's error
// types, or "unexpected" for anything else.
func errKind(err error) string {
	var templateErr *destination.TemplateError
	var lookupErr *destination.LookupError
	var transferErr *rclone.TransferError
	var commitErr *ledger.CommitError
	switch {
	case errors.As(err, &templateErr):
		return "template"
	case errors.As(err, &lookupErr):
		return "lookup"
	case errors.As(err, &transferErr):
		return "transfer"
	case errors.As(err, &commitErr):
		return "ledger"
	default:
		return "unexpected"
	}
}
