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

// Package purge removes backups older than the configured retention, first
// from the remote and then from the ledger. The uploader itself never
// deletes anything; this is the only component that does.
package purge

import (
	"context"
	"time"

	"github.com/camvault/nvrbackup/ledger"
	"github.com/camvault/nvrbackup/metrics"
	"github.com/camvault/nvrbackup/unixtime"
	"go.uber.org/zap"
)

const sweepEvery = 1 * time.Hour

// Remote deletes one file from remote storage. *rclone.Client implements it.
type Remote interface {
	Deletefile(ctx context.Context, destination string) error
}

type Purger struct {
	Ledger    *ledger.Ledger
	Remote    Remote
	Retention time.Duration
}

// Run sweeps once an hour until ctx is cancelled.
func (p *Purger) Run(ctx context.Context) error {
	lgr := zap.S()
	lgr.Infow("starting_purge", "retention", p.Retention.String())

	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	doneCh := ctx.Done()

	var err error
DONE:
	for {
		select {
		case <-doneCh:
			err = ctx.Err()
			break DONE
		case <-ticker.C:
		}
		p.sweep(ctx)
	}
	return err
}

// sweep is best-effort: a backup whose remote deletion fails keeps its
// ledger rows and is retried on the next sweep.
func (p *Purger) sweep(ctx context.Context) {
	lgr := zap.S()
	cutoff := unixtime.Seconds(time.Now().Add(-p.Retention).Unix())

	expired, err := p.Ledger.ExpiredBefore(ctx, cutoff)
	if err != nil {
		lgr.Errorw("purge_query_error", "err", err)
		return
	}
	if len(expired) == 0 {
		metrics.Purge.LastSweepAt.Set(float64(time.Now().Unix()))
		return
	}
	lgr.Infow("purging_expired_backups", "count", len(expired), "cutoff", cutoff.String())

	for _, backup := range expired {
		if ctx.Err() != nil {
			return
		}
		dest := backup.Remote + ":" + backup.Path
		if err := p.Remote.Deletefile(ctx, dest); err != nil {
			metrics.Purge.DeleteErrors.Inc()
			lgr.Warnw("purge_delete_error", "event", backup.EventID, "destination", dest, "err", err)
			continue
		}
		if err := p.Ledger.Forget(ctx, backup.EventID); err != nil {
			lgr.Errorw("purge_forget_error", "event", backup.EventID, "err", err)
			continue
		}
		metrics.Purge.DeletedFiles.Inc()
		lgr.Debugw("purged_backup", "event", backup.EventID, "destination", dest)
	}
	metrics.Purge.LastSweepAt.Set(float64(time.Now().Unix()))
}
