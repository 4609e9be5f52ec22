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

package cameras

import (
	"context"
	"encoding/binary"
	"os"
	"time"

	"github.com/camvault/nvrbackup/metrics"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Names are kept in two time-based generations. A name read from the
// previous generation is promoted into the current one, so names in active
// use never expire while names of long-gone cameras eventually do.
const defaultBucketPeriod = 1 << 21 // ~24 days

// CachedResolver writes every name resolved by the upstream through a bbolt
// cache. The NVR forgets cameras that are unplugged or replaced; events for
// them can still be queued, so the cache answers for cameras the upstream
// no longer knows.
type CachedResolver struct {
	upstream     Resolver
	db           *bbolt.DB
	bucketPeriod int64
}

func OpenCached(path string, mode os.FileMode, upstream Resolver) (*CachedResolver, error) {
	db, err := bbolt.Open(path, mode, nil)
	if err != nil {
		return nil, err
	}
	return &CachedResolver{
		upstream:     upstream,
		db:           db,
		bucketPeriod: defaultBucketPeriod,
	}, nil
}

func (c *CachedResolver) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

func (c *CachedResolver) CameraName(ctx context.Context, cameraID string) (string, error) {
	if name, ok := c.get([]byte(cameraID)); ok {
		metrics.CameraCache.Hits.Inc()
		return name, nil
	}
	metrics.CameraCache.Misses.Inc()

	name, err := c.upstream.CameraName(ctx, cameraID)
	if err != nil {
		return "", err
	}
	if putErr := c.put([]byte(cameraID), []byte(name)); putErr != nil {
		zap.S().Warnw("camera_cache_put_error", "camera_id", cameraID, "err", putErr)
	}
	return name, nil
}

func (c *CachedResolver) get(key []byte) (string, bool) {
	var name string
	var promote bool
	viewErr := c.db.View(func(tx *bbolt.Tx) error {
		current, previous := c.currentAndPreviousGenerations()
		if b := tx.Bucket(current); b != nil {
			if value := b.Get(key); value != nil {
				name = string(value)
				return nil
			}
		}
		if b := tx.Bucket(previous); b != nil {
			if value := b.Get(key); value != nil {
				name = string(value)
				promote = true
				return nil
			}
		}
		return bbolt.ErrBucketNotFound
	})
	if viewErr != nil {
		return "", false
	}
	if promote {
		if err := c.put(key, []byte(name)); err != nil {
			zap.S().Warnw("camera_cache_promote_error", "err", err)
		}
	}
	return name, true
}

func (c *CachedResolver) put(key, value []byte) error {
	metrics.CameraCache.Puts.Inc()
	lgr := zap.S()
	return c.db.Update(func(tx *bbolt.Tx) error {
		current, previous := c.currentAndPreviousGenerations()
		bucket := tx.Bucket(current)
		if bucket == nil {
			// New generation: drop everything older than the previous one.
			var stale [][]byte
			iterErr := tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
				if string(name) == string(current) || string(name) == string(previous) {
					return nil
				}
				stale = append(stale, name)
				return nil
			})
			if iterErr != nil {
				return iterErr
			}
			for _, name := range stale {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
				lgr.Debugw("camera_cache_generation_removed", "generation", name)
			}

			created, err := tx.CreateBucket(current)
			if err != nil {
				return err
			}
			lgr.Debugw("camera_cache_generation_created", "generation", current)
			bucket = created
		}
		return bucket.Put(key, value)
	})
}

func (c *CachedResolver) currentAndPreviousGenerations() ([]byte, []byte) {
	now := time.Now().Unix()
	currentTs := (now / c.bucketPeriod) * c.bucketPeriod
	previousTs := currentTs - c.bucketPeriod

	current := make([]byte, 8)
	binary.BigEndian.PutUint64(current, uint64(currentTs))

	previous := make([]byte, 8)
	binary.BigEndian.PutUint64(previous, uint64(previousTs))
	return current, previous
}
