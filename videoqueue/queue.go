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

// Package videoqueue is the hand-off point between the spool intake and the
// uploader: a FIFO queue bounded by the total size of the buffered videos
// rather than by item count.
package videoqueue

import (
	"context"
	"sync"

	"github.com/camvault/nvrbackup/nvr"
)

// Item is one dequeued unit of work. Video is the complete clip; it is never
// staged to disk by the consumer.
type Item struct {
	Event nvr.Event
	Video []byte
}

type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []Item
	bytes    int64
	maxBytes int64
}

func New(maxBytes int64) *Queue {
	q := &Queue{maxBytes: maxBytes}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Put blocks until the queue has budget for the item or ctx is cancelled.
// An item larger than the whole budget is admitted when the queue is empty,
// otherwise nothing could ever drain it.
func (q *Queue) Put(ctx context.Context, item Item) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.notEmpty.Broadcast()
		q.notFull.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.bytes+int64(len(item.Video)) > q.maxBytes && len(q.items) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.notFull.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	q.items = append(q.items, item)
	q.bytes += int64(len(item.Video))
	q.notEmpty.Signal()
	return nil
}

// Get blocks until an item is available or ctx is cancelled. Items come out
// in the order they went in.
func (q *Queue) Get(ctx context.Context) (Item, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.notEmpty.Broadcast()
		q.notFull.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if err := ctx.Err(); err != nil {
			return Item{}, err
		}
		q.notEmpty.Wait()
	}
	item := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]
	q.bytes -= int64(len(item.Video))
	q.notFull.Broadcast()
	return item, nil
}

// Len is the number of buffered items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Bytes is the total size of the buffered videos.
func (q *Queue) Bytes() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.bytes
}
