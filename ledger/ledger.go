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

// Package ledger is the durable record of which events were backed up and
// where. One EventRecord and one BackupRecord are committed per uploaded
// video, always as a single transaction.
package ledger

import (
	"context"
	"fmt"

	"github.com/camvault/nvrbackup/destination"
	"github.com/camvault/nvrbackup/nvr"
	"github.com/camvault/nvrbackup/unixtime"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// EventRecord mirrors the event metadata at the time it was backed up.
// There is deliberately no uniqueness constraint: if the watcher redelivers
// an event, a duplicate row is written.
type EventRecord struct {
	EventID    string           `gorm:"column:event_id"`
	Type       string           `gorm:"column:type"`
	CameraID   string           `gorm:"column:camera_id"`
	StartEpoch unixtime.Seconds `gorm:"column:start_epoch"`
	EndEpoch   unixtime.Seconds `gorm:"column:end_epoch"`
}

func (EventRecord) TableName() string {
	return "events"
}

// BackupRecord is where the event's video went.
type BackupRecord struct {
	EventID string `gorm:"column:event_id"`
	Remote  string `gorm:"column:remote"`
	Path    string `gorm:"column:path"`
}

func (BackupRecord) TableName() string {
	return "backups"
}

type CommitError struct {
	EventID string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("recording backup of event %q: %v", e.EventID, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

type Ledger struct {
	db *gorm.DB
}

func Open(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger %q: %w", path, err)
	}
	if err := db.AutoMigrate(&EventRecord{}, &BackupRecord{}); err != nil {
		return nil, fmt.Errorf("migrating ledger %q: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record persists the event and its backup location. Both rows commit
// together or not at all.
func (l *Ledger) Record(ctx context.Context, event nvr.Event, dest destination.Destination) error {
	remote, path, ok := dest.Split()
	if !ok {
		return &CommitError{
			EventID: event.ID,
			Err:     fmt.Errorf("destination %q has no remote prefix", dest),
		}
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eventRow := EventRecord{
			EventID:    event.ID,
			Type:       event.Type,
			CameraID:   event.CameraID,
			StartEpoch: event.Start,
			EndEpoch:   event.End,
		}
		if err := tx.Create(&eventRow).Error; err != nil {
			return err
		}
		backupRow := BackupRecord{
			EventID: event.ID,
			Remote:  remote,
			Path:    path,
		}
		return tx.Create(&backupRow).Error
	})
	if err != nil {
		return &CommitError{EventID: event.ID, Err: err}
	}
	return nil
}

func (l *Ledger) Events(ctx context.Context) ([]EventRecord, error) {
	var out []EventRecord
	err := l.db.WithContext(ctx).Order("start_epoch").Find(&out).Error
	return out, err
}

func (l *Ledger) Backups(ctx context.Context) ([]BackupRecord, error) {
	var out []BackupRecord
	err := l.db.WithContext(ctx).Order("event_id").Find(&out).Error
	return out, err
}
