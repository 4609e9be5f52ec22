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

package ledger

import (
	"context"

	"github.com/camvault/nvrbackup/unixtime"
	"gorm.io/gorm"
)

// ExpiredBackup is one backup whose event ended before the retention cutoff.
type ExpiredBackup struct {
	EventID string `gorm:"column:event_id"`
	Remote  string `gorm:"column:remote"`
	Path    string `gorm:"column:path"`
}

// ExpiredBefore lists backups of events that ended before cutoff, oldest
// first, for the retention purge.
func (l *Ledger) ExpiredBefore(ctx context.Context, cutoff unixtime.Seconds) ([]ExpiredBackup, error) {
	var out []ExpiredBackup
	err := l.db.WithContext(ctx).
		Table("backups").
		Select("backups.event_id, backups.remote, backups.path").
		Joins("JOIN events ON events.event_id = backups.event_id").
		Where("events.end_epoch < ?", int64(cutoff)).
		Order("events.end_epoch").
		Scan(&out).Error
	return out, err
}

// Forget removes every ledger row for the event, both tables in one
// transaction. Used only by the purge after the remote file is gone.
func (l *Ledger) Forget(ctx context.Context, eventID string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&BackupRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("event_id = ?", eventID).Delete(&EventRecord{}).Error
	})
}
