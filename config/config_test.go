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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nvrbackup.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
destination: "gdrive:surveillance"
rclone_args: "--transfers 4"
file_structure: "{camera_name}/{detection_type}.mp4"
spool_dir: /var/spool/nvrbackup
ledger_file: /var/lib/nvrbackup/backups.sqlite
camera_cache_file: /var/lib/nvrbackup/cameras.db
queue_max_bytes: 536870912
retention: 720h
cameras:
  abc123: Front Door
  def456: Driveway
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	expected := &Config{
		Destination:     "gdrive:surveillance",
		RcloneArgs:      "--transfers 4",
		FileStructure:   "{camera_name}/{detection_type}.mp4",
		SpoolDir:        "/var/spool/nvrbackup",
		LedgerFile:      "/var/lib/nvrbackup/backups.sqlite",
		CameraCacheFile: "/var/lib/nvrbackup/cameras.db",
		QueueMaxBytes:   536870912,
		Retention:       Duration(720 * time.Hour),
		Cameras: map[string]string{
			"abc123": "Front Door",
			"def456": "Driveway",
		},
	}
	if diff := deep.Equal(cfg, expected); diff != nil {
		t.Fatal(diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
destination: "gdrive:surveillance"
spool_dir: /var/spool/nvrbackup
ledger_file: /var/lib/nvrbackup/backups.sqlite
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FileStructure != DefaultFileStructure {
		t.Fatalf("wrong default file_structure %q", cfg.FileStructure)
	}
	if cfg.QueueMaxBytes != defaultQueueMaxBytes {
		t.Fatalf("wrong default queue_max_bytes %d", cfg.QueueMaxBytes)
	}
	if cfg.Retention != 0 {
		t.Fatalf("retention should default to disabled, got %v", cfg.Retention)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
destination: "gdrive:surveillance"
spool_dir: /spool
ledger_file: /ledger.sqlite
shrubbery: true
`,
		"missing destination": `
spool_dir: /spool
ledger_file: /ledger.sqlite
`,
		"destination without remote": `
destination: just-a-path
spool_dir: /spool
ledger_file: /ledger.sqlite
`,
		"missing spool dir": `
destination: "gdrive:surveillance"
ledger_file: /ledger.sqlite
`,
		"bad template field": `
destination: "gdrive:surveillance"
spool_dir: /spool
ledger_file: /ledger.sqlite
file_structure: "{event.start}.mp4"
`,
		"bad retention": `
destination: "gdrive:surveillance"
spool_dir: /spool
ledger_file: /ledger.sqlite
retention: soon
`,
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
