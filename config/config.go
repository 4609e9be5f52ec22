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

// Package config loads the daemon's yaml config file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/camvault/nvrbackup/destination"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileStructure = "{camera_name}/{detection_type} - {event}.mp4"

	defaultQueueMaxBytes = 1 << 30 // 1 GiB of buffered video
)

// Duration is a yaml scalar in time.ParseDuration syntax, e.g. "720h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	// Destination is the rclone remote root, e.g. "gdrive:surveillance".
	Destination string `yaml:"destination"`

	// RcloneArgs are extra arguments for every rclone invocation, split on
	// whitespace.
	RcloneArgs string `yaml:"rclone_args"`

	// FileStructure is the remote path template; see package destination
	// for the allowed fields.
	FileStructure string `yaml:"file_structure"`

	SpoolDir        string `yaml:"spool_dir"`
	LedgerFile      string `yaml:"ledger_file"`
	CameraCacheFile string `yaml:"camera_cache_file"`

	QueueMaxBytes int64 `yaml:"queue_max_bytes"`

	// Retention of zero disables the purge entirely.
	Retention Duration `yaml:"retention"`

	// Cameras maps camera identifiers to display names.
	Cameras map[string]string `yaml:"cameras"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	if cfg.FileStructure == "" {
		cfg.FileStructure = DefaultFileStructure
	}
	if cfg.QueueMaxBytes <= 0 {
		cfg.QueueMaxBytes = defaultQueueMaxBytes
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if !strings.Contains(c.Destination, ":") {
		return fmt.Errorf("destination %q must name an rclone remote (\"remote:path\")", c.Destination)
	}
	if c.SpoolDir == "" {
		return fmt.Errorf("spool_dir is required")
	}
	if c.LedgerFile == "" {
		return fmt.Errorf("ledger_file is required")
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention must not be negative")
	}
	if _, err := destination.ParseTemplate(c.FileStructure); err != nil {
		return err
	}
	return nil
}
