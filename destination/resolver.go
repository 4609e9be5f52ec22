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

// Package destination derives the remote path a video is backed up to.
package destination

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/camvault/nvrbackup/cameras"
	"github.com/camvault/nvrbackup/nvr"
)

// Destination is an rclone-style "remote:path" string.
type Destination string

// Split separates the remote identifier from the remote-relative path at the
// first colon. ok is false when there is no colon to split on.
func (d Destination) Split() (remote, path string, ok bool) {
	return strings.Cut(string(d), ":")
}

type LookupError struct {
	CameraID string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("resolving name for camera %q: %v", e.CameraID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

var invalidPathChars = regexp.MustCompile(`[^A-Za-z0-9\-_.()/ ]`)

// Resolver turns an event into the destination its video is uploaded to.
// The result is a pure function of (event, template, resolved camera name).
type Resolver struct {
	// Root is the configured remote destination, e.g. "gdrive:surveillance".
	Root     string
	Template *Template
	Cameras  cameras.Resolver
}

func (r *Resolver) Resolve(ctx context.Context, event nvr.Event) (Destination, error) {
	name, err := r.Cameras.CameraName(ctx, event.CameraID)
	if err != nil {
		return "", &LookupError{CameraID: event.CameraID, Err: err}
	}

	values := map[string]string{
		FieldEvent:           event.ID,
		FieldDurationSeconds: strconv.FormatInt(event.DurationSeconds(), 10),
		FieldDetectionType:   detectionType(event),
		FieldCameraName:      name,
	}
	path := invalidPathChars.ReplaceAllLiteralString(r.Template.render(values), "")
	return Destination(r.Root + "/" + path), nil
}

func detectionType(event nvr.Event) string {
	if len(event.SmartDetectTypes) == 0 {
		return event.Type
	}
	return fmt.Sprintf("%s (%s)", event.Type, strings.Join(event.SmartDetectTypes, " "))
}
