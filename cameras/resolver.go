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

// Package cameras resolves camera identifiers to display names.
package cameras

import (
	"context"
	"fmt"
)

// Resolver looks up the display name for a camera. Implementations may
// block on I/O.
type Resolver interface {
	CameraName(ctx context.Context, cameraID string) (string, error)
}

type NotFoundError struct {
	CameraID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("camera %q is not known", e.CameraID)
}

// Static resolves names from a fixed map, typically the camera table in the
// config file.
type Static map[string]string

func (s Static) CameraName(_ context.Context, cameraID string) (string, error) {
	if name, ok := s[cameraID]; ok {
		return name, nil
	}
	return "", &NotFoundError{CameraID: cameraID}
}
