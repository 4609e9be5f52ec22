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
	"errors"
	"path/filepath"
	"testing"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	r := Static{"cam1": "Front Door"}

	name, err := r.CameraName(ctx, "cam1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Front Door" {
		t.Fatalf("wrong name %q", name)
	}

	_, err = r.CameraName(ctx, "cam2")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.CameraID != "cam2" {
		t.Fatalf("wrong camera id %q", notFound.CameraID)
	}
}

func TestCachedResolverSurvivesUpstreamForgetting(t *testing.T) {
	ctx := context.Background()
	upstream := Static{"cam1": "Front Door"}

	cached, err := OpenCached(filepath.Join(t.TempDir(), "cameras.db"), 0644, upstream)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := cached.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	name, err := cached.CameraName(ctx, "cam1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Front Door" {
		t.Fatalf("wrong name %q", name)
	}

	// The NVR forgets the camera; the cache still answers.
	delete(upstream, "cam1")
	name, err = cached.CameraName(ctx, "cam1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Front Door" {
		t.Fatalf("wrong cached name %q", name)
	}

	// Never-seen cameras still fail.
	_, err = cached.CameraName(ctx, "cam2")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
