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

package destination

import (
	"context"
	"errors"
	"testing"

	"github.com/camvault/nvrbackup/cameras"
	"github.com/camvault/nvrbackup/nvr"
)

var testCameras = cameras.Static{
	"cam1": "Front Door",
	"cam2": "Back: Garden & Shed",
}

func mustTemplate(t *testing.T, format string) *Template {
	t.Helper()
	tmpl, err := ParseTemplate(format)
	if err != nil {
		t.Fatal(err)
	}
	return tmpl
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	cases := map[string]struct {
		event    nvr.Event
		template string
		expected Destination
	}{
		"plain motion": {
			event:    nvr.Event{ID: "e1", Type: "motion", CameraID: "cam1"},
			template: "{camera_name}/{detection_type}",
			expected: "remote:root/Front Door/motion",
		},
		"smart detections joined": {
			event: nvr.Event{
				ID:               "e2",
				Type:             "motion",
				CameraID:         "cam1",
				SmartDetectTypes: []string{"person", "vehicle"},
			},
			template: "{detection_type}",
			expected: "remote:root/motion (person vehicle)",
		},
		"duration and event id": {
			event:    nvr.Event{ID: "e3", Type: "ring", CameraID: "cam1", Start: 100, End: 142},
			template: "{camera_name}/{event} - {duration_seconds}s.mp4",
			expected: "remote:root/Front Door/e3 - 42s.mp4",
		},
		"camera name sanitized": {
			event:    nvr.Event{ID: "e4", Type: "motion", CameraID: "cam2"},
			template: "{camera_name}/{detection_type}.mp4",
			expected: "remote:root/Back Garden  Shed/motion.mp4",
		},
	}

	for name, tc := range cases {
		r := &Resolver{
			Root:     "remote:root",
			Template: mustTemplate(t, tc.template),
			Cameras:  testCameras,
		}
		actual, err := r.Resolve(ctx, tc.event)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if actual != tc.expected {
			t.Errorf("%s: expected=%q actual=%q", name, tc.expected, actual)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	ctx := context.Background()
	r := &Resolver{
		Root:     "remote:root",
		Template: mustTemplate(t, "{camera_name}/{event}"),
		Cameras:  testCameras,
	}
	event := nvr.Event{ID: "e1", Type: "motion", CameraID: "cam1"}

	first, err := r.Resolve(ctx, event)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.Resolve(ctx, event)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("resolve not deterministic: %q != %q", again, first)
		}
	}
}

func TestResolveLookupError(t *testing.T) {
	r := &Resolver{
		Root:     "remote:root",
		Template: mustTemplate(t, "{camera_name}"),
		Cameras:  testCameras,
	}
	_, err := r.Resolve(context.Background(), nvr.Event{ID: "e1", CameraID: "ghost"})

	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if lookupErr.CameraID != "ghost" {
		t.Fatalf("wrong camera id %q", lookupErr.CameraID)
	}
	var notFound *cameras.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected wrapped NotFoundError, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"Front Door/motion.mp4":        "Front Door/motion.mp4",
		"a\"b'c`d$e!f:g":               "abcdefg",
		"motion (person vehicle)":      "motion (person vehicle)",
		"päth/wíth/ünïcode":            "pth/wth/ncode",
		"tab\tnewline\nnull\x00":       "tabnewlinenull",
		"ok-_.()/ 0123456789AZaz":      "ok-_.()/ 0123456789AZaz",
		"semi;colon&amp|pipe<redirect": "semicolonamppiperedirect",
	}
	for input, expected := range cases {
		actual := invalidPathChars.ReplaceAllLiteralString(input, "")
		if actual != expected {
			t.Errorf("input=%q expected=%q actual=%q", input, expected, actual)
		}
	}
}
