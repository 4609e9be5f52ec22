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
	"fmt"
	"strings"
)

// The substitution fields a file-structure template may reference. This is a
// closed set; templates naming anything else are rejected at parse time.
const (
	FieldEvent           = "event"
	FieldDurationSeconds = "duration_seconds"
	FieldDetectionType   = "detection_type"
	FieldCameraName      = "camera_name"
)

var templateFields = map[string]struct{}{
	FieldEvent:           {},
	FieldDurationSeconds: {},
	FieldDetectionType:   {},
	FieldCameraName:      {},
}

type TemplateError struct {
	Field  string
	Reason string
}

func (e *TemplateError) Error() string {
	if e.Reason != "" {
		return "file structure template: " + e.Reason
	}
	return fmt.Sprintf("file structure template: unknown field %q", e.Field)
}

type part struct {
	literal string
	field   string
}

// Template is a parsed file-structure format string. Placeholders are
// written {field} with fields from the closed set above.
type Template struct {
	raw   string
	parts []part
}

func ParseTemplate(format string) (*Template, error) {
	t := &Template{raw: format}
	rest := format
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, &TemplateError{Reason: fmt.Sprintf("unmatched %q in %q", "}", format)}
			}
			t.parts = append(t.parts, part{literal: rest})
			break
		}
		if open > 0 {
			if strings.IndexByte(rest[:open], '}') >= 0 {
				return nil, &TemplateError{Reason: fmt.Sprintf("unmatched %q in %q", "}", format)}
			}
			t.parts = append(t.parts, part{literal: rest[:open]})
		}
		rest = rest[open+1:]
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return nil, &TemplateError{Reason: fmt.Sprintf("unmatched %q in %q", "{", format)}
		}
		field := rest[:closing]
		if _, ok := templateFields[field]; !ok {
			return nil, &TemplateError{Field: field}
		}
		t.parts = append(t.parts, part{field: field})
		rest = rest[closing+1:]
	}
	return t, nil
}

func (t *Template) String() string {
	return t.raw
}

func (t *Template) render(values map[string]string) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.field != "" {
			b.WriteString(values[p.field])
		} else {
			b.WriteString(p.literal)
		}
	}
	return b.String()
}
