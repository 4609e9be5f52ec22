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

// Package nvr holds the detection event model handed over by the NVR watcher.
package nvr

import (
	"github.com/camvault/nvrbackup/unixtime"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"go.uber.org/zap/zapcore"
)

// Event is one detection occurrence. It is immutable once dequeued; the
// uploader owns it only for the duration of a single iteration.
type Event struct {
	ID               string
	Type             string
	CameraID         string
	Start            unixtime.Seconds
	End              unixtime.Seconds
	SmartDetectTypes []string
}

// DurationSeconds is the event time span, clamped to zero if the watcher
// handed us an end before the start.
func (e Event) DurationSeconds() int64 {
	d := int64(e.End - e.Start)
	if d < 0 {
		return 0
	}
	return d
}

func (e Event) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", e.ID)
	enc.AddString("type", e.Type)
	enc.AddString("camera_id", e.CameraID)
	enc.AddString("start", e.Start.String())
	enc.AddString("end", e.End.String())
	return nil
}

func (e Event) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"id":`)
	w.String(e.ID)
	w.RawString(`,"type":`)
	w.String(e.Type)
	w.RawString(`,"camera_id":`)
	w.String(e.CameraID)
	w.RawString(`,"start":`)
	e.Start.MarshalEasyJSON(w)
	w.RawString(`,"end":`)
	e.End.MarshalEasyJSON(w)
	w.RawString(`,"smart_detect_types":`)
	if e.SmartDetectTypes == nil {
		w.RawString("null")
	} else {
		w.RawByte('[')
		for i, v := range e.SmartDetectTypes {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(v)
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

func (e *Event) UnmarshalEasyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "id":
			e.ID = l.String()
		case "type":
			e.Type = l.String()
		case "camera_id":
			e.CameraID = l.String()
		case "start":
			e.Start.UnmarshalEasyJSON(l)
		case "end":
			e.End.UnmarshalEasyJSON(l)
		case "smart_detect_types":
			if l.IsNull() {
				l.Skip()
				e.SmartDetectTypes = nil
			} else {
				l.Delim('[')
				e.SmartDetectTypes = e.SmartDetectTypes[:0]
				for !l.IsDelim(']') {
					e.SmartDetectTypes = append(e.SmartDetectTypes, l.String())
					l.WantComma()
				}
				l.Delim(']')
			}
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

func (e Event) MarshalJSON() ([]byte, error) {
	var w jwriter.Writer
	e.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (e *Event) UnmarshalJSON(data []byte) error {
	l := jlexer.Lexer{Data: data}
	e.UnmarshalEasyJSON(&l)
	return l.Error()
}
