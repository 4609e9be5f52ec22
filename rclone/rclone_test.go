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

package rclone

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeTool writes a shell script standing in for the rclone binary.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a unix shell")
	}
	path := filepath.Join(t.TempDir(), "rclone")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRcatPipesStdinAndArgs(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "payload")
	argsFile := filepath.Join(dir, "args")
	tool := fakeTool(t, `printf '%s\n' "$@" > `+argsFile+`
cat > `+outFile+`
`)

	c := NewClient("--transfers 4")
	c.Tool = tool
	video := []byte("not really mp4 bytes")
	if err := c.Rcat(context.Background(), "remote:path/with space.mp4", video); err != nil {
		t.Fatal(err)
	}

	payload, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, video) {
		t.Fatalf("payload mismatch: %q", payload)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	expected := "rcat\n-vv\n--transfers\n4\nremote:path/with space.mp4\n"
	if string(args) != expected {
		t.Fatalf("args mismatch:\nexpected=%q\nactual=%q", expected, args)
	}
}

func TestRcatFailurePreservesOutput(t *testing.T) {
	tool := fakeTool(t, `echo "attempting upload"
echo "disk full" >&2
exit 1
`)

	c := &Client{Tool: tool}
	err := c.Rcat(context.Background(), "remote:path.mp4", []byte("data"))

	var transferErr *TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if transferErr.ExitCode != 1 {
		t.Fatalf("wrong exit code %d", transferErr.ExitCode)
	}
	if transferErr.Stderr != "disk full\n" {
		t.Fatalf("stderr not preserved verbatim: %q", transferErr.Stderr)
	}
	if transferErr.Stdout != "attempting upload\n" {
		t.Fatalf("stdout not preserved verbatim: %q", transferErr.Stdout)
	}
}

func TestRcatSpawnFailureIsNotTransferError(t *testing.T) {
	c := &Client{Tool: filepath.Join(t.TempDir(), "does-not-exist")}
	err := c.Rcat(context.Background(), "remote:path.mp4", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var transferErr *TransferError
	if errors.As(err, &transferErr) {
		t.Fatalf("spawn failure misclassified as TransferError: %v", err)
	}
}

func TestDeletefile(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	tool := fakeTool(t, `printf '%s\n' "$@" > `+argsFile+`
`)

	c := &Client{Tool: tool}
	if err := c.Deletefile(context.Background(), "remote:old/video.mp4"); err != nil {
		t.Fatal(err)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	expected := "deletefile\nremote:old/video.mp4\n"
	if string(args) != expected {
		t.Fatalf("args mismatch:\nexpected=%q\nactual=%q", expected, args)
	}
}
