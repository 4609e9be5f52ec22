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

// Package rclone drives the external rclone binary. Videos are piped to
// "rclone rcat" so they reach the remote without being staged on local disk.
package rclone

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

var Tool = "rclone"

// TransferError reports a nonzero exit from rclone. The captured output and
// exit code are preserved verbatim for operator diagnosis.
type TransferError struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("rclone exited %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

type Client struct {
	// Tool overrides the rclone binary, mainly for tests.
	Tool string

	// ExtraArgs are inserted before the destination on every invocation.
	ExtraArgs []string
}

// NewClient builds a client from the configured extra-arguments string.
// The string is split on whitespace; arguments are always passed as a
// vector, never through a shell, so no quoting is honored or needed.
func NewClient(extraArgs string) *Client {
	return &Client{ExtraArgs: strings.Fields(extraArgs)}
}

func (c *Client) tool() string {
	if c.Tool != "" {
		return c.Tool
	}
	return Tool
}

// Rcat streams video to destination via "rclone rcat". The whole blob is
// written to the process's stdin, which is then closed.
func (c *Client) Rcat(ctx context.Context, destination string, video []byte) error {
	lgr := zap.S()
	args := append([]string{"rcat", "-vv"}, c.ExtraArgs...)
	args = append(args, destination)

	cmd := exec.CommandContext(ctx, c.tool(), args...)
	cmd.Stdin = bytes.NewReader(video)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		lgr.Debugw("rclone_rcat_done",
			"destination", destination,
			"stdout", stdout.String(),
			"stderr", stderr.String())
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &TransferError{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: exitErr.ExitCode(),
		}
	}
	return fmt.Errorf("running %s: %w", c.tool(), err)
}

// Deletefile removes a single remote file, used by the retention purge.
func (c *Client) Deletefile(ctx context.Context, destination string) error {
	lgr := zap.S()
	args := append([]string{"deletefile"}, c.ExtraArgs...)
	args = append(args, destination)

	cmd := exec.CommandContext(ctx, c.tool(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		lgr.Debugw("rclone_deletefile_done", "destination", destination)
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &TransferError{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: exitErr.ExitCode(),
		}
	}
	return fmt.Errorf("running %s: %w", c.tool(), err)
}
