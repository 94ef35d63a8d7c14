/*
Copyright © 2025 The convoy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package nix is the thin client for the external build system. It only
// accepts pipeline.ValidatedRef target references, so nothing that failed
// allow-list validation can ever reach a command line.
package nix

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

// CommandRunner executes a nix command and returns its stdout. The seam
// exists so tests can script build-system behavior without a nix install.
type CommandRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// execRunner runs the real nix binary. Stderr is collected into the error
// so build-system diagnostics survive, while stdout stays machine-clean.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, "nix", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("nix %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("nix %s: %w", args[0], err)
	}

	return stdout.String(), nil
}

// Client drives the nix CLI.
type Client struct {
	runner CommandRunner
}

// NewClient creates a client backed by the real nix binary.
func NewClient() *Client {
	return &Client{runner: execRunner{}}
}

// NewClientWithRunner creates a client with an injected runner, for tests.
func NewClientWithRunner(r CommandRunner) *Client {
	return &Client{runner: r}
}

// Build materializes the artifact for ref and returns its store path.
func (c *Client) Build(ctx context.Context, ref pipeline.ValidatedRef) (string, error) {
	if ref.IsZero() {
		return "", fmt.Errorf("build target ref must not be empty")
	}

	logging.InfoContext(ctx, "Building %s", ref)
	out, err := c.runner.Run(ctx, "build", ref.String(), "--no-link", "--print-out-paths")
	if err != nil {
		return "", err
	}

	// --print-out-paths emits one path per line; a single-output image
	// derivation produces exactly one.
	path := strings.TrimSpace(out)
	if path == "" {
		return "", fmt.Errorf("nix build produced no output path for %s", ref)
	}
	if idx := strings.IndexByte(path, '\n'); idx >= 0 {
		path = path[:idx]
	}

	return path, nil
}

// EvalString evaluates a string attribute of the build target, returning
// the raw text. A missing attribute is an error from nix; callers decide
// whether that is fatal.
func (c *Client) EvalString(ctx context.Context, ref pipeline.ValidatedRef, attr string) (string, error) {
	if ref.IsZero() {
		return "", fmt.Errorf("build target ref must not be empty")
	}

	out, err := c.runner.Run(ctx, "eval", "--raw", ref.String()+"."+attr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ImageNameAttr implements pipeline.ImageNameQuerier.
func (c *Client) ImageNameAttr(ctx context.Context, ref pipeline.ValidatedRef) (string, error) {
	return c.EvalString(ctx, ref, "imageName")
}

// ImageTagAttr returns the version tag the build system assigned to the
// artifact.
func (c *Client) ImageTagAttr(ctx context.Context, ref pipeline.ValidatedRef) (string, error) {
	return c.EvalString(ctx, ref, "imageTag")
}
