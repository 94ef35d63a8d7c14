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

// Package docker is the thin client for the local container engine: load,
// tag, inspect, push. Registry-side manifest operations live in
// pkg/manifests instead.
package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	dockerimage "github.com/docker/docker/api/types/image"
	dockerregistry "github.com/docker/docker/api/types/registry"
	dockerclient "github.com/docker/docker/client"

	"github.com/buurro/convoy/pkg/logging"
)

// APIClient is the subset of the engine API the pipeline uses. The
// interface exists so tests can run against a scripted fake instead of a
// live daemon.
type APIClient interface {
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, image string, options dockerimage.PushOptions) (io.ReadCloser, error)
	ImageInspect(ctx context.Context, imageID string) (dockerimage.InspectResponse, error)
	ImageLoad(ctx context.Context, input io.Reader) (dockerimage.LoadResponse, error)
	Close() error
}

// apiClientAdapter wraps the real engine client. The adapter pins down the
// SDK's variadic option methods to the fixed signatures above.
type apiClientAdapter struct {
	*dockerclient.Client
}

func (a *apiClientAdapter) ImageInspect(ctx context.Context, imageID string) (dockerimage.InspectResponse, error) {
	return a.Client.ImageInspect(ctx, imageID)
}

func (a *apiClientAdapter) ImageLoad(ctx context.Context, input io.Reader) (dockerimage.LoadResponse, error) {
	return a.Client.ImageLoad(ctx, input)
}

// Engine is the pipeline's handle on the local container engine.
type Engine struct {
	api APIClient
	// auth is the base64 registry auth payload for pushes; empty means
	// the engine's own credential store decides.
	auth string
}

// NewEngine connects to the engine configured in the environment (socket,
// API version negotiation), matching how the engine CLI itself connects.
func NewEngine() (*Engine, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("error creating engine client: %w", err)
	}
	return &Engine{api: &apiClientAdapter{Client: cli}}, nil
}

// NewEngineWithClient creates an Engine around an injected API client.
func NewEngineWithClient(api APIClient) *Engine {
	return &Engine{api: api}
}

// SetAuth installs registry credentials for subsequent pushes.
func (e *Engine) SetAuth(username, token, server string) error {
	if username == "" || token == "" {
		e.auth = ""
		return nil
	}

	payload, err := json.Marshal(dockerregistry.AuthConfig{
		Username:      username,
		Password:      token,
		ServerAddress: server,
	})
	if err != nil {
		return fmt.Errorf("error encoding registry auth: %w", err)
	}
	e.auth = base64.URLEncoding.EncodeToString(payload)
	return nil
}

// Close releases the underlying client connection.
func (e *Engine) Close() error {
	if e.api == nil {
		return nil
	}
	return e.api.Close()
}

// LoadArchive streams an image archive into the engine's local store.
func (e *Engine) LoadArchive(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image archive: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logging.WarnContext(ctx, "Failed to close image archive: %v", cerr)
		}
	}()

	resp, err := e.api.ImageLoad(ctx, file)
	if err != nil {
		return fmt.Errorf("failed to load image archive: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.WarnContext(ctx, "Failed to close load response: %v", cerr)
		}
	}()

	// Drain the progress stream; the engine finishes the load as it reads.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logging.WarnContext(ctx, "Failed to read load response: %v", err)
	}

	return nil
}

// Tag applies target as an additional name for source.
func (e *Engine) Tag(ctx context.Context, source, target string) error {
	if source == "" || target == "" {
		return fmt.Errorf("source and target must not be empty")
	}

	logging.DebugContext(ctx, "Tagging %s as %s", source, target)
	return e.api.ImageTag(ctx, source, target)
}

// Exists reports whether the reference resolves to an image in the local
// store.
func (e *Engine) Exists(ctx context.Context, reference string) (bool, error) {
	_, err := e.api.ImageInspect(ctx, reference)
	if err == nil {
		return true, nil
	}
	if dockerclient.IsErrNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to inspect %s: %w", reference, err)
}

// Push uploads the reference to its registry, streaming progress to the
// diagnostic channel.
func (e *Engine) Push(ctx context.Context, reference string) error {
	if reference == "" {
		return fmt.Errorf("reference must not be empty")
	}

	logging.InfoContext(ctx, "Pushing %s", reference)
	resp, err := e.api.ImagePush(ctx, reference, dockerimage.PushOptions{
		RegistryAuth: e.auth,
	})
	if err != nil {
		return fmt.Errorf("error pushing %s: %w", reference, err)
	}
	defer func() {
		if cerr := resp.Close(); cerr != nil {
			logging.WarnContext(ctx, "Failed to close push response: %v", cerr)
		}
	}()

	// The push happens as the stream is consumed; errors arrive as JSON
	// messages in-band.
	decoder := json.NewDecoder(resp)
	for {
		var msg struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error reading push response for %s: %w", reference, err)
		}
		if msg.Error != "" {
			return fmt.Errorf("push of %s failed: %s", reference, msg.Error)
		}
		if msg.Status != "" {
			logging.DebugContext(ctx, "push: %s", msg.Status)
		}
	}

	return nil
}
