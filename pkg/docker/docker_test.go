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

package docker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buurro/convoy/pkg/logging"
)

// fakeAPI scripts the engine API surface.
type fakeAPI struct {
	tags       [][2]string
	pushedRefs []string
	pushAuth   string
	pushStream string
	pushErr    error
	inspectErr error
	loadInput  []byte
	loadErr    error
	closed     bool
}

func (f *fakeAPI) ImageTag(_ context.Context, source, target string) error {
	f.tags = append(f.tags, [2]string{source, target})
	return nil
}

func (f *fakeAPI) ImagePush(_ context.Context, image string, options dockerimage.PushOptions) (io.ReadCloser, error) {
	f.pushedRefs = append(f.pushedRefs, image)
	f.pushAuth = options.RegistryAuth
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return io.NopCloser(strings.NewReader(f.pushStream)), nil
}

func (f *fakeAPI) ImageInspect(_ context.Context, _ string) (dockerimage.InspectResponse, error) {
	return dockerimage.InspectResponse{}, f.inspectErr
}

func (f *fakeAPI) ImageLoad(_ context.Context, input io.Reader) (dockerimage.LoadResponse, error) {
	if f.loadErr != nil {
		return dockerimage.LoadResponse{}, f.loadErr
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return dockerimage.LoadResponse{}, err
	}
	f.loadInput = data
	return dockerimage.LoadResponse{Body: io.NopCloser(strings.NewReader(`{"stream":"Loaded image"}`))}, nil
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := logging.New(slog.LevelDebug)
	logger.Console = &bytes.Buffer{}
	return logging.WithLogger(context.Background(), logger)
}

func TestSetAuth(t *testing.T) {
	api := &fakeAPI{pushStream: `{"status":"done"}`}
	engine := NewEngineWithClient(api)

	require.NoError(t, engine.SetAuth("octocat", "s3cret", "ghcr.io"))
	require.NoError(t, engine.Push(testContext(t), "ghcr.io/org/app:1.0"))

	payload, err := base64.URLEncoding.DecodeString(api.pushAuth)
	require.NoError(t, err)

	var auth struct {
		Username      string `json:"username"`
		Password      string `json:"password"`
		ServerAddress string `json:"serveraddress"`
	}
	require.NoError(t, json.Unmarshal(payload, &auth))
	assert.Equal(t, "octocat", auth.Username)
	assert.Equal(t, "s3cret", auth.Password)
	assert.Equal(t, "ghcr.io", auth.ServerAddress)
}

func TestSetAuthEmptyCredentialsClears(t *testing.T) {
	api := &fakeAPI{pushStream: `{}`}
	engine := NewEngineWithClient(api)

	require.NoError(t, engine.SetAuth("user", "token", "ghcr.io"))
	require.NoError(t, engine.SetAuth("", "", "ghcr.io"))
	require.NoError(t, engine.Push(testContext(t), "ghcr.io/org/app:1.0"))

	assert.Empty(t, api.pushAuth)
}

func TestLoadArchive(t *testing.T) {
	t.Run("streams the archive into the engine", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "image.tar.gz")
		require.NoError(t, os.WriteFile(path, []byte("archive-bytes"), 0o644))

		api := &fakeAPI{}
		engine := NewEngineWithClient(api)

		require.NoError(t, engine.LoadArchive(testContext(t), path))
		assert.Equal(t, []byte("archive-bytes"), api.loadInput)
	})

	t.Run("missing archive fails", func(t *testing.T) {
		engine := NewEngineWithClient(&fakeAPI{})
		err := engine.LoadArchive(testContext(t), filepath.Join(t.TempDir(), "missing.tar.gz"))
		assert.ErrorContains(t, err, "failed to open image archive")
	})

	t.Run("engine failure is propagated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "image.tar.gz")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		engine := NewEngineWithClient(&fakeAPI{loadErr: errors.New("daemon unavailable")})
		err := engine.LoadArchive(testContext(t), path)
		assert.ErrorContains(t, err, "daemon unavailable")
	})
}

func TestTag(t *testing.T) {
	api := &fakeAPI{}
	engine := NewEngineWithClient(api)

	require.NoError(t, engine.Tag(testContext(t), "internal:1.0", "ghcr.io/org/app:1.0"))
	require.Len(t, api.tags, 1)
	assert.Equal(t, [2]string{"internal:1.0", "ghcr.io/org/app:1.0"}, api.tags[0])

	assert.Error(t, engine.Tag(testContext(t), "", "target"))
	assert.Error(t, engine.Tag(testContext(t), "source", ""))
}

func TestExists(t *testing.T) {
	tests := []struct {
		name       string
		inspectErr error
		want       bool
		wantErr    bool
	}{
		{name: "present", inspectErr: nil, want: true},
		{name: "absent", inspectErr: errdefs.NotFound(errors.New("no such image")), want: false},
		{name: "engine error", inspectErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngineWithClient(&fakeAPI{inspectErr: tc.inspectErr})

			got, err := engine.Exists(testContext(t), "ghcr.io/org/app:1.0")
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPush(t *testing.T) {
	t.Run("drains the progress stream", func(t *testing.T) {
		api := &fakeAPI{pushStream: `{"status":"Pushing"}` + "\n" + `{"status":"Pushed"}`}
		engine := NewEngineWithClient(api)

		require.NoError(t, engine.Push(testContext(t), "ghcr.io/org/app:1.0"))
		assert.Equal(t, []string{"ghcr.io/org/app:1.0"}, api.pushedRefs)
	})

	t.Run("in-band error fails the push", func(t *testing.T) {
		api := &fakeAPI{pushStream: `{"status":"Pushing"}` + "\n" + `{"error":"denied: permission_denied"}`}
		engine := NewEngineWithClient(api)

		err := engine.Push(testContext(t), "ghcr.io/org/app:1.0")
		assert.ErrorContains(t, err, "denied: permission_denied")
	})

	t.Run("transport error fails the push", func(t *testing.T) {
		engine := NewEngineWithClient(&fakeAPI{pushErr: errors.New("no route to host")})
		err := engine.Push(testContext(t), "ghcr.io/org/app:1.0")
		assert.ErrorContains(t, err, "no route to host")
	})

	t.Run("empty reference is rejected", func(t *testing.T) {
		engine := NewEngineWithClient(&fakeAPI{})
		assert.Error(t, engine.Push(testContext(t), ""))
	})
}

func TestClose(t *testing.T) {
	api := &fakeAPI{}
	engine := NewEngineWithClient(api)
	require.NoError(t, engine.Close())
	assert.True(t, api.closed)
}
