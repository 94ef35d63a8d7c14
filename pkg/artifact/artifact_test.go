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

package artifact

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

// fakeBuilder scripts the build system.
type fakeBuilder struct {
	outPath  string
	buildErr error
	tag      string
	tagErr   error
	imgName  string
	nameErr  error
}

func (f *fakeBuilder) Build(_ context.Context, _ pipeline.ValidatedRef) (string, error) {
	return f.outPath, f.buildErr
}

func (f *fakeBuilder) ImageTagAttr(_ context.Context, _ pipeline.ValidatedRef) (string, error) {
	return f.tag, f.tagErr
}

func (f *fakeBuilder) ImageNameAttr(_ context.Context, _ pipeline.ValidatedRef) (string, error) {
	return f.imgName, f.nameErr
}

// fakeLoader records loaded archive paths.
type fakeLoader struct {
	loaded []string
	err    error
}

func (f *fakeLoader) LoadArchive(_ context.Context, path string) error {
	f.loaded = append(f.loaded, path)
	return f.err
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := logging.New(slog.LevelDebug)
	logger.Console = &bytes.Buffer{}
	return logging.WithLogger(context.Background(), logger)
}

func mustRef(t *testing.T) pipeline.ValidatedRef {
	t.Helper()
	ref, err := pipeline.NewValidatedRef(".#containerImage")
	require.NoError(t, err)
	return ref
}

func TestBuildAndLoad(t *testing.T) {
	t.Run("returns tag and internal name", func(t *testing.T) {
		builder := &fakeBuilder{
			outPath: "/nix/store/abc-image.tar.gz",
			tag:     "1.2.3",
			imgName: "ghcr.io/org/app",
		}
		loader := &fakeLoader{}

		meta, err := BuildAndLoad(testContext(t), builder, loader, mustRef(t))
		require.NoError(t, err)

		assert.Equal(t, "1.2.3", meta.Tag)
		assert.Equal(t, "ghcr.io/org/app", meta.NixImageName)
		assert.Equal(t, []string{"/nix/store/abc-image.tar.gz"}, loader.loaded)
	})

	t.Run("build failure", func(t *testing.T) {
		builder := &fakeBuilder{buildErr: errors.New("derivation failed")}

		_, err := BuildAndLoad(testContext(t), builder, &fakeLoader{}, mustRef(t))
		var buildErr *pipeline.BuildError
		require.ErrorAs(t, err, &buildErr)
		assert.ErrorContains(t, err, "derivation failed")
	})

	t.Run("load failure", func(t *testing.T) {
		builder := &fakeBuilder{outPath: "/nix/store/abc", tag: "1.0", imgName: "app"}
		loader := &fakeLoader{err: errors.New("daemon unavailable")}

		_, err := BuildAndLoad(testContext(t), builder, loader, mustRef(t))
		var buildErr *pipeline.BuildError
		assert.ErrorAs(t, err, &buildErr)
	})

	t.Run("empty tag attribute", func(t *testing.T) {
		builder := &fakeBuilder{outPath: "/nix/store/abc", tag: "", imgName: "app"}

		_, err := BuildAndLoad(testContext(t), builder, &fakeLoader{}, mustRef(t))
		var metaErr *pipeline.MetadataError
		require.ErrorAs(t, err, &metaErr)
		assert.Contains(t, err.Error(), "imageTag")
	})

	t.Run("empty name attribute", func(t *testing.T) {
		builder := &fakeBuilder{outPath: "/nix/store/abc", tag: "1.0", imgName: ""}

		_, err := BuildAndLoad(testContext(t), builder, &fakeLoader{}, mustRef(t))
		var metaErr *pipeline.MetadataError
		require.ErrorAs(t, err, &metaErr)
		assert.Contains(t, err.Error(), "imageName")
	})
}
