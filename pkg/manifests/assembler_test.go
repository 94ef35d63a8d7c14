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

package manifests

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	gcrtypes "github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

// fakeRemote scripts registry descriptor reads and captures index writes.
type fakeRemote struct {
	descriptors map[string]*remote.Descriptor
	written     []string
	indexes     map[string]v1.ImageIndex
	writeErr    map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		descriptors: make(map[string]*remote.Descriptor),
		indexes:     make(map[string]v1.ImageIndex),
		writeErr:    make(map[string]error),
	}
}

func (f *fakeRemote) Get(ref name.Reference, _ ...remote.Option) (*remote.Descriptor, error) {
	desc, ok := f.descriptors[ref.Name()]
	if !ok {
		return nil, errors.New("MANIFEST_UNKNOWN")
	}
	return desc, nil
}

func (f *fakeRemote) WriteIndex(ref name.Reference, idx v1.ImageIndex, _ ...remote.Option) error {
	if err := f.writeErr[ref.Name()]; err != nil {
		return err
	}
	f.written = append(f.written, ref.Name())
	f.indexes[ref.Name()] = idx
	return nil
}

// addManifest registers a manifest descriptor for refStr. The hex seed keeps
// digests distinct per architecture.
func (f *fakeRemote) addManifest(t *testing.T, refStr, hexSeed string) {
	t.Helper()
	ref, err := name.ParseReference(refStr)
	require.NoError(t, err)

	manifest := []byte(`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json","config":{"mediaType":"application/vnd.oci.image.config.v1+json","size":2,"digest":"sha256:` + strings.Repeat("0", 64) + `"},"layers":[]}`)
	f.descriptors[ref.Name()] = &remote.Descriptor{
		Descriptor: v1.Descriptor{
			MediaType: gcrtypes.OCIManifestSchema1,
			Digest:    v1.Hash{Algorithm: "sha256", Hex: strings.Repeat(hexSeed, 64)},
			Size:      int64(len(manifest)),
		},
		Manifest: manifest,
	}
}

func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	logger := logging.New(slog.LevelDebug)
	logger.Console = &console
	return logging.WithLogger(context.Background(), logger), &console
}

func testSpec(tagLatest bool) pipeline.ManifestSpec {
	return pipeline.ManifestSpec{
		Registry:      "ghcr.io",
		ImageName:     "org/app",
		Tag:           "1.2.3",
		Architectures: []string{"amd64", "arm64"},
		TagLatest:     tagLatest,
	}
}

func TestAssemble(t *testing.T) {
	t.Run("pushes the versioned manifest", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-amd64", "a")
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-arm64", "b")

		ctx, _ := testContext(t)
		assembler := NewAssemblerWithRemote(fake)
		require.NoError(t, assembler.Assemble(ctx, testSpec(false)))

		require.Len(t, fake.written, 1)
		assert.Contains(t, fake.written[0], "ghcr.io/org/app:1.2.3")

		idx := fake.indexes[fake.written[0]]
		mediaType, err := idx.MediaType()
		require.NoError(t, err)
		assert.Equal(t, gcrtypes.OCIImageIndex, mediaType)

		manifest, err := idx.IndexManifest()
		require.NoError(t, err)
		require.Len(t, manifest.Manifests, 2)
		assert.Equal(t, "amd64", manifest.Manifests[0].Platform.Architecture)
		assert.Equal(t, "linux", manifest.Manifests[0].Platform.OS)
		assert.Equal(t, "arm64", manifest.Manifests[1].Platform.Architecture)
	})

	t.Run("tag latest pushes the same index twice", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-amd64", "a")
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-arm64", "b")

		ctx, _ := testContext(t)
		assembler := NewAssemblerWithRemote(fake)
		require.NoError(t, assembler.Assemble(ctx, testSpec(true)))

		require.Len(t, fake.written, 2)
		assert.Contains(t, fake.written[0], ":1.2.3")
		assert.Contains(t, fake.written[1], ":latest")
		assert.Equal(t, fake.indexes[fake.written[0]], fake.indexes[fake.written[1]])
	})

	t.Run("missing architecture image aborts before any push", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-amd64", "a")
		// arm64 never pushed to the registry.

		ctx, _ := testContext(t)
		assembler := NewAssemblerWithRemote(fake)
		err := assembler.Assemble(ctx, testSpec(false))

		var manErr *pipeline.ManifestError
		require.ErrorAs(t, err, &manErr)
		assert.Contains(t, manErr.Reference, "arm64")
		assert.Empty(t, fake.written)
	})

	t.Run("failed latest push keeps the versioned manifest", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-amd64", "a")
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-arm64", "b")

		latestRef, err := name.ParseReference("ghcr.io/org/app:latest")
		require.NoError(t, err)
		fake.writeErr[latestRef.Name()] = errors.New("rate limited")

		ctx, console := testContext(t)
		assembler := NewAssemblerWithRemote(fake)
		err = assembler.Assemble(ctx, testSpec(true))

		require.Error(t, err)
		require.Len(t, fake.written, 1)
		assert.Contains(t, fake.written[0], ":1.2.3")
		assert.Contains(t, console.String(), "pushed successfully")
	})

	t.Run("empty architecture list fails", func(t *testing.T) {
		ctx, _ := testContext(t)
		assembler := NewAssemblerWithRemote(newFakeRemote())

		spec := testSpec(false)
		spec.Architectures = nil
		assert.Error(t, assembler.Assemble(ctx, spec))
	})

	t.Run("latest-tagging a pre-release warns", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addManifest(t, "ghcr.io/org/app:1.2.3-rc.1-amd64", "a")

		ctx, console := testContext(t)
		assembler := NewAssemblerWithRemote(fake)

		spec := testSpec(true)
		spec.Tag = "1.2.3-rc.1"
		spec.Architectures = []string{"amd64"}
		require.NoError(t, assembler.Assemble(ctx, spec))

		assert.Contains(t, console.String(), "pre-release")
	})
}

func TestBuildOCIIndex(t *testing.T) {
	fake := newFakeRemote()
	fake.addManifest(t, "ghcr.io/org/app:1.2.3-amd64", "a")
	fake.addManifest(t, "ghcr.io/org/app:1.2.3-arm64", "b")

	ctx, _ := testContext(t)
	assembler := NewAssemblerWithRemote(fake)

	idx, err := assembler.BuildOCIIndex(ctx, testSpec(false))
	require.NoError(t, err)

	assert.Equal(t, 2, idx.SchemaVersion)
	assert.Equal(t, "application/vnd.oci.image.index.v1+json", idx.MediaType)
	require.Len(t, idx.Manifests, 2)

	assert.Equal(t, "amd64", idx.Manifests[0].Platform.Architecture)
	assert.Equal(t, "linux", idx.Manifests[0].Platform.OS)
	assert.Equal(t, "sha256:"+strings.Repeat("a", 64), idx.Manifests[0].Digest.String())
	assert.Equal(t, "arm64", idx.Manifests[1].Platform.Architecture)

	// Reads only: a dry run must never write to the registry.
	assert.Empty(t, fake.written)
}
