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

// Package manifests assembles and pushes the combined multi-architecture
// manifest. Precondition, enforced by the CI job-dependency graph (or the
// in-process barrier when running locally): every architecture-suffixed
// image referenced already exists at the registry.
package manifests

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	gcrtypes "github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

// manifestOS is the fixed OS label applied to every manifest entry. Only
// linux artifacts come out of this pipeline.
const manifestOS = "linux"

// Remote is the registry surface the assembler uses. The seam lets tests
// script descriptor resolution and index writes without a registry.
type Remote interface {
	Get(ref name.Reference, options ...remote.Option) (*remote.Descriptor, error)
	WriteIndex(ref name.Reference, idx v1.ImageIndex, options ...remote.Option) error
}

// remoteClient is the production Remote backed by go-containerregistry.
type remoteClient struct{}

func (remoteClient) Get(ref name.Reference, options ...remote.Option) (*remote.Descriptor, error) {
	return remote.Get(ref, options...)
}

func (remoteClient) WriteIndex(ref name.Reference, idx v1.ImageIndex, options ...remote.Option) error {
	return remote.WriteIndex(ref, idx, options...)
}

// Assembler creates, annotates, and pushes multi-architecture manifests.
type Assembler struct {
	remote Remote
	opts   []remote.Option
}

// NewAssembler creates an Assembler. With a username and token it
// authenticates with basic credentials; otherwise it falls back to the
// ambient engine keychain, the same credentials `docker push` would use.
func NewAssembler(username, token string) *Assembler {
	var opts []remote.Option
	if username != "" && token != "" {
		opts = append(opts, remote.WithAuth(authn.FromConfig(authn.AuthConfig{
			Username: username,
			Password: token,
		})))
	} else {
		opts = append(opts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}
	return &Assembler{remote: remoteClient{}, opts: opts}
}

// NewAssemblerWithRemote creates an Assembler around an injected Remote.
func NewAssemblerWithRemote(r Remote) *Assembler {
	return &Assembler{remote: r}
}

// resolvedEntry pairs one architecture's reference with the descriptor the
// registry reports for it.
type resolvedEntry struct {
	arch string
	ref  name.Reference
	desc *remote.Descriptor
}

// resolve fetches the descriptor of every architecture-suffixed reference.
func (a *Assembler) resolve(ctx context.Context, spec pipeline.ManifestSpec) ([]resolvedEntry, error) {
	entries := make([]resolvedEntry, 0, len(spec.Architectures))

	for _, arch := range spec.Architectures {
		refStr := ArchReference(spec.Registry, spec.ImageName, spec.Tag, arch)

		ref, err := name.ParseReference(refStr)
		if err != nil {
			return nil, &pipeline.ManifestError{Reference: refStr, Cause: err}
		}

		desc, err := a.remote.Get(ref, append(a.opts, remote.WithContext(ctx))...)
		if err != nil {
			return nil, &pipeline.ManifestError{Reference: refStr,
				Cause: fmt.Errorf("architecture image not found at the registry: %w", err)}
		}

		logging.DebugContext(ctx, "Resolved %s to %s", refStr, desc.Digest)
		entries = append(entries, resolvedEntry{arch: arch, ref: ref, desc: desc})
	}

	return entries, nil
}

// buildIndex assembles the image index from resolved entries, annotating
// each reference with its architecture and the fixed OS label.
func buildIndex(entries []resolvedEntry) (v1.ImageIndex, error) {
	adds := make([]mutate.IndexAddendum, 0, len(entries))

	for _, entry := range entries {
		img, err := entry.desc.Image()
		if err != nil {
			return nil, &pipeline.ManifestError{Reference: entry.ref.String(), Cause: err}
		}

		adds = append(adds, mutate.IndexAddendum{
			Add: img,
			Descriptor: v1.Descriptor{
				MediaType: entry.desc.MediaType,
				Platform: &v1.Platform{
					OS:           manifestOS,
					Architecture: entry.arch,
				},
			},
		})
	}

	idx := mutate.AppendManifests(empty.Index, adds...)
	return mutate.IndexMediaType(idx, gcrtypes.OCIImageIndex), nil
}

// Assemble creates and pushes the combined manifest under the versioned
// tag, and under latest when the spec asks for it. The two pushes are
// independent: a failed latest push is returned as an error, but the
// versioned manifest it follows stays valid at the registry.
func (a *Assembler) Assemble(ctx context.Context, spec pipeline.ManifestSpec) error {
	if len(spec.Architectures) == 0 {
		return &pipeline.ManifestError{
			Reference: ManifestReference(spec.Registry, spec.ImageName, spec.Tag),
			Cause:     fmt.Errorf("architecture list is empty"),
		}
	}

	entries, err := a.resolve(ctx, spec)
	if err != nil {
		return err
	}

	idx, err := buildIndex(entries)
	if err != nil {
		return err
	}

	versioned := ManifestReference(spec.Registry, spec.ImageName, spec.Tag)
	if err := a.push(ctx, versioned, idx); err != nil {
		return err
	}

	if !spec.TagLatest {
		return nil
	}

	warnPrerelease(ctx, spec.Tag)

	latest := ManifestReference(spec.Registry, spec.ImageName, "latest")
	if err := a.push(ctx, latest, idx); err != nil {
		logging.WarnContext(ctx, "Versioned manifest %s was pushed successfully; only the latest alias failed", versioned)
		return err
	}

	return nil
}

func (a *Assembler) push(ctx context.Context, reference string, idx v1.ImageIndex) error {
	ref, err := name.ParseReference(reference)
	if err != nil {
		return &pipeline.ManifestError{Reference: reference, Cause: err}
	}

	logging.InfoContext(ctx, "Pushing manifest %s", reference)
	if err := a.remote.WriteIndex(ref, idx, append(a.opts, remote.WithContext(ctx))...); err != nil {
		return &pipeline.ManifestError{Reference: reference, Cause: err}
	}

	return nil
}

// warnPrerelease flags latest-tagging a pre-release version. Publishing a
// release candidate as latest is usually a pipeline misconfiguration, but
// the decision stays with the caller.
func warnPrerelease(ctx context.Context, tag string) {
	version, err := semver.NewVersion(tag)
	if err != nil {
		return
	}
	if version.Prerelease() != "" {
		logging.WarnContext(ctx, "Tagging pre-release version %q as latest", tag)
	}
}

// BuildOCIIndex resolves the spec's references and renders the index that
// Assemble would push, as an OCI image index document. Used by dry runs:
// registry reads happen, writes do not.
func (a *Assembler) BuildOCIIndex(ctx context.Context, spec pipeline.ManifestSpec) (*ocispec.Index, error) {
	entries, err := a.resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	index := &ocispec.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: make([]ocispec.Descriptor, 0, len(entries)),
	}

	for _, entry := range entries {
		parsedDigest, err := digest.Parse(entry.desc.Digest.String())
		if err != nil {
			return nil, &pipeline.ManifestError{Reference: entry.ref.String(), Cause: err}
		}

		index.Manifests = append(index.Manifests, ocispec.Descriptor{
			MediaType: string(entry.desc.MediaType),
			Digest:    parsedDigest,
			Size:      entry.desc.Size,
			Platform: &ocispec.Platform{
				OS:           manifestOS,
				Architecture: entry.arch,
			},
		})
	}

	return index, nil
}
