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

// Package artifact implements the build-and-load stage: drive the external
// build system, load the produced image into the local engine, and extract
// the metadata downstream steps need.
package artifact

import (
	"context"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

// Builder materializes an artifact and reports its store path.
type Builder interface {
	Build(ctx context.Context, ref pipeline.ValidatedRef) (string, error)
	ImageNameAttr(ctx context.Context, ref pipeline.ValidatedRef) (string, error)
	ImageTagAttr(ctx context.Context, ref pipeline.ValidatedRef) (string, error)
}

// Loader brings a built archive into the local engine store.
type Loader interface {
	LoadArchive(ctx context.Context, path string) error
}

// BuildAndLoad builds the target, loads the resulting archive into the
// engine, and returns the artifact's tag and internal name. A failed build
// is a BuildError; an empty tag or name after a successful build is a
// MetadataError, because downstream steps cannot construct registry
// references without both.
func BuildAndLoad(ctx context.Context, builder Builder, loader Loader, ref pipeline.ValidatedRef) (*pipeline.ArtifactMetadata, error) {
	outPath, err := builder.Build(ctx, ref)
	if err != nil {
		return nil, &pipeline.BuildError{Target: ref.String(), Cause: err}
	}

	logging.InfoContext(ctx, "Loading %s into the container engine", outPath)
	if err := loader.LoadArchive(ctx, outPath); err != nil {
		return nil, &pipeline.BuildError{Target: ref.String(), Cause: err}
	}

	tag, err := builder.ImageTagAttr(ctx, ref)
	if err != nil {
		return nil, &pipeline.BuildError{Target: ref.String(), Cause: err}
	}
	if tag == "" {
		return nil, &pipeline.MetadataError{Attribute: "imageTag"}
	}

	name, err := builder.ImageNameAttr(ctx, ref)
	if err != nil {
		return nil, &pipeline.BuildError{Target: ref.String(), Cause: err}
	}
	if name == "" {
		return nil, &pipeline.MetadataError{Attribute: "imageName"}
	}

	logging.InfoContext(ctx, "Built %s:%s", name, tag)
	return &pipeline.ArtifactMetadata{Tag: tag, NixImageName: name}, nil
}
