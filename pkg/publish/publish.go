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

// Package publish implements the per-architecture tag-and-push step. Each
// invocation is independent of its siblings: architecture-suffixed tags are
// disjoint registry write targets, so concurrent pushes need no
// coordination.
package publish

import (
	"context"
	"fmt"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

// Engine is the container-engine surface the publish step needs.
type Engine interface {
	Tag(ctx context.Context, source, target string) error
	Exists(ctx context.Context, reference string) (bool, error)
	Push(ctx context.Context, reference string) error
}

// Request carries one architecture's publish inputs.
type Request struct {
	Registry     string
	ImageName    string
	InternalName string
	Tag          string
	Architecture string
}

// targetName is the artifact's registry-qualified name without a tag.
func (r Request) targetName() string {
	return fmt.Sprintf("%s/%s", r.Registry, r.ImageName)
}

// Publish runs the tag-and-push sequence for one architecture:
//
//  1. Retag the artifact under the target name, unless the internal name
//     already matches it. Re-running the step on a correctly tagged
//     artifact is a no-op, never an error.
//  2. Verify the version-tagged target exists locally. Absence means the
//     retag assumption broke, which is fatal.
//  3. Apply the architecture-suffixed tag.
//  4. Push the architecture-suffixed tag.
func Publish(ctx context.Context, engine Engine, req Request) error {
	target := req.targetName()
	versioned := fmt.Sprintf("%s:%s", target, req.Tag)

	if req.InternalName != target {
		source := fmt.Sprintf("%s:%s", req.InternalName, req.Tag)
		logging.InfoContext(ctx, "Retagging %s as %s", source, versioned)
		if err := engine.Tag(ctx, source, versioned); err != nil {
			return &pipeline.PublishError{Step: "retag", Reference: versioned, Cause: err}
		}
	} else {
		logging.DebugContext(ctx, "Image already named %s, skipping retag", target)
	}

	exists, err := engine.Exists(ctx, versioned)
	if err != nil {
		return &pipeline.PublishError{Step: "verify", Reference: versioned, Cause: err}
	}
	if !exists {
		return &pipeline.PublishError{Step: "verify", Reference: versioned,
			Cause: fmt.Errorf("image not found in the local store")}
	}

	archTagged := fmt.Sprintf("%s:%s-%s", target, req.Tag, req.Architecture)
	if err := engine.Tag(ctx, versioned, archTagged); err != nil {
		return &pipeline.PublishError{Step: "tag", Reference: archTagged, Cause: err}
	}

	if err := engine.Push(ctx, archTagged); err != nil {
		return &pipeline.PublishError{Step: "push", Reference: archTagged, Cause: err}
	}

	logging.InfoContext(ctx, "Pushed %s", archTagged)
	return nil
}
