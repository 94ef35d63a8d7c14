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

package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/google/go-containerregistry/pkg/name"
)

// ImageNameQuerier is the build-system seam for image-name resolution. An
// implementation queries the target's imageName attribute; a failed query
// or empty result simply drops resolution through to the fallback.
type ImageNameQuerier interface {
	ImageNameAttr(ctx context.Context, ref ValidatedRef) (string, error)
}

// registryPrefix matches a leading registry-like path component: a host
// with a dot-separated TLD or an explicit port, followed by the rest of
// the image path.
var registryPrefix = regexp.MustCompile(`^([A-Za-z0-9-]+(?:\.[A-Za-z0-9.-]+|:[0-9]+))/(.+)$`)

// ResolveImageName computes the final unqualified image name. Precedence,
// first match wins:
//
//  1. A non-empty override is used verbatim.
//  2. The build system's imageName attribute, with any leading
//     registry-like prefix stripped. A prefix differing from the
//     configured registry is warned about; the configured registry always
//     wins for the push target.
//  3. The repository fallback.
//
// The result never contains a registry prefix and is never empty; if all
// three sources are empty the resolver fails with a ResolutionError.
func ResolveImageName(ctx context.Context, querier ImageNameQuerier, override string, ref ValidatedRef, registry, repoFallback string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		logging.DebugContext(ctx, "Using provided image name %q", override)
		return override, nil
	}

	if querier != nil && !ref.IsZero() {
		attr, err := querier.ImageNameAttr(ctx, ref)
		if err != nil {
			logging.DebugContext(ctx, "Build system query for imageName failed: %v", err)
		} else if attr = strings.TrimSpace(attr); attr != "" {
			return stripRegistryPrefix(ctx, attr, registry), nil
		}
	}

	if repoFallback = strings.TrimSpace(repoFallback); repoFallback != "" {
		logging.DebugContext(ctx, "Falling back to repository name %q", repoFallback)
		return repoFallback, nil
	}

	return "", &ResolutionError{Reason: "no image name provided, none set by the build target, and no repository fallback"}
}

// stripRegistryPrefix removes a leading registry-like component from an
// image name reported by the build system. The detected prefix is only
// informational: the push target always uses the configured registry.
func stripRegistryPrefix(ctx context.Context, imageName, registry string) string {
	m := registryPrefix.FindStringSubmatch(imageName)
	if m == nil {
		return imageName
	}

	detected, rest := m[1], m[2]
	if detected != registry {
		logging.WarnContext(ctx, "Build target names registry %q but the pipeline pushes to %q; using %q",
			detected, registry, registry)
	}

	// Sanity check only. The stripped name should parse as a repository
	// under the configured registry; if it does not, keep it anyway and
	// let the publish step surface the real error.
	if _, err := name.NewRepository(registry + "/" + rest); err != nil {
		logging.WarnContext(ctx, "Resolved image name %q does not parse cleanly: %v", rest, err)
	}

	return rest
}
