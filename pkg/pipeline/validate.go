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
	"fmt"
	"regexp"
	"strings"

	"github.com/buurro/convoy/pkg/logging"
)

// KnownRegistries is the advisory allow-list of registries we trust by
// default. An unknown registry produces a warning, never a rejection; the
// hostname grammar below is what actually blocks unsafe values.
var KnownRegistries = []string{
	"ghcr.io",
	"docker.io",
	"quay.io",
	"gcr.io",
}

// SupportedOSVersions is the closed set of base-OS versions with matching
// CI runner images.
var SupportedOSVersions = []string{"20.04", "22.04", "24.04"}

var (
	// refCharset is an allow-list, not a sanitizer: the ref is later
	// interpolated into a build-system invocation, so anything outside
	// this grammar is rejected outright.
	refCharset       = regexp.MustCompile(`^[A-Za-z0-9.#_/-]+$`)
	imageNameCharset = regexp.MustCompile(`^[a-z0-9._/-]+$`)
	hostnamePattern  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?(:[0-9]+)?$`)
)

const shellMetacharacters = ";|&$`"

// ValidationInput carries the raw pipeline inputs. Empty fields skip their
// checks: the workflow substitutes defaults later, so absence is never an
// error here.
type ValidationInput struct {
	BuildTargetRef string
	Registry       string
	ImageName      string
	Architectures  string
	OSVersion      string
}

// ValidatedRef is a build-system target reference that is known to match
// the allow-listed grammar. The zero value is empty and unusable; the only
// way to obtain a non-empty ValidatedRef is through NewValidatedRef, which
// makes command injection via the ref structurally unrepresentable.
type ValidatedRef struct {
	ref string
}

// NewValidatedRef validates a raw build target reference and wraps it.
func NewValidatedRef(raw string) (ValidatedRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ValidatedRef{}, &ValidationError{Field: "build-target", Reason: "must not be empty"}
	}
	if err := checkBuildTargetRef(raw); err != nil {
		return ValidatedRef{}, err
	}
	return ValidatedRef{ref: raw}, nil
}

// String returns the validated reference text.
func (r ValidatedRef) String() string { return r.ref }

// IsZero reports whether the ref is the unusable zero value.
func (r ValidatedRef) IsZero() bool { return r.ref == "" }

// ValidateInputs applies every field's rules and fails on the first
// violation. Empty (or whitespace-only) fields are skipped. The only side
// effect is diagnostic narration: the advisory registry check warns through
// the logger in ctx.
func ValidateInputs(ctx context.Context, in ValidationInput) error {
	if ref := strings.TrimSpace(in.BuildTargetRef); ref != "" {
		if err := checkBuildTargetRef(ref); err != nil {
			return err
		}
	}

	if registry := strings.TrimSpace(in.Registry); registry != "" {
		if err := checkRegistry(ctx, registry); err != nil {
			return err
		}
	}

	if name := strings.TrimSpace(in.ImageName); name != "" {
		if err := checkImageName(name); err != nil {
			return err
		}
	}

	if archs := strings.TrimSpace(in.Architectures); archs != "" {
		if err := checkArchitectures(archs); err != nil {
			return err
		}
	}

	if version := strings.TrimSpace(in.OSVersion); version != "" {
		if err := checkOSVersion(version); err != nil {
			return err
		}
	}

	return nil
}

func checkBuildTargetRef(ref string) error {
	if strings.ContainsAny(ref, shellMetacharacters) {
		return &ValidationError{Field: "build-target", Reason: "contains shell metacharacters"}
	}
	if !refCharset.MatchString(ref) {
		return &ValidationError{Field: "build-target", Reason: "contains invalid characters"}
	}
	if !strings.HasPrefix(ref, ".#") && !strings.HasPrefix(ref, "/") {
		return &ValidationError{Field: "build-target", Reason: "must start with '.#' or '/'"}
	}
	return nil
}

func checkRegistry(ctx context.Context, registry string) error {
	if !hostnamePattern.MatchString(registry) {
		return &ValidationError{Field: "registry", Reason: "not a valid hostname"}
	}

	for _, known := range KnownRegistries {
		if strings.HasPrefix(registry, known) {
			return nil
		}
	}
	logging.WarnContext(ctx, "Registry %q is not in the known safe list (%s); proceeding anyway",
		registry, strings.Join(KnownRegistries, ", "))
	return nil
}

func checkImageName(name string) error {
	if strings.Contains(name, "..") {
		return &ValidationError{Field: "image-name", Reason: "path traversal is not allowed"}
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return &ValidationError{Field: "image-name", Reason: "must not start or end with '/'"}
	}
	if !imageNameCharset.MatchString(name) {
		return &ValidationError{Field: "image-name", Reason: "contains invalid characters (lowercase letters, digits, '.', '_', '/', '-' only)"}
	}
	return nil
}

func checkArchitectures(raw string) error {
	for _, token := range SplitArchitectures(raw) {
		if !Architecture(token).Known() {
			return &ValidationError{Field: "architectures", Reason: fmt.Sprintf("unknown architecture %q", token)}
		}
	}
	return nil
}

func checkOSVersion(version string) error {
	for _, supported := range SupportedOSVersions {
		if version == supported {
			return nil
		}
	}
	return &ValidationError{
		Field:  "os-version",
		Reason: fmt.Sprintf("unknown version %q (supported: %s)", version, strings.Join(SupportedOSVersions, ", ")),
	}
}
