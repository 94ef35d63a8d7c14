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

import "fmt"

// ValidationError reports a rejected input, naming the offending field.
// All errors in this package are terminal for the current run; the pipeline
// never retries or recovers locally.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResolutionError reports that no image name could be determined: the
// override was absent, the build-system query failed or was empty, and the
// repository fallback was empty too.
type ResolutionError struct {
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot determine image name: %s", e.Reason)
}

// MatrixError reports an empty or unmappable architecture set.
type MatrixError struct {
	Architecture string
	Reason       string
}

func (e *MatrixError) Error() string {
	if e.Architecture != "" {
		return fmt.Sprintf("cannot build matrix for %q: %s", e.Architecture, e.Reason)
	}
	return fmt.Sprintf("cannot build matrix: %s", e.Reason)
}

// BuildError reports an artifact build failure.
type BuildError struct {
	Target string
	Cause  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build of %s failed: %v", e.Target, e.Cause)
}

func (e *BuildError) Unwrap() error { return e.Cause }

// MetadataError reports that a queried artifact attribute came back empty
// after a successful build. Downstream steps need both the tag and the
// internal name to construct registry references, so an empty value is
// never tolerated.
type MetadataError struct {
	Attribute string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("build succeeded but attribute %q is empty", e.Attribute)
}

// PublishError reports a retag, verify, or push failure for one
// architecture's artifact.
type PublishError struct {
	Step      string
	Reference string
	Cause     error
}

func (e *PublishError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("publish failed at %s for %s: %v", e.Step, e.Reference, e.Cause)
	}
	return fmt.Sprintf("publish failed at %s for %s", e.Step, e.Reference)
}

func (e *PublishError) Unwrap() error { return e.Cause }

// ManifestError reports a manifest create, annotate, or push failure.
type ManifestError struct {
	Reference string
	Cause     error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest operation failed for %s: %v", e.Reference, e.Cause)
}

func (e *ManifestError) Unwrap() error { return e.Cause }
