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

// The stage result schema. Stages pass these as native values; JSON
// serialization happens exactly once, at the process boundary, so no stage
// ever re-parses another stage's text output.

// MatrixEntry maps one architecture to the runner class that builds it.
type MatrixEntry struct {
	Arch   string `json:"arch"`
	Runner string `json:"runner"`
}

// Matrix is the fan-out execution plan consumed by the CI scheduler. The
// include wrapper matches the scheduler's matrix syntax.
type Matrix struct {
	Include []MatrixEntry `json:"include"`
}

// MatrixResult is the prepare-matrix stage output: the full matrix for
// fan-out scheduling plus the flat architecture list for later steps.
type MatrixResult struct {
	Matrix        Matrix   `json:"matrix"`
	Architectures []string `json:"architectures"`
}

// ArtifactMetadata is the build-and-load stage output. Both fields are
// non-empty on success; the build step enforces this.
type ArtifactMetadata struct {
	// Tag is the version tag the build system assigned to the artifact.
	Tag string `json:"tag"`
	// NixImageName is the artifact's name inside the build system, which
	// may or may not already carry a registry prefix.
	NixImageName string `json:"nix_image_name"`
}

// PrepareResult is the composite prepare stage output: everything the
// downstream per-architecture jobs and the manifest job need.
type PrepareResult struct {
	ImageName     string   `json:"image_name"`
	Matrix        Matrix   `json:"matrix"`
	Architectures []string `json:"architectures"`
}

// ManifestSpec describes one manifest-assembly invocation. Architectures
// keeps the matrix order; TagLatest additionally pushes the same references
// under the latest tag.
type ManifestSpec struct {
	Registry      string
	ImageName     string
	Tag           string
	Architectures []string
	TagLatest     bool
}
