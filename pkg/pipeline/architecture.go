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

// Package pipeline contains the decision logic of the publish pipeline:
// input validation, image-name resolution, matrix generation, the shared
// result schema, and the fan-out join barrier. External tools (the build
// system, the container engine) are reached through interfaces declared
// here and implemented elsewhere.
package pipeline

import (
	"strings"
	"unicode"
)

// Architecture is a target CPU instruction-set identifier. Membership is
// closed: only the constants below are valid.
type Architecture string

// The closed set of accepted architectures.
const (
	ArchAMD64   Architecture = "amd64"
	ArchARM64   Architecture = "arm64"
	ArchARM     Architecture = "arm"
	Arch386     Architecture = "386"
	ArchPPC64LE Architecture = "ppc64le"
	ArchS390X   Architecture = "s390x"
)

var knownArchitectures = map[Architecture]struct{}{
	ArchAMD64:   {},
	ArchARM64:   {},
	ArchARM:     {},
	Arch386:     {},
	ArchPPC64LE: {},
	ArchS390X:   {},
}

// Known reports whether a is a member of the closed architecture set.
func (a Architecture) Known() bool {
	_, ok := knownArchitectures[a]
	return ok
}

func (a Architecture) String() string { return string(a) }

// SplitArchitectures tokenizes a raw architecture list on commas and
// whitespace. Order and duplicates are preserved; no membership check is
// performed here.
func SplitArchitectures(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
