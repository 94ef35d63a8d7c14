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

// RunnerFor maps an architecture to the CI runner class that can execute
// its build, for the given base-OS version. The mapping is deliberately
// narrower than the validated architecture set: only runners that actually
// exist are listed, so an enumerated-but-unmapped architecture fails here
// rather than producing a job no runner will pick up.
func RunnerFor(arch Architecture, osVersion string) (string, bool) {
	switch arch {
	case ArchAMD64:
		return "ubuntu-" + osVersion, true
	case ArchARM64:
		return "ubuntu-" + osVersion + "-arm", true
	default:
		return "", false
	}
}

// BuildMatrix parses a raw architecture list and produces the fan-out
// execution plan: one entry per input token, order-preserving, duplicates
// kept. An empty list or an architecture without a runner mapping is a
// MatrixError.
func BuildMatrix(architectures, osVersion string) (*MatrixResult, error) {
	tokens := SplitArchitectures(architectures)
	if len(tokens) == 0 {
		return nil, &MatrixError{Reason: "architecture list is empty"}
	}

	result := &MatrixResult{
		Matrix:        Matrix{Include: make([]MatrixEntry, 0, len(tokens))},
		Architectures: make([]string, 0, len(tokens)),
	}

	for _, token := range tokens {
		arch := Architecture(token)
		if !arch.Known() {
			return nil, &MatrixError{Architecture: token, Reason: "unknown architecture"}
		}

		runner, ok := RunnerFor(arch, osVersion)
		if !ok {
			return nil, &MatrixError{
				Architecture: token,
				Reason:       fmt.Sprintf("no runner is configured for this architecture (supported: %s, %s)", ArchAMD64, ArchARM64),
			}
		}

		result.Matrix.Include = append(result.Matrix.Include, MatrixEntry{
			Arch:   token,
			Runner: runner,
		})
		result.Architectures = append(result.Architectures, token)
	}

	return result, nil
}
