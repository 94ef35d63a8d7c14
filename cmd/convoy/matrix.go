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
package main

import (
	"github.com/spf13/cobra"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

var prepareMatrixCmd = &cobra.Command{
	Use:   "prepare-matrix [architectures] [os-version]",
	Short: "Generate the per-architecture build matrix",
	Long: `Map the requested architectures to CI runner classes and emit the
fan-out matrix as JSON on stdout. An architecture with no runner mapping
fails the whole command: a partial matrix would silently publish an
incomplete manifest later.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		architectures := argOrDefault(args, 0, cfg.Build.Architectures)
		osVersion := argOrDefault(args, 1, cfg.Build.OSVersion)

		result, err := pipeline.BuildMatrix(architectures, osVersion)
		if err != nil {
			return err
		}

		logging.InfoContext(ctx, "Matrix covers %d architecture(s)", len(result.Matrix.Include))
		return logging.OutputContext(ctx, result)
	},
}
