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

var validateInputsCmd = &cobra.Command{
	Use:   "validate-inputs [build-target] [registry] [image-name] [architectures] [os-version]",
	Short: "Validate raw pipeline inputs against the allow-lists",
	Long: `Validate the raw workflow inputs before anything interpolates them
into commands or references. Empty arguments are skipped: the workflow
substitutes defaults later, so absence is never an error here. The first
violation fails the command with exit code 1.`,
	Args: cobra.MaximumNArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in := pipeline.ValidationInput{
			BuildTargetRef: argOrDefault(args, 0, ""),
			Registry:       argOrDefault(args, 1, ""),
			ImageName:      argOrDefault(args, 2, ""),
			Architectures:  argOrDefault(args, 3, ""),
			OSVersion:      argOrDefault(args, 4, ""),
		}

		if err := pipeline.ValidateInputs(ctx, in); err != nil {
			return err
		}

		logging.InfoContext(ctx, "All inputs validated")
		return nil
	},
}
