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

	"github.com/buurro/convoy/pkg/artifact"
	"github.com/buurro/convoy/pkg/docker"
	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/nix"
	"github.com/buurro/convoy/pkg/pipeline"
)

var buildAndLoadCmd = &cobra.Command{
	Use:   "build-and-load-image [build-target]",
	Short: "Build the image artifact and load it into the local engine",
	Long: `Build the container image from the build-system target, load the
resulting archive into the local container engine, and emit the
artifact metadata (version tag and internal image name) as JSON on
stdout. The target reference is re-validated before anything executes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		ref, err := pipeline.NewValidatedRef(argOrDefault(args, 0, cfg.Build.Target))
		if err != nil {
			return err
		}

		engine, err := docker.NewEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		meta, err := artifact.BuildAndLoad(ctx, nix.NewClient(), engine, ref)
		if err != nil {
			return err
		}

		return logging.OutputContext(ctx, meta)
	},
}
