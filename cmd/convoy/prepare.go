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
	"context"

	"github.com/spf13/cobra"

	"github.com/buurro/convoy/pkg/config"
	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/pipeline"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [build-target] [registry] [image-name] [architectures] [os-version] [repository]",
	Short: "Validate inputs, resolve the image name, and build the matrix",
	Long: `Run the three setup stages in sequence and emit one combined JSON
object on stdout: the resolved image name, the runner matrix, and the
architecture list. Each positional argument overrides its configured or
environment-provided value; empty or omitted arguments fall back. This
is the single stage a workflow's setup job needs before fanning out
per-architecture builds.`,
	Args: cobra.MaximumNArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := prepareConfig(args, configFromContext(cmd))

		result, err := prepare(ctx, cfg)
		if err != nil {
			return err
		}

		return logging.OutputContext(ctx, result)
	},
}

// prepareConfig overlays the stage's positional arguments onto the
// materialized config, leaving the original untouched.
func prepareConfig(args []string, base *config.Config) *config.Config {
	cfg := *base
	cfg.Build.Target = argOrDefault(args, 0, cfg.Build.Target)
	cfg.Registry.Host = argOrDefault(args, 1, cfg.Registry.Host)
	cfg.Build.ImageName = argOrDefault(args, 2, cfg.Build.ImageName)
	cfg.Build.Architectures = argOrDefault(args, 3, cfg.Build.Architectures)
	cfg.Build.OSVersion = argOrDefault(args, 4, cfg.Build.OSVersion)
	cfg.Build.Repository = argOrDefault(args, 5, cfg.Build.Repository)
	return &cfg
}

// prepare runs validation, image-name resolution, and matrix generation
// against the materialized config.
func prepare(ctx context.Context, cfg *config.Config) (*pipeline.PrepareResult, error) {
	in := pipeline.ValidationInput{
		BuildTargetRef: cfg.Build.Target,
		Registry:       cfg.Registry.Host,
		ImageName:      cfg.Build.ImageName,
		Architectures:  cfg.Build.Architectures,
		OSVersion:      cfg.Build.OSVersion,
	}
	if err := pipeline.ValidateInputs(ctx, in); err != nil {
		return nil, err
	}

	name, err := resolveImageName(ctx, cfg, cfg.Build.ImageName, cfg.Build.Target, cfg.Registry.Host)
	if err != nil {
		return nil, err
	}
	logging.InfoContext(ctx, "Publishing as %s", name)

	matrix, err := pipeline.BuildMatrix(cfg.Build.Architectures, cfg.Build.OSVersion)
	if err != nil {
		return nil, err
	}

	return &pipeline.PrepareResult{
		ImageName:     name,
		Matrix:        matrix.Matrix,
		Architectures: matrix.Architectures,
	}, nil
}
