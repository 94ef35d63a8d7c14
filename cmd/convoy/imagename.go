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
	"github.com/buurro/convoy/pkg/gitrepo"
	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/nix"
	"github.com/buurro/convoy/pkg/pipeline"
)

var determineImageNameCmd = &cobra.Command{
	Use:   "determine-image-name [image-name] [build-target] [registry] [repository]",
	Short: "Resolve the image name the pipeline will publish under",
	Long: `Resolve the published image name with the usual precedence: an
explicit override wins, then the name the build target declares for
itself (with any registry prefix stripped), then the repository slug.
The resolved name is written to stdout as a single line.`,
	Args: cobra.MaximumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		override := argOrDefault(args, 0, cfg.Build.ImageName)
		target := argOrDefault(args, 1, cfg.Build.Target)
		registry := argOrDefault(args, 2, cfg.Registry.Host)
		if repo := argOrDefault(args, 3, ""); repo != "" {
			cfg.Build.Repository = repo
		}

		name, err := resolveImageName(ctx, cfg, override, target, registry)
		if err != nil {
			return err
		}

		logging.PrintContext(ctx, name)
		return nil
	},
}

// resolveImageName wraps pipeline.ResolveImageName with the CLI-level
// pieces: the nix querier, ref validation, and the repository fallback.
func resolveImageName(ctx context.Context, cfg *config.Config, override, target, registry string) (string, error) {
	var ref pipeline.ValidatedRef
	if override == "" {
		var err error
		ref, err = pipeline.NewValidatedRef(target)
		if err != nil {
			return "", err
		}
	}
	return pipeline.ResolveImageName(ctx, nix.NewClient(), override, ref, registry, repositorySlug(ctx, cfg))
}

// repositorySlug returns the configured org/repo fallback, deriving it from
// the git origin remote when unset. Resolution failures are not fatal: an
// empty fallback just removes the last rung of the precedence ladder.
func repositorySlug(ctx context.Context, cfg *config.Config) string {
	if cfg.Build.Repository != "" {
		return cfg.Build.Repository
	}
	slug, err := gitrepo.Slug(".")
	if err != nil {
		logging.DebugContext(ctx, "No repository fallback available: %v", err)
		return ""
	}
	return slug
}
