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
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/buurro/convoy/pkg/artifact"
	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/manifests"
	"github.com/buurro/convoy/pkg/nix"
	"github.com/buurro/convoy/pkg/pipeline"
	"github.com/buurro/convoy/pkg/publish"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole publish pipeline locally",
	Long: `Run every pipeline stage in one process: validate inputs, resolve
the image name, build the matrix, then build, load, tag and push each
architecture concurrently. The manifest is assembled only after every
architecture has been pushed; one failed architecture aborts the run
before any manifest is written.

Every entry builds on this machine, so each pushed image carries the
host architecture regardless of its tag suffix. Treat run as a local
convenience for a single architecture; multi-architecture publishing
needs the per-stage commands on one native runner per architecture.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		plan, err := prepare(ctx, cfg)
		if err != nil {
			return err
		}

		ref, err := pipeline.NewValidatedRef(cfg.Build.Target)
		if err != nil {
			return err
		}

		engine, err := newAuthenticatedEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		builder := nix.NewClient()
		entries := plan.Matrix.Include

		g, ctx := errgroup.WithContext(ctx)
		barrier := pipeline.NewBarrier(len(entries))
		tags := make([]string, len(entries))

		for i, entry := range entries {
			g.Go(func() error {
				meta, err := artifact.BuildAndLoad(ctx, builder, engine, ref)
				if err != nil {
					barrier.Fail(err)
					return err
				}
				err = publish.Publish(ctx, engine, publish.Request{
					Registry:     cfg.Registry.Host,
					ImageName:    plan.ImageName,
					InternalName: meta.NixImageName,
					Tag:          meta.Tag,
					Architecture: entry.Arch,
				})
				if err != nil {
					barrier.Fail(err)
					return err
				}
				tags[i] = meta.Tag
				barrier.Done()
				return nil
			})
		}

		g.Go(func() error {
			if err := barrier.Wait(ctx); err != nil {
				return err
			}
			tag := tags[0]
			for _, t := range tags[1:] {
				if t != tag {
					return fmt.Errorf("architectures produced diverging tags (%s vs %s)", tag, t)
				}
			}
			logging.InfoContext(ctx, "All %d architecture(s) pushed, assembling manifest", len(entries))
			assembler := manifests.NewAssembler(cfg.Registry.Username, cfg.Registry.Token)
			return assembler.Assemble(ctx, pipeline.ManifestSpec{
				Registry:      cfg.Registry.Host,
				ImageName:     plan.ImageName,
				Tag:           tag,
				Architectures: plan.Architectures,
				TagLatest:     cfg.Build.TagLatest,
			})
		})

		return g.Wait()
	},
}
