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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/buurro/convoy/pkg/logging"
	"github.com/buurro/convoy/pkg/manifests"
	"github.com/buurro/convoy/pkg/pipeline"
)

var manifestDryRun bool

var createManifestCmd = &cobra.Command{
	Use:   "create-manifest <registry> <image-name> <tag> <architectures> [tag-latest]",
	Short: "Assemble and push the multi-architecture manifest list",
	Long: `Resolve every architecture-suffixed image in the registry, assemble
them into one OCI image index, and push it under the version tag. An
empty registry argument falls back to the configured registry host. When
the trailing tag-latest argument is true the same index is pushed again
under latest; a failure there leaves the version-tagged manifest valid.
With --dry-run the index is rendered as JSON on stdout instead of being
pushed.`,
	Args: cobra.RangeArgs(4, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		tagLatest := cfg.Build.TagLatest
		if raw := argOrDefault(args, 4, ""); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("invalid tag-latest value %q: %w", raw, err)
			}
			tagLatest = parsed
		}

		spec := pipeline.ManifestSpec{
			Registry:      argOrDefault(args, 0, cfg.Registry.Host),
			ImageName:     args[1],
			Tag:           args[2],
			Architectures: parseArchitectures(args[3]),
			TagLatest:     tagLatest,
		}
		if len(spec.Architectures) == 0 {
			return &pipeline.ManifestError{Reference: spec.ImageName,
				Cause: &pipeline.ValidationError{Field: "architectures", Reason: "must not be empty"}}
		}

		assembler := manifests.NewAssembler(cfg.Registry.Username, cfg.Registry.Token)

		if manifestDryRun {
			idx, err := assembler.BuildOCIIndex(ctx, spec)
			if err != nil {
				return err
			}
			return logging.OutputContext(ctx, idx)
		}

		return assembler.Assemble(ctx, spec)
	},
}

// parseArchitectures accepts the architecture list either as the JSON array
// the matrix stage emits (passed through by the workflow) or as a plain
// comma/whitespace separated list.
func parseArchitectures(raw string) []string {
	var fromJSON []string
	if err := json.Unmarshal([]byte(raw), &fromJSON); err == nil {
		return fromJSON
	}
	return pipeline.SplitArchitectures(raw)
}

func init() {
	createManifestCmd.Flags().BoolVar(&manifestDryRun, "dry-run", false, "Render the OCI index as JSON instead of pushing it")
}
