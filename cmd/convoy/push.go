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

	"github.com/buurro/convoy/pkg/config"
	"github.com/buurro/convoy/pkg/docker"
	"github.com/buurro/convoy/pkg/publish"
)

var tagAndPushCmd = &cobra.Command{
	Use:   "tag-and-push-image <registry> <image-name> <internal-name> <tag> <architecture>",
	Short: "Tag one architecture's artifact and push it to the registry",
	Long: `Retag the locally loaded artifact under its published name, apply
the architecture-suffixed tag, and push it. An empty registry argument
falls back to the configured registry host. Re-running the command on an
already tagged artifact is a no-op for the retag step, so the stage is
safe to retry.`,
	Args: cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		engine, err := newAuthenticatedEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		return publish.Publish(ctx, engine, pushRequest(args, cfg))
	},
}

// pushRequest maps the stage's positional arguments, registry first, onto a
// publish request. Workflow files pass the arguments in this order.
func pushRequest(args []string, cfg *config.Config) publish.Request {
	return publish.Request{
		Registry:     argOrDefault(args, 0, cfg.Registry.Host),
		ImageName:    args[1],
		InternalName: args[2],
		Tag:          args[3],
		Architecture: args[4],
	}
}

// newAuthenticatedEngine opens a container engine client and, when
// credentials are configured, attaches them for push operations. Without
// credentials the engine's ambient keychain applies.
func newAuthenticatedEngine(cfg *config.Config) (*docker.Engine, error) {
	engine, err := docker.NewEngine()
	if err != nil {
		return nil, err
	}
	if cfg.Registry.Username != "" && cfg.Registry.Token != "" {
		if err := engine.SetAuth(cfg.Registry.Username, cfg.Registry.Token, cfg.Registry.Host); err != nil {
			engine.Close()
			return nil, err
		}
	}
	return engine, nil
}
