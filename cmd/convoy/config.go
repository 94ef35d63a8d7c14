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
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect convoy configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the materialized configuration as YAML",
	Long: `Print the configuration the pipeline would run with, after applying
environment variables, the config file, and built-in defaults. The
registry token is redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := configFromContext(cmd)

		shown := *cfg
		if shown.Registry.Token != "" {
			shown.Registry.Token = "[redacted]"
		}

		out, err := shown.RenderYAML()
		if err != nil {
			return err
		}
		logging.PrintContext(ctx, out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
