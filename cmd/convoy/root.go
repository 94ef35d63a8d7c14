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

// Package main implements the convoy CLI, the stage driver of a CI
// pipeline that publishes multi-architecture container images. Each
// subcommand is one pipeline stage: it reads positional inputs (with
// configured defaults), emits at most one structured value on stdout, and
// narrates on stderr.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/buurro/convoy/pkg/config"
	"github.com/buurro/convoy/pkg/logging"
)

// configKeyType is the context key type for the materialized config.
type configKeyType struct{}

var (
	configKey = configKeyType{}

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "convoy",
	Short: "Convoy - multi-architecture container image publish pipeline",
	Long: `Convoy drives the stages of a CI pipeline that publishes a
multi-architecture container image: input validation, image-name
resolution, build matrix preparation, per-architecture build and push,
and multi-arch manifest assembly.

Each stage writes its structured result to stdout and all diagnostics
to stderr, so stage outputs can be consumed directly by the CI
workflow.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is $HOME/.config/convoy/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json, color)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Quiet mode - only show errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose mode - show debug output")

	rootCmd.AddCommand(validateInputsCmd)
	rootCmd.AddCommand(determineImageNameCmd)
	rootCmd.AddCommand(prepareMatrixCmd)
	rootCmd.AddCommand(buildAndLoadCmd)
	rootCmd.AddCommand(tagAndPushCmd)
	rootCmd.AddCommand(createManifestCmd)
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// configFromContext retrieves the config materialized by initConfig.
func configFromContext(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

// initConfig materializes configuration once, with the usual precedence:
// CLI flags > environment variables > config file > defaults. The result
// and a matching logger ride in the command context; stage logic never
// reads ambient process state after this point.
func initConfig(cmd *cobra.Command, _ []string) error {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromPath(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", cfgFile, err)
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	v := viper.New()
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetEnvPrefix("CONVOY")
	v.AutomaticEnv()

	bindPersistentFlags(v, cmd)

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger := logging.NewWithOptions(cfg.Log.Level, cfg.Log.Format, quiet, verbose)

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = logging.WithLogger(ctx, logger)
	cmd.SetContext(ctx)

	return nil
}

// bindPersistentFlags binds the root persistent flags into viper so flag
// values win over environment and file values.
func bindPersistentFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Root().PersistentFlags().VisitAll(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level", "log-format":
			key := "log." + strings.TrimPrefix(f.Name, "log-")
			if f.Changed {
				_ = v.BindPFlag(key, f)
			}
		}
	})
}

// argOrDefault returns the i-th positional argument when present and
// non-empty, the fallback otherwise. Stages accept empty positionals so CI
// workflows can pass inputs through verbatim.
func argOrDefault(args []string, i int, fallback string) string {
	if i < len(args) && strings.TrimSpace(args[i]) != "" {
		return args[i]
	}
	return fallback
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
