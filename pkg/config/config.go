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

// Package config materializes the pipeline configuration exactly once, at
// process start. Stage logic receives a Config by value and never reads the
// environment itself, so every default is visible in one place and every
// stage invocation is reproducible from its inputs.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default values for every pipeline input. These mirror the documented
// environment-variable fallbacks of the composite prepare entry point.
const (
	DefaultBuildTarget   = ".#containerImage"
	DefaultRegistry      = "ghcr.io"
	DefaultArchitectures = "amd64,arm64"
	DefaultOSVersion     = "24.04"
)

// Config holds every input the pipeline consumes. All fields are plain
// values; nothing here touches ambient process state after Load returns.
type Config struct {
	Build    BuildConfig    `mapstructure:"build" yaml:"build"`
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// BuildConfig holds the build-and-publish inputs.
type BuildConfig struct {
	// Target is the build-system reference to the image derivation.
	Target string `mapstructure:"target" yaml:"target"`
	// ImageName overrides image-name resolution when non-empty.
	ImageName string `mapstructure:"image_name" yaml:"image_name"`
	// Architectures is the raw comma/whitespace separated list.
	Architectures string `mapstructure:"architectures" yaml:"architectures"`
	// OSVersion selects the runner base OS (e.g. 24.04).
	OSVersion string `mapstructure:"os_version" yaml:"os_version"`
	// Repository is the org/repo fallback for image-name resolution.
	// When empty it is derived from the git origin remote, if any.
	Repository string `mapstructure:"repository" yaml:"repository"`
	// TagLatest also pushes the assembled manifest under :latest.
	TagLatest bool `mapstructure:"tag_latest" yaml:"tag_latest"`
}

// RegistryConfig holds the push target and its credentials.
type RegistryConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	// Username and Token are optional; when unset the ambient container
	// engine keychain is used instead.
	Username string `mapstructure:"username" yaml:"username"`
	Token    string `mapstructure:"token" yaml:"token"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration with the usual precedence: environment variables
// (CONVOY_ prefix) over config file over built-in defaults. A missing config
// file is not an error.
func Load() (*Config, error) {
	v := newViper()

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "convoy"))
	}
	v.AddConfigPath(".")

	_ = v.ReadInConfig()

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file path. Unlike Load, a
// missing or unreadable file is an error here since the path was explicit.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("CONVOY")
	v.AutomaticEnv()
	bindEnvVars(v)

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults states every built-in default in one place.
func setDefaults(v *viper.Viper) {
	v.SetDefault("build.target", DefaultBuildTarget)
	v.SetDefault("build.image_name", "")
	v.SetDefault("build.architectures", DefaultArchitectures)
	v.SetDefault("build.os_version", DefaultOSVersion)
	v.SetDefault("build.repository", "")
	v.SetDefault("build.tag_latest", false)

	v.SetDefault("registry.host", DefaultRegistry)
	v.SetDefault("registry.username", "")
	v.SetDefault("registry.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")
}

// bindEnvVars maps the documented CONVOY_* variables onto config keys whose
// names do not line up with AutomaticEnv's dot-to-underscore translation.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("build.target", "CONVOY_BUILD_TARGET")
	_ = v.BindEnv("build.image_name", "CONVOY_IMAGE_NAME")
	_ = v.BindEnv("build.architectures", "CONVOY_ARCHITECTURES")
	_ = v.BindEnv("build.os_version", "CONVOY_OS_VERSION")
	_ = v.BindEnv("build.repository", "CONVOY_REPOSITORY")
	_ = v.BindEnv("build.tag_latest", "CONVOY_TAG_LATEST")
	_ = v.BindEnv("registry.host", "CONVOY_REGISTRY")
	_ = v.BindEnv("registry.username", "CONVOY_REGISTRY_USER")
	_ = v.BindEnv("registry.token", "CONVOY_REGISTRY_TOKEN")
	_ = v.BindEnv("log.level", "CONVOY_LOG_LEVEL")
	_ = v.BindEnv("log.format", "CONVOY_LOG_FORMAT")
}

// RenderYAML serializes the effective configuration, for `convoy config show`.
func (c *Config) RenderYAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
