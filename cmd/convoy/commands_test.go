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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buurro/convoy/pkg/config"
	"github.com/buurro/convoy/pkg/publish"
)

// execute runs the CLI with args, as a user invocation would.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestArgOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		i        int
		fallback string
		want     string
	}{
		{name: "argument present", args: []string{"a", "b"}, i: 1, fallback: "x", want: "b"},
		{name: "argument missing", args: []string{"a"}, i: 1, fallback: "x", want: "x"},
		{name: "empty argument falls back", args: []string{""}, i: 0, fallback: "x", want: "x"},
		{name: "whitespace argument falls back", args: []string{"  "}, i: 0, fallback: "x", want: "x"},
		{name: "no args", args: nil, i: 0, fallback: "x", want: "x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, argOrDefault(tc.args, tc.i, tc.fallback))
		})
	}
}

func TestValidateInputsCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name: "valid inputs",
			args: []string{"validate-inputs", ".#containerImage", "ghcr.io", "org/app", "amd64,arm64", "24.04"},
		},
		{
			name: "empty inputs are skipped",
			args: []string{"validate-inputs"},
		},
		{
			name:    "injection attempt fails",
			args:    []string{"validate-inputs", ".#image;rm -rf /"},
			wantErr: true,
		},
		{
			name:    "bad architecture fails",
			args:    []string{"validate-inputs", "", "", "", "x86", ""},
			wantErr: true,
		},
		{
			name:    "bad os version fails",
			args:    []string{"validate-inputs", "", "", "", "", "18.04"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := execute(t, tc.args...)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrepareMatrixCommand(t *testing.T) {
	t.Run("explicit arguments", func(t *testing.T) {
		assert.NoError(t, execute(t, "prepare-matrix", "amd64,arm64", "24.04"))
	})

	t.Run("defaults from configuration", func(t *testing.T) {
		assert.NoError(t, execute(t, "prepare-matrix"))
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CONVOY_ARCHITECTURES", "arm64")
		t.Setenv("CONVOY_OS_VERSION", "22.04")
		assert.NoError(t, execute(t, "prepare-matrix"))
	})

	t.Run("unmapped architecture fails", func(t *testing.T) {
		err := execute(t, "prepare-matrix", "s390x", "24.04")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no runner is configured")
	})
}

func TestConfigShowCommand(t *testing.T) {
	assert.NoError(t, execute(t, "config", "show"))
}

func TestVersionCommand(t *testing.T) {
	assert.NoError(t, execute(t, "version"))
}

func TestCreateManifestCommandRejectsEmptyArchitectures(t *testing.T) {
	err := execute(t, "create-manifest", "ghcr.io", "org/app", "1.0.0", " , ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "architectures")
}

func TestCreateManifestCommandRejectsBadTagLatest(t *testing.T) {
	err := execute(t, "create-manifest", "ghcr.io", "org/app", "1.0.0", "amd64", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag-latest")
}

func TestPushRequestArgumentOrder(t *testing.T) {
	cfg := &config.Config{}
	cfg.Registry.Host = "ghcr.io"

	t.Run("registry leads the argument list", func(t *testing.T) {
		req := pushRequest([]string{"quay.io", "org/app", "app:abc123", "1.0.0", "arm64"}, cfg)
		assert.Equal(t, publish.Request{
			Registry:     "quay.io",
			ImageName:    "org/app",
			InternalName: "app:abc123",
			Tag:          "1.0.0",
			Architecture: "arm64",
		}, req)
	})

	t.Run("empty registry falls back to the configured host", func(t *testing.T) {
		req := pushRequest([]string{"", "org/app", "app:abc123", "1.0.0", "amd64"}, cfg)
		assert.Equal(t, "ghcr.io", req.Registry)
	})
}

func TestTagAndPushCommandRequiresFiveArguments(t *testing.T) {
	assert.Error(t, execute(t, "tag-and-push-image", "org/app", "app:abc123", "1.0.0", "amd64"))
}

func TestPrepareCommand(t *testing.T) {
	t.Run("positional overrides", func(t *testing.T) {
		args := []string{".#containerImage", "ghcr.io", "org/app", "amd64,arm64", "24.04", "org/fallback"}
		cfg := prepareConfig(args, &config.Config{})
		assert.Equal(t, ".#containerImage", cfg.Build.Target)
		assert.Equal(t, "ghcr.io", cfg.Registry.Host)
		assert.Equal(t, "org/app", cfg.Build.ImageName)
		assert.Equal(t, "amd64,arm64", cfg.Build.Architectures)
		assert.Equal(t, "24.04", cfg.Build.OSVersion)
		assert.Equal(t, "org/fallback", cfg.Build.Repository)
	})

	t.Run("empty arguments keep configured values", func(t *testing.T) {
		base := &config.Config{}
		base.Build.Target = ".#containerImage"
		base.Registry.Host = "ghcr.io"
		cfg := prepareConfig([]string{"", "", "org/app"}, base)
		assert.Equal(t, ".#containerImage", cfg.Build.Target)
		assert.Equal(t, "ghcr.io", cfg.Registry.Host)
		assert.Equal(t, "org/app", cfg.Build.ImageName)
		assert.Empty(t, base.Build.ImageName)
	})

	t.Run("rejects invalid positional input", func(t *testing.T) {
		err := execute(t, "prepare", ".#image;rm -rf /")
		require.Error(t, err)
	})
}

func TestRunCommandDocumentsHostOnlyBuilds(t *testing.T) {
	assert.Contains(t, runCmd.Long, "host architecture")
}

func TestParseArchitectures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "json array from the matrix stage", raw: `["amd64","arm64"]`, want: []string{"amd64", "arm64"}},
		{name: "comma list", raw: "amd64,arm64", want: []string{"amd64", "arm64"}},
		{name: "single token", raw: "arm64", want: []string{"arm64"}},
		{name: "empty json array", raw: "[]", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseArchitectures(tc.raw)
			if tc.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestUnknownCommandFails(t *testing.T) {
	assert.Error(t, execute(t, "frobnicate"))
}
