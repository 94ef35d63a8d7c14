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

// Package gitrepo derives the hosting repository's org/repo slug from the
// git origin remote. The slug is the image-name resolver's fallback of
// last resort; when the working directory is not a repository the caller
// simply proceeds without a fallback.
package gitrepo

import (
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Slug returns the org/repo slug of the origin remote for the repository
// containing dir.
func Slug(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("no origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}

	slug := SlugFromRemoteURL(urls[0])
	if slug == "" {
		return "", fmt.Errorf("cannot derive org/repo from remote URL %q", urls[0])
	}
	return slug, nil
}

// SlugFromRemoteURL extracts org/repo from a remote URL. Handles the SSH
// (git@host:org/repo.git) and URL (https://host/org/repo.git,
// ssh://git@host/org/repo.git) forms.
func SlugFromRemoteURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if url == "" {
		return ""
	}

	var path string
	switch {
	case strings.Contains(url, "://"):
		// ssh://git@host/org/repo or https://host/org/repo
		parts := strings.SplitN(url, "://", 2)
		rest := parts[1]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			path = rest[idx+1:]
		}
	case strings.Contains(url, ":"):
		// scp-like: git@host:org/repo
		path = url[strings.LastIndexByte(url, ':')+1:]
	default:
		path = url
	}

	path = strings.Trim(path, "/")
	if strings.Count(path, "/") < 1 {
		return ""
	}

	// Keep the trailing org/repo pair; hosts with deeper paths (e.g.
	// GitLab subgroups) collapse to their last two components, matching
	// how the registry namespaces images.
	segments := strings.Split(path, "/")
	return strings.Join(segments[len(segments)-2:], "/")
}
