package probe

import (
	"context"
	"path/filepath"
	"strings"
)

// IsGitCheckout reports whether dir is a git checkout whose origin is url.
// safe.directory is relaxed because the checkout usually belongs to the
// target user rather than root.
func (p *Prober) IsGitCheckout(ctx context.Context, dir, url string) (bool, error) {
	if !p.fs.Exists(filepath.Join(dir, ".git")) {
		return false, nil
	}

	result, err := p.run(ctx, "git", "-c", "safe.directory=*", "-C", dir, "remote", "get-url", "origin")
	if err != nil {
		return false, err
	}
	if !result.Success() {
		// The checkout exists but has no origin remote.
		return false, nil
	}
	return normalizeRemote(result.Stdout) == normalizeRemote(url), nil
}

func normalizeRemote(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	return strings.TrimSuffix(url, ".git")
}
