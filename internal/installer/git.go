package installer

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// isGitSource reports whether a descriptor's path looks like a git
// remote rather than a registry-relative contents-API path (spec's
// overview calls out "git-fetched source" as one of the installer's
// per-kind strategies).
func isGitSource(path string) bool {
	return strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "git+") ||
		strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "https://github.com/") ||
		strings.HasPrefix(path, "https://gitlab.com/")
}

// installFromGit clones the repository named by rawURL (optionally
// carrying a "@ref" suffix naming a branch or tag) into installDir.
func (inst *Installer) installFromGit(rawURL, installDir string) error {
	url, ref := splitGitRef(strings.TrimPrefix(rawURL, "git+"))

	if err := os.RemoveAll(installDir); err != nil {
		return fmt.Errorf("clear install dir: %w", err)
	}

	opts := &git.CloneOptions{URL: url, Depth: 1, SingleBranch: true}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	}

	if _, err := git.PlainClone(installDir, false, opts); err != nil {
		if ref != "" {
			// ref may name a tag rather than a branch; retry without pinning
			// the reference and let go-git resolve HEAD, then checkout the tag.
			if _, cloneErr := git.PlainClone(installDir, false, &git.CloneOptions{URL: url, Depth: 1}); cloneErr != nil {
				return fmt.Errorf("git clone %s: %w", url, cloneErr)
			}
			return checkoutRef(installDir, ref)
		}
		return fmt.Errorf("git clone %s: %w", url, err)
	}
	return nil
}

func checkoutRef(installDir, ref string) error {
	repo, err := git.PlainOpen(installDir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewTagReferenceName(ref)})
}

// splitGitRef separates a trailing "@ref" from a git URL, taking care
// not to mistake the "@" in an ssh-style "git@host:owner/repo" remote
// for a ref separator.
func splitGitRef(url string) (remote, ref string) {
	if strings.HasPrefix(url, "git@") {
		return url, ""
	}
	idx := strings.LastIndex(url, "@")
	if idx <= 0 {
		return url, ""
	}
	return url[:idx], url[idx+1:]
}
