// Package gitutil discovers the current branch and CI repository from a
// local git checkout.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// ErrDetachedHead is returned by CurrentBranch when HEAD is not on a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// Repo runs git in Dir. An empty Dir means the process working directory.
type Repo struct {
	Dir string
}

func (r Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the checked-out branch name.
func (r Repo) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve current branch: %w", err)
	}
	if branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// OriginRepository returns "owner/repo" for the origin remote.
func (r Repo) OriginRepository(ctx context.Context) (string, error) {
	remote, err := r.git(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("resolve origin remote: %w", err)
	}
	slug, err := ParseRemote(remote)
	if err != nil {
		return "", err
	}
	return slug, nil
}

// ParseRemote extracts "owner/repo" from an SSH or HTTPS remote URL.
// Supported forms:
//
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
//	https://github.com/owner/repo
func ParseRemote(remote string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", fmt.Errorf("empty remote URL")
	}

	var path string
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("parse remote %q: %w", remote, err)
		}
		path = u.Path
	} else if at := strings.Index(remote, ":"); at >= 0 {
		// scp-like syntax
		path = remote[at+1:]
	} else {
		return "", fmt.Errorf("unrecognized remote URL %q", remote)
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("remote %q does not name owner/repo", remote)
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}
