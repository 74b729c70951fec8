package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git fetches package sources with the git executable.
type Git struct {
	git string
}

// GitOption configures Git.
type GitOption func(*Git)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *Git) {
		g.git = path
	}
}

// NewGit creates a new git fetcher.
func NewGit(opts ...GitOption) *Git {
	g := &Git{git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Clone checks out the given branch of remote into dir, pulling submodules
// when asked. An existing checkout in dir is updated instead.
func (g *Git) Clone(ctx context.Context, remote, branch, dir string, submodules bool) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return g.update(ctx, remote, branch, dir, submodules)
	}

	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	if submodules {
		args = append(args, "--recursive", "--shallow-submodules")
	}
	args = append(args, remote, dir)
	if err := g.run(ctx, "", args...); err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}

func (g *Git) update(ctx context.Context, remote, branch, dir string, submodules bool) error {
	ref := branch
	if ref == "" {
		ref = "HEAD"
	}
	if err := g.run(ctx, dir, "fetch", "--depth", "1", remote, ref); err != nil {
		return fmt.Errorf("fetch %s: %w", remote, err)
	}
	if err := g.run(ctx, dir, "checkout", "--force", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	if submodules {
		if err := g.run(ctx, dir, "submodule", "update", "--init", "--recursive", "--depth", "1"); err != nil {
			return fmt.Errorf("update submodules: %w", err)
		}
	}
	return nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}
	return nil
}
