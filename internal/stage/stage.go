package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// buildSubdir is the out-of-source build directory inside every stage.
const buildSubdir = "forge-build"

// WorkDir returns the per-user workspace root, creating it if needed.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(userCacheDir, "forge")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// Stage is the scratch directory a single package build runs in: fetched
// sources, the generated host-config, and the out-of-source build tree.
type Stage struct {
	Root string

	lock *flock.Flock
}

// New creates (or reuses) the stage for the named build under workDir.
// The name is typically a canonical spec string.
func New(workDir, name string) (*Stage, error) {
	root := filepath.Join(workDir, "stages", sanitize(name))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create stage: %w", err)
	}
	return &Stage{
		Root: root,
		lock: flock.New(filepath.Join(root, ".lock")),
	}, nil
}

// Lock takes an exclusive inter-process lock on the stage so concurrent
// installs of the same spec do not collide. It blocks until the lock is
// acquired and returns the release function.
func (s *Stage) Lock() (unlock func(), err error) {
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock stage %s: %w", s.Root, err)
	}
	return func() { _ = s.lock.Unlock() }, nil
}

// TryLock attempts the stage lock without blocking.
func (s *Stage) TryLock() (locked bool, unlock func(), err error) {
	locked, err = s.lock.TryLock()
	if err != nil {
		return false, nil, fmt.Errorf("lock stage %s: %w", s.Root, err)
	}
	if !locked {
		return false, nil, nil
	}
	return true, func() { _ = s.lock.Unlock() }, nil
}

// SourceDir is where fetched sources are placed.
func (s *Stage) SourceDir() string {
	return filepath.Join(s.Root, "src")
}

// BuildDir creates and returns the out-of-source build directory.
func (s *Stage) BuildDir() (string, error) {
	dir := filepath.Join(s.Root, buildSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create build dir: %w", err)
	}
	return dir, nil
}

// Destroy removes the stage from disk.
func (s *Stage) Destroy() error {
	return os.RemoveAll(s.Root)
}

// sanitize maps a spec string to a directory name. Variant sigils are
// path-safe and kept as-is; anything else unusual becomes an underscore.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '+', r == '~':
			b.WriteRune(r)
		case r == '@':
			b.WriteByte('-')
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
