package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ulikunitz/xz"
)

// Download fetches url into dest, retrying transient failures.
func Download(ctx context.Context, url, dest string) error {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return f.Close()
}

// Unpack extracts a source archive into dir. Gzip and xz compressed
// tarballs are supported.
func Unpack(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("unpack %s: %w", archive, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(archive, ".tar.xz"), strings.HasSuffix(archive, ".txz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("unpack %s: %w", archive, err)
		}
		r = xzr
	case strings.HasSuffix(archive, ".tar"):
		r = f
	default:
		return fmt.Errorf("unpack %s: unsupported archive format", archive)
	}

	return untar(tar.NewReader(r), dir)
}

func untar(tr *tar.Reader, dir string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		path, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkSymlink(dir, path, hdr.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, path); err != nil && !os.IsExist(err) {
				return err
			}
		default:
			// Hard links, devices and the like are not expected in
			// source tarballs; skip them.
		}
	}
}

// safeJoin joins name under dir, rejecting entries that would escape it.
func safeJoin(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if !inDir(dir, path) {
		return "", fmt.Errorf("archive entry %q escapes extraction dir", name)
	}
	return path, nil
}

// checkSymlink rejects symlink entries whose target resolves outside the
// extraction dir. With every symlink constrained to the tree, a later
// entry whose path runs through one cannot land outside it either.
func checkSymlink(dir, path, target string) error {
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(path), target)
	}
	if !inDir(dir, filepath.Clean(resolved)) {
		return fmt.Errorf("archive symlink %q escapes extraction dir", target)
	}
	return nil
}

func inDir(dir, path string) bool {
	dir = filepath.Clean(dir)
	return path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator))
}

// SourceRoot returns the effective source tree below dir: when unpacking
// produced a single top-level directory, that directory is the root.
func SourceRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}
