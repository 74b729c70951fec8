package stage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesStage(t *testing.T) {
	work := t.TempDir()
	s, err := New(work, "ascent@develop+mpi~cuda")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	info, err := os.Stat(s.Root)
	if err != nil || !info.IsDir() {
		t.Fatalf("stage root not created: %v", err)
	}
	if filepath.Dir(s.Root) != filepath.Join(work, "stages") {
		t.Errorf("stage root = %q, want under %s", s.Root, filepath.Join(work, "stages"))
	}
	if base := filepath.Base(s.Root); base != "ascent-develop+mpi~cuda" {
		t.Errorf("stage dir name = %q", base)
	}
}

func TestBuildDir(t *testing.T) {
	s, err := New(t.TempDir(), "ascent")
	if err != nil {
		t.Fatal(err)
	}
	dir, err := s.BuildDir()
	if err != nil {
		t.Fatalf("BuildDir: %v", err)
	}
	if filepath.Base(dir) != "forge-build" {
		t.Errorf("build dir = %q", dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("build dir not created: %v", err)
	}

	// Idempotent.
	again, err := s.BuildDir()
	if err != nil || again != dir {
		t.Errorf("second BuildDir = %q, %v", again, err)
	}
}

func TestSourceDir(t *testing.T) {
	s, err := New(t.TempDir(), "ascent")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(s.SourceDir()) != "src" {
		t.Errorf("SourceDir = %q", s.SourceDir())
	}
}

func TestLockExcludes(t *testing.T) {
	work := t.TempDir()
	s1, err := New(work, "ascent")
	if err != nil {
		t.Fatal(err)
	}
	s2, err := New(work, "ascent")
	if err != nil {
		t.Fatal(err)
	}

	unlock, err := s1.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	locked, _, err := s2.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if locked {
		t.Error("TryLock succeeded while the stage was held")
	}

	unlock()

	locked, unlock2, err := s2.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock after unlock = %v, %v", locked, err)
	}
	unlock2()
}

func TestDestroy(t *testing.T) {
	s, err := New(t.TempDir(), "ascent")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.BuildDir(); err != nil {
		t.Fatal(err)
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := os.Stat(s.Root); !os.IsNotExist(err) {
		t.Errorf("stage still exists after Destroy: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ascent", "ascent"},
		{"ascent@develop", "ascent-develop"},
		{"py-numpy~blas~lapack", "py-numpy~blas~lapack"},
		{"weird name/x", "weird_name_x"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWorkDir(t *testing.T) {
	dir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir: %v", err)
	}
	if dir == "" {
		t.Fatal("WorkDir returned empty path")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("work dir not created: %v", err)
	}
}
