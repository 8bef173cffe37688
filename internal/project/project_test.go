package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firefly-engineering/flatplay/internal/system"
)

func TestNew_ResolvesSymlinks(t *testing.T) {
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	realDir := filepath.Join(tmpDir, "realDir")
	if err := os.Mkdir(realDir, 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(realDir, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	viaLink, err := New(link)
	if err != nil {
		t.Fatalf("New(link) error: %v", err)
	}
	direct, err := New(realDir)
	if err != nil {
		t.Fatalf("New(realDir) error: %v", err)
	}

	if viaLink.Root != realDir {
		t.Errorf("Root = %q, want %q", viaLink.Root, realDir)
	}
	if viaLink.Hash() != direct.Hash() {
		t.Error("Hash should not depend on how the project was reached")
	}
}

func TestNew_MissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("New should fail for a missing directory")
	}
}

func TestHashPath(t *testing.T) {
	h := HashPath("/home/user/app")
	if len(h) != 16 {
		t.Errorf("len(HashPath()) = %d, want 16", len(h))
	}
	if h != HashPath("/home/user/app") {
		t.Error("HashPath should be deterministic")
	}
	if h == HashPath("/home/user/other") {
		t.Error("different paths should hash differently")
	}
}

func TestRel(t *testing.T) {
	p := &Project{Root: "/proj"}

	tests := []struct {
		path string
		want string
	}{
		{"/proj/build-aux/app.json", "build-aux/app.json"},
		{"/proj", "."},
		{"/elsewhere/app.json", "/elsewhere/app.json"},
	}
	for _, tt := range tests {
		if got := p.Rel(tt.path); got != tt.want {
			t.Errorf("Rel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBuildDirs_Layout(t *testing.T) {
	p := &Project{Root: "/proj"}
	dirs := p.BuildDirs(".flatplay", "/proj/build-aux/org.example.App.json")

	if !strings.HasPrefix(dirs.Root, "/proj/.flatplay/org.example.App-") {
		t.Errorf("Root = %q, want stem-prefixed key under .flatplay", dirs.Root)
	}
	if len(filepath.Base(dirs.Root)) != len("org.example.App-")+8 {
		t.Errorf("Root key %q should end in 8 hex digits", filepath.Base(dirs.Root))
	}
	if dirs.Repo != filepath.Join(dirs.Root, "repo") {
		t.Errorf("Repo = %q", dirs.Repo)
	}
	if dirs.BuilderState != filepath.Join(dirs.Root, "flatpak-builder") {
		t.Errorf("BuilderState = %q", dirs.BuilderState)
	}

	other := p.BuildDirs(".flatplay", "/proj/org.example.App.Devel.json")
	if other.Root == dirs.Root {
		t.Error("different manifests must not share build state")
	}
}

func TestBuildDirs_Status(t *testing.T) {
	fs := system.NewMockFS()
	dirs := newBuildDirs("/proj/.flatplay/app-12345678")

	if dirs.IsInitialized(fs) || dirs.IsBuilt(fs) || dirs.SourcesFetched(fs) {
		t.Fatal("empty state should report nothing")
	}

	fs.AddFile(filepath.Join(dirs.Repo, "metadata"), []byte("[Application]"), 0644)
	fs.AddDir(filepath.Join(dirs.Repo, "files"))
	fs.AddDir(filepath.Join(dirs.Repo, "var"))

	if !dirs.IsInitialized(fs) {
		t.Error("IsInitialized should be true after build-init")
	}
	if dirs.IsBuilt(fs) {
		t.Error("IsBuilt should be false with empty files/")
	}

	fs.AddFile(filepath.Join(dirs.Repo, "files", "bin", "app"), []byte("elf"), 0755)
	if !dirs.IsBuilt(fs) {
		t.Error("IsBuilt should be true once files/ has content")
	}

	fs.AddFile(filepath.Join(dirs.BuilderState, "downloads", "abc", "src.tar"), []byte("x"), 0644)
	if !dirs.SourcesFetched(fs) {
		t.Error("SourcesFetched should be true once downloads/ has content")
	}
}

func TestBuildDirs_CleanIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	p := &Project{Root: tmpDir}
	dirs := p.BuildDirs(".flatplay", filepath.Join(tmpDir, "app.json"))
	fs := system.DefaultFS()

	if err := dirs.Ensure(fs); err != nil {
		t.Fatalf("Ensure error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dirs.Logs, "run.log"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := dirs.Clean(fs); err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	if _, err := os.Stat(dirs.Root); !os.IsNotExist(err) {
		t.Error("Root should be removed")
	}
	if err := dirs.Clean(fs); err != nil {
		t.Errorf("second Clean error = %v, want nil", err)
	}
}
