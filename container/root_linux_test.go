package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRootOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom", "root")

	// an explicit override is honored regardless of privilege
	for _, rootless := range []bool{false, true} {
		got, err := ResolveRoot(override, rootless)
		if err != nil {
			t.Fatal(err)
		}
		if got != override {
			t.Errorf("ResolveRoot(override, %v) = %s, want %s", rootless, got, override)
		}
	}

	// parents were created
	info, err := os.Stat(override)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("resolved root is not a directory")
	}
}

func TestResolveRootRootlessFallback(t *testing.T) {
	orig := RootlessRoot
	RootlessRoot = filepath.Join(t.TempDir(), "rootless")
	defer func() { RootlessRoot = orig }()

	got, err := ResolveRoot(DefaultRoot, true)
	if err != nil {
		t.Fatal(err)
	}
	if got != RootlessRoot {
		t.Errorf("ResolveRoot(default, rootless) = %s, want %s", got, RootlessRoot)
	}

	got, err = ResolveRoot("", true)
	if err != nil {
		t.Fatal(err)
	}
	if got != RootlessRoot {
		t.Errorf("ResolveRoot(empty, rootless) = %s, want %s", got, RootlessRoot)
	}
}

func TestResolveRootCollision(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveRoot(file, false); err == nil {
		t.Error("expected error for path collision with a file")
	}
}
