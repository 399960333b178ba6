package container

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yjuba/youki/process"
)

// writeBundle lays out a minimal bundle with a valid configuration.
func writeBundle(t *testing.T) string {
	t.Helper()
	bundle := t.TempDir()
	config := `{
  "ociVersion": "1.0.2",
  "process": {"args": ["sh"], "cwd": "/"},
  "root": {"path": "rootfs"}
}`
	if err := os.WriteFile(filepath.Join(bundle, ConfigFile), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	return bundle
}

// TestCreateBootstrapFailureLeavesNothing drives a real create whose
// re-executed child exits without ever reporting ready. The bootstrap
// must fail and no trace of the container may remain.
func TestCreateBootstrapFailureLeavesNothing(t *testing.T) {
	root := t.TempDir()
	bundle := writeBundle(t)

	_, err := Create(&CreateOpts{
		ID:       "doomed",
		Bundle:   bundle,
		Root:     root,
		ExecFile: "/bin/true",
	})
	if err == nil {
		t.Fatal("create succeeded with a child that never reported ready")
	}
	var be *process.BootstrapError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want BootstrapError", err)
	}

	// nothing persisted: no record, no leftover directory
	if _, err := Load(root, "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after failed create = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(NewStore(root).Dir("doomed")); !os.IsNotExist(err) {
		t.Error("record directory survived a failed bootstrap")
	}
}

// TestCreateInFlightIDConflict claims an id with a bare directory, as a
// concurrent create in its bootstrap phase would, and checks the loser
// neither proceeds nor removes the winner's directory.
func TestCreateInFlightIDConflict(t *testing.T) {
	root := t.TempDir()
	bundle := writeBundle(t)

	dir := NewStore(root).Dir("taken")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}

	_, err := Create(&CreateOpts{ID: "taken", Bundle: bundle, Root: root})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Create = %v, want ErrExists", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("loser removed the in-flight directory: %v", err)
	}
}
