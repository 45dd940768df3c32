package main

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_ensureWritableDir(t *testing.T) {
	tmp := t.TempDir()

	// missing dirs are created
	nested := filepath.Join(tmp, "backup", "git-repositories")
	if err := ensureWritableDir(nested); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if fi, err := os.Stat(nested); err != nil || !fi.IsDir() {
		t.Errorf("destination dir was not created: %v", err)
	}

	// a file in the way is a precondition failure
	blocked := filepath.Join(tmp, "file")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("unable to write file: %v", err)
	}
	if err := ensureWritableDir(blocked); err == nil {
		t.Errorf("expected error for destination blocked by a file")
	}

	if os.Geteuid() != 0 {
		readonly := filepath.Join(tmp, "readonly")
		if err := os.Mkdir(readonly, 0555); err != nil {
			t.Fatalf("unable to make dir: %v", err)
		}
		if err := ensureWritableDir(readonly); err == nil {
			t.Errorf("expected error for read-only destination")
		}
	}
}
