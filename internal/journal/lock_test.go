package journal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if len(data) == 0 {
		t.Error("lock file carries no metadata")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("lock file still present after release")
	}

	// Releasing twice is not an error.
	if err := lock.Release(); err != nil {
		t.Errorf("second release: %v", err)
	}
}

func TestAcquireLockContended(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer lock.Release()

	if _, err := AcquireLock(dir); !errors.Is(err, ErrLockExists) {
		t.Fatalf("second acquire error = %v, want ErrLockExists", err)
	}
}

func TestAcquireLockReclaimsStale(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, lockFileName)

	// Simulate a lock left by a crashed run, well past the threshold.
	if err := os.WriteFile(lockPath, []byte("pid=1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-StaleLockThreshold - time.Minute)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("acquire over stale lock: %v", err)
	}
	defer lock.Release()
}

func TestAcquireLockHonorsFresh(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, lockFileName)

	// A recent lock from another process must be honored.
	if err := os.WriteFile(lockPath, []byte("pid=1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := AcquireLock(dir); !errors.Is(err, ErrLockExists) {
		t.Fatalf("acquire error = %v, want ErrLockExists", err)
	}
}

func TestAcquireLockMissingTargetDir(t *testing.T) {
	if _, err := AcquireLock(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing target directory")
	}
}
