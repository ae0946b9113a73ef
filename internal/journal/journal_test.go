package journal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInstallRunLifecycle(t *testing.T) {
	dir := t.TempDir()

	run := New("GE-Proton9-1", "proton-ge", "/opt/runners", true)
	if run.Phase != PhasePending {
		t.Fatalf("new run phase = %s, want %s", run.Phase, PhasePending)
	}
	if run.ID == "" {
		t.Fatal("new run has empty ID")
	}
	if run.Version != 1 {
		t.Fatalf("schema version = %d, want 1", run.Version)
	}

	run.SetPhase(PhaseDownloading, nil)
	if err := run.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(dir, "install-"+run.ID+".json")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.ID != run.ID {
		t.Errorf("loaded ID = %s, want %s", loaded.ID, run.ID)
	}
	if loaded.Release != "GE-Proton9-1" {
		t.Errorf("loaded release = %s, want GE-Proton9-1", loaded.Release)
	}
	if loaded.Kind != "proton-ge" {
		t.Errorf("loaded kind = %s, want proton-ge", loaded.Kind)
	}
	if !loaded.Overwrite {
		t.Error("loaded overwrite = false, want true")
	}
	if loaded.Phase != PhaseDownloading {
		t.Errorf("loaded phase = %s, want %s", loaded.Phase, PhaseDownloading)
	}

	// Re-saving the same run overwrites its entry instead of adding one.
	run.SetPhase(PhaseFailed, errors.New("download timed out"))
	if err := run.Save(dir); err != nil {
		t.Fatalf("save after phase change: %v", err)
	}

	loaded, err = Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Phase != PhaseFailed {
		t.Errorf("reloaded phase = %s, want %s", loaded.Phase, PhaseFailed)
	}
	if loaded.LastError != "download timed out" {
		t.Errorf("reloaded last error = %q, want %q", loaded.LastError, "download timed out")
	}

	if err := run.Remove(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("journal file still present after remove")
	}

	// Removing twice is not an error.
	if err := run.Remove(dir); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestSetPhaseClearsError(t *testing.T) {
	run := New("GE-Proton9-1", "proton-ge", "/opt/runners", false)

	run.SetPhase(PhaseFailed, errors.New("boom"))
	if run.LastError == "" {
		t.Fatal("last error not recorded")
	}

	run.SetPhase(PhaseDownloading, nil)
	if run.LastError != "" {
		t.Errorf("last error = %q, want cleared", run.LastError)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")

	run := New("GE-Proton9-1", "wine-ge", "/opt/runners", false)
	if err := run.Save(dir); err != nil {
		t.Fatalf("save into missing directory: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "install-"+run.ID+".json")); err != nil {
		t.Errorf("journal entry missing: %v", err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	first := New("GE-Proton9-1", "proton-ge", "/opt/runners", false)
	second := New("GE-Proton8-32", "wine-ge", "/opt/runners", false)
	for _, run := range []*InstallRun{first, second} {
		if err := run.Save(dir); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	// Unparsable and unrelated files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "install-garbage.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatal(err)
	}

	runs, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs, want 2", len(runs))
	}

	seen := map[string]bool{}
	for _, run := range runs {
		seen[run.Release] = true
	}
	if !seen["GE-Proton9-1"] || !seen["GE-Proton8-32"] {
		t.Errorf("listed releases = %v, want both saved runs", seen)
	}
}

func TestListMissingDirectory(t *testing.T) {
	runs, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("listed %d runs from missing directory, want 0", len(runs))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
