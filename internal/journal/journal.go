// Package journal provides crash-safe bookkeeping for install runs:
// an advisory per-target lock and a phase journal written atomically,
// so external tooling can see what an interrupted run was doing.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Phase represents the pipeline phase an install run last entered.
type Phase string

const (
	PhasePending     Phase = "pending"
	PhaseDownloading Phase = "downloading"
	PhaseVerifying   Phase = "verifying"
	PhaseExtracting  Phase = "extracting"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// InstallRun records one installation attempt. It is advisory only: the
// install pipeline's correctness does not depend on it, and recovery on
// restart is left to external tooling.
type InstallRun struct {
	Version   int       `json:"version"` // Schema version for future evolution
	ID        string    `json:"id"`      // UUID for unique identification
	Release   string    `json:"release"`
	Kind      string    `json:"kind"`
	TargetDir string    `json:"target_dir"`
	Overwrite bool      `json:"overwrite"`
	Phase     Phase     `json:"phase"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates a journal entry for an install run in the pending phase.
func New(release, kind, targetDir string, overwrite bool) *InstallRun {
	now := time.Now().UTC()
	return &InstallRun{
		Version:   1,
		ID:        uuid.New().String(),
		Release:   release,
		Kind:      kind,
		TargetDir: targetDir,
		Overwrite: overwrite,
		Phase:     PhasePending,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SetPhase advances the run to a new phase, recording the error text for
// failed phases.
func (r *InstallRun) SetPhase(phase Phase, err error) {
	r.Phase = phase
	r.UpdatedAt = time.Now().UTC()
	if err != nil {
		r.LastError = err.Error()
	} else {
		r.LastError = ""
	}
}

// Save writes the journal entry to dir atomically.
// Uses write-then-rename pattern for atomicity.
func (r *InstallRun) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	finalPath := filepath.Join(dir, fmt.Sprintf("install-%s.json", r.ID))
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temporary journal file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath) // Clean up temp file on error
		return fmt.Errorf("rename journal file: %w", err)
	}

	// Sync directory for durability
	df, err := os.Open(dir)
	if err == nil {
		if syncErr := df.Sync(); syncErr != nil {
			df.Close()
			return fmt.Errorf("sync directory: %w", syncErr)
		}
		df.Close()
	}

	return nil
}

// Remove deletes the journal entry from dir. Missing entries are not an
// error: completed runs may clean up eagerly.
func (r *InstallRun) Remove(dir string) error {
	path := filepath.Join(dir, fmt.Sprintf("install-%s.json", r.ID))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove journal file: %w", err)
	}
	return nil
}

// Load reads a journal entry from disk.
func Load(path string) (*InstallRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal file: %w", err)
	}

	var run InstallRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal journal entry: %w", err)
	}

	return &run, nil
}

// List returns all journal entries found in dir, skipping files that do
// not parse. A missing directory yields an empty list.
func List(dir string) ([]*InstallRun, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	var runs []*InstallRun
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		run, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	return runs, nil
}
