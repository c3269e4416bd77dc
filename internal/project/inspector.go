// Package project is the boundary to the project-state collaborator: a
// shallow filesystem snapshot the orchestration core consumes for
// verification and sync. Its internals are deliberately minimal — the rest
// of the system only sees the snapshot.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// State is a point-in-time snapshot of the project under the root.
type State struct {
	Root       string         `json:"root"`
	FileCount  int            `json:"file_count"`
	DirCount   int            `json:"dir_count"`
	FilesByExt map[string]int `json:"files_by_ext,omitempty"`
	Markers    []string       `json:"markers,omitempty"`
	CapturedAt time.Time      `json:"captured_at"`
}

// Verification is the outcome of checking caller-supplied claims against a
// snapshot.
type Verification struct {
	Passed  bool     `json:"passed"`
	Checked int      `json:"checked"`
	Issues  []string `json:"issues,omitempty"`
}

// Inspector provides project-state snapshots and claim verification.
type Inspector interface {
	Snapshot(ctx context.Context) (*State, error)
	Verify(ctx context.Context, claims []string) (*Verification, error)
}

// markerFiles identify the project's toolchain when present at the root.
var markerFiles = []string{
	"go.mod", "package.json", "Cargo.toml", "pyproject.toml",
	"Makefile", "Dockerfile", ".git",
}

// skipDirs are never descended into during a scan.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
}

// FSInspector scans a project root on the local filesystem.
type FSInspector struct {
	root     string
	maxDepth int
}

// NewFSInspector creates an inspector over root. Depth is bounded so large
// trees stay cheap to snapshot.
func NewFSInspector(root string) *FSInspector {
	return &FSInspector{root: root, maxDepth: 4}
}

// Snapshot walks the root (bounded depth, skipping dependency and VCS
// directories) and counts what it finds.
func (in *FSInspector) Snapshot(ctx context.Context) (*State, error) {
	st := &State{
		Root:       in.root,
		FilesByExt: make(map[string]int),
		CapturedAt: time.Now(),
	}

	for _, marker := range markerFiles {
		if _, err := os.Stat(filepath.Join(in.root, marker)); err == nil {
			st.Markers = append(st.Markers, marker)
		}
	}

	err := filepath.WalkDir(in.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(in.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))

		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") || depth >= in.maxDepth {
				return filepath.SkipDir
			}
			st.DirCount++
			return nil
		}

		st.FileCount++
		if ext := filepath.Ext(d.Name()); ext != "" {
			st.FilesByExt[ext]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning project root: %w", err)
	}
	return st, nil
}

// Verify checks each claim against the snapshot. Supported claim forms:
// "file:<relative path>" asserts the file exists; anything else asserts the
// text matches a detected marker or file extension.
func (in *FSInspector) Verify(ctx context.Context, claims []string) (*Verification, error) {
	st, err := in.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	v := &Verification{Passed: true, Checked: len(claims)}
	for _, claim := range claims {
		if rest, ok := strings.CutPrefix(claim, "file:"); ok {
			if _, err := os.Stat(filepath.Join(in.root, rest)); err != nil {
				v.Issues = append(v.Issues, fmt.Sprintf("claimed file %q not found", rest))
			}
			continue
		}
		if !matchesSnapshot(st, claim) {
			v.Issues = append(v.Issues, fmt.Sprintf("claim %q not supported by project state", claim))
		}
	}
	v.Passed = len(v.Issues) == 0
	return v, nil
}

func matchesSnapshot(st *State, claim string) bool {
	lc := strings.ToLower(claim)
	for _, m := range st.Markers {
		if strings.Contains(strings.ToLower(m), lc) {
			return true
		}
	}
	for ext := range st.FilesByExt {
		if strings.EqualFold(strings.TrimPrefix(ext, "."), lc) {
			return true
		}
	}
	return false
}

// Map flattens a State for dispatch payloads and tool responses.
func (s *State) Map() map[string]any {
	return map[string]any{
		"root":         s.Root,
		"file_count":   s.FileCount,
		"dir_count":    s.DirCount,
		"files_by_ext": s.FilesByExt,
		"markers":      s.Markers,
		"captured_at":  s.CapturedAt,
	}
}
