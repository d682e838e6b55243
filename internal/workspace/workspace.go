// Package workspace persists named sets of registered datasets so a
// session can be reloaded across runs. Only dataset references are
// stored; rows are re-read from the source on load.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
)

const workspaceFileName = "workspace.json"

// DatasetRef is a registered dataset source.
type DatasetRef struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    string    `json:"kind"` // "csv" or "sqlite"
	Path    string    `json:"path"`
	Table   string    `json:"table,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Workspace is a persisted collection of dataset references.
type Workspace struct {
	Name      string                 `json:"name"`
	Datasets  map[string]*DatasetRef `json:"datasets"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	// Not serialized: on-disk location of the workspace.json
	rootDir string `json:"-"`
}

// New constructs an in-memory workspace. Call Save() to persist.
func New(name, rootDir string) *Workspace {
	return &Workspace{
		Name:      name,
		Datasets:  make(map[string]*DatasetRef),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		rootDir:   rootDir,
	}
}

// Load reads a workspace.json from the provided directory.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, workspaceFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*DatasetRef)
	}
	w.rootDir = dir
	return &w, nil
}

// RootDir returns the on-disk workspace directory path.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace has no root directory")
	}
	if err := os.MkdirAll(w.rootDir, 0o755); err != nil {
		return fmt.Errorf("mkdir workspace dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	b, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}
	path := filepath.Join(w.rootDir, workspaceFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	return os.Rename(tmp, path)
}

// Add registers a dataset source under a unique name.
func (w *Workspace) Add(name, kind, path, table string) (*DatasetRef, error) {
	if name == "" {
		return nil, errors.New("dataset name cannot be empty")
	}
	if _, exists := w.Datasets[name]; exists {
		return nil, fmt.Errorf("dataset %q already registered", name)
	}
	switch kind {
	case "csv", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dataset kind %q", kind)
	}
	ref := &DatasetRef{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    kind,
		Path:    path,
		Table:   table,
		AddedAt: time.Now(),
	}
	w.Datasets[name] = ref
	return ref, nil
}

// List returns the registered references sorted by name.
func (w *Workspace) List() []*DatasetRef {
	out := make([]*DatasetRef, 0, len(w.Datasets))
	for _, ref := range w.Datasets {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadDatasets reads every registered source into memory.
func (w *Workspace) LoadDatasets() (map[string]*dataset.Dataset, error) {
	out := make(map[string]*dataset.Dataset, len(w.Datasets))
	for _, ref := range w.List() {
		var (
			d   *dataset.Dataset
			err error
		)
		switch ref.Kind {
		case "csv":
			d, err = dataset.LoadCSV(ref.Path, 0)
		case "sqlite":
			d, err = dataset.LoadSQLite(ref.Path, ref.Table)
		default:
			err = fmt.Errorf("unsupported dataset kind %q", ref.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", ref.Name, err)
		}
		out[ref.Name] = d
	}
	return out, nil
}
