package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SortieWorks/sortiechart-cli/internal/workspace"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "flights.csv")
	content := "detection_method,airtime_seconds\nPCL,120\nGotcha,60\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	ws := workspace.New("sorties", filepath.Join(dir, "ws"))
	ref, err := ws.Add("flights", "csv", csvPath, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if ref.ID == "" {
		t.Errorf("expected generated dataset ID")
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := workspace.Load(filepath.Join(dir, "ws"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Name != "sorties" {
		t.Errorf("name: got %s, want sorties", loaded.Name)
	}
	refs := loaded.List()
	if len(refs) != 1 || refs[0].Name != "flights" || refs[0].ID != ref.ID {
		t.Fatalf("refs: got %+v", refs)
	}

	datasets, err := loaded.LoadDatasets()
	if err != nil {
		t.Fatalf("load datasets: %v", err)
	}
	d, ok := datasets["flights"]
	if !ok {
		t.Fatalf("flights dataset not loaded")
	}
	if d.Len() != 2 {
		t.Errorf("rows: got %d, want 2", d.Len())
	}
}

func TestAddRejectsDuplicatesAndUnknownKinds(t *testing.T) {
	ws := workspace.New("w", t.TempDir())
	if _, err := ws.Add("flights", "csv", "a.csv", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := ws.Add("flights", "csv", "b.csv", ""); err == nil {
		t.Errorf("duplicate name accepted")
	}
	if _, err := ws.Add("other", "parquet", "c.parquet", ""); err == nil {
		t.Errorf("unknown kind accepted")
	}
	if _, err := ws.Add("", "csv", "d.csv", ""); err == nil {
		t.Errorf("empty name accepted")
	}
}

func TestListIsSortedByName(t *testing.T) {
	ws := workspace.New("w", t.TempDir())
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if _, err := ws.Add(name, "csv", name+".csv", ""); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	refs := ws.List()
	want := []string{"alpha", "mike", "zulu"}
	for i, ref := range refs {
		if ref.Name != want[i] {
			t.Errorf("ref %d: got %s, want %s", i, ref.Name, want[i])
		}
	}
}

func TestLoadMissingWorkspace(t *testing.T) {
	if _, err := workspace.Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing workspace")
	}
}

func TestSaveWithoutRootDirFails(t *testing.T) {
	ws := &workspace.Workspace{Name: "w"}
	if err := ws.Save(); err == nil {
		t.Fatalf("expected error saving workspace with no root directory")
	}
}
