package manifest

import (
	"context"
	"path/filepath"
	"testing"
)

func intPtr(i int) *int { return &i }

func TestParse_LegacyFieldsOnly(t *testing.T) {
	raw := []byte(`
id: watch-folder
version: "1"
triggers:
  - type: folder_changed
    path: /tmp/inbox
permissions:
  fs_read: ["/tmp/inbox"]
  network: false
budgets:
  max_execution_time_ms: 5000
tools:
  - fs.read
`)
	m, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.ID != "watch-folder" {
		t.Fatalf("expected id watch-folder, got %q", m.ID)
	}
	if len(m.UISurfaces) != 0 || len(m.IdentityRequirements) != 0 || m.RemoteAccess {
		t.Fatalf("expected new fields to default to empty/false, got %+v", m)
	}
	if m.Budgets.MaxExecutionTimeMillis == nil || *m.Budgets.MaxExecutionTimeMillis != 5000 {
		t.Fatalf("expected max_execution_time_ms 5000, got %+v", m.Budgets)
	}
}

func TestParse_MissingID(t *testing.T) {
	_, err := Parse([]byte(`version: "1"`))
	if err != ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	m := Manifest{
		ID:      "nightly-digest",
		Version: "2",
		Triggers: []Trigger{
			{Type: "schedule", Cron: "0 6 * * *"},
		},
		Permissions: Permissions{
			FSRead:  []string{"/data"},
			Network: true,
			Sensors: []string{"battery"},
		},
		Budgets: Budgets{
			SolverWakePerHour: intPtr(4),
		},
		Tools:                []string{"digest.compose"},
		UISurfaces:           []string{"notification"},
		IdentityRequirements: []string{"owner"},
		RemoteAccess:         true,
	}

	raw, err := Serialize(m)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse after serialize: %v", err)
	}
	if got.ID != m.ID || got.Version != m.Version || got.RemoteAccess != m.RemoteAccess {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, m)
	}
	if len(got.Triggers) != 1 || got.Triggers[0].Cron != "0 6 * * *" {
		t.Fatalf("round-trip lost trigger: %+v", got.Triggers)
	}
	if *got.Budgets.SolverWakePerHour != 4 {
		t.Fatalf("round-trip lost budget: %+v", got.Budgets)
	}
}

func TestHash_Deterministic(t *testing.T) {
	m := Manifest{ID: "a"}
	h1, err := Hash(m)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash(m)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected deterministic hash, got %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(h1))
	}
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	m := Manifest{ID: "watch-folder", Tools: []string{"fs.read"}}
	if err := store.Save(ctx, "watch-folder.yaml", m); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "watch-folder.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != m.ID {
		t.Fatalf("expected id %q, got %q", m.ID, got.ID)
	}

	if _, err := filepath.Abs(dir); err != nil {
		t.Fatalf("tempdir: %v", err)
	}
}
