package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("missing", 1) {
		t.Fatal("unknown flags must be off")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=abc%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) || m.Enabled("broken", 1) {
		t.Fatal("0% and malformed rollouts should always be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per project")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires a non-zero projectID")
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(ExportFolders, 1) {
		t.Fatal("nil manager must report every flag off")
	}
	if len(m.Snapshot(1)) != 0 {
		t.Fatal("nil manager snapshot must be empty")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ,Export_Folders=ON")

	names := m.Names()
	want := []string{"export_folders", "x", "y", "z"}
	if len(names) != len(want) {
		t.Fatalf("expected %d parsed flags, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected flag names: %v", names)
		}
	}

	snap := m.Snapshot(123)
	if len(snap) != 4 {
		t.Fatalf("expected snapshot size 4, got %d", len(snap))
	}
	if !snap[ExportFolders] || !snap["x"] || snap["z"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}
