package forecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testModel() *Model {
	return &Model{
		Version:      artifactVersion,
		WindowLength: 3,
		Revenue:      Params{Min: 0, Max: 5000},
		Expenses:     Params{Min: 100, Max: 3000},
		Network:      NewNetwork(4, 3, 11),
		TrainedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.json")
	m := testModel()
	if err := SaveModel(path, m); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	got, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if got.WindowLength != 3 || got.Revenue != m.Revenue || got.Expenses != m.Expenses {
		t.Errorf("loaded header = %+v", got)
	}
	if !got.TrainedAt.Equal(m.TrainedAt) {
		t.Errorf("TrainedAt = %v, want %v", got.TrainedAt, m.TrainedAt)
	}
	w := []Pair{{0.1, 0.9}, {0.4, 0.5}, {0.8, 0.2}}
	if got.Network.Predict(w) != m.Network.Predict(w) {
		t.Error("loaded network predicts differently")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the model file, found %d entries", len(entries))
	}
}

func TestLoadModelRejectsBadArtifacts(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "absent.json")},
		{"not json", write("garbage.json", "{not json")},
		{"wrong version", write("version.json", `{"version":99,"window_length":3}`)},
		{"no network", write("nonet.json", `{"version":1,"window_length":3,"revenue_params":{"min":0,"max":1},"expense_params":{"min":0,"max":1}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadModel(tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveModelRejectsInvalid(t *testing.T) {
	m := testModel()
	m.Network.Dense.W = m.Network.Dense.W[:1]
	if err := SaveModel(filepath.Join(t.TempDir(), "m.json"), m); err == nil {
		t.Error("expected invalid model to be rejected")
	}
}
