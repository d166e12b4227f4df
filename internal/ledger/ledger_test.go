package ledger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"PickTracker/internal/model"
)

func testPick(id string) model.Pick {
	odds := decimal.RequireFromString("1.91")
	return model.Pick{
		ID:         id,
		Sport:      "MLB",
		Event:      model.EventDetails{Game: "Yankees vs Red Sox", Date: "2026-08-20"},
		BetType:    model.BetSpread,
		Prediction: "Yankees -1.5",
		Odds:       &odds,
		Stake:      decimal.NewFromInt(10),
		Status:     model.StatusPending,
	}
}

func TestLoadMissingFileIsEmptyLedger(t *testing.T) {
	picks, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 0 {
		t.Errorf("expected empty ledger, got %d picks", len(picks))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	picks := []model.Pick{testPick("p1"), testPick("p2"), testPick("p3")}
	picks[1].Extra = map[string]json.RawMessage{"confidence": json.RawMessage("0.9")}

	if err := Save(path, picks); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(loaded))
	}
	// Insertion order must survive.
	for i, want := range []string{"p1", "p2", "p3"} {
		if loaded[i].ID != want {
			t.Errorf("position %d: want %s, got %s", i, want, loaded[i].ID)
		}
	}
	if string(loaded[1].Extra["confidence"]) != "0.9" {
		t.Errorf("extra field lost in round trip: %v", loaded[1].Extra)
	}

	// A second save of the loaded ledger must produce identical content.
	path2 := filepath.Join(t.TempDir(), "picks2.json")
	if err := Save(path2, loaded); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	a, _ := os.ReadFile(path)
	b, _ := os.ReadFile(path2)
	if string(a) != string(b) {
		t.Error("save(load(L)) differs from save(L)")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	os.WriteFile(path, []byte(`[{"sport": "MLB",`), 0644)

	_, err := Load(path)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestLoadRejectsRecordMissingRequiredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	good := testPick("p1")
	bad := testPick("p2")
	bad.BetType = ""
	data, _ := json.Marshal([]model.Pick{good, bad})
	os.WriteFile(path, data, 0644)

	// Fail-fast: one bad record rejects the whole load.
	_, err := Load(path)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if !strings.Contains(err.Error(), "record 1") {
		t.Errorf("error should name the bad record: %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "picks.json")
	if err := Save(path, []model.Pick{testPick("p1")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "picks.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected only picks.json, found %v", names)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	if err := Save(path, []model.Pick{testPick("p1")}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := Save(path, []model.Pick{testPick("p1"), testPick("p2")}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("expected 2 picks after overwrite, got %d", len(loaded))
	}
}
