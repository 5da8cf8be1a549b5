package pool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tribute/internal/random"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "outcomes.csv", `content,color
+120 pips,profit
-35 pips,loss
BOS confirmed,`)

	entries, err := LoadFile("outcomes.csv", dir, Neutral)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Content != "+120 pips" || entries[0].Color != Profit {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Color != Loss {
		t.Errorf("expected loss, got %q", entries[1].Color)
	}
	if entries[2].Color != Neutral {
		t.Errorf("expected empty color to default to neutral, got %q", entries[2].Color)
	}
}

func TestLoadCSV_MissingContentColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv", "text,color\nhello,profit\n")

	if _, err := LoadFile(path, "", Neutral); err == nil {
		t.Error("expected error for missing content column")
	}
}

func TestLoadCSV_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "content,color\n")

	if _, err := LoadFile(path, "", Neutral); err == nil {
		t.Error("expected error for header-only CSV")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pairs.json", `[
  {"content": "EUR/USD"},
  {"content": "XAU/USD", "color": "accent"}
]`)

	entries, err := LoadFile(path, "/ignored", Neutral)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Color != Neutral || entries[1].Color != Accent {
		t.Errorf("unexpected colors %q, %q", entries[0].Color, entries[1].Color)
	}
}

func TestLoadJSON_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.json", `[]`)

	_, err := LoadFile(path, "", Neutral)
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
}

func TestLoadJSON_BadColor(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.json", `[{"content": "x", "color": "green"}]`)

	_, err := LoadFile(path, "", Neutral)
	if !errors.Is(err, ErrUnknownColor) {
		t.Errorf("expected ErrUnknownColor, got %v", err)
	}
}

func TestLoadFile_FallbackKeepsExplicitColors(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "tags.csv", `content,color
tagged,neutral
bare,
win,profit`)
	jsonPath := writeFile(t, dir, "tags.json", `[
  {"content": "tagged", "color": "neutral"},
  {"content": "bare"}
]`)

	for _, path := range []string{csvPath, jsonPath} {
		entries, err := LoadFile(path, "", Accent)
		if err != nil {
			t.Fatalf("LoadFile(%s): %v", filepath.Base(path), err)
		}
		if entries[0].Color != Neutral {
			t.Errorf("%s: expected explicit neutral to be kept, got %q", filepath.Base(path), entries[0].Color)
		}
		if entries[1].Color != Accent {
			t.Errorf("%s: expected untagged entry to take the fallback, got %q", filepath.Base(path), entries[1].Color)
		}
	}
}

func TestLoadFile_UnsupportedFormat(t *testing.T) {
	if _, err := LoadFile("pool.txt", "", Neutral); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestPick(t *testing.T) {
	entries := []Entry{{Content: "a"}, {Content: "b"}, {Content: "c"}, {Content: "d"}}

	all := Pick(entries, 0, ModeRandom, random.New(1))
	if len(all) != 4 {
		t.Errorf("expected whole pool for n=0, got %d", len(all))
	}

	seq := Pick(entries, 2, ModeSequential, nil)
	if len(seq) != 2 || seq[0].Content != "a" || seq[1].Content != "b" {
		t.Errorf("expected [a b], got %+v", seq)
	}

	rnd := Pick(entries, 3, ModeRandom, random.New(1))
	if len(rnd) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(rnd))
	}
	order := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}
	for i := 1; i < len(rnd); i++ {
		if order[rnd[i-1].Content] >= order[rnd[i].Content] {
			t.Errorf("expected random subset to keep pool order, got %+v", rnd)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeSequential {
		t.Errorf("expected sequential default, got %q, %v", m, err)
	}
	if _, err := ParseMode("shuffle"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}
