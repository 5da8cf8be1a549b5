// Package pool holds the content shown by cue tracks: entries, their color
// classes, and loading them from CSV or JSON files.
package pool

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Color is the semantic color class of a cue.
type Color string

const (
	Neutral Color = "neutral"
	Profit  Color = "profit"
	Loss    Color = "loss"
	Accent  Color = "accent"
)

var ErrUnknownColor = errors.New("unknown color class")

// ParseColor accepts the color names used in scripts and data files. An
// empty name means Neutral.
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return Neutral, nil
	case Neutral, Profit, Loss, Accent:
		return c, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownColor, s)
	}
}

// Entry is one piece of content in a pool.
type Entry struct {
	Content string `json:"content" yaml:"content"`
	Color   Color  `json:"color" yaml:"color"`
}

// Mode defines how a subset of a pool is chosen.
type Mode string

const (
	// ModeSequential takes entries from the front of the pool.
	ModeSequential Mode = "sequential"
	// ModeRandom takes a uniform random subset, keeping pool order.
	ModeRandom Mode = "random"
)

var (
	ErrEmptyPool   = errors.New("content pool is empty")
	ErrUnknownMode = errors.New("unknown pool mode")
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeSequential, nil
	case ModeSequential, ModeRandom:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Pick returns n entries chosen by mode. n <= 0 or n >= len(entries)
// returns a copy of the whole pool.
func Pick(entries []Entry, n int, mode Mode, rng *rand.Rand) []Entry {
	if n <= 0 || n >= len(entries) {
		out := make([]Entry, len(entries))
		copy(out, entries)
		return out
	}
	if mode != ModeRandom {
		out := make([]Entry, n)
		copy(out, entries[:n])
		return out
	}

	idx := rng.Perm(len(entries))[:n]
	sort.Ints(idx)
	out := make([]Entry, 0, n)
	for _, i := range idx {
		out = append(out, entries[i])
	}
	return out
}

// LoadFile loads pool entries from a CSV or JSON file. Relative paths are
// resolved against baseDir, normally the script's directory. Entries with
// no color get fallback; an explicit color, neutral included, is kept.
func LoadFile(path, baseDir string, fallback Color) ([]Entry, error) {
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	var entries []Entry
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		entries, err = loadCSV(path, fallback)
	case ".json":
		entries, err = loadJSON(path, fallback)
	default:
		return nil, fmt.Errorf("unsupported pool format %q (use .csv or .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("pool file %s: %w", path, ErrEmptyPool)
	}
	return entries, nil
}

// loadCSV reads a header row naming a "content" column and an optional
// "color" column, then one entry per row.
func loadCSV(path string, fallback Color) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must have header row and at least one data row")
	}

	contentCol, colorCol := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "content":
			contentCol = i
		case "color":
			colorCol = i
		}
	}
	if contentCol < 0 {
		return nil, fmt.Errorf("CSV header must include a content column")
	}

	entries := make([]Entry, 0, len(records)-1)
	for n, record := range records[1:] {
		e := Entry{Content: record[contentCol]}
		var raw string
		if colorCol >= 0 && colorCol < len(record) {
			raw = record[colorCol]
		}
		if e.Color, err = colorOr(raw, fallback); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// loadJSON reads an array of {"content", "color"} objects.
func loadJSON(path string, fallback Color) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("JSON must be an array of objects: %w", err)
	}
	for i := range entries {
		c, err := colorOr(string(entries[i].Color), fallback)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries[i].Color = c
	}
	return entries, nil
}

func colorOr(raw string, fallback Color) (Color, error) {
	if strings.TrimSpace(raw) == "" {
		if fallback == "" {
			return Neutral, nil
		}
		return fallback, nil
	}
	return ParseColor(raw)
}
