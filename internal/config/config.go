// Package config loads tribute scripts from YAML and runtime settings from
// the environment.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tribute/internal/cue"
	"tribute/internal/finale"
	"tribute/internal/narrative"
	"tribute/internal/placement"
	"tribute/internal/pool"
	"tribute/internal/sequence"
)

//go:embed default.yaml
var defaultScript []byte

// Script is the root structure of a tribute script file.
type Script struct {
	Name      string            `yaml:"name"`
	Bounds    *placement.Bounds `yaml:"bounds,omitempty"`
	Tracks    []TrackConfig     `yaml:"tracks"`
	Narrative []StepConfig      `yaml:"narrative"`
	Finale    FinaleConfig      `yaml:"finale"`

	// dir resolves relative pool paths.
	dir string
}

// WindowConfig is a jitter window, written as {min: 1s, max: 3s}.
type WindowConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// TrackConfig defines one cue track. Content comes from Entries, from the
// file named by Pool, or both.
type TrackConfig struct {
	Name          string        `yaml:"name"`
	Policy        string        `yaml:"policy"`
	Color         string        `yaml:"color,omitempty"` // default for entries without one
	Entries       []EntryConfig `yaml:"entries,omitempty"`
	Pool          string        `yaml:"pool,omitempty"`
	InitialJitter *WindowConfig `yaml:"initial_jitter,omitempty"`
	Jitter        WindowConfig  `yaml:"jitter"`
	Visible       time.Duration `yaml:"visible"`
	Sample        int           `yaml:"sample,omitempty"`
	SampleMode    string        `yaml:"sample_mode,omitempty"`
}

// EntryConfig is a pool entry. In YAML it is either a bare string or a
// {content, color} mapping.
type EntryConfig struct {
	Content string `yaml:"content"`
	Color   string `yaml:"color,omitempty"`
}

func (e *EntryConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Content = node.Value
		return nil
	}
	type plain EntryConfig
	return node.Decode((*plain)(e))
}

// StepConfig defines one narrative line.
type StepConfig struct {
	Text     string        `yaml:"text"`
	Style    string        `yaml:"style,omitempty"`
	At       time.Duration `yaml:"at"`
	Duration time.Duration `yaml:"duration"`
}

type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type NowPlayingConfig struct {
	Title   string        `yaml:"title"`
	Artist  string        `yaml:"artist"`
	Art     string        `yaml:"art,omitempty"`
	Display time.Duration `yaml:"display"`
}

// FinaleConfig defines the closing burst and notification.
type FinaleConfig struct {
	At         time.Duration    `yaml:"at"`
	Particles  int              `yaml:"particles"`
	Lifetime   time.Duration    `yaml:"lifetime"`
	MaxDelay   time.Duration    `yaml:"max_delay"`
	Radius     RangeConfig      `yaml:"radius"`
	Size       RangeConfig      `yaml:"size"`
	Palette    []string         `yaml:"palette"`
	NowPlaying NowPlayingConfig `yaml:"now_playing"`
}

var ErrEmptyScript = errors.New("script is empty")

// LoadScript reads and parses a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script file: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("parsing script file: %w", err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// ParseScript parses a YAML script. Unknown keys are rejected.
func ParseScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyScript
		}
		return nil, err
	}
	return &s, nil
}

// Default returns the built-in birthday tribute.
func Default() *Script {
	s, err := ParseScript(defaultScript)
	if err != nil {
		panic(fmt.Sprintf("config: embedded default script: %v", err))
	}
	return s
}

// Load returns the script at path, or the default script when path is
// empty.
func Load(path string) (*Script, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadScript(path)
}

// Sequence converts the script into a validated sequence configuration,
// loading any pool files it references.
func (s *Script) Sequence() (sequence.Config, error) {
	cfg := sequence.Config{Bounds: placement.DefaultBounds}
	if s.Bounds != nil {
		cfg.Bounds = *s.Bounds
	}

	var errs []error
	for _, tc := range s.Tracks {
		t, err := s.track(tc)
		if err != nil {
			errs = append(errs, fmt.Errorf("track %q: %w", tc.Name, err))
			continue
		}
		cfg.Tracks = append(cfg.Tracks, t)
	}

	for _, sc := range s.Narrative {
		cfg.Narrative = append(cfg.Narrative, narrative.Step{
			Text:     sc.Text,
			Style:    sc.Style,
			Offset:   sc.At,
			Duration: sc.Duration,
		})
	}

	f := s.Finale
	cfg.Finale = finale.Config{
		At:        f.At,
		Particles: f.Particles,
		Lifetime:  f.Lifetime,
		MaxDelay:  f.MaxDelay,
		Radius:    finale.Range{Min: f.Radius.Min, Max: f.Radius.Max},
		Size:      finale.Range{Min: f.Size.Min, Max: f.Size.Max},
		Palette:   f.Palette,
		NowPlaying: finale.NowPlaying{
			Title:   f.NowPlaying.Title,
			Artist:  f.NowPlaying.Artist,
			Art:     f.NowPlaying.Art,
			Display: f.NowPlaying.Display,
		},
	}

	if len(errs) > 0 {
		return sequence.Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return sequence.Config{}, err
	}
	return cfg, nil
}

func (s *Script) track(tc TrackConfig) (cue.Config, error) {
	policy, err := cue.ParsePolicy(tc.Policy)
	if err != nil {
		return cue.Config{}, err
	}
	defaultColor, err := pool.ParseColor(tc.Color)
	if err != nil {
		return cue.Config{}, err
	}

	mode := pool.ModeRandom
	if tc.SampleMode != "" {
		if mode, err = pool.ParseMode(tc.SampleMode); err != nil {
			return cue.Config{}, err
		}
	}

	entries := make([]pool.Entry, 0, len(tc.Entries))
	for i, ec := range tc.Entries {
		color := defaultColor
		if ec.Color != "" {
			if color, err = pool.ParseColor(ec.Color); err != nil {
				return cue.Config{}, fmt.Errorf("entry %d: %w", i, err)
			}
		}
		entries = append(entries, pool.Entry{Content: ec.Content, Color: color})
	}
	if tc.Pool != "" {
		loaded, err := pool.LoadFile(tc.Pool, s.dir, defaultColor)
		if err != nil {
			return cue.Config{}, err
		}
		entries = append(entries, loaded...)
	}

	cfg := cue.Config{
		Name:       tc.Name,
		Policy:     policy,
		Pool:       entries,
		Jitter:     cue.Window{Min: tc.Jitter.Min, Max: tc.Jitter.Max},
		Visible:    tc.Visible,
		Sample:     tc.Sample,
		SampleMode: mode,
	}
	if tc.InitialJitter != nil {
		cfg.InitialJitter = &cue.Window{Min: tc.InitialJitter.Min, Max: tc.InitialJitter.Max}
	}
	return cfg, nil
}
