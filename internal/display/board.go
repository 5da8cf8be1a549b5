package display

import (
	"sort"
	"sync"

	"tribute/internal/placement"
)

// VisibleCue is a floating cue currently on stage.
type VisibleCue struct {
	Track    string
	ID       string
	Text     string
	Color    string
	Position placement.Position
}

// VisibleStep is a narrative line currently on stage.
type VisibleStep struct {
	ID    string
	Text  string
	Style string
}

// NowPlaying is the state of the now-playing notification.
type NowPlaying struct {
	Visible bool
	Playing bool
	Title   string
	Artist  string
}

// Snapshot is a copy of everything on stage at one instant.
type Snapshot struct {
	Cues       []VisibleCue
	Steps      []VisibleStep
	Particles  []Particle
	NowPlaying NowPlaying
	Completed  bool
}

// Board applies events to an in-memory model of the stage. Safe for
// concurrent use.
type Board struct {
	mu         sync.Mutex
	cues       map[string]VisibleCue
	steps      map[string]VisibleStep
	particles  map[string]Particle
	nowPlaying NowPlaying
	completed  bool
	mutations  int
	bursts     int
}

func NewBoard() *Board {
	return &Board{
		cues:      make(map[string]VisibleCue),
		steps:     make(map[string]VisibleStep),
		particles: make(map[string]Particle),
	}
}

func (b *Board) Apply(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mutations++

	switch e.Kind {
	case CueShown:
		c := VisibleCue{Track: e.Track, ID: e.ID, Text: e.Text, Color: e.Color}
		if e.Position != nil {
			c.Position = *e.Position
		}
		b.cues[e.ID] = c
	case CueHidden:
		delete(b.cues, e.ID)
	case StepShown:
		b.steps[e.ID] = VisibleStep{ID: e.ID, Text: e.Text, Style: e.Style}
	case StepHidden:
		delete(b.steps, e.ID)
	case Burst:
		b.bursts++
		for _, p := range e.Particles {
			b.particles[p.ID] = p
		}
	case ParticleExpired:
		delete(b.particles, e.ID)
	case NowPlayingShown:
		b.nowPlaying = NowPlaying{Visible: true, Playing: e.Playing, Title: e.Title, Artist: e.Artist}
	case NowPlayingState:
		b.nowPlaying.Playing = e.Playing
	case NowPlayingHidden:
		b.nowPlaying.Visible = false
	case Completed:
		b.completed = true
	}
}

// Clear hides everything, as when the overlay is dismissed.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cues = make(map[string]VisibleCue)
	b.steps = make(map[string]VisibleStep)
	b.particles = make(map[string]Particle)
	b.nowPlaying.Visible = false
}

// Mutations returns how many events have been applied.
func (b *Board) Mutations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mutations
}

// Bursts returns how many finale bursts have been applied.
func (b *Board) Bursts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bursts
}

// StepVisible reports whether the narrative step id is on stage.
func (b *Board) StepVisible(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.steps[id]
	return ok
}

// Snapshot returns the stage contents sorted by ID.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{NowPlaying: b.nowPlaying, Completed: b.completed}
	for _, c := range b.cues {
		s.Cues = append(s.Cues, c)
	}
	for _, st := range b.steps {
		s.Steps = append(s.Steps, st)
	}
	for _, p := range b.particles {
		s.Particles = append(s.Particles, p)
	}
	sort.Slice(s.Cues, func(i, j int) bool { return s.Cues[i].ID < s.Cues[j].ID })
	sort.Slice(s.Steps, func(i, j int) bool { return s.Steps[i].ID < s.Steps[j].ID })
	sort.Slice(s.Particles, func(i, j int) bool { return s.Particles[i].ID < s.Particles[j].ID })
	return s
}
