package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"tribute/internal/display"
)

const (
	DefaultWidth  = 72
	DefaultHeight = 20

	// burstRadius is the particle distance, in stage pixels, that reaches
	// the edge of the drawing.
	burstRadius = 300.0
)

// Stage draws a snapshot as plain text.
type Stage struct {
	Width  int
	Height int
}

// Render returns the frame for s. Cues sit at their percent positions,
// narrative lines are centred, and particles are drawn around the centre.
func (st Stage) Render(s display.Snapshot, muted bool) string {
	w, h := max(st.Width, 20), max(st.Height, 6)
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}

	cx, cy := w/2, h/2
	for _, p := range s.Particles {
		x := cx + int(p.DX/burstRadius*float64(w/2))
		y := cy + int(p.DY/burstRadius*float64(h/2))
		put(grid, x, y, "*")
	}

	for _, c := range s.Cues {
		x := int(c.Position.X / 100 * float64(w-1))
		y := int(c.Position.Y / 100 * float64(h-1))
		put(grid, x, y, cueLabel(c))
	}

	for i, step := range s.Steps {
		text := step.Text
		if step.Style == "headline" {
			text = strings.ToUpper(text)
		}
		y := cy - len(s.Steps)/2 + i
		x := (w - utf8.RuneCountInString(text)) / 2
		put(grid, x, y, text)
	}

	var b strings.Builder
	border := "+" + strings.Repeat("-", w) + "+\n"
	b.WriteString(border)
	for _, row := range grid {
		b.WriteString("|")
		b.WriteString(string(row))
		b.WriteString("|\n")
	}
	b.WriteString(border)
	b.WriteString(statusLine(s, muted))
	b.WriteString("\n")
	return b.String()
}

func cueLabel(c display.VisibleCue) string {
	switch c.Color {
	case "profit":
		return "+" + c.Text
	case "loss":
		return "-" + c.Text
	default:
		return c.Text
	}
}

func statusLine(s display.Snapshot, muted bool) string {
	var parts []string
	if np := s.NowPlaying; np.Visible {
		state := "paused"
		if np.Playing {
			state = "playing"
		}
		parts = append(parts, fmt.Sprintf("now playing: %s - %s (%s)", np.Title, np.Artist, state))
	}
	if muted {
		parts = append(parts, "[muted]")
	}
	if s.Completed {
		parts = append(parts, "[done]")
	}
	return strings.Join(parts, "  ")
}

// put writes text into the grid starting at x, clipping at the edges.
func put(grid [][]rune, x, y int, text string) {
	if y < 0 || y >= len(grid) {
		return
	}
	row := grid[y]
	for _, r := range text {
		if x >= len(row) {
			return
		}
		if x >= 0 {
			row[x] = r
		}
		x++
	}
}
