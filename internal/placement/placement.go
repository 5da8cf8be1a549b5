// Package placement scatters floating cues across the stage.
package placement

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DefaultBounds keeps cues away from the stage edges.
var DefaultBounds = Bounds{Min: 10, Max: 90}

// Position is a point on the stage in percent of its width and height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the closed percentage range both coordinates are drawn from.
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

var ErrInvalidBounds = errors.New("invalid placement bounds")

func (b Bounds) Validate() error {
	if b.Min < 0 || b.Max > 100 || b.Min > b.Max {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, b.Min, b.Max)
	}
	return nil
}

// Contains reports whether p lies inside the bounds on both axes.
func (b Bounds) Contains(p Position) bool {
	return p.X >= b.Min && p.X <= b.Max && p.Y >= b.Min && p.Y <= b.Max
}

// Generator draws positions independently and uniformly within bounds.
// Positions of other visible cues are not considered; overlap is allowed.
type Generator struct {
	bounds Bounds
	rng    *rand.Rand
}

func NewGenerator(bounds Bounds, rng *rand.Rand) *Generator {
	return &Generator{bounds: bounds, rng: rng}
}

func (g *Generator) Bounds() Bounds { return g.bounds }

func (g *Generator) Next() Position {
	return Position{X: g.draw(), Y: g.draw()}
}

func (g *Generator) draw() float64 {
	span := g.bounds.Max - g.bounds.Min
	return g.bounds.Min + g.rng.Float64()*span
}
