package impliedvol

import (
	"IVSolver/internal/model"
	"IVSolver/internal/rootfind"
)

// Key identifies a pricing formula.
type Key struct {
	Model      model.ModelType
	Underlying model.UnderlyingType
}

// Ladders maps each pricing formula to the volatility bounds searched for it.
// Formulas without an override use Default.
type Ladders struct {
	Default   []float64
	Overrides map[Key][]float64
}

// DefaultLadders searches every formula over rootfind.DefaultLadder.
func DefaultLadders() Ladders {
	return Ladders{Default: rootfind.DefaultLadder}
}

// For returns the bounds used for a model and underlying.
func (l Ladders) For(m model.ModelType, u model.UnderlyingType) []float64 {
	if b, ok := l.Overrides[Key{Model: m, Underlying: u}]; ok && len(b) > 0 {
		return b
	}
	if len(l.Default) > 0 {
		return l.Default
	}
	return rootfind.DefaultLadder
}
