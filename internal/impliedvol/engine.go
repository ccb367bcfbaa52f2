// Package impliedvol backs implied volatility out of observed option prices.
package impliedvol

import (
	"math"

	"IVSolver/internal/model"
	"IVSolver/internal/pricing"
	"IVSolver/internal/rootfind"
)

// Engine solves trades with a fixed solver configuration. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	opts    rootfind.Options
	ladders Ladders
}

// NewEngine creates an Engine with the given solver options and ladders.
func NewEngine(opts rootfind.Options, ladders Ladders) *Engine {
	return &Engine{opts: opts, ladders: ladders}
}

// NewDefaultEngine uses 50 iterations, a 1e-8 tolerance and the default ladder.
func NewDefaultEngine() *Engine {
	return NewEngine(rootfind.DefaultOptions(), DefaultLadders())
}

// Objective returns sigma -> price(sigma) - market price for the trade.
func (e *Engine) Objective(t *model.Trade) (rootfind.Func, error) {
	price, err := pricing.For(t.ModelType, t.UnderlyingType, t.OptionType, pricing.ParamsOf(t))
	if err != nil {
		return nil, err
	}
	target := t.MarketPrice
	return func(sigma float64) float64 { return price(sigma) - target }, nil
}

// Solve computes the implied volatility of a trade. Trades that fail
// validation, or whose price is not reachable on the ladder, solve to NaN.
func (e *Engine) Solve(t *model.Trade) model.Solution {
	sol := model.Solution{Trade: *t, ImpliedVolatility: math.NaN()}
	if err := t.Validate(); err != nil {
		return sol
	}
	f, err := e.Objective(t)
	if err != nil {
		return sol
	}
	res := rootfind.SolveLadder(f, e.ladders.For(t.ModelType, t.UnderlyingType), e.opts)
	sol.ImpliedVolatility = res.Root
	sol.Iterations = res.Steps
	return sol
}

// ImpliedVolatility is Solve reduced to the volatility.
func (e *Engine) ImpliedVolatility(t *model.Trade) float64 {
	return e.Solve(t).ImpliedVolatility
}

// Options returns the solver options the engine was built with.
func (e *Engine) Options() rootfind.Options {
	return e.opts
}
