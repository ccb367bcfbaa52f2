// Package pricing holds the closed-form option prices used to back out
// implied volatility.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"IVSolver/internal/model"
)

var (
	ErrUnknownModel      = errors.New("unknown pricing model")
	ErrUnknownUnderlying = errors.New("unknown underlying type")
	ErrUnknownOption     = errors.New("unknown option type")
)

// Params are the market inputs of a price, everything except volatility.
type Params struct {
	Spot   float64
	Strike float64
	Rate   float64
	Years  float64
}

// ParamsOf extracts the pricing inputs of a trade.
func ParamsOf(t *model.Trade) Params {
	return Params{Spot: t.Spot, Strike: t.Strike, Rate: t.Rate, Years: t.YearsToExpiry}
}

func (p Params) discount() float64 {
	return math.Exp(-p.Rate * p.Years)
}

// PriceFunc prices an option at the given volatility.
type PriceFunc func(sigma float64) float64

// For returns the pricing function for a model, underlying and option side.
func For(m model.ModelType, u model.UnderlyingType, o model.OptionType, p Params) (PriceFunc, error) {
	if o != model.OptionCall && o != model.OptionPut {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, o)
	}
	call := o == model.OptionCall

	var price func(Params, float64, bool) float64
	switch m {
	case model.ModelBlackScholes:
		switch u {
		case model.UnderlyingStock:
			price = BlackScholes
		case model.UnderlyingFuture:
			price = Black76
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownUnderlying, u)
		}
	case model.ModelBachelier:
		switch u {
		case model.UnderlyingStock:
			price = BachelierStock
		case model.UnderlyingFuture:
			price = BachelierFuture
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownUnderlying, u)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, m)
	}

	return func(sigma float64) float64 { return price(p, sigma, call) }, nil
}

func cdf(x float64) float64 { return distuv.UnitNormal.CDF(x) }

func pdf(x float64) float64 { return distuv.UnitNormal.Prob(x) }
