package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DaysPerYear converts days-to-expiry into years-to-expiry.
const DaysPerYear = 365.0

// ErrUnknownModelType is returned when a trade names a pricing model we do not support.
var ErrUnknownModelType = errors.New("unknown model type")

// OptionType is the payoff side of an option.
type OptionType string

const (
	OptionCall OptionType = "Call"
	OptionPut  OptionType = "Put"
)

// UnderlyingType says whether the option is written on spot or on a future.
type UnderlyingType string

const (
	UnderlyingStock  UnderlyingType = "Stock"
	UnderlyingFuture UnderlyingType = "Future"
)

// ModelType selects the closed-form pricing formula.
type ModelType string

const (
	ModelBlackScholes ModelType = "BlackScholes"
	ModelBachelier    ModelType = "Bachelier"
)

// ParseModelType maps an input tag onto a supported model.
func ParseModelType(s string) (ModelType, error) {
	switch ModelType(s) {
	case ModelBlackScholes, ModelBachelier:
		return ModelType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModelType, s)
	}
}

// Trade is one option observation read from the input.
// Option and underlying tags are kept verbatim; unsupported values solve to NaN.
type Trade struct {
	ID             string         `json:"id" validate:"required"`
	Spot           float64        `json:"spot" validate:"gt=0"`
	Strike         float64        `json:"strike" validate:"gt=0"`
	Rate           float64        `json:"rate"`
	YearsToExpiry  float64        `json:"years_to_expiry" validate:"gt=0"`
	MarketPrice    float64        `json:"market_price"`
	OptionType     OptionType     `json:"option_type" validate:"oneof=Call Put"`
	UnderlyingType UnderlyingType `json:"underlying_type" validate:"oneof=Stock Future"`
	ModelType      ModelType      `json:"model_type" validate:"oneof=BlackScholes Bachelier"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the invariants the pricing formulas rely on.
func (t *Trade) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("trade %s: %w", t.ID, err)
	}
	return nil
}
