// Package collector reads option trades from CSV sources.
package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"IVSolver/internal/model"
)

// Input column names. Columns are matched by name, so their order is free.
const (
	ColID             = "ID"
	ColUnderlyingType = "Underlying Type"
	ColUnderlying     = "Underlying"
	ColRate           = "Risk-Free Rate"
	ColDaysToExpiry   = "Days To Expiry"
	ColStrike         = "Strike"
	ColOptionType     = "Option Type"
	ColModelType      = "Model Type"
	ColMarketPrice    = "Market Price"
)

var requiredColumns = []string{
	ColID, ColUnderlyingType, ColUnderlying, ColRate, ColDaysToExpiry,
	ColStrike, ColOptionType, ColModelType, ColMarketPrice,
}

var ErrMissingColumn = errors.New("missing input column")

// Collector turns a CSV source into trades.
type Collector struct {
	Source Source
	Lines  int // rows to read; negative reads all
}

// NewCollector creates a new Collector.
func NewCollector(source Source, lines int) *Collector {
	return &Collector{Source: source, Lines: lines}
}

// Collect reads up to Lines data rows. Unknown model types and malformed
// numbers abort the whole read; unsupported option or underlying tags are kept
// as-is and solve to NaN later.
func (c *Collector) Collect(ctx context.Context) ([]model.Trade, error) {
	rc, err := c.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(rc, c.Lines)
}

// Parse reads trades from CSV text with a header row.
func Parse(r io.Reader, lines int) ([]model.Trade, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var trades []model.Trade
	for row := 1; lines < 0 || len(trades) < lines; row++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		t, err := parseRow(rec, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func parseRow(rec []string, index map[string]int) (model.Trade, error) {
	field := func(col string) (string, error) {
		i := index[col]
		if i >= len(rec) {
			return "", fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
		return strings.TrimSpace(rec[i]), nil
	}
	number := func(col string) (float64, error) {
		s, err := field(col)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", col, err)
		}
		return v, nil
	}

	var (
		t   model.Trade
		err error
	)
	if t.ID, err = field(ColID); err != nil {
		return t, err
	}
	modelTag, err := field(ColModelType)
	if err != nil {
		return t, err
	}
	if t.ModelType, err = model.ParseModelType(modelTag); err != nil {
		return t, err
	}
	if t.Spot, err = number(ColUnderlying); err != nil {
		return t, err
	}
	if t.Strike, err = number(ColStrike); err != nil {
		return t, err
	}
	if t.Rate, err = number(ColRate); err != nil {
		return t, err
	}
	days, err := number(ColDaysToExpiry)
	if err != nil {
		return t, err
	}
	t.YearsToExpiry = days / model.DaysPerYear
	if t.MarketPrice, err = number(ColMarketPrice); err != nil {
		return t, err
	}
	opt, err := field(ColOptionType)
	if err != nil {
		return t, err
	}
	t.OptionType = model.OptionType(opt)
	und, err := field(ColUnderlyingType)
	if err != nil {
		return t, err
	}
	t.UnderlyingType = model.UnderlyingType(und)
	return t, nil
}
