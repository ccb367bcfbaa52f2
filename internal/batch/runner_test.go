package batch

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IVSolver/internal/impliedvol"
	"IVSolver/internal/model"
)

func sampleTrades(n int) []model.Trade {
	trades := make([]model.Trade, n)
	for i := range trades {
		trades[i] = model.Trade{
			ID:             fmt.Sprint(i),
			Spot:           0.5434,
			Strike:         0.7103,
			Rate:           -0.0045,
			YearsToExpiry:  305.17 / model.DaysPerYear,
			MarketPrice:    0.09794149,
			OptionType:     model.OptionCall,
			UnderlyingType: model.UnderlyingStock,
			ModelType:      model.ModelBlackScholes,
		}
		if i%3 == 2 {
			trades[i].MarketPrice = -0.01
		}
	}
	return trades
}

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
	}
	return total
}

func TestRunPreservesOrder(t *testing.T) {
	trades := sampleTrades(30)
	r := NewRunner(impliedvol.NewDefaultEngine(), 4, 10, nil)

	solutions, summary, err := r.Run(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, solutions, len(trades))

	for i, s := range solutions {
		assert.Equal(t, trades[i].ID, s.ID)
		if i%3 == 2 {
			assert.True(t, math.IsNaN(s.ImpliedVolatility))
		} else {
			assert.InDelta(t, 0.7587112046962511, s.ImpliedVolatility, 1e-7)
		}
	}
	assert.Equal(t, 30, summary.Total)
	assert.Equal(t, 20, summary.Solved)
	assert.Equal(t, 10, summary.NaNCount)
	assert.Greater(t, summary.Iterations, 0)
}

func TestRunMatchesSequential(t *testing.T) {
	trades := sampleTrades(12)
	e := impliedvol.NewDefaultEngine()

	solutions, _, err := NewRunner(e, 8, 0, nil).Run(context.Background(), trades)
	require.NoError(t, err)
	for i := range trades {
		want := e.Solve(&trades[i])
		assert.Equal(t, math.Float64bits(want.ImpliedVolatility), math.Float64bits(solutions[i].ImpliedVolatility))
	}
}

func TestRunInvalidTradeDoesNotStopBatch(t *testing.T) {
	trades := sampleTrades(3)
	trades[0].Strike = 0
	trades[1].UnderlyingType = "Bond"

	solutions, summary, err := NewRunner(impliedvol.NewDefaultEngine(), 1, 0, nil).Run(context.Background(), trades)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(solutions[0].ImpliedVolatility))
	assert.True(t, math.IsNaN(solutions[1].ImpliedVolatility))
	assert.Equal(t, 3, summary.NaNCount)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewRunner(impliedvol.NewDefaultEngine(), 2, 0, nil).Run(ctx, sampleTrades(50))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	solutions, summary, err := NewRunner(impliedvol.NewDefaultEngine(), 0, 0, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, solutions)
	assert.Zero(t, summary.Total)
}

func TestRunRecordsMetrics(t *testing.T) {
	m := NewMetrics()
	_, _, err := NewRunner(impliedvol.NewDefaultEngine(), 2, 0, m).Run(context.Background(), sampleTrades(9))
	require.NoError(t, err)

	assert.Equal(t, 6.0, counterValue(t, m, "ivsolver_trades_total", map[string]string{"result": "solved"}))
	assert.Equal(t, 3.0, counterValue(t, m, "ivsolver_trades_total", map[string]string{"result": "nan"}))
	assert.Equal(t, 3.0, counterValue(t, m, "ivsolver_last_batch_nan", nil))
	assert.Equal(t, 9.0, counterValue(t, m, "ivsolver_last_batch_trades", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ivsolver_trades_total")
}
