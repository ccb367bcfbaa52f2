package exporter

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IVSolver/internal/model"
)

func solutions() []model.Solution {
	tr := model.Trade{
		ID: "7", Spot: 1.5, Strike: 1.25, Rate: 0.01, YearsToExpiry: 0.5, MarketPrice: 0.3,
		OptionType: model.OptionPut, UnderlyingType: model.UnderlyingFuture, ModelType: model.ModelBachelier,
	}
	other := tr
	other.ID = "8"
	return []model.Solution{
		{Trade: tr, ImpliedVolatility: 0.25, Iterations: 6},
		{Trade: other, ImpliedVolatility: math.NaN()},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	nanCount, err := Write(&buf, solutions())
	require.NoError(t, err)
	assert.Equal(t, 1, nanCount)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Spot,Strike,Risk-Free Rate,Years to Expiry,Option Type,Model Type,Implied Volatility,Market Price", lines[0])
	assert.Equal(t, "7,1.5,1.25,0.01,0.5,Put,Bachelier,0.25,0.3", lines[1])
	assert.Equal(t, "8,1.5,1.25,0.01,0.5,Put,Bachelier,nan,0.3", lines[2])
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	nanCount, err := WriteFile(path, solutions())
	require.NoError(t, err)
	assert.Equal(t, 1, nanCount)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "ID,Spot"))
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	nanCount, err := Write(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, nanCount)
	assert.Equal(t, strings.Join(model.OutputHeader, ",")+"\n", buf.String())
}
