package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IVSolver/internal/batch"
	"IVSolver/internal/impliedvol"
	"IVSolver/internal/model"
	"IVSolver/internal/recorder"
	"IVSolver/internal/scheduler"
)

type stubTrigger struct {
	summary *model.BatchSummary
	err     error
}

func (s *stubTrigger) RunBatchNow() (*model.BatchSummary, error) { return s.summary, s.err }

func newTestServer(t *testing.T, trigger BatchTrigger) (*Server, recorder.Recorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	runner := batch.NewRunner(impliedvol.NewDefaultEngine(), 2, 0, batch.NewMetrics())
	return New(runner, rec, trigger), rec
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func bsCall(price float64) map[string]any {
	return map[string]any{
		"id":              "0",
		"underlying_type": "Stock",
		"spot":            0.5434,
		"rate":            -0.0045,
		"days_to_expiry":  305.17,
		"strike":          0.7103,
		"option_type":     "Call",
		"model_type":      "BlackScholes",
		"market_price":    price,
	}
}

func TestSolveEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp := do(t, s, http.MethodPost, "/api/implied-volatility", bsCall(0.09794149))
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		ID                string   `json:"id"`
		ImpliedVolatility *float64 `json:"implied_volatility"`
		Iterations        int      `json:"iterations"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "0", out.ID)
	require.NotNil(t, out.ImpliedVolatility)
	assert.InDelta(t, 0.7587112046962511, *out.ImpliedVolatility, 1e-7)
	assert.Positive(t, out.Iterations)

	resp = do(t, s, http.MethodPost, "/api/implied-volatility", bsCall(-0.01))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"implied_volatility":null`)
}

func TestSolveEndpointRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t, nil)

	unknown := bsCall(0.1)
	unknown["model_type"] = "Heston"
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/implied-volatility", unknown).Code)

	invalid := bsCall(0.1)
	invalid["strike"] = 0
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodPost, "/api/implied-volatility", invalid).Code)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/implied-volatility", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/api/implied-volatility", nil).Code)
}

func TestWrongMethodIsRejected(t *testing.T) {
	s, _ := newTestServer(t, nil)
	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/implied-volatility"},
		{http.MethodGet, "/api/implied-volatility/batch"},
		{http.MethodGet, "/api/runs"},
		{http.MethodPost, "/api/runs/last"},
		{http.MethodDelete, "/api/runs/1/solutions"},
		{http.MethodPost, "/healthz"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := do(t, s, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
			assert.Contains(t, resp.Body.String(), "not allowed")
		})
	}
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/unknown", nil).Code)
}

func TestSolveBatchEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := map[string]any{"trades": []map[string]any{bsCall(0.09794149), bsCall(-0.01), bsCall(0.09794149)}}

	resp := do(t, s, http.MethodPost, "/api/implied-volatility/batch", body)
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		Solutions []struct {
			ImpliedVolatility *float64 `json:"implied_volatility"`
		} `json:"solutions"`
		NaNCount int `json:"nan_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Solutions, 3)
	assert.NotNil(t, out.Solutions[0].ImpliedVolatility)
	assert.Nil(t, out.Solutions[1].ImpliedVolatility)
	assert.Equal(t, 1, out.NaNCount)
}

func TestRunsEndpoints(t *testing.T) {
	s, rec := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/last", nil).Code)

	summary := &model.BatchSummary{Source: "in.csv", Total: 2, Solved: 1, NaNCount: 1, Iterations: 9,
		StartedAt: time.Now(), Duration: time.Second}
	tr := model.Trade{ID: "a", Spot: 1, Strike: 1, YearsToExpiry: 1, OptionType: model.OptionCall,
		UnderlyingType: model.UnderlyingStock, ModelType: model.ModelBlackScholes}
	id, err := rec.RecordRun(summary, []model.Solution{{Trade: tr, ImpliedVolatility: 0.3, Iterations: 9}})
	require.NoError(t, err)

	resp := do(t, s, http.MethodGet, "/api/runs/last", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var run runResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &run))
	assert.Equal(t, id, run.ID)
	assert.Equal(t, 1, run.NaNCount)
	assert.Equal(t, int64(1000), run.DurationMs)
	assert.Equal(t, 9.0, run.AvgIters)

	resp = do(t, s, http.MethodGet, "/api/runs/1/solutions", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"implied_volatility":0.3`)
}

func TestTriggerRun(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotImplemented, do(t, s, http.MethodPost, "/api/runs", nil).Code)

	s, _ = newTestServer(t, &stubTrigger{summary: &model.BatchSummary{Total: 5}})
	resp := do(t, s, http.MethodPost, "/api/runs", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":5`)

	s, _ = newTestServer(t, &stubTrigger{err: scheduler.ErrBatchRunning})
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, "/api/runs", nil).Code)

	s, _ = newTestServer(t, &stubTrigger{err: errors.New("disk full")})
	assert.Equal(t, http.StatusInternalServerError, do(t, s, http.MethodPost, "/api/runs", nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code)

	do(t, s, http.MethodPost, "/api/implied-volatility", bsCall(0.09794149))
	resp := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `ivsolver_trades_total{model="BlackScholes",result="solved",underlying="Stock"} 1`)
}
