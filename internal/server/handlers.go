package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"IVSolver/internal/model"
	"IVSolver/internal/recorder"
	"IVSolver/internal/scheduler"
)

const maxBatchTrades = 10000

// tradeRequest mirrors one input CSV row. Either days_to_expiry or
// years_to_expiry may be given.
type tradeRequest struct {
	ID             string  `json:"id"`
	UnderlyingType string  `json:"underlying_type"`
	Spot           float64 `json:"spot"`
	Rate           float64 `json:"rate"`
	DaysToExpiry   float64 `json:"days_to_expiry"`
	YearsToExpiry  float64 `json:"years_to_expiry"`
	Strike         float64 `json:"strike"`
	OptionType     string  `json:"option_type"`
	ModelType      string  `json:"model_type"`
	MarketPrice    float64 `json:"market_price"`
}

func (r *tradeRequest) trade() (model.Trade, error) {
	m, err := model.ParseModelType(r.ModelType)
	if err != nil {
		return model.Trade{}, err
	}
	years := r.YearsToExpiry
	if years == 0 {
		years = r.DaysToExpiry / model.DaysPerYear
	}
	return model.Trade{
		ID:             r.ID,
		Spot:           r.Spot,
		Strike:         r.Strike,
		Rate:           r.Rate,
		YearsToExpiry:  years,
		MarketPrice:    r.MarketPrice,
		OptionType:     model.OptionType(r.OptionType),
		UnderlyingType: model.UnderlyingType(r.UnderlyingType),
		ModelType:      m,
	}, nil
}

// solutionResponse encodes NaN volatility as null.
type solutionResponse struct {
	model.Trade
	ImpliedVolatility *float64 `json:"implied_volatility"`
	Iterations        int      `json:"iterations"`
}

func toResponse(s *model.Solution) solutionResponse {
	resp := solutionResponse{Trade: s.Trade, Iterations: s.Iterations}
	if s.Solved() {
		iv := s.ImpliedVolatility
		resp.ImpliedVolatility = &iv
	}
	return resp
}

type runResponse struct {
	ID         int64   `json:"id,omitempty"`
	Source     string  `json:"source"`
	Output     string  `json:"output,omitempty"`
	StartedAt  string  `json:"started_at"`
	DurationMs int64   `json:"duration_ms"`
	Total      int     `json:"total"`
	Solved     int     `json:"solved"`
	NaNCount   int     `json:"nan_count"`
	AvgIters   float64 `json:"avg_iterations"`
}

func toRunResponse(id int64, s *model.BatchSummary) runResponse {
	avg := 0.0
	if s.Solved > 0 {
		avg = float64(s.Iterations) / float64(s.Solved)
	}
	return runResponse{
		ID:         id,
		Source:     s.Source,
		Output:     s.Output,
		StartedAt:  s.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		DurationMs: s.Duration.Milliseconds(),
		Total:      s.Total,
		Solved:     s.Solved,
		NaNCount:   s.NaNCount,
		AvgIters:   avg,
	}
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := req.trade()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sol := s.runner.Engine.Solve(&t)
	s.runner.Metrics.Observe(&sol)
	writeJSON(w, http.StatusOK, toResponse(&sol))
}

func (s *Server) handleSolveBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Trades []tradeRequest `json:"trades"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Trades) > maxBatchTrades {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d trades per request", maxBatchTrades))
		return
	}
	trades := make([]model.Trade, len(req.Trades))
	for i := range req.Trades {
		t, err := req.Trades[i].trade()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("trade %d: %v", i, err))
			return
		}
		trades[i] = t
	}

	solutions, summary, err := s.runner.Run(r.Context(), trades)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	out := make([]solutionResponse, len(solutions))
	for i := range solutions {
		out[i] = toResponse(&solutions[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"solutions": out,
		"nan_count": summary.NaNCount,
	})
}

func (s *Server) handleLastRun(w http.ResponseWriter, _ *http.Request) {
	run, err := s.recorder.LastRun()
	if errors.Is(err, recorder.ErrNoRuns) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run.ID, &run.BatchSummary))
}

func (s *Server) handleRunSolutions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	solutions, err := s.recorder.RunSolutions(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]solutionResponse, len(solutions))
	for i := range solutions {
		out[i] = toResponse(&solutions[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, _ *http.Request) {
	if s.trigger == nil {
		writeError(w, http.StatusNotImplemented, "no batch input configured")
		return
	}
	summary, err := s.trigger.RunBatchNow()
	if errors.Is(err, scheduler.ErrBatchRunning) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(0, summary))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
