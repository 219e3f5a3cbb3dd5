package http

import (
	"fmt"
	"net/http"
	"strconv"

	"bilancio/internal/core"
	"bilancio/internal/forecast"
)

const defaultHorizon = 12

func (s *Server) handleAccountForecast(w http.ResponseWriter, r *http.Request) {
	horizon := defaultHorizon
	if v := r.URL.Query().Get("horizon"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: horizon %q", core.ErrInvalidInput, v))
			return
		}
		horizon = h
	}
	if s.forecasts == nil {
		writeError(w, r, core.ErrModelUnavailable)
		return
	}
	res, err := s.forecasts.Forecast(r.Context(), r.PathValue("id"), horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	trend, err := forecast.PredictTrend(req.series(), req.Horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{Trend: trend})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if s.predictor == nil {
		writeError(w, r, core.ErrModelUnavailable)
		return
	}
	out, err := s.predictor.PredictNextYear(r.Context(), req.series())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelResponse{Forecast: out})
}
