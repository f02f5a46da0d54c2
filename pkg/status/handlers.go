package status

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/itohio/aquanode/pkg/history"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultMaxPoints caps /api/readings when max is not given.
const DefaultMaxPoints = 200

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st := s.src.Status()
	code := http.StatusOK
	if !st.Running {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, st)
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	reading, ok := s.src.History().Latest()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no readings yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, reading)
}

func (s *Server) readings(w http.ResponseWriter, r *http.Request) {
	maxPoints := DefaultMaxPoints
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max must be a positive integer"})
			return
		}
		maxPoints = n
	}

	readings := history.Downsample(nil, s.src.History().Readings(), maxPoints)
	s.writeJSON(w, http.StatusOK, readings)
}

func (s *Server) trend(w http.ResponseWriter, r *http.Request) {
	t, ok := s.src.History().Trend()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not enough readings"})
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// config serves the redacted configuration in the same YAML layout as the
// configuration file.
func (s *Server) config(w http.ResponseWriter, r *http.Request) {
	data, err := yaml.Marshal(s.cfg.Redacted())
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Debug("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("failed to write response", zap.Error(err))
	}
}
