package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Doot-Foundation/doot-oracle/pkg/cache"
	"github.com/Doot-Foundation/doot-oracle/pkg/consensus"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/attestor"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
	"github.com/Doot-Foundation/doot-oracle/pkg/scheduler"
)

// response is the uniform JSON envelope every endpoint returns.
type response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// endorseRequest is the inbound operator submission body.
type endorseRequest struct {
	Token       string                     `json:"token"`
	Attestation attestor.SignedAttestation `json:"attestation"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, "/health", http.StatusOK, response{Status: true, Message: "ok"})
}

// handlePrices handles GET /api/v1/prices.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	prices := make(map[string]oracle.CachedPrice)
	for _, t := range token.All() {
		entry, err := s.service.LatestPrice(r.Context(), t)
		if err != nil {
			continue
		}
		prices[t.String()] = entry
	}

	if len(prices) == 0 {
		s.writeJSON(w, "/api/v1/prices", http.StatusServiceUnavailable,
			response{Status: false, Message: "no prices available"})
		return
	}

	s.writeJSON(w, "/api/v1/prices", http.StatusOK,
		response{Status: true, Message: "latest prices", Data: prices})
}

// handlePrice handles GET /api/v1/price/{token}.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	t, err := token.Parse(mux.Vars(r)["token"])
	if err != nil {
		s.writeJSON(w, "/api/v1/price", http.StatusBadRequest,
			response{Status: false, Message: err.Error()})
		return
	}

	entry, err := s.service.LatestPrice(r.Context(), t)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, cache.ErrNotFound) {
			code = http.StatusNotFound
		}
		s.writeJSON(w, "/api/v1/price", code,
			response{Status: false, Message: err.Error()})
		return
	}

	s.writeJSON(w, "/api/v1/price", http.StatusOK,
		response{Status: true, Message: "latest price", Data: entry})
}

// handleHistorical handles GET /api/v1/historical.
func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	payload, cid, err := s.service.HistoricalInfo(r.Context())
	if err != nil {
		s.writeJSON(w, "/api/v1/historical", http.StatusServiceUnavailable,
			response{Status: false, Message: err.Error()})
		return
	}

	s.writeJSON(w, "/api/v1/historical", http.StatusOK, response{
		Status:  true,
		Message: "historical snapshot",
		Data: map[string]interface{}{
			"cid":     cid,
			"payload": payload,
		},
	})
}

// handleSlot handles GET /api/v1/slot/{token}.
func (s *Server) handleSlot(w http.ResponseWriter, r *http.Request) {
	t, err := token.Parse(mux.Vars(r)["token"])
	if err != nil {
		s.writeJSON(w, "/api/v1/slot", http.StatusBadRequest,
			response{Status: false, Message: err.Error()})
		return
	}

	record, err := s.tracker.Slot(r.Context(), t)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, cache.ErrNotFound) {
			code = http.StatusNotFound
		}
		s.writeJSON(w, "/api/v1/slot", code,
			response{Status: false, Message: err.Error()})
		return
	}

	s.writeJSON(w, "/api/v1/slot", http.StatusOK,
		response{Status: true, Message: "consensus slot", Data: record})
}

// handleEndorse handles POST /api/v1/endorse.
func (s *Server) handleEndorse(w http.ResponseWriter, r *http.Request) {
	var req endorseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, "/api/v1/endorse", http.StatusBadRequest,
			response{Status: false, Message: "malformed request body"})
		return
	}

	t, err := token.Parse(req.Token)
	if err != nil {
		s.writeJSON(w, "/api/v1/endorse", http.StatusBadRequest,
			response{Status: false, Message: err.Error()})
		return
	}

	if err := s.tracker.SubmitEndorsement(r.Context(), t, req.Attestation); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, consensus.ErrInvalidSignature) || errors.Is(err, consensus.ErrMissingPublicKey) {
			code = http.StatusBadRequest
		}
		s.writeJSON(w, "/api/v1/endorse", code,
			response{Status: false, Message: err.Error()})
		return
	}

	s.writeJSON(w, "/api/v1/endorse", http.StatusOK,
		response{Status: true, Message: "endorsement accepted"})
}

// taskHandler wraps a task body in the orchestrator's de-duplicated execute.
// Partial success is HTTP 200 with the failed token list; only a hard task
// failure is an error status.
func (s *Server) taskHandler(name string, fn scheduler.TaskFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := s.orchestrator.Execute(r.Context(), name, fn)

		switch report.Status {
		case scheduler.StatusSkipped:
			s.writeJSON(w, "/api/tasks/"+name, http.StatusOK, response{
				Status:  true,
				Message: "skipped, already running",
			})
		case scheduler.StatusFailed:
			s.writeJSON(w, "/api/tasks/"+name, http.StatusInternalServerError, response{
				Status:  false,
				Message: errMessage(report),
				Data:    map[string]interface{}{"failed": report.Failed},
			})
		default:
			s.writeJSON(w, "/api/tasks/"+name, http.StatusOK, response{
				Status:  true,
				Message: "task completed",
				Data:    map[string]interface{}{"failed": report.Failed},
			})
		}
	}
}

// handleCycle handles POST /api/tasks/cycle: schedule the full cycle and
// return immediately without waiting for any task.
func (s *Server) handleCycle(w http.ResponseWriter, _ *http.Request) {
	s.orchestrator.RunCycle()
	s.writeJSON(w, "/api/tasks/cycle", http.StatusOK,
		response{Status: true, Message: "cycle scheduled"})
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, code int, body response) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", "endpoint", endpoint, "error", err.Error())
	}
	metrics.RecordHTTPRequest(endpoint, strconv.Itoa(code), time.Since(start))
}

func errMessage(report scheduler.Report) string {
	if report.Err != nil {
		return report.Err.Error()
	}
	return "task failed"
}
