package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/promptarena/arena/internal/application"
	"github.com/promptarena/arena/internal/domain"
)

// battleRequest starts one battle for an anonymous session.
type battleRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req battleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "prompt is required")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "session_id is required")
		return
	}

	result, err := s.orchestrator.StartBattle(r.Context(), req.Prompt, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientModels) {
			writeError(w, http.StatusServiceUnavailable, "INSUFFICIENT_MODELS", "need at least two active models")
			return
		}
		s.logger.Error().Err(err).Msg("battle failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to start battle")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// voteRequest records one outcome. A null vote means a tie.
type voteRequest struct {
	BattleID  string  `json:"battle_id"`
	Vote      *string `json:"vote"`
	SessionID string  `json:"session_id"`
}

// side maps the wire value onto the outcome domain: "left", "right", or
// null for a tie.
func (v voteRequest) side() (domain.Side, bool) {
	if v.Vote == nil {
		return domain.SideTie, true
	}
	side := domain.Side(*v.Vote)
	if side == domain.SideTie {
		return side, true
	}
	if side == domain.SideLeft || side == domain.SideRight {
		return side, true
	}
	return "", false
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if req.BattleID == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "battle_id and session_id are required")
		return
	}
	side, ok := req.side()
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "vote must be \"left\", \"right\", \"tie\", or null")
		return
	}

	result, err := s.ledger.CastVote(r.Context(), req.BattleID, side, req.SessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, domain.ErrBattleNotFound):
		writeError(w, http.StatusNotFound, "BATTLE_NOT_FOUND", "battle does not exist")
	case errors.Is(err, domain.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "DUPLICATE_VOTE", "session already voted on this battle")
	case errors.Is(err, domain.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid vote side")
	default:
		s.logger.Error().Err(err).Msg("vote failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to record vote")
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.leaderboard.Standings(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("leaderboard failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.leaderboard.Stats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("stats failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	result, err := s.recomputer.Run(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("recompute failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to recompute ratings")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// adminID identifies the operator for the audit log.
func adminID(r *http.Request) string {
	if id := r.Header.Get("X-Admin-Id"); id != "" {
		return id
	}
	return "admin"
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.admin.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleAddModel(w http.ResponseWriter, r *http.Request) {
	var p application.AddModelParams
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if p.Name == "" || p.Provider == "" || p.BackendModelID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "name, provider, and backend_model_id are required")
		return
	}
	m, err := s.admin.AddModel(r.Context(), adminID(r), p)
	if err != nil {
		s.logger.Error().Err(err).Msg("add model failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to add model")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	var p application.UpdateModelParams
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	m, err := s.admin.UpdateModel(r.Context(), adminID(r), chi.URLParam(r, "id"), p)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, m)
	case errors.Is(err, domain.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "model does not exist")
	default:
		s.logger.Error().Err(err).Msg("update model failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to update model")
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetModelStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	status := domain.ModelStatus(req.Status)
	if status != domain.ModelStatusActive && status != domain.ModelStatusDisabled {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "status must be \"active\" or \"disabled\"")
		return
	}
	m, err := s.admin.SetModelStatus(r.Context(), adminID(r), chi.URLParam(r, "id"), status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, m)
	case errors.Is(err, domain.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "model does not exist")
	default:
		s.logger.Error().Err(err).Msg("set model status failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to update model status")
	}
}

func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	entries, err := s.admin.Logs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}
