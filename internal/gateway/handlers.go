package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/soyeahso/tripdesk/internal/checkpoint"
	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/intent"
	"github.com/soyeahso/tripdesk/internal/orchestrator"
	"github.com/soyeahso/tripdesk/internal/version"
)

type messageRequest struct {
	PassengerID string `json:"passengerId,omitempty"`
	Text        string `json:"text"`
}

type approvalRequest struct {
	Decision string `json:"decision"` // "approve" | "deny"
	Reason   string `json:"reason,omitempty"`
}

type threadStatus struct {
	ThreadID        string                  `json:"threadId"`
	ActiveAssistant string                  `json:"activeAssistant"`
	Suspended       bool                    `json:"suspended"`
	Pending         *domain.PendingApproval `json:"pending,omitempty"`
	Messages        int                     `json:"messages"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	user := domain.UserContext{PassengerID: req.PassengerID}
	res, err := s.orch.Message(r.Context(), threadID, user, req.Text)
	if err != nil {
		if errors.Is(err, intent.ErrProducer) && res != nil {
			// The apology reply is already part of the thread.
			writeJSON(w, http.StatusBadGateway, res)
			return
		}
		s.log.Error().Str("thread", threadID).Err(err).Msg("message turn failed")
		writeError(w, http.StatusInternalServerError, "turn failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		res *orchestrator.TurnResult
		err error
	)
	switch req.Decision {
	case "approve":
		res, err = s.orch.Approve(r.Context(), threadID)
	case "deny":
		res, err = s.orch.Deny(r.Context(), threadID, req.Reason)
	default:
		writeError(w, http.StatusBadRequest, "decision must be approve or deny")
		return
	}

	if err != nil {
		if errors.Is(err, orchestrator.ErrNoPendingApproval) {
			writeError(w, http.StatusConflict, "no pending approval for this thread")
			return
		}
		if errors.Is(err, intent.ErrProducer) && res != nil {
			writeJSON(w, http.StatusBadGateway, res)
			return
		}
		s.log.Error().Str("thread", threadID).Err(err).Msg("approval turn failed")
		writeError(w, http.StatusInternalServerError, "turn failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleThreadStatus(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	conv, err := s.orch.Status(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			writeError(w, http.StatusNotFound, "thread not found")
			return
		}
		s.log.Error().Str("thread", threadID).Err(err).Msg("status lookup failed")
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, threadStatus{
		ThreadID:        conv.ThreadID,
		ActiveAssistant: conv.ActiveWorkflow(),
		Suspended:       conv.Suspended(),
		Pending:         conv.Pending,
		Messages:        len(conv.Messages),
		UpdatedAt:       conv.UpdatedAt,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	s.hub.serveWS(w, r, threadID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
