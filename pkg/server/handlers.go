package server

import (
	"encoding/json"
	"net/http"

	"github.com/versal-platform/botlogic/pkg/bot"
)

type messageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type messageResponse struct {
	Messages []string `json:"messages"`
}

type tickResponse struct {
	Items []bot.Outbound `json:"items"`
}

// handleMessage routes one inbound chat message through the bot and
// returns the reply lines.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChatID == 0 {
		s.writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	messages := s.bot.Handle(r.Context(), req.ChatID, req.Text)
	if messages == nil {
		messages = []string{}
	}
	s.writeJSON(w, messageResponse{Messages: messages})
}

// handleTickCheckLogin runs one login reconciliation sweep.
func (s *Server) handleTickCheckLogin(w http.ResponseWriter, r *http.Request) {
	items := s.bot.RunLoginSweep(r.Context())
	if items == nil {
		items = []bot.Outbound{}
	}
	s.writeJSON(w, tickResponse{Items: items})
}

// handleTickNotifications runs one notification delivery sweep.
func (s *Server) handleTickNotifications(w http.ResponseWriter, r *http.Request) {
	items := s.bot.RunNotificationSweep(r.Context())
	if items == nil {
		items = []bot.Outbound{}
	}
	s.writeJSON(w, tickResponse{Items: items})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
