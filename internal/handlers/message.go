package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"podcast-kb/internal/admission"
	"podcast-kb/internal/models"
	"podcast-kb/internal/websocket"
	"podcast-kb/internal/worker"
)

const maxMessageBytes = 1 << 20

type sessionRegistry interface {
	Lookup(id string) (*websocket.Session, bool)
}

type admitter interface {
	Admit() (*admission.Ticket, error)
}

type submitter interface {
	Submit(job worker.Job) error
}

// MessageHandler accepts operation requests posted against an open session.
// Results are pushed over the session, not returned in the response.
type MessageHandler struct {
	sessions   sessionRegistry
	controller admitter
	pool       submitter
}

func NewMessageHandler(sessions sessionRegistry, controller admitter, pool submitter) *MessageHandler {
	return &MessageHandler{sessions: sessions, controller: controller, pool: pool}
}

func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"sessionId": "is required"}, r))
		return
	}
	if _, ok := h.sessions.Lookup(sessionID); !ok {
		handleServiceError(w, r, websocket.ErrSessionNotFound)
		return
	}

	var req models.OperationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	req.Method = strings.TrimSpace(req.Method)
	if req.Method == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"method": "is required"}, r))
		return
	}

	ticket, err := h.controller.Admit()
	if err != nil {
		log.Printf("Rejected %s for session %s: %v", req.Method, sessionID, err)
		handleServiceError(w, r, err)
		return
	}

	err = h.pool.Submit(worker.Job{SessionID: sessionID, Request: req, Ticket: ticket})
	if err != nil {
		ticket.Abort()
		code := "SERVICE_UNAVAILABLE"
		if errors.Is(err, worker.ErrQueueFull) {
			code = "QUEUE_FULL"
		}
		log.Printf("Could not queue %s for session %s: %v", req.Method, sessionID, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResp(code, err.Error(), r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"id":     req.ID,
	})
}
