package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/repositories"
	"github.com/mpchat/server/internal/services"
)

type Handlers struct {
	auth     *services.AuthService
	users    repositories.UserRepository
	messages repositories.MessageRepository
}

func NewHandlers(auth *services.AuthService, users repositories.UserRepository, messages repositories.MessageRepository) *Handlers {
	return &Handlers{auth: auth, users: users, messages: messages}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Username) < 3 {
		respondError(w, http.StatusBadRequest, "invalid input")
		return
	}

	resp, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrUsernameExists) {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid input")
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ListChats returns the newest message per conversation partner.
func (h *Handlers) ListChats(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListChats(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	peerID, err := uuid.Parse(chi.URLParam(r, "peerID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid peer id")
		return
	}

	messages, err := h.messages.ListConversation(r.Context(), userIDFrom(r.Context()), peerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// CreateMessage is the REST path for creating a message. Unlike the relay it
// performs no real-time delivery; recipients see the message on their next
// history fetch.
func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var draft models.MessageDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid input")
		return
	}
	if (draft.ReceiverID == nil) == (draft.GroupID == nil) || draft.Content == "" {
		respondError(w, http.StatusBadRequest, "invalid input")
		return
	}

	msgType := draft.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	message := &models.Message{
		ID:         uuid.New(),
		SenderID:   userIDFrom(r.Context()),
		ReceiverID: draft.ReceiverID,
		GroupID:    draft.GroupID,
		Content:    draft.Content,
		Type:       msgType,
		Status:     models.StatusSent,
		MediaURL:   draft.MediaURL,
		FileName:   draft.FileName,
		FileSize:   draft.FileSize,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.messages.Create(r.Context(), message); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create message")
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// MarkRead is the read-receipt integration point: receivers acknowledge a
// message over HTTP, and the status row moves forward at most once.
func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	message, err := h.messages.GetByID(r.Context(), messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(w, http.StatusNotFound, "message not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Only the receiving side may advance the status.
	userID := userIDFrom(r.Context())
	if message.ReceiverID == nil || *message.ReceiverID != userID {
		respondError(w, http.StatusForbidden, "not the receiver of this message")
		return
	}

	err = h.messages.UpdateStatus(r.Context(), messageID, models.StatusRead)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusRead)})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
