package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/security"
	"github.com/username/stockfolio/src/utils"
)

type SessionHandler struct {
	authService *security.AuthService
}

func NewSessionHandler(authService *security.AuthService) *SessionHandler {
	return &SessionHandler{authService: authService}
}

type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.HandleCreateSession)
}

// HandleCreateSession issues a new anonymous session.
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, token, err := h.authService.NewSession()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to issue session token", "error", err)
		utils.SendJSONError(w, "Could not create session", http.StatusInternalServerError)
		return
	}
	logger.FromContext(r.Context()).Info("Session created", "sessionID", sessionID)
	utils.SendJSON(w, SessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(h.authService.TokenExpiry).UTC(),
	}, http.StatusCreated)
}
