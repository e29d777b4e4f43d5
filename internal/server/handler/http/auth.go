// Package http provides the HTTP handlers and routing of the catalog API.
package http

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Login checks the credentials and returns a signed session token.
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles HTTP requests for token issuance.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

// TokenRequest represents the JSON payload for a token request.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token handles POST /token requests.
// It accepts username and password as a form or as a JSON body and returns
// a bearer token. Wrong credentials are answered with 401.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.Log, badRequest("invalid request"))
			return
		}
	} else {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, h.Log, badRequest("username and password are required"))
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
