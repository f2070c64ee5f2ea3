package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/rolodex/libs/auth"
	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

type Authenticator interface {
	Authenticate(username, password string) (auth.User, error)
}

type TokenSigner interface {
	Sign(username string, roles []string) (string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	users  Authenticator
	tokens TokenSigner
	logger *slog.Logger
}

func NewAuth(users Authenticator, tokens TokenSigner, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	user, err := a.users.Authenticate(req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		http.Error(w, "bad username or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		a.logger.Error("authenticate failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, err := a.tokens.Sign(user.Username, user.Roles)
	if err != nil {
		a.logger.Error("sign token failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(a.tokens.TTL().Seconds()),
	})
}

func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"username": claims.Username,
		"roles":    claims.Roles,
	})
}
