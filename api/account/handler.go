// Package account serves account registration and login under /api/auth and
// provides the bearer token middleware.
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/auth"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/users"
	infralogger "github.com/kilianp07/evroute/infra/logger"
)

// Handler serves /api/auth.
type Handler struct {
	users  users.Store
	tokens *auth.TokenService
	log    logger.Logger
}

// NewHandler returns a Handler backed by store and tokens.
func NewHandler(store users.Store, tokens *auth.TokenService, log logger.Logger) *Handler {
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Handler{users: store, tokens: tokens, log: log}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  users.User `json:"user"`
	Token string     `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if _, err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "Name, email, and password are required.")
		return
	}
	if req.Role == "" {
		req.Role = users.RoleUser
	}
	if !users.ValidRole(req.Role) {
		api.WriteError(w, http.StatusBadRequest, "Role must be user or admin.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Errorf("register: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Server error during registration.")
		return
	}
	u, err := h.users.Create(r.Context(), users.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Role:         req.Role,
		Phone:        req.Phone,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, users.ErrExists):
		api.WriteError(w, http.StatusConflict, "A user with this email already exists.")
		return
	case err != nil:
		h.log.Errorf("register: %v", err)
		api.WriteError(w, http.StatusServiceUnavailable, "Server error during registration.")
		return
	}
	h.issue(w, http.StatusCreated, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if _, err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}
	u, err := h.users.ByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, users.ErrNotFound):
		api.WriteError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	case err != nil:
		h.log.Errorf("login: %v", err)
		api.WriteError(w, http.StatusServiceUnavailable, "Server error during login.")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		api.WriteError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	h.issue(w, http.StatusOK, u)
}

func (h *Handler) issue(w http.ResponseWriter, status int, u users.User) {
	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		h.log.Errorf("issue token for %s: %v", u.ID, err)
		api.WriteError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	if err := api.WriteJSON(w, status, authResponse{User: u, Token: token}); err != nil {
		h.log.Errorf("encode auth response: %v", err)
	}
}

type claimsKey struct{}

// ClaimsFrom returns the claims stored by RequireToken.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// RequireToken rejects requests without a valid bearer token.
func RequireToken(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				api.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := tokens.Validate(tok)
			if err != nil {
				api.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}
