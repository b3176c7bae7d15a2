package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"servicosauto.com.br/internal/auth"
)

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin resolves the login against both identity stores and issues a
// token on a password match. Unknown identities and wrong passwords share one
// response so the caller cannot tell which store was probed.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Senha == "" {
		writeError(w, r, http.StatusBadRequest, "email and senha are required")
		return
	}

	principal, err := a.resolver.ResolveByLogin(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotFound) {
			a.audit(r.Context(), "auth.login.failed", "principal", email, map[string]any{"reason": "unknown_identity"})
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.VerifyPassword(principal.PasswordHash, req.Senha); err != nil {
		a.audit(r.Context(), "auth.login.failed", "principal", email, map[string]any{"reason": "bad_password"})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := a.tokens.Issue(principal)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	a.audit(r.Context(), "auth.login.issued", "principal", principal.LoginID, map[string]any{
		"kind":  string(principal.Kind),
		"roles": principal.Roles,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
