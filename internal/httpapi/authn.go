package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"servicosauto.com.br/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth is the authentication gate. It runs once per request before
// dispatch: a missing header leaves the request anonymous, a present token is
// verified and attached to the context, and the policy table decides whether
// the request may proceed. Invalid tokens reject the request only when the
// matched rule is not Public, so a bad credential never blocks a public
// route.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		var identity *auth.Identity
		if raw := strings.TrimSpace(r.Header.Get(authHeader)); raw != "" {
			token, err := extractBearerToken(raw)
			if err == nil {
				id, verr := a.tokens.Verify(token)
				err = verr
				if verr == nil {
					identity = &id
				}
			}
			if err != nil && !a.policy.Classify(r.Method, r.URL.Path).IsPublic() {
				writeError(w, r, http.StatusUnauthorized, authFailureMessage(err))
				return
			}
		}

		decision := a.policy.Decide(r.Method, r.URL.Path, identity)
		if !decision.Allowed {
			if decision.Status == http.StatusForbidden {
				writeError(w, r, http.StatusForbidden, "missing required role")
			} else {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
			}
			return
		}

		if identity != nil {
			r = r.WithContext(auth.ContextWithIdentity(r.Context(), *identity))
		}
		next.ServeHTTP(w, r)
	})
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrBadSignature), errors.Is(err, auth.ErrMalformedToken):
		return "invalid token"
	default:
		return "invalid authorization header"
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}
