// Package httpapi is the HTTP layer: routing, the authentication gate, the
// route policy table, and the JSON handlers over the marketplace services.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"servicosauto.com.br/internal/audit"
	"servicosauto.com.br/internal/auth"
	"servicosauto.com.br/internal/marketplace"
	"servicosauto.com.br/internal/media"
	"servicosauto.com.br/internal/obs"
)

// ReadyProbe pings the database for /readyz. A nil DB always reports ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Tokens    *auth.TokenService
	Resolver  *auth.Resolver
	Users     *marketplace.UserService
	Providers *marketplace.ProviderService
	Listings  *marketplace.ListingService
	Images    marketplace.ImageStore
	Creds     *media.CredentialManager
	Media     *media.Client
}

type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	tokens    *auth.TokenService
	resolver  *auth.Resolver
	policy    *auth.Policy
	users     *marketplace.UserService
	providers *marketplace.ProviderService
	listings  *marketplace.ListingService
	images    marketplace.ImageStore
	creds     *media.CredentialManager
	media     *media.Client
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		tokens:     deps.Tokens,
		resolver:   deps.Resolver,
		policy:     routePolicy(),
		users:      deps.Users,
		providers:  deps.Providers,
		listings:   deps.Listings,
		images:     deps.Images,
		creds:      deps.Creds,
		media:      deps.Media,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// login
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)

	// end users
	a.mux.HandleFunc("/api/usuarios", a.handleUsersCollection)
	a.mux.HandleFunc("/api/usuarios/", a.handleUserResource)

	// service providers
	a.mux.HandleFunc("/api/prestadores", a.handleProvidersCollection)
	a.mux.HandleFunc("/api/prestadores/", a.handleProviderResource)

	// listings
	a.mux.HandleFunc("/api/anuncios", a.handleListingsCollection)
	a.mux.HandleFunc("/api/anuncios/", a.handleListingResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// routePolicy is the ordered access table. First match wins; no match falls
// through to Authenticated.
func routePolicy() *auth.Policy {
	return auth.NewPolicy(
		auth.Rule{Pattern: "/api/auth/**", Require: auth.Public()},
		auth.Rule{Methods: []string{http.MethodGet}, Pattern: "/api/usuarios/**", Require: auth.Public()},
		auth.Rule{Methods: []string{http.MethodGet}, Pattern: "/api/prestadores/**", Require: auth.Public()},
		auth.Rule{Methods: []string{http.MethodGet}, Pattern: "/api/anuncios/**", Require: auth.Public()},
		auth.Rule{Methods: []string{http.MethodPost}, Pattern: "/api/usuarios", Require: auth.Public()},
		auth.Rule{Methods: []string{http.MethodPost}, Pattern: "/api/prestadores", Require: auth.Public()},
		auth.Rule{Methods: []string{http.MethodPatch, http.MethodDelete}, Pattern: "/api/usuarios/{id}", Require: auth.Authenticated()},
		auth.Rule{Methods: []string{http.MethodPatch, http.MethodDelete}, Pattern: "/api/prestadores/{id}", Require: auth.Authenticated()},
		auth.Rule{Methods: []string{http.MethodPost}, Pattern: "/api/usuarios/{id}/upload-image", Require: auth.Authenticated()},
		auth.Rule{Methods: []string{http.MethodPost}, Pattern: "/api/prestadores/{id}/upload-image", Require: auth.Authenticated()},
		auth.Rule{Methods: []string{http.MethodPost, http.MethodPatch, http.MethodDelete}, Pattern: "/api/anuncios/**", Require: auth.HasRole(marketplace.RoleProvider)},
		auth.Rule{Pattern: "/healthz", Require: auth.Public()},
		auth.Rule{Pattern: "/readyz", Require: auth.Public()},
		auth.Rule{Pattern: "/metrics", Require: auth.Public()},
		auth.Rule{Pattern: "/v1/info", Require: auth.Public()},
		auth.Rule{Pattern: "/", Require: auth.Public()},
	)
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 10<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "servicosauto-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "servicosauto-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) audit(ctx context.Context, event, entity, id string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["entity"] = entity
	fields["entity_id"] = id
	_ = audit.LogEvent(ctx, event, fields)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
