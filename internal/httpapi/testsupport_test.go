package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"servicosauto.com.br/internal/auth"
	"servicosauto.com.br/internal/marketplace"
	"servicosauto.com.br/internal/media"
)

// In-memory stores backing handler tests.

type fakeUserStore struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*marketplace.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*marketplace.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, u *marketplace.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	u.ID = s.seq
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id int64) (*marketplace.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, marketplace.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*marketplace.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (s *fakeUserStore) FindByCPF(_ context.Context, cpf string) (*marketplace.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.CPF == cpf {
			cp := *u
			return &cp, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (s *fakeUserStore) List(_ context.Context) ([]*marketplace.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*marketplace.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeUserStore) Update(_ context.Context, u *marketplace.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return marketplace.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

type fakeProviderStore struct {
	mu        sync.Mutex
	seq       int64
	providers map[int64]*marketplace.Provider
}

func newFakeProviderStore() *fakeProviderStore {
	return &fakeProviderStore{providers: map[int64]*marketplace.Provider{}}
}

func (s *fakeProviderStore) Create(_ context.Context, p *marketplace.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.ID = s.seq
	cp := *p
	s.providers[p.ID] = &cp
	return nil
}

func (s *fakeProviderStore) FindByID(_ context.Context, id int64) (*marketplace.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, marketplace.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProviderStore) FindByEmail(_ context.Context, email string) (*marketplace.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (s *fakeProviderStore) List(_ context.Context) ([]*marketplace.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*marketplace.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeProviderStore) Update(_ context.Context, p *marketplace.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[p.ID]; !ok {
		return marketplace.ErrNotFound
	}
	cp := *p
	s.providers[p.ID] = &cp
	return nil
}

type fakeListingStore struct {
	mu       sync.Mutex
	seq      int64
	listings map[int64]*marketplace.Listing
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: map[int64]*marketplace.Listing{}}
}

func (s *fakeListingStore) Create(_ context.Context, l *marketplace.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	l.ID = s.seq
	cp := *l
	s.listings[l.ID] = &cp
	return nil
}

func (s *fakeListingStore) FindByID(_ context.Context, id int64) (*marketplace.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, marketplace.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeListingStore) List(_ context.Context) ([]*marketplace.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*marketplace.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeListingStore) Update(_ context.Context, l *marketplace.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[l.ID]; !ok {
		return marketplace.ErrNotFound
	}
	cp := *l
	s.listings[l.ID] = &cp
	return nil
}

type fakeImageStore struct {
	mu     sync.Mutex
	images []*marketplace.Image
}

func (s *fakeImageStore) Create(_ context.Context, img *marketplace.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img.ID == "" {
		img.ID = fmt.Sprintf("img-%d", len(s.images)+1)
	}
	cp := *img
	s.images = append(s.images, &cp)
	return nil
}

func (s *fakeImageStore) ListByOwner(_ context.Context, owner marketplace.Image) ([]*marketplace.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*marketplace.Image
	for _, img := range s.images {
		if owner.UserID != nil && (img.UserID == nil || *img.UserID != *owner.UserID) {
			continue
		}
		if owner.ProviderID != nil && (img.ProviderID == nil || *img.ProviderID != *owner.ProviderID) {
			continue
		}
		if owner.ListingID != nil && (img.ListingID == nil || *img.ListingID != *owner.ListingID) {
			continue
		}
		cp := *img
		out = append(out, &cp)
	}
	return out, nil
}

// fakeMediaHost serves the image host contract for upload tests.
func fakeMediaHost(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "media-token"})
	})
	mux.HandleFunc("/3/account/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer media-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/3/image", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"link":       "https://i.example.com/up.png",
				"id":         "up",
				"deletehash": "del-up",
				"type":       "image/png",
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	api       *API
	tokens    *auth.TokenService
	users     *marketplace.UserService
	providers *marketplace.ProviderService
	images    *fakeImageStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userStore := newFakeUserStore()
	providerStore := newFakeProviderStore()
	listingStore := newFakeListingStore()
	imageStore := &fakeImageStore{}

	tokens, err := auth.NewTokenService("test-signing-secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	resolver := auth.NewResolver(
		marketplace.UserSource(userStore),
		marketplace.ProviderSource(providerStore),
	)

	host := fakeMediaHost(t)
	client, err := media.NewClient(media.Config{
		BaseURL:      host.URL + "/3",
		AuthURL:      host.URL + "/oauth2/token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		RefreshToken: "rtoken",
	}, host.Client())
	if err != nil {
		t.Fatalf("media client: %v", err)
	}

	users := marketplace.NewUserService(userStore)
	providers := marketplace.NewProviderService(providerStore)
	listings := marketplace.NewListingService(listingStore, providerStore)

	api := New(ReadyProbe{}, "test", Deps{
		Tokens:    tokens,
		Resolver:  resolver,
		Users:     users,
		Providers: providers,
		Listings:  listings,
		Images:    imageStore,
		Creds:     media.NewCredentialManager(client),
		Media:     client,
	})
	return &testEnv{
		api:       api,
		tokens:    tokens,
		users:     users,
		providers: providers,
		images:    imageStore,
	}
}

// tokenFor issues a token for a registered subject.
func (e *testEnv) tokenFor(t *testing.T, subject auth.Subject, kind auth.Kind) string {
	t.Helper()
	token, _, err := e.tokens.Issue(auth.NewPrincipal(subject, kind))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}
