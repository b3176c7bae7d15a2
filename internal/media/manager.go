package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrCredentialUnavailable means the shared credential could not be acquired
// or refreshed. It is surfaced only to the request that needed the media API;
// unrelated requests are unaffected, and no internal retry is attempted.
var ErrCredentialUnavailable = errors.New("media: credential unavailable")

const defaultFreshWindow = 30 * time.Second

// CredentialManager owns the single process-wide access credential for the
// image host and serializes its refresh.
//
// State machine: Unset → Valid → (probe fails) → Unset. Freshness is decided
// by a live probe, not a locally tracked expiry. A successful probe or
// refresh starts a known-fresh window during which EnsureValid returns
// immediately without re-probing; outside the window every call re-probes.
// That caching choice is deliberate and consistent: uploads observe at most
// one probe per window.
//
// EnsureValid is safe under concurrent use: callers observing a stale or
// unset credential collapse into exactly one refresh, all receiving the
// resulting credential or the resulting failure.
type CredentialManager struct {
	client *Client
	now    func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	token     string
	checkedAt time.Time
	freshFor  time.Duration
}

// ManagerOption configures a CredentialManager.
type ManagerOption func(*CredentialManager)

// WithFreshWindow overrides how long a probed credential is trusted without
// re-probing. Zero disables the cache so every call probes.
func WithFreshWindow(d time.Duration) ManagerOption {
	return func(m *CredentialManager) {
		if d >= 0 {
			m.freshFor = d
		}
	}
}

// WithManagerClock overrides the time source (useful for tests).
func WithManagerClock(fn func() time.Time) ManagerOption {
	return func(m *CredentialManager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewCredentialManager builds the manager. The credential starts Unset and is
// acquired on first use.
func NewCredentialManager(client *Client, opts ...ManagerOption) *CredentialManager {
	m := &CredentialManager{
		client:   client,
		now:      time.Now,
		freshFor: defaultFreshWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValid returns an access credential that was live at the time of the
// check. If the credential is unset or fails its probe, one refresh runs
// regardless of how many callers arrived concurrently; every caller gets the
// same outcome.
func (m *CredentialManager) EnsureValid(ctx context.Context) (string, error) {
	if tok, ok := m.fresh(); ok {
		return tok, nil
	}

	v, err, _ := m.group.Do("credential", func() (any, error) {
		// A caller that queued behind a finished flight may find the
		// credential already renewed.
		if tok, ok := m.fresh(); ok {
			return tok, nil
		}

		if tok := m.current(); tok != "" {
			if err := m.client.CheckToken(ctx, tok); err == nil {
				m.markChecked(tok)
				return tok, nil
			}
			// Probe failure of any kind is treated as invalid; fall
			// through to a refresh.
		}

		tok, err := m.client.RefreshAccessToken(ctx)
		if err != nil {
			m.invalidate()
			return "", fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
		}
		m.markChecked(tok)
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the shared credential so the next EnsureValid re-probes.
// Called when an upload is rejected for authentication reasons.
func (m *CredentialManager) Invalidate() {
	m.invalidate()
}

func (m *CredentialManager) fresh() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || m.freshFor <= 0 {
		return "", false
	}
	if m.now().Sub(m.checkedAt) < m.freshFor {
		return m.token, true
	}
	return "", false
}

func (m *CredentialManager) current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *CredentialManager) markChecked(token string) {
	m.mu.Lock()
	m.token = token
	m.checkedAt = m.now()
	m.mu.Unlock()
}

func (m *CredentialManager) invalidate() {
	m.mu.Lock()
	m.token = ""
	m.checkedAt = time.Time{}
	m.mu.Unlock()
}
