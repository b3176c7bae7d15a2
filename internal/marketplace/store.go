package marketplace

import (
	"context"
	"errors"

	"servicosauto.com.br/internal/auth"
)

var (
	ErrNotFound     = errors.New("marketplace: not found")
	ErrConflict     = errors.New("marketplace: already exists")
	ErrInvalidInput = errors.New("marketplace: invalid input")
)

// UserStore persists end users.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByCPF(ctx context.Context, cpf string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
}

// ProviderStore persists service providers.
type ProviderStore interface {
	Create(ctx context.Context, p *Provider) error
	FindByID(ctx context.Context, id int64) (*Provider, error)
	FindByEmail(ctx context.Context, email string) (*Provider, error)
	List(ctx context.Context) ([]*Provider, error)
	Update(ctx context.Context, p *Provider) error
}

// ListingStore persists listings.
type ListingStore interface {
	Create(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id int64) (*Listing, error)
	List(ctx context.Context) ([]*Listing, error)
	Update(ctx context.Context, l *Listing) error
}

// ImageStore records external uploads.
type ImageStore interface {
	Create(ctx context.Context, img *Image) error
	ListByOwner(ctx context.Context, owner Image) ([]*Image, error)
}

// UserSource adapts a UserStore to the resolver's probe contract: a miss is
// (nil, nil), never an error.
func UserSource(store UserStore) auth.SubjectSource {
	return userSource{store: store}
}

// ProviderSource adapts a ProviderStore the same way.
func ProviderSource(store ProviderStore) auth.SubjectSource {
	return providerSource{store: store}
}

type userSource struct{ store UserStore }

func (s userSource) FindByLogin(ctx context.Context, login string) (auth.Subject, error) {
	u, err := s.store.FindByEmail(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type providerSource struct{ store ProviderStore }

func (s providerSource) FindByLogin(ctx context.Context, login string) (auth.Subject, error) {
	p, err := s.store.FindByEmail(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
