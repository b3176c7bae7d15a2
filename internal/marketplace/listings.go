package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NewListing carries the fields accepted when a provider publishes an
// anuncio.
type NewListing struct {
	Titulo    string `json:"titulo"`
	Descricao string `json:"descricao"`
}

// ListingUpdate is a partial update; nil fields are left untouched.
type ListingUpdate struct {
	Titulo    *string `json:"titulo"`
	Descricao *string `json:"descricao"`
}

// ListingService implements anuncio lifecycle. Creation is bound to an
// existing, non-deleted provider.
type ListingService struct {
	store     ListingStore
	providers ProviderStore
	now       func() time.Time
}

func NewListingService(store ListingStore, providers ProviderStore) *ListingService {
	return &ListingService{store: store, providers: providers, now: time.Now}
}

func (s *ListingService) Create(ctx context.Context, providerID int64, in NewListing) (*Listing, error) {
	titulo := strings.TrimSpace(in.Titulo)
	descricao := strings.TrimSpace(in.Descricao)
	if len(titulo) < 5 || len(titulo) > 100 {
		return nil, fmt.Errorf("%w: titulo deve ter entre 5 e 100 caracteres", ErrInvalidInput)
	}
	if len(descricao) < 10 || len(descricao) > 500 {
		return nil, fmt.Errorf("%w: descricao deve ter entre 10 e 500 caracteres", ErrInvalidInput)
	}

	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.IsDeleted() {
		return nil, fmt.Errorf("%w: prestador deletado", ErrInvalidInput)
	}

	l := &Listing{
		Titulo:     titulo,
		Descricao:  descricao,
		ProviderID: provider.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id int64) (*Listing, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ListingService) List(ctx context.Context) ([]*Listing, error) {
	return s.store.List(ctx)
}

func (s *ListingService) Update(ctx context.Context, id int64, upd ListingUpdate) (*Listing, error) {
	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.IsDeleted() {
		return nil, fmt.Errorf("%w: anuncio deletado nao pode ser atualizado", ErrInvalidInput)
	}
	if upd.Titulo != nil {
		titulo := strings.TrimSpace(*upd.Titulo)
		if len(titulo) < 5 || len(titulo) > 100 {
			return nil, fmt.Errorf("%w: titulo deve ter entre 5 e 100 caracteres", ErrInvalidInput)
		}
		l.Titulo = titulo
	}
	if upd.Descricao != nil {
		descricao := strings.TrimSpace(*upd.Descricao)
		if len(descricao) < 10 || len(descricao) > 500 {
			return nil, fmt.Errorf("%w: descricao deve ter entre 10 e 500 caracteres", ErrInvalidInput)
		}
		l.Descricao = descricao
	}
	l.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, id int64) error {
	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if l.IsDeleted() {
		return fmt.Errorf("%w: anuncio ja deletado", ErrInvalidInput)
	}
	now := s.now().UTC()
	l.DeletedAt = &now
	return s.store.Update(ctx, l)
}
