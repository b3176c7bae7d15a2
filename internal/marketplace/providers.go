package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicosauto.com.br/internal/auth"
)

// NewProvider carries the fields accepted at provider registration. Exactly
// one of CPF or CNPJ must be set.
type NewProvider struct {
	Nome  string   `json:"nome"`
	Email string   `json:"email"`
	CPF   string   `json:"cpf"`
	CNPJ  string   `json:"cnpj"`
	Senha string   `json:"senha"`
	Roles []string `json:"roles,omitempty"`
}

// ProviderUpdate is a partial update; nil fields are left untouched.
type ProviderUpdate struct {
	Nome  *string  `json:"nome"`
	Email *string  `json:"email"`
	CPF   *string  `json:"cpf"`
	CNPJ  *string  `json:"cnpj"`
	Senha *string  `json:"senha"`
	Roles []string `json:"roles"`
}

// ProviderService implements service-provider lifecycle over a ProviderStore.
type ProviderService struct {
	store ProviderStore
	now   func() time.Time
}

func NewProviderService(store ProviderStore) *ProviderService {
	return &ProviderService{store: store, now: time.Now}
}

// Create registers a new provider with a default PRESTADOR_SERVICO role.
func (s *ProviderService) Create(ctx context.Context, in NewProvider) (*Provider, error) {
	nome := strings.TrimSpace(in.Nome)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	cpf := strings.TrimSpace(in.CPF)
	cnpj := strings.TrimSpace(in.CNPJ)
	if len(nome) < 3 || len(nome) > 100 {
		return nil, fmt.Errorf("%w: nome deve ter entre 3 e 100 caracteres", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email valido e obrigatorio", ErrInvalidInput)
	}
	if len(in.Senha) < 6 {
		return nil, fmt.Errorf("%w: senha deve ter pelo menos 6 caracteres", ErrInvalidInput)
	}
	if err := validateDocuments(cpf, cnpj); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email ja cadastrado", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Senha)
	if err != nil {
		return nil, err
	}
	roles := dedupeRoles(in.Roles)
	if len(roles) == 0 {
		roles = []string{RoleProvider}
	}

	p := &Provider{
		Nome:      nome,
		Email:     email,
		CPF:       cpf,
		CNPJ:      cnpj,
		SenhaHash: hash,
		Roles:     roles,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProviderService) Get(ctx context.Context, id int64) (*Provider, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ProviderService) List(ctx context.Context) ([]*Provider, error) {
	return s.store.List(ctx)
}

// Update applies a partial update. Soft-deleted providers cannot be updated,
// and the cpf-or-cnpj invariant must still hold afterwards.
func (s *ProviderService) Update(ctx context.Context, id int64, upd ProviderUpdate) (*Provider, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted() {
		return nil, fmt.Errorf("%w: prestador deletado nao pode ser atualizado", ErrInvalidInput)
	}
	if upd.Nome != nil {
		p.Nome = strings.TrimSpace(*upd.Nome)
	}
	if upd.Email != nil {
		p.Email = strings.TrimSpace(strings.ToLower(*upd.Email))
	}
	if upd.CPF != nil {
		p.CPF = strings.TrimSpace(*upd.CPF)
	}
	if upd.CNPJ != nil {
		p.CNPJ = strings.TrimSpace(*upd.CNPJ)
	}
	if err := validateDocuments(p.CPF, p.CNPJ); err != nil {
		return nil, err
	}
	if upd.Senha != nil && *upd.Senha != "" {
		hash, err := auth.HashPassword(*upd.Senha)
		if err != nil {
			return nil, err
		}
		p.SenhaHash = hash
	}
	if len(upd.Roles) > 0 {
		p.Roles = dedupeRoles(upd.Roles)
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes the provider.
func (s *ProviderService) Delete(ctx context.Context, id int64) error {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.IsDeleted() {
		return fmt.Errorf("%w: prestador ja deletado", ErrInvalidInput)
	}
	now := s.now().UTC()
	p.DeletedAt = &now
	return s.store.Update(ctx, p)
}

func validateDocuments(cpf, cnpj string) error {
	hasCPF := cpf != ""
	hasCNPJ := cnpj != ""
	if hasCPF == hasCNPJ {
		return fmt.Errorf("%w: o prestador deve ter um cpf ou cnpj, mas nao ambos", ErrInvalidInput)
	}
	if hasCPF && len(cpf) != 11 {
		return fmt.Errorf("%w: cpf deve ter 11 caracteres", ErrInvalidInput)
	}
	if hasCNPJ && len(cnpj) != 14 {
		return fmt.Errorf("%w: cnpj deve ter 14 caracteres", ErrInvalidInput)
	}
	return nil
}
