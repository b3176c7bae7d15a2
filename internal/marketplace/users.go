package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicosauto.com.br/internal/auth"
)

// NewUser carries the fields accepted at registration.
type NewUser struct {
	Nome  string   `json:"nome"`
	Email string   `json:"email"`
	CPF   string   `json:"cpf"`
	Senha string   `json:"senha"`
	Roles []string `json:"roles,omitempty"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Nome  *string  `json:"nome"`
	Email *string  `json:"email"`
	CPF   *string  `json:"cpf"`
	Senha *string  `json:"senha"`
	Roles []string `json:"roles"`
}

// UserService implements end-user lifecycle over a UserStore.
type UserService struct {
	store UserStore
	now   func() time.Time
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store, now: time.Now}
}

// Create registers a new end user. Email and CPF must be unique within the
// user store; the password is stored hashed; a default role is assigned when
// none is supplied so the role set is never empty.
func (s *UserService) Create(ctx context.Context, in NewUser) (*User, error) {
	nome := strings.TrimSpace(in.Nome)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	cpf := strings.TrimSpace(in.CPF)
	if len(nome) < 3 || len(nome) > 100 {
		return nil, fmt.Errorf("%w: nome deve ter entre 3 e 100 caracteres", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email valido e obrigatorio", ErrInvalidInput)
	}
	if len(cpf) != 11 {
		return nil, fmt.Errorf("%w: cpf deve ter 11 caracteres", ErrInvalidInput)
	}
	if len(in.Senha) < 6 {
		return nil, fmt.Errorf("%w: senha deve ter pelo menos 6 caracteres", ErrInvalidInput)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email ja cadastrado", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.FindByCPF(ctx, cpf); err == nil {
		return nil, fmt.Errorf("%w: cpf ja cadastrado", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Senha)
	if err != nil {
		return nil, err
	}
	roles := dedupeRoles(in.Roles)
	if len(roles) == 0 {
		roles = []string{RoleEndUser}
	}

	u := &User{
		Nome:      nome,
		Email:     email,
		CPF:       cpf,
		SenhaHash: hash,
		Roles:     roles,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*User, error) {
	return s.store.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

// Update applies a partial update. Soft-deleted users cannot be updated.
func (s *UserService) Update(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() {
		return nil, fmt.Errorf("%w: usuario deletado nao pode ser atualizado", ErrInvalidInput)
	}
	if upd.Nome != nil {
		u.Nome = strings.TrimSpace(*upd.Nome)
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(strings.ToLower(*upd.Email))
	}
	if upd.CPF != nil {
		u.CPF = strings.TrimSpace(*upd.CPF)
	}
	if upd.Senha != nil && *upd.Senha != "" {
		hash, err := auth.HashPassword(*upd.Senha)
		if err != nil {
			return nil, err
		}
		u.SenhaHash = hash
	}
	if len(upd.Roles) > 0 {
		u.Roles = dedupeRoles(upd.Roles)
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete soft-deletes the user. Issued tokens stay valid until their natural
// expiry; the verifier never consults the store.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsDeleted() {
		return fmt.Errorf("%w: usuario ja deletado", ErrInvalidInput)
	}
	now := s.now().UTC()
	u.DeletedAt = &now
	return s.store.Update(ctx, u)
}

func dedupeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var out []string
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
