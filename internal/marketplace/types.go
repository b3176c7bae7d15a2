package marketplace

import "time"

// Roles carried by principals. New end users default to RoleEndUser, new
// providers to RoleProvider; the provider role gates listing mutations.
const (
	RoleEndUser  = "USUARIO"
	RoleProvider = "PRESTADOR_SERVICO"
)

// User is an end user of the marketplace.
type User struct {
	ID        int64      `json:"id"`
	Nome      string     `json:"nome"`
	Email     string     `json:"email"`
	CPF       string     `json:"cpf"`
	SenhaHash string     `json:"-"`
	Roles     []string   `json:"roles"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Provider is a service provider. It shares no storage or base type with
// User; both satisfy auth.Subject so the authenticator can treat them as one.
type Provider struct {
	ID        int64      `json:"id"`
	Nome      string     `json:"nome"`
	Email     string     `json:"email"`
	CPF       string     `json:"cpf,omitempty"`
	CNPJ      string     `json:"cnpj,omitempty"`
	SenhaHash string     `json:"-"`
	Roles     []string   `json:"roles"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Listing is a service advertisement (anuncio) owned by a provider.
type Listing struct {
	ID         int64      `json:"id"`
	Titulo     string     `json:"titulo"`
	Descricao  string     `json:"descricao"`
	ProviderID int64      `json:"prestador_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Image records an upload to the external media host. Exactly one owner
// reference is set.
type Image struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	RemoteID   string    `json:"remote_id"`
	DeleteHash string    `json:"-"`
	MIMEType   string    `json:"type"`
	UploadedAt time.Time `json:"uploaded_at"`
	UserID     *int64    `json:"usuario_id,omitempty"`
	ProviderID *int64    `json:"prestador_id,omitempty"`
	ListingID  *int64    `json:"anuncio_id,omitempty"`
}

// auth.Subject implementation for User.

func (u *User) SubjectID() int64       { return u.ID }
func (u *User) Login() string          { return u.Email }
func (u *User) CredentialHash() string { return u.SenhaHash }
func (u *User) RoleNames() []string    { return u.Roles }
func (u *User) IsDeleted() bool        { return u.DeletedAt != nil }

// auth.Subject implementation for Provider.

func (p *Provider) SubjectID() int64       { return p.ID }
func (p *Provider) Login() string          { return p.Email }
func (p *Provider) CredentialHash() string { return p.SenhaHash }
func (p *Provider) RoleNames() []string    { return p.Roles }
func (p *Provider) IsDeleted() bool        { return p.DeletedAt != nil }

func (l *Listing) IsDeleted() bool { return l.DeletedAt != nil }
