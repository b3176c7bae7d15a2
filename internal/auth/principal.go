package auth

// Kind tags which identity store produced a principal. End users and service
// providers share no storage; the tag is the only thing that distinguishes
// them once they are behind the Subject interface.
type Kind string

const (
	KindEndUser         Kind = "end_user"
	KindServiceProvider Kind = "service_provider"
)

// Subject is the capability surface the authenticator needs from a stored
// identity. Both marketplace.User and marketplace.Provider implement it; the
// resolver and the token service never see the concrete types.
type Subject interface {
	SubjectID() int64
	Login() string
	CredentialHash() string
	RoleNames() []string
	IsDeleted() bool
}

// Principal is a resolved identity: one Subject plus the store it came from.
type Principal struct {
	ID           int64
	LoginID      string
	PasswordHash string
	Roles        []string
	Kind         Kind
	Deleted      bool
}

// NewPrincipal snapshots a Subject into an immutable Principal.
func NewPrincipal(s Subject, kind Kind) Principal {
	roles := make([]string, len(s.RoleNames()))
	copy(roles, s.RoleNames())
	return Principal{
		ID:           s.SubjectID(),
		LoginID:      s.Login(),
		PasswordHash: s.CredentialHash(),
		Roles:        roles,
		Kind:         kind,
		Deleted:      s.IsDeleted(),
	}
}

// HasRole reports whether the principal carries the named role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
