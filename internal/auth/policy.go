package auth

import (
	"net/http"
	"strings"
)

// Requirement classifies what a route demands from the caller.
type Requirement struct {
	kind requirementKind
	role string
}

type requirementKind int

const (
	reqPublic requirementKind = iota
	reqAuthenticated
	reqRole
)

// Public routes admit everyone, including callers with invalid tokens.
func Public() Requirement { return Requirement{kind: reqPublic} }

// Authenticated routes admit any valid identity.
func Authenticated() Requirement { return Requirement{kind: reqAuthenticated} }

// HasRole routes admit only identities carrying the named role.
func HasRole(role string) Requirement { return Requirement{kind: reqRole, role: role} }

// IsPublic reports whether the requirement admits anonymous callers.
func (q Requirement) IsPublic() bool { return q.kind == reqPublic }

// Rule gates a set of methods and one path pattern behind a requirement.
// Patterns are segment-wise: a `{param}` segment matches any single segment
// and a trailing `**` matches any remainder, including none.
type Rule struct {
	Methods []string // empty means every method
	Pattern string
	Require Requirement
}

// Decision is the outcome of a policy check. Status is meaningful only when
// Allowed is false: 401 for missing credentials, 403 for a missing role.
type Decision struct {
	Allowed bool
	Status  int
}

// Policy is an ordered rule table. The first rule whose methods and pattern
// match the request wins; declaration order is the tie-break, not best-match.
// Requests matching no rule fall through to Authenticated.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a Policy from rules in declaration order.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// Classify returns the requirement of the first matching rule, or the
// Authenticated fall-through. The gate consults this before rejecting an
// invalid token so that public routes stay reachable.
func (p *Policy) Classify(method, path string) Requirement {
	for _, rule := range p.rules {
		if rule.matches(method, path) {
			return rule.Require
		}
	}
	return Authenticated()
}

// Decide evaluates the request against the table. The identity pointer is nil
// for anonymous requests. Missing credentials and missing capabilities are
// deliberately distinct: a role check on an authenticated caller yields 403,
// the same check with no caller at all yields 401.
func (p *Policy) Decide(method, path string, id *Identity) Decision {
	req := p.Classify(method, path)
	switch req.kind {
	case reqPublic:
		return Decision{Allowed: true}
	case reqAuthenticated:
		if id == nil {
			return Decision{Status: http.StatusUnauthorized}
		}
		return Decision{Allowed: true}
	case reqRole:
		if id == nil {
			return Decision{Status: http.StatusUnauthorized}
		}
		if !id.HasRole(req.role) {
			return Decision{Status: http.StatusForbidden}
		}
		return Decision{Allowed: true}
	default:
		return Decision{Status: http.StatusUnauthorized}
	}
}

func (r Rule) matches(method, path string) bool {
	if len(r.Methods) > 0 {
		found := false
		for _, m := range r.Methods {
			if strings.EqualFold(m, method) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return matchPattern(r.Pattern, path)
}

func matchPattern(pattern, path string) bool {
	pat := splitPath(pattern)
	got := splitPath(path)
	for i, seg := range pat {
		if seg == "**" {
			// Trailing wildcard swallows the rest, including nothing.
			return i == len(pat)-1
		}
		if i >= len(got) {
			return false
		}
		if isParam(seg) {
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return len(pat) == len(got)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isParam(seg string) bool {
	return len(seg) > 1 && seg[0] == '{' && seg[len(seg)-1] == '}'
}
