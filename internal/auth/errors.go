package auth

import "errors"

// Authentication failures. The gate maps every one of them to HTTP 401; the
// distinct values exist so logs and tests can tell rejection causes apart.
var (
	ErrMissingToken   = errors.New("auth: missing bearer token")
	ErrMalformedToken = errors.New("auth: malformed token")
	ErrBadSignature   = errors.New("auth: bad token signature")
	ErrTokenExpired   = errors.New("auth: token expired")
)

// Authorization failure, mapped to HTTP 403. Only ever returned for an
// authenticated identity; anonymous callers get an authentication failure.
var ErrMissingRole = errors.New("auth: missing required role")

// ErrIdentityNotFound is returned by the resolver when a login identifier
// matches neither identity store. The login endpoint folds it into a generic
// credential failure so callers cannot probe which store was consulted.
var ErrIdentityNotFound = errors.New("auth: identity not found")

// ErrMissingSecret indicates the signing secret is not configured. It is a
// startup-time configuration error, never a request-time one.
var ErrMissingSecret = errors.New("auth: signing secret is not configured")
