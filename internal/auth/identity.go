package auth

import (
	"net/http"
	"strings"
)

// Source names the mechanism that produced an identity.
type Source string

const (
	SourceNone    Source = ""
	SourceSession Source = "session"
	SourceHeader  Source = "header"
)

// UserIDHeader carries a client-asserted user id when no session is present.
// Nothing verifies it.
const UserIDHeader = "X-User-Id"

// DefaultSessionCookie is the cookie the identity provider stores its session token in.
const DefaultSessionCookie = "__session"

// Identity is the outcome of resolving a request: either Resolved with an
// external user id, or Unauthenticated (the zero value).
type Identity struct {
	ExternalID string
	Source     Source
}

// Resolved builds an identity for externalID.
func Resolved(externalID string, src Source) Identity {
	return Identity{ExternalID: externalID, Source: src}
}

// Unauthenticated is the identity of a request nobody could be resolved for.
var Unauthenticated = Identity{}

func (i Identity) IsResolved() bool { return i.ExternalID != "" }

// Resolver derives an identity from a request without touching persistence.
type Resolver interface {
	Resolve(r *http.Request) Identity
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) Identity

func (f ResolverFunc) Resolve(r *http.Request) Identity { return f(r) }

// SessionResolver reads a signed session token from the session cookie, or
// from an "Authorization: Bearer" header. Bad tokens resolve to Unauthenticated.
type SessionResolver struct {
	JWT    *JWT
	Cookie string
}

func (s SessionResolver) Resolve(r *http.Request) Identity {
	token := bearerToken(r)
	if token == "" {
		name := s.Cookie
		if name == "" {
			name = DefaultSessionCookie
		}
		if c, err := r.Cookie(name); err == nil {
			token = strings.TrimSpace(c.Value)
		}
	}
	if token == "" {
		return Unauthenticated
	}

	sub, err := s.JWT.Verify(token)
	if err != nil {
		return Unauthenticated
	}
	return Resolved(sub, SourceSession)
}

// HeaderResolver trusts the X-User-Id header.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) Identity {
	v := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if v == "" {
		return Unauthenticated
	}
	return Resolved(v, SourceHeader)
}

// Chain tries each resolver in order; the first resolved identity wins.
type Chain []Resolver

func (c Chain) Resolve(r *http.Request) Identity {
	for _, res := range c {
		if id := res.Resolve(r); id.IsResolved() {
			return id
		}
	}
	return Unauthenticated
}

// NewResolver builds the standard chain: session first, then the
// X-User-Id header when headerFallback is set.
func NewResolver(jwtSvc *JWT, cookie string, headerFallback bool) Resolver {
	chain := Chain{SessionResolver{JWT: jwtSvc, Cookie: cookie}}
	if headerFallback {
		chain = append(chain, HeaderResolver{})
	}
	return chain
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
