package api

import (
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated means the request carried no recognizable session
var ErrUnauthenticated = errors.New("missing or invalid credentials")

// Authenticator resolves an incoming request to a user id. Authorization
// (is the user a manager) stays in the engine; this boundary only
// establishes identity.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// TokenAuthenticator maps static bearer tokens to user ids. Token issuance
// and rotation live outside this service.
type TokenAuthenticator struct {
	tokens map[string]string
}

// NewTokenAuthenticator creates an authenticator from a token -> user id map
func NewTokenAuthenticator(tokens map[string]string) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens}
}

// Authenticate resolves the Authorization bearer token to a user id
func (a *TokenAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", ErrUnauthenticated
	}

	userID, ok := a.tokens[token]
	if !ok {
		return "", ErrUnauthenticated
	}

	return userID, nil
}
