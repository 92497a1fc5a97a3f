package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrMalformedCredential = errors.New("malformed credential")

// TokenService resolves user identity from the bearer credential used by both
// the websocket handshake and the HTTP API.
//
// The credential format is base64("userID:username") — unsigned, reversible,
// no expiry. Resolution trusts the structural decode and nothing else. This
// is a known weakness of the scheme, kept on purpose; see the token service
// tests, which pin the behavior down rather than paper over it.
type TokenService struct{}

func NewTokenService() *TokenService {
	return &TokenService{}
}

// Resolve extracts the user id from a credential. Pure function, no lookups.
func (s *TokenService) Resolve(credential string) (uuid.UUID, error) {
	decoded, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: not base64", ErrMalformedCredential)
	}

	idPart, _, _ := strings.Cut(string(decoded), ":")
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: no user id component", ErrMalformedCredential)
	}
	return id, nil
}

// Issue mints the credential handed out by register/login.
func (s *TokenService) Issue(userID uuid.UUID, username string) string {
	return base64.StdEncoding.EncodeToString([]byte(userID.String() + ":" + username))
}
