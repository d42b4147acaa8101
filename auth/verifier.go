//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../mocks/mock_verifier.go -package=mocks
package auth

import (
	"fmt"

	"market-chat/errors"
)

// TokenVerifier resolves an opaque credential to a user identity.
// It is the only authentication capability the relay consumes.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier validates HS256 tokens minted by the marketplace backend.
type JWTVerifier struct{}

func NewJWTVerifier() JWTVerifier {
	return JWTVerifier{}
}

// Verify returns the user id carried by the token. Unparsable, expired and
// badly signed tokens all collapse into errors.ErrInvalidToken so the
// close reason sent to the client never reveals the internal cause.
func (JWTVerifier) Verify(token string) (string, error) {
	claims, err := ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return "", errors.ErrInvalidToken
	}
	return claims.UserID, nil
}
