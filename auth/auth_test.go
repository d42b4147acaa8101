package auth

import (
	"testing"
	"time"

	"market-chat/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_And_Verify(t *testing.T) {
	req := require.New(t)
	userID := uuid.NewString()

	token, err := GenerateToken(userID, 1*time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	resolved, err := NewJWTVerifier().Verify(token)
	req.NoError(err)
	req.Equal(userID, resolved)
}

func TestVerify_Expired_Token(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(uuid.NewString(), -1*time.Minute)
	req.NoError(err)

	_, err = NewJWTVerifier().Verify(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestVerify_Garbage_Token(t *testing.T) {
	req := require.New(t)

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := NewJWTVerifier().Verify(token)
		req.ErrorIs(err, errors.ErrInvalidToken)
	}
}

func TestVerify_Token_Without_UserID(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("", 1*time.Hour)
	req.NoError(err)

	_, err = NewJWTVerifier().Verify(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}
