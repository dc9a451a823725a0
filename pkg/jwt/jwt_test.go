package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "looprooms")

	token, err := v.Sign("user-1", "Ava", "premium", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Ava", claims.DisplayName)
	assert.Equal(t, "premium", claims.Tier)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret", "looprooms")

	token, err := v.Sign("user-1", "Ava", "", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	signer := NewVerifier("secret-a", "looprooms")
	verifier := NewVerifier("secret-b", "looprooms")

	token, err := signer.Sign("user-1", "Ava", "", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongIssuer(t *testing.T) {
	signer := NewVerifier("test-secret", "someone-else")
	verifier := NewVerifier("test-secret", "looprooms")

	token, err := signer.Sign("user-1", "Ava", "", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	v := NewVerifier("test-secret", "looprooms")

	_, err := v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
