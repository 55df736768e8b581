package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseTokenRoundTrips(t *testing.T) {
	cfg := JWTConfig{SecretKey: "round-trip-secret"}
	token, err := IssueToken("alice", cfg)
	require.NoError(t, err)

	claims, err := ParseToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken("alice", JWTConfig{SecretKey: "one"})
	require.NoError(t, err)

	_, err = ParseToken(token, JWTConfig{SecretKey: "two"})
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct-horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
