package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	tokens, err := Issue("stu-uid-1", RoleStudent, "tagcheck", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tokens.AccessToken, "secret", "tagcheck")
	require.NoError(t, err)
	assert.Equal(t, "stu-uid-1", claims.Subject)
	assert.Equal(t, RoleStudent, claims.Role)
}

func TestParseRejectsWrongKeyOrIssuer(t *testing.T) {
	tokens, err := Issue("stu-uid-1", RoleStudent, "tagcheck", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tokens.AccessToken, "other-secret", "tagcheck")
	assert.Error(t, err)

	_, err = Parse(tokens.AccessToken, "secret", "someone-else")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tokens, err := Issue("stu-uid-1", RoleStudent, "tagcheck", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tokens.AccessToken, "secret", "tagcheck")
	assert.Error(t, err)
}
