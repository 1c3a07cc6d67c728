package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSessionTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", 168*time.Hour, 24*time.Hour)

	token, err := issuer.IssueSession(42, 1001, "Ada", "ada")
	require.NoError(t, err)

	claims, err := issuer.ParseSession(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(1001), claims.TelegramID)
	assert.Equal(t, "ada", claims.Username)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, claims.IssuedAt.Add(168*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestSessionTokenExpires(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("secret", time.Hour, time.Hour).WithClock(fixedClock(issued))
	token, err := issuer.IssueSession(1, 2, "A", "")
	require.NoError(t, err)

	issuer.WithClock(fixedClock(issued.Add(2 * time.Hour)))
	_, err = issuer.ParseSession(token)
	assert.Error(t, err)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Hour, time.Hour).IssueSession(1, 2, "A", "")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour, time.Hour).ParseSession(token)
	assert.Error(t, err)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Hour)

	admin, err := issuer.IssueAdmin(7, "root@example.com", "admin")
	require.NoError(t, err)
	_, err = issuer.ParseSession(admin)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	session, err := issuer.IssueSession(1, 2, "A", "")
	require.NoError(t, err)
	_, err = issuer.ParseAdmin(session)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := issuer.ParseAdmin(admin)
	require.NoError(t, err)
	id, err := claims.AdminID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "admin", claims.Role)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":      "hello-world",
		"  Spaced   Out  ": "spaced-out",
		"Café Crème 2024!": "cafe-creme-2024",
		"a - b":            "a-b",
		"Under_score":      "underscore",
		"---":              "",
		"Ünïcödé Ümlauts":  "unicode-umlauts",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
