package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newIssuer(t *testing.T) *Issuer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewIssuer("signing-key", time.Hour, "admin", string(hash))
}

func TestLoginAndVerify(t *testing.T) {
	i := newIssuer(t)

	token, expires, err := i.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	subject, err := i.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	i := newIssuer(t)

	_, _, err := i.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, _, err = i.Login("root", "s3cret")
	assert.ErrorIs(t, err, ErrBadCredentials)

	noHash := NewIssuer("k", time.Hour, "admin", "")
	_, _, err = noHash.Login("admin", "")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	i := newIssuer(t)

	other := NewIssuer("another-key", time.Hour, "admin", "")
	foreign, _, err := other.Issue("admin")
	require.NoError(t, err)
	_, err = i.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	i.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := i.Issue("admin")
	require.NoError(t, err)
	_, err = i.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = i.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("bearer  ")
	assert.False(t, ok)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
}
