package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Valid1pass!", true},
		{"Aa1!aaaa", true},
		{"Sh0rt!a", false},     // too short
		{"alllower1!", false},  // no upper
		{"ALLUPPER1!", false},  // no lower
		{"NoDigits!!", false},  // no digit
		{"NoSpecial11", false}, // no special
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ValidatePasswordStrength(c.password), "password %q", c.password)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Valid1pass!")
	require.NoError(t, err)
	assert.NotEqual(t, "Valid1pass!", hash)

	assert.True(t, VerifyPassword("Valid1pass!", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestAccessTokenRoundtrip(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.CreateAccessToken("user-42")
	require.NoError(t, err)

	subject, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", subject)
}

func TestResetTokenRoundtrip(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.CreateResetToken("jo@example.com")
	require.NoError(t, err)

	email, err := m.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", email)
}

func TestTokenTypeMismatchRejected(t *testing.T) {
	m := NewManager("test-secret")

	reset, err := m.CreateResetToken("jo@example.com")
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(reset)
	assert.Error(t, err)

	access, err := m.CreateAccessToken("user-42")
	require.NoError(t, err)
	_, err = m.VerifyResetToken(access)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := NewManager("secret-a").CreateAccessToken("user-42")
	require.NoError(t, err)

	_, err = NewManager("secret-b").VerifyAccessToken(token)
	assert.Error(t, err)
}
