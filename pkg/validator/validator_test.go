package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_FirstMessageWins(t *testing.T) {
	v := New()
	v.Check(false, "email", "must be provided")
	v.Check(false, "email", "must be a valid email address")
	v.Check(true, "name", "unused")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"email": "must be provided"}, v.Errors)
}

func TestMatches_Email(t *testing.T) {
	assert.True(t, Matches("admin@authhub.io", EmailRX))
	assert.False(t, Matches("admin@", EmailRX))
	assert.False(t, Matches("no-at-sign", EmailRX))
}

func TestHelpers(t *testing.T) {
	assert.True(t, PermittedValue("ACTIVE", "ACTIVE", "INACTIVE"))
	assert.False(t, PermittedValue("BANNED", "ACTIVE", "INACTIVE"))
	assert.True(t, Unique([]string{"a", "b"}))
	assert.False(t, Unique([]string{"a", "a"}))
	assert.False(t, NotBlank("   "))
	assert.True(t, StrongPassword("passw0rd"))
	assert.False(t, StrongPassword("password"))
	assert.False(t, StrongPassword("12345678"))
}
