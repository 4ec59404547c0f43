package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, Hash("same input"), Hash("same input"))
	assert.NotEqual(t, Hash("a"), Hash("b"))
}

func TestHash_KnownVector(t *testing.T) {
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	assert.Equal(t, want, Hash("hello"))
}

func TestVerify(t *testing.T) {
	assert.True(t, Verify("token", Hash("token")))
	assert.False(t, Verify("token", Hash("other")))
}

func TestHashSet_OrderIndependent(t *testing.T) {
	a := HashSet([]string{"user:read", "role:read", "tenant:update"})
	b := HashSet([]string{"tenant:update", "user:read", "role:read"})
	assert.Equal(t, a, b)
	assert.Equal(t, Hash("role:read,tenant:update,user:read"), a)
	assert.Equal(t, Hash(""), HashSet(nil))
}

func BenchmarkHash(b *testing.B) {
	in := "some reasonably sized input"

	for b.Loop() {
		_ = Hash(in)
	}
}
