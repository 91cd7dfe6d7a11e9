package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashWithDomain(t *testing.T) {
	a := HashWithDomain(DomainRecovery, []byte("seed"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashWithDomain(DomainRecovery, []byte("seed")), "deterministic")
	assert.NotEqual(t, a, HashWithDomain(DomainSeed, []byte("seed")), "domain separated")
}

func TestHashWithDomain_SeparatorPreventsShift(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide.
	assert.NotEqual(t,
		HashWithDomain("ab", []byte("c")),
		HashWithDomain("a", []byte("bc")))
}
