package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesStable(t *testing.T) {
	assert.Equal(t, Bytes([]byte("hello")), Bytes([]byte("hello")))
	assert.NotEqual(t, Bytes([]byte("hello")), Bytes([]byte("hellp")))
	assert.Len(t, Bytes(nil), 32)
}

func TestStringMatchesBytes(t *testing.T) {
	assert.Equal(t, Bytes([]byte("weft")), String("weft"))
}

func TestPartsBoundariesMatter(t *testing.T) {
	assert.NotEqual(t, Parts("ab", "c"), Parts("a", "bc"))
	assert.NotEqual(t, Parts("a"), Parts("a", ""))
	assert.Equal(t, Parts("a", "b"), Parts("a", "b"))
}
