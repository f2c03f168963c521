package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)

	p := Payload{Handle: "abc"}
	sig, err := s.Sign(p)
	require.NoError(t, err)

	assert.True(t, s.Verify(p, sig))
	assert.False(t, s.Verify(Payload{Handle: "abd"}, sig))
	assert.False(t, s.Verify(p, "not base64 !"))

	other, err := NewSigner("other")
	require.NoError(t, err)
	assert.False(t, other.Verify(p, sig))
}

func TestRandomKeyIsUsable(t *testing.T) {
	a, err := NewSigner("")
	require.NoError(t, err)
	b, err := NewSigner("")
	require.NoError(t, err)

	p := Payload{Handle: "h", Cities: []string{"Roma"}}
	sig, err := a.Sign(p)
	require.NoError(t, err)
	assert.True(t, a.Verify(p, sig))
	assert.False(t, b.Verify(p, sig))
}
