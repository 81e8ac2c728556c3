package signer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	msg := []byte("append some bytes")
	sig := s.Sign(msg)

	require.NoError(t, Verify(s.Identity(), s.PubKey(), msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	sig := s.Sign([]byte("original"))
	err = Verify(s.Identity(), s.PubKey(), []byte("tampered"), sig)
	assert.True(t, errors.Is(err, ErrBadSignature))
}

func TestVerifyRejectsWrongIdentity(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	msg := []byte("msg")
	err = Verify(b.Identity(), a.PubKey(), msg, a.Sign(msg))
	assert.True(t, errors.Is(err, ErrBadSignature))
}

func TestParsePrivateKeyRoundTrip(t *testing.T) {
	// fixed key so the derived identity is stable across runs
	const keyHex = "0x0102030405060708091011121314151617181920212223242526272829303132"

	s1, err := ParsePrivateKey(keyHex)
	require.NoError(t, err)
	s2, err := ParsePrivateKey(keyHex)
	require.NoError(t, err)
	assert.Equal(t, s1.Identity(), s2.Identity())

	_, err = ParsePrivateKey("zz")
	assert.True(t, errors.Is(err, ErrBadPrivateKey))
}

func TestIdentityStringRoundTrip(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	id := s.Identity()
	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseIdentity("0xnothex")
	assert.True(t, errors.Is(err, ErrBadIdentity))
}
