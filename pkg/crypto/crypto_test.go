package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

func TestX25519ECDHAgreement(t *testing.T) {
	a, err := GenerateEphemeralKey(suite.ECDHX25519)
	require.NoError(t, err)
	b, err := GenerateEphemeralKey(suite.ECDHX25519)
	require.NoError(t, err)

	sharedA, err := ECDH(suite.ECDHX25519, a.Private, b.Public)
	require.NoError(t, err)
	sharedB, err := ECDH(suite.ECDHX25519, b.Private, a.Public)
	require.NoError(t, err)

	assert.Equal(t, sharedA, sharedB)
}

func TestP256ECDHAgreement(t *testing.T) {
	a, err := GenerateEphemeralKey(suite.ECDHP256)
	require.NoError(t, err)
	b, err := GenerateEphemeralKey(suite.ECDHP256)
	require.NoError(t, err)

	sharedA, err := ECDH(suite.ECDHP256, a.Private, b.Public)
	require.NoError(t, err)
	sharedB, err := ECDH(suite.ECDHP256, b.Private, a.Public)
	require.NoError(t, err)

	assert.Equal(t, sharedA, sharedB)
	assert.Len(t, sharedA, 32)
}

func TestEdDSASignVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	seed := priv.Seed()

	msg := []byte("sig_structure bytes")
	sig, err := Sign(suite.SignEdDSA, seed, msg)
	require.NoError(t, err)

	err = Verify(suite.SignEdDSA, pub, msg, sig)
	assert.NoError(t, err)

	err = Verify(suite.SignEdDSA, pub, []byte("tampered"), sig)
	assert.Error(t, err)
}

func TestES256SignVerify(t *testing.T) {
	kp, err := GenerateEphemeralKey(suite.ECDHP256)
	require.NoError(t, err)

	msg := []byte("sig_structure bytes")
	sig, err := Sign(suite.SignES256, kp.Private, msg)
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	err = Verify(suite.SignES256, kp.Public, msg, sig)
	assert.NoError(t, err)

	err = Verify(suite.SignES256, kp.Public, []byte("tampered"), sig)
	assert.Error(t, err)
}

func TestHKDFExtractExpandDeterministic(t *testing.T) {
	salt := []byte("th2")
	ikm := []byte("shared secret")
	prk1 := HKDFExtract(salt, ikm)
	prk2 := HKDFExtract(salt, ikm)
	assert.Equal(t, prk1, prk2)

	okm, err := HKDFExpand(prk1, []byte("info"), 16)
	require.NoError(t, err)
	assert.Len(t, okm, 16)
}
