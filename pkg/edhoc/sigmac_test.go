package edhoc

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

func TestSignatureOrMACStaticDHRoundTrip(t *testing.T) {
	s, err := suite.Get(suite.Suite0)
	require.NoError(t, err)

	prk := make([]byte, 32)
	for i := range prk {
		prk[i] = byte(i)
	}
	idCredBytes, err := cborcodec.EncodeIDCredCompact(cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x01}})
	require.NoError(t, err)
	th := []byte("transcript-hash")
	cred := []byte("cred-bytes")
	ead := []byte{}

	mac, err := ComputeSignatureOrMAC(s, true, prk, 3, nil, idCredBytes, th, cred, ead)
	require.NoError(t, err)
	assert.Len(t, mac, s.StaticDHMACLen)

	err = VerifySignatureOrMAC(s, true, prk, 3, nil, idCredBytes, th, cred, ead, mac)
	assert.NoError(t, err)
}

func TestSignatureOrMACStaticDHRejectsTamperedMAC(t *testing.T) {
	s, err := suite.Get(suite.Suite0)
	require.NoError(t, err)

	prk := make([]byte, 32)
	idCredBytes, err := cborcodec.EncodeIDCredCompact(cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x01}})
	require.NoError(t, err)
	th := []byte("th")
	cred := []byte("cred")

	mac, err := ComputeSignatureOrMAC(s, true, prk, 3, nil, idCredBytes, th, cred, nil)
	require.NoError(t, err)
	mac[0] ^= 0xFF

	err = VerifySignatureOrMAC(s, true, prk, 3, nil, idCredBytes, th, cred, nil, mac)
	assert.Error(t, err)
}

func TestSignatureOrMACSignatureRoundTrip(t *testing.T) {
	s, err := suite.Get(suite.Suite0)
	require.NoError(t, err)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	prk := make([]byte, 32)
	idCredBytes, err := cborcodec.EncodeIDCredCompact(cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x02}})
	require.NoError(t, err)
	th := []byte("transcript-hash-3")
	cred := []byte("cred-bytes-3")

	sig, err := ComputeSignatureOrMAC(s, false, prk, 6, priv.Seed(), idCredBytes, th, cred, nil)
	require.NoError(t, err)
	assert.Len(t, sig, ed25519.SignatureSize)

	err = VerifySignatureOrMAC(s, false, prk, 6, pub, idCredBytes, th, cred, nil, sig)
	assert.NoError(t, err)
}

func TestSignatureOrMACSignatureRejectsWrongKey(t *testing.T) {
	s, err := suite.Get(suite.Suite0)
	require.NoError(t, err)

	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	prk := make([]byte, 32)
	idCredBytes, err := cborcodec.EncodeIDCredCompact(cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x03}})
	require.NoError(t, err)

	sig, err := ComputeSignatureOrMAC(s, false, prk, 6, priv.Seed(), idCredBytes, []byte("th"), []byte("cred"), nil)
	require.NoError(t, err)

	err = VerifySignatureOrMAC(s, false, prk, 6, otherPub, idCredBytes, []byte("th"), []byte("cred"), nil, sig)
	assert.Error(t, err)
}

func TestMacContextOmitsConnIDPrefix(t *testing.T) {
	idCredBytes, err := cborcodec.EncodeIDCredCompact(cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x01}})
	require.NoError(t, err)
	th := []byte("th")
	cred := []byte("cred")

	ctx, err := macContext(idCredBytes, th, cred, nil)
	require.NoError(t, err)

	r := cborcodec.NewSequenceReader(ctx)
	var firstItem any
	require.NoError(t, r.Next(&firstItem))
	// The first item in context must be ID_CRED itself (a bstr for the kid
	// form used here), not a connection-id element.
	kidBytes, ok := firstItem.([]byte)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, kidBytes)
}
