package oscore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveNonceRFC8613C4Like(t *testing.T) {
	commonIV := bytes.Repeat([]byte{0x00}, 13)
	senderID := []byte{0x00}

	n0, err := DeriveNonce(13, senderID, 0, commonIV)
	require.NoError(t, err)
	assert.Len(t, n0, 13)

	n1, err := DeriveNonce(13, senderID, 1, commonIV)
	require.NoError(t, err)
	assert.NotEqual(t, n0, n1)
}

func TestDeriveNonceVariesBySenderID(t *testing.T) {
	commonIV := bytes.Repeat([]byte{0x11}, 13)
	a, err := DeriveNonce(13, []byte{0x01}, 5, commonIV)
	require.NoError(t, err)
	b, err := DeriveNonce(13, []byte{0x02}, 5, commonIV)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDeriveNonceRejectsMismatchedIVLen(t *testing.T) {
	_, err := DeriveNonce(13, []byte{0x01}, 1, bytes.Repeat([]byte{0x00}, 8))
	assert.Error(t, err)
}

func TestDeriveNonceRejectsOversizedSenderID(t *testing.T) {
	commonIV := bytes.Repeat([]byte{0x00}, 13)
	_, err := DeriveNonce(13, bytes.Repeat([]byte{0x01}, 10), 1, commonIV)
	assert.Error(t, err)
}

func TestDeriveNonceKIDLengthByte(t *testing.T) {
	commonIV := bytes.Repeat([]byte{0x00}, 13)
	n, err := DeriveNonce(13, []byte{0xAA, 0xBB, 0xCC}, 0, commonIV)
	require.NoError(t, err)
	assert.Equal(t, byte(3), n[0])
}
