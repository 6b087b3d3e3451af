package cborcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage1RoundTripSingleSuite(t *testing.T) {
	m := Message1{
		Method:  3,
		SuitesI: []int64{2},
		GX:      bytes.Repeat([]byte{0xAB}, 32),
		CI:      ConnID{0x01},
	}
	enc, err := m.Encode()
	require.NoError(t, err)

	dec, err := DecodeMessage1(enc)
	require.NoError(t, err)
	assert.Equal(t, m.Method, dec.Method)
	assert.Equal(t, m.SuitesI, dec.SuitesI)
	assert.Equal(t, m.GX, dec.GX)
	assert.Equal(t, m.CI, dec.CI)
	assert.Empty(t, dec.EAD1)
}

func TestMessage1RoundTripMultipleSuites(t *testing.T) {
	m := Message1{
		Method:  0,
		SuitesI: []int64{0, 2},
		GX:      bytes.Repeat([]byte{0x01}, 32),
		CI:      ConnID{0x2A, 0x2B},
	}
	enc, err := m.Encode()
	require.NoError(t, err)

	dec, err := DecodeMessage1(enc)
	require.NoError(t, err)
	assert.Equal(t, m.SuitesI, dec.SuitesI)
	assert.Equal(t, m.CI, dec.CI)
}

func TestMessage1EmptySuitesIRejected(t *testing.T) {
	raw, err := EncodeArray()
	require.NoError(t, err)
	seq, err := new(SequenceBuilder).Add(int64(0)).AddRaw(raw).Bytes()
	require.NoError(t, err)

	_, err = DecodeMessage1(seq)
	assert.Error(t, err)
}

func TestMessage2RoundTrip(t *testing.T) {
	gy := bytes.Repeat([]byte{0x02}, 32)
	ct2 := []byte{0x10, 0x20, 0x30}
	m := Message2{GY: gy, Ciphertext2: ct2, CR: ConnID{0x00}}

	enc, err := m.Encode()
	require.NoError(t, err)

	dec, err := DecodeMessage2(enc, 32)
	require.NoError(t, err)
	assert.Equal(t, gy, dec.GY)
	assert.Equal(t, ct2, dec.Ciphertext2)
	assert.Equal(t, m.CR, dec.CR)
}

func TestPlaintextWithConnIDRoundTrip(t *testing.T) {
	p := PlaintextWithConnID{
		ConnID:         ConnID{0x01},
		IDCred:         IDCred{Label: LabelKid, Value: []byte{0x07}},
		SignatureOrMAC: bytes.Repeat([]byte{0x09}, 8),
	}
	enc, err := p.Encode()
	require.NoError(t, err)

	dec, err := DecodePlaintextWithConnID(enc)
	require.NoError(t, err)
	assert.Equal(t, p.ConnID, dec.ConnID)
	assert.Equal(t, p.IDCred.Label, dec.IDCred.Label)
	assert.Equal(t, p.SignatureOrMAC, dec.SignatureOrMAC)
	assert.Empty(t, dec.EAD)
}

func TestPlaintext3RoundTrip(t *testing.T) {
	p := Plaintext3{
		IDCred:         IDCred{Label: LabelX5Chain, Value: []byte{0xAA, 0xBB}},
		SignatureOrMAC: bytes.Repeat([]byte{0x0A}, 64),
	}
	enc, err := p.Encode()
	require.NoError(t, err)

	dec, err := DecodePlaintext3(enc)
	require.NoError(t, err)
	assert.Equal(t, p.IDCred.Label, dec.IDCred.Label)
	assert.Equal(t, p.SignatureOrMAC, dec.SignatureOrMAC)
}

func TestEncodeInfoShape(t *testing.T) {
	b, err := EncodeInfo(7, []byte{0x01, 0x02}, 32)
	require.NoError(t, err)
	assert.Equal(t, byte(0x83), b[0], "expected a 3-element CBOR array")
}

func TestEncodeSigStructureSplicesIDCredRaw(t *testing.T) {
	idCredBytes, err := EncodeIDCredCompact(IDCred{Label: LabelKid, Value: []byte{0x07}})
	require.NoError(t, err)

	sig, err := EncodeSigStructure(idCredBytes, []byte("th||cred||ead"))
	require.NoError(t, err)

	var decoded []any
	require.NoError(t, DecodeItem(sig, &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "Signature1", decoded[0])
	// ID_CRED must appear as its own bstr value (0x07), not double-wrapped.
	assert.Equal(t, []byte{0x07}, decoded[1])
}

func TestMessage3And4WrapAsBstr(t *testing.T) {
	ct := []byte{0x01, 0x02, 0x03}

	enc3, err := EncodeMessage3(ct)
	require.NoError(t, err)
	dec3, err := DecodeMessage3(enc3)
	require.NoError(t, err)
	assert.Equal(t, ct, dec3)

	enc4, err := EncodeMessage4(ct)
	require.NoError(t, err)
	dec4, err := DecodeMessage4(enc4)
	require.NoError(t, err)
	assert.Equal(t, ct, dec4)
}
