package coap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := Packet{
		Version:   1,
		Type:      0,
		Code:      CodeGET,
		MessageID: 0x1234,
		Token:     []byte{0xAA, 0xBB},
		Options: []Option{
			{Number: OptionURIPath, Value: []byte("sensors")},
			{Number: OptionContentFormat, Value: []byte{0x00}},
		},
		Payload: []byte("hello"),
	}
	enc, err := p.Encode()
	require.NoError(t, err)

	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, p.Version, dec.Version)
	assert.Equal(t, p.Code, dec.Code)
	assert.Equal(t, p.MessageID, dec.MessageID)
	assert.Equal(t, p.Token, dec.Token)
	assert.Equal(t, p.Payload, dec.Payload)
	require.Len(t, dec.Options, 2)
	assert.Equal(t, OptionURIPath, dec.Options[0].Number)
	assert.Equal(t, []byte("sensors"), dec.Options[0].Value)
}

func TestEncodeDecodeExtendedOptionLengths(t *testing.T) {
	longValue := make([]byte, 300)
	for i := range longValue {
		longValue[i] = byte(i)
	}
	p := Packet{Code: CodePOST, Options: []Option{{Number: OptionURIPath, Value: longValue}}}

	enc, err := p.Encode()
	require.NoError(t, err)
	dec, err := Decode(enc)
	require.NoError(t, err)
	require.Len(t, dec.Options, 1)
	assert.Equal(t, longValue, dec.Options[0].Value)
}

func TestDecodeRejectsReservedNibble(t *testing.T) {
	// header + 0xF0 as an option byte (delta nibble 15 reserved)
	raw := []byte{0x40, CodeGET, 0x00, 0x01, 0xF0}
	_, err := Decode(raw)
	assert.Error(t, err)
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	_, err := Decode([]byte{0x40, 0x01})
	assert.Error(t, err)
}

func TestNoPayloadOmitsMarker(t *testing.T) {
	p := Packet{Code: CodeGET, MessageID: 1}
	enc, err := p.Encode()
	require.NoError(t, err)
	for _, b := range enc {
		assert.NotEqual(t, byte(0xFF), b)
	}
}

func TestIsClassU(t *testing.T) {
	assert.True(t, IsClassU(OptionOSCORE))
	assert.True(t, IsClassU(OptionURIHost))
	assert.False(t, IsClassU(OptionURIPath))
	assert.False(t, IsClassU(OptionObserve))
}

func TestClassifyRequestVsRegistrationVsCancellation(t *testing.T) {
	req := Packet{Code: CodeGET}
	assert.Equal(t, TypeRequest, Classify(req))

	reg := Packet{Code: CodeGET, Options: []Option{{Number: OptionObserve, Value: []byte{0}}}}
	assert.Equal(t, TypeRegistration, Classify(reg))

	cancel := Packet{Code: CodeGET, Options: []Option{{Number: OptionObserve, Value: []byte{1}}}}
	assert.Equal(t, TypeCancellation, Classify(cancel))
}

func TestClassifyNotificationVsResponse(t *testing.T) {
	notif := Packet{Code: CodeContent, Options: []Option{{Number: OptionObserve, Value: []byte{5}}}}
	assert.Equal(t, TypeNotification, Classify(notif))

	resp := Packet{Code: CodeChanged}
	assert.Equal(t, TypeResponse, Classify(resp))
}
