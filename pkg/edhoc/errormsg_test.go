package edhoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageGenericRoundTrip(t *testing.T) {
	m := ErrorMessage{ErrCode: ErrCodeGeneric, Text: "unable to process message_1"}
	enc, err := m.Encode()
	require.NoError(t, err)

	dec, err := DecodeErrorMessage(enc)
	require.NoError(t, err)
	assert.Equal(t, m.ErrCode, dec.ErrCode)
	assert.Equal(t, m.Text, dec.Text)
}

func TestErrorMessageUnsupportedSuitesRoundTrip(t *testing.T) {
	m := ErrorMessage{ErrCode: ErrCodeUnsupportedSuites, Suites: []int64{0, 2}}
	enc, err := m.Encode()
	require.NoError(t, err)

	dec, err := DecodeErrorMessage(enc)
	require.NoError(t, err)
	assert.Equal(t, m.ErrCode, dec.ErrCode)
	assert.Equal(t, m.Suites, dec.Suites)
}
