package oscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/coap"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

func makeClientServerPair(t *testing.T) (client, server *SecurityContext) {
	t.Helper()
	masterSecret := []byte{0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8, 0x9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf}
	masterSalt := []byte{0x9e, 0x7c, 0xa9, 0x22, 0x23, 0x78, 0x63, 0x40}
	cfg := DefaultConfig()

	var err error
	client, err = DeriveContext(DeriveParams{
		MasterSecret: masterSecret, MasterSalt: masterSalt,
		SenderID: []byte{}, RecipientID: []byte{0x01},
		AEADAlg: suite.AEADAESCCM16_64_128, HashAlg: suite.HashSHA256,
		AEADKeyLen: 16, AEADIVLen: 13, Fresh: true, Config: cfg,
	})
	require.NoError(t, err)

	server, err = DeriveContext(DeriveParams{
		MasterSecret: masterSecret, MasterSalt: masterSalt,
		SenderID: []byte{0x01}, RecipientID: []byte{},
		AEADAlg: suite.AEADAESCCM16_64_128, HashAlg: suite.HashSHA256,
		AEADKeyLen: 16, AEADIVLen: 13, Fresh: true, Config: cfg,
	})
	require.NoError(t, err)
	return client, server
}

func TestCoAP2OSCORERequestResponseRoundTrip(t *testing.T) {
	client, server := makeClientServerPair(t)

	req := coap.Packet{
		Code:      coap.CodeGET,
		MessageID: 1,
		Token:     []byte{0x7b},
		Options:   []coap.Option{{Number: coap.OptionURIPath, Value: []byte("temperature")}},
	}

	protectedReq, err := CoAP2OSCORE(client, req)
	require.NoError(t, err)
	_, hasOSCORE := protectedReq.GetOption(coap.OptionOSCORE)
	assert.True(t, hasOSCORE)

	unprotectedReq, err := OSCORE2CoAP(server, protectedReq)
	require.NoError(t, err)
	assert.Equal(t, coap.CodeGET, unprotectedReq.Code)
	assert.Equal(t, req.Token, unprotectedReq.Token)

	resp := coap.Packet{Code: coap.CodeChanged, MessageID: 1, Token: req.Token, Payload: []byte("22.5 C")}
	protectedResp, err := CoAP2OSCORE(server, resp)
	require.NoError(t, err)

	unprotectedResp, err := OSCORE2CoAP(client, protectedResp)
	require.NoError(t, err)
	assert.Equal(t, coap.CodeChanged, unprotectedResp.Code)
	assert.Equal(t, []byte("22.5 C"), unprotectedResp.Payload)
}

func TestOSCORE2CoAPAcceptsOutOfOrderResponsesToConcurrentRequests(t *testing.T) {
	client, server := makeClientServerPair(t)

	// Two requests outstanding at once (within OSCORE_INTERACTIONS_COUNT),
	// each to a distinct resource so the interactions table keys them
	// independently. The server's request-PIV for the first exchange
	// starts lower than the second's, but its response is processed
	// second at the client — a plain response ordering, not a
	// notification, so it must not be rejected as out-of-order.
	reqA := coap.Packet{
		Code: coap.CodeGET, MessageID: 1, Token: []byte{0x01},
		Options: []coap.Option{{Number: coap.OptionURIPath, Value: []byte("a")}},
	}
	reqB := coap.Packet{
		Code: coap.CodeGET, MessageID: 2, Token: []byte{0x02},
		Options: []coap.Option{{Number: coap.OptionURIPath, Value: []byte("b")}},
	}

	protectedA, err := CoAP2OSCORE(client, reqA)
	require.NoError(t, err)
	protectedB, err := CoAP2OSCORE(client, reqB)
	require.NoError(t, err)

	_, err = OSCORE2CoAP(server, protectedA)
	require.NoError(t, err)
	_, err = OSCORE2CoAP(server, protectedB)
	require.NoError(t, err)

	respA := coap.Packet{Code: coap.CodeChanged, MessageID: 1, Token: reqA.Token}
	respB := coap.Packet{Code: coap.CodeChanged, MessageID: 2, Token: reqB.Token}
	protectedRespA, err := CoAP2OSCORE(server, respA)
	require.NoError(t, err)
	protectedRespB, err := CoAP2OSCORE(server, respB)
	require.NoError(t, err)

	// Responses arrive in the order B, then A — the reverse of request
	// order. Both must be accepted.
	_, err = OSCORE2CoAP(client, protectedRespB)
	assert.NoError(t, err)
	_, err = OSCORE2CoAP(client, protectedRespA)
	assert.NoError(t, err)
}

func TestOSCORE2CoAPRejectsReplayedRequest(t *testing.T) {
	client, server := makeClientServerPair(t)
	req := coap.Packet{Code: coap.CodeGET, MessageID: 1, Token: []byte{0x01}}

	protected, err := CoAP2OSCORE(client, req)
	require.NoError(t, err)

	_, err = OSCORE2CoAP(server, protected)
	require.NoError(t, err)

	_, err = OSCORE2CoAP(server, protected)
	assert.Error(t, err)
}

func TestOSCORE2CoAPRejectsNonOSCOREPacket(t *testing.T) {
	_, server := makeClientServerPair(t)
	_, err := OSCORE2CoAP(server, coap.Packet{Code: coap.CodeGET})
	assert.Error(t, err)
}

func TestSSNIncrementsMonotonically(t *testing.T) {
	client, _ := makeClientServerPair(t)
	req := coap.Packet{Code: coap.CodeGET, Token: []byte{0x01}}

	for i := uint32(0); i < 3; i++ {
		assert.Equal(t, i, client.Sender.SSN)
		_, err := CoAP2OSCORE(client, req)
		require.NoError(t, err)
	}
	assert.Equal(t, uint32(3), client.Sender.SSN)
}

func TestSSNOverflowLocksOutFurtherEncryption(t *testing.T) {
	client, _ := makeClientServerPair(t)
	client.Config.OSCORESSNOverflowValue = 0
	_, err := CoAP2OSCORE(client, coap.Packet{Code: coap.CodeGET})
	assert.Error(t, err)
}
