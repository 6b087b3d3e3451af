package edhoc

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/credential"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// memPipe is an in-process transport.Transport backed by a pair of
// channels, used to run an Initiator and a Responder against each other
// without a real socket.
type memPipe struct {
	out chan<- []byte
	in  <-chan []byte
}

func newMemPipePair() (*memPipe, *memPipe) {
	ab := make(chan []byte, 8)
	ba := make(chan []byte, 8)
	return &memPipe{out: ab, in: ba}, &memPipe{out: ba, in: ab}
}

func (p *memPipe) Send(msg []byte) error {
	cp := append([]byte(nil), msg...)
	p.out <- cp
	return nil
}

func (p *memPipe) Receive() ([]byte, error) {
	return <-p.in, nil
}

func (p *memPipe) Close() error { return nil }

type runResult struct {
	exp *Exporter
	cid cborcodec.ConnID
	err error
}

func buildSignatureIdentities(t *testing.T) (Identity, Identity) {
	t.Helper()
	iPub, iPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	rPub, rPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	iIDCred := cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x01}}
	rIDCred := cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x02}}

	initiatorIdentity := Identity{
		SignPrivate:       iPriv.Seed(),
		SignPublic:        iPub,
		CredBytes:         []byte("cred-initiator"),
		IDCred:            iIDCred,
		AuthenticatesWith: AuthSignature,
	}
	responderIdentity := Identity{
		SignPrivate:       rPriv.Seed(),
		SignPublic:        rPub,
		CredBytes:         []byte("cred-responder"),
		IDCred:            rIDCred,
		AuthenticatesWith: AuthSignature,
	}
	return initiatorIdentity, responderIdentity
}

func TestInitiatorResponderSignatureHandshake(t *testing.T) {
	initiatorIdentity, responderIdentity := buildSignatureIdentities(t)

	responderStore := credential.NewStore([]credential.Entry{{
		IDCred:       initiatorIdentity.IDCred,
		CredBytes:    initiatorIdentity.CredBytes,
		SignaturePub: initiatorIdentity.SignPublic,
	}}, nil)
	initiatorStore := credential.NewStore([]credential.Entry{{
		IDCred:       responderIdentity.IDCred,
		CredBytes:    responderIdentity.CredBytes,
		SignaturePub: responderIdentity.SignPublic,
	}}, nil)

	initiatorCtx := InitiatorContext{
		SuitesI:           []suite.Label{suite.Suite0},
		Identity:          initiatorIdentity,
		ConnID:            cborcodec.ConnID{0x01},
		Store:             initiatorStore,
		ResponderAuthWith: AuthSignature,
	}
	responderCtx := ResponderContext{
		SuitesR:           []suite.Label{suite.Suite0},
		Identity:          responderIdentity,
		ConnID:            cborcodec.ConnID{0x02},
		Store:             responderStore,
		InitiatorAuthWith: AuthSignature,
	}

	initiatorPipe, responderPipe := newMemPipePair()
	initiator := NewInitiator(initiatorCtx)
	responder := NewResponder(responderCtx)

	resultCh := make(chan runResult, 1)
	go func() {
		exp, cid, err := initiator.RunExtended(initiatorPipe)
		resultCh <- runResult{exp: exp, cid: cid, err: err}
	}()

	rExp, rCID, rErr := responder.RunExtended(responderPipe)
	require.NoError(t, rErr)

	iResult := <-resultCh
	require.NoError(t, iResult.err)

	assert.Equal(t, initiatorCtx.ConnID, rCID)
	assert.Equal(t, responderCtx.ConnID, iResult.cid)

	iSecret, err := iResult.exp.OSCOREMasterSecret()
	require.NoError(t, err)
	rSecret, err := rExp.OSCOREMasterSecret()
	require.NoError(t, err)
	assert.Equal(t, iSecret, rSecret)
	assert.Len(t, iSecret, 16)

	iSalt, err := iResult.exp.OSCOREMasterSalt()
	require.NoError(t, err)
	rSalt, err := rExp.OSCOREMasterSalt()
	require.NoError(t, err)
	assert.Equal(t, iSalt, rSalt)
}

func TestInitiatorResponderStaticDHHandshake(t *testing.T) {
	iEph, err := crypto.GenerateEphemeralKey(suite.ECDHX25519)
	require.NoError(t, err)
	rEph, err := crypto.GenerateEphemeralKey(suite.ECDHX25519)
	require.NoError(t, err)

	iIDCred := cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x11}}
	rIDCred := cborcodec.IDCred{Label: cborcodec.LabelKid, Value: []byte{0x12}}

	initiatorIdentity := Identity{
		StaticDHPrivate:   iEph.Private,
		StaticDHPublic:    iEph.Public,
		CredBytes:         []byte("cred-initiator-dh"),
		IDCred:            iIDCred,
		AuthenticatesWith: AuthStaticDH,
	}
	responderIdentity := Identity{
		StaticDHPrivate:   rEph.Private,
		StaticDHPublic:    rEph.Public,
		CredBytes:         []byte("cred-responder-dh"),
		IDCred:            rIDCred,
		AuthenticatesWith: AuthStaticDH,
	}

	responderStore := credential.NewStore([]credential.Entry{{
		IDCred:      initiatorIdentity.IDCred,
		CredBytes:   initiatorIdentity.CredBytes,
		StaticDHPub: initiatorIdentity.StaticDHPublic,
	}}, nil)
	initiatorStore := credential.NewStore([]credential.Entry{{
		IDCred:      responderIdentity.IDCred,
		CredBytes:   responderIdentity.CredBytes,
		StaticDHPub: responderIdentity.StaticDHPublic,
	}}, nil)

	initiatorCtx := InitiatorContext{
		SuitesI:           []suite.Label{suite.Suite0},
		Identity:          initiatorIdentity,
		ConnID:            cborcodec.ConnID{0x01},
		Store:             initiatorStore,
		ResponderAuthWith: AuthStaticDH,
	}
	responderCtx := ResponderContext{
		SuitesR:           []suite.Label{suite.Suite0},
		Identity:          responderIdentity,
		ConnID:            cborcodec.ConnID{0x02},
		Store:             responderStore,
		InitiatorAuthWith: AuthStaticDH,
	}

	initiatorPipe, responderPipe := newMemPipePair()
	initiator := NewInitiator(initiatorCtx)
	responder := NewResponder(responderCtx)

	resultCh := make(chan runResult, 1)
	go func() {
		exp, _, err := initiator.RunExtended(initiatorPipe)
		resultCh <- runResult{exp: exp, err: err}
	}()

	rExp, _, rErr := responder.RunExtended(responderPipe)
	require.NoError(t, rErr)
	iResult := <-resultCh
	require.NoError(t, iResult.err)

	iSecret, err := iResult.exp.OSCOREMasterSecret()
	require.NoError(t, err)
	rSecret, err := rExp.OSCOREMasterSecret()
	require.NoError(t, err)
	assert.Equal(t, iSecret, rSecret)
}

func TestResponderRejectsUnsupportedSuite(t *testing.T) {
	_, responderIdentity := buildSignatureIdentities(t)
	responderStore := credential.NewStore(nil, nil)

	responderCtx := ResponderContext{
		SuitesR:  []suite.Label{suite.Suite2},
		Identity: responderIdentity,
		ConnID:   cborcodec.ConnID{0x02},
		Store:    responderStore,
	}

	initiatorPipe, responderPipe := newMemPipePair()
	message1 := cborcodec.Message1{
		Method:  0,
		SuitesI: []int64{0},
		GX:      make([]byte, 32),
		CI:      cborcodec.ConnID{0x01},
	}
	raw1, err := message1.Encode()
	require.NoError(t, err)
	require.NoError(t, initiatorPipe.Send(raw1))

	responder := NewResponder(responderCtx)
	_, _, err = responder.run(responderPipe)
	assert.Error(t, err)

	raw, err := initiatorPipe.Receive()
	require.NoError(t, err)
	assert.True(t, isErrorMessage(raw))
	em, err := DecodeErrorMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeUnsupportedSuites, em.ErrCode)
}
