package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/kdf"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/transcript"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/transport"
)

// Initiator drives the Initiator side of one EDHOC handshake (spec §3, §5).
// The zero value is not usable; construct with NewInitiator.
type Initiator struct {
	ctx InitiatorContext
	rt  runtimeContext
}

// NewInitiator constructs an Initiator for one handshake. ctx.SuitesI[0] is
// the suite X_ephemeral is generated under and the whole handshake runs
// under; later entries are only listed in SUITES_I, and the Initiator does
// not switch to one of them.
func NewInitiator(ctx InitiatorContext) *Initiator {
	return &Initiator{ctx: ctx}
}

// Run drives the handshake to completion over tr and returns the resulting
// exporter. It sends message_1/message_3 and processes message_2 (and
// message_4 if ctx.Config.Message4 is set).
func (in *Initiator) Run(tr transport.Transport) (*Exporter, error) {
	exp, _, err := in.run(tr)
	return exp, err
}

// RunExtended is Run, additionally returning the Responder's connection
// identifier C_R so the caller can use it to demultiplex concurrent
// handshakes (spec §9, "Supplemented features").
func (in *Initiator) RunExtended(tr transport.Transport) (*Exporter, cborcodec.ConnID, error) {
	return in.run(tr)
}

func (in *Initiator) run(tr transport.Transport) (*Exporter, cborcodec.ConnID, error) {
	if len(in.ctx.SuitesI) == 0 {
		return nil, nil, common.New(common.ErrSuitesIListEmpty, "initiator context carries no suites")
	}
	s, err := suite.Get(in.ctx.SuitesI[0])
	if err != nil {
		return nil, nil, err
	}
	in.rt.suite = s
	in.rt.staticDHI = in.ctx.Identity.AuthenticatesWith == AuthStaticDH
	in.rt.staticDHR = in.ctx.ResponderAuthWith == AuthStaticDH

	x, err := crypto.GenerateEphemeralKey(s.ECDH)
	if err != nil {
		return nil, nil, err
	}

	message1 := cborcodec.Message1{
		Method:  method(in.ctx.Identity.AuthenticatesWith, in.ctx.ResponderAuthWith),
		SuitesI: suiteLabelsToInt64(in.ctx.SuitesI),
		GX:      x.Public,
		CI:      in.ctx.ConnID,
		EAD1:    eadOrNil(in.ctx.EAD1),
	}
	raw1, err := message1.Encode()
	if err != nil {
		return nil, nil, err
	}
	in.rt.message1Raw = raw1
	if err := tr.Send(raw1); err != nil {
		return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "send message_1", err)
	}

	raw2, err := tr.Receive()
	if err != nil {
		return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "receive message_2", err)
	}
	if isErrorMessage(raw2) {
		em, derr := DecodeErrorMessage(raw2)
		if derr != nil {
			return nil, nil, derr
		}
		return nil, nil, common.Newf(common.ErrErrorMessageReceived, "responder sent error_message: %s", em.Text)
	}

	msg2, err := cborcodec.DecodeMessage2(raw2, gEphemeralLen)
	if err != nil {
		return nil, nil, err
	}

	gXY, err := crypto.ECDH(s.ECDH, x.Private, msg2.GY)
	if err != nil {
		return nil, nil, err
	}
	th2, err := transcript.TH2(s.EDHOCHash, raw1, msg2.GY, msg2.CR)
	if err != nil {
		return nil, nil, err
	}
	in.rt.th2 = th2
	prk2e := kdf.PRK2e(th2, gXY)
	in.rt.prk2e = prk2e

	plaintext2Bytes, err := DecryptCiphertext2(s, prk2e, th2, msg2.Ciphertext2)
	if err != nil {
		return nil, nil, common.Wrap(common.ErrMACAuthenticationFailed, "decrypt ciphertext_2", err)
	}
	pt2, err := cborcodec.DecodePlaintextWithConnID(plaintext2Bytes)
	if err != nil {
		return nil, nil, err
	}
	if in.ctx.EADCb != nil && len(pt2.EAD) != 0 {
		if err := in.ctx.EADCb(2, pt2.EAD); err != nil {
			return nil, nil, err
		}
	}

	entry, err := in.ctx.Store.Resolve(pt2.IDCred)
	if err != nil {
		return nil, nil, err
	}

	prk3e2m := prk2e
	if in.rt.staticDHR {
		gRX, err := crypto.ECDH(s.ECDH, x.Private, entry.StaticDHPub)
		if err != nil {
			return nil, nil, err
		}
		prk3e2m, err = kdf.PRK3e2mStaticDH(s.EDHOCHash, prk2e, th2, gRX, s.HashLen())
		if err != nil {
			return nil, nil, err
		}
	}
	in.rt.prk3e2m = prk3e2m

	idCredRBytes, err := cborcodec.EncodeIDCredCompact(pt2.IDCred)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifySignatureOrMAC(s, in.rt.staticDHR, prk3e2m, kdf.LabelMAC2, entry.SignaturePub, idCredRBytes, th2, entry.CredBytes, pt2.EAD, pt2.SignatureOrMAC); err != nil {
		return nil, nil, err
	}

	th3, err := transcript.TH3(s.EDHOCHash, th2, plaintext2Bytes, entry.CredBytes)
	if err != nil {
		return nil, nil, err
	}
	in.rt.th3 = th3

	prk4e3m := prk3e2m
	if in.rt.staticDHI {
		gIY, err := crypto.ECDH(s.ECDH, in.ctx.Identity.StaticDHPrivate, msg2.GY)
		if err != nil {
			return nil, nil, err
		}
		prk4e3m, err = kdf.PRK4e3mStaticDH(s.EDHOCHash, prk3e2m, th3, gIY, s.HashLen())
		if err != nil {
			return nil, nil, err
		}
	}
	in.rt.prk4e3m = prk4e3m

	idCredIBytes, err := cborcodec.EncodeIDCredCompact(in.ctx.Identity.IDCred)
	if err != nil {
		return nil, nil, err
	}
	sigOrMAC3, err := ComputeSignatureOrMAC(s, in.rt.staticDHI, prk4e3m, kdf.LabelMAC3, in.ctx.Identity.SignPrivate, idCredIBytes, th3, in.ctx.Identity.CredBytes, in.ctx.EAD3)
	if err != nil {
		return nil, nil, err
	}

	pt3 := cborcodec.Plaintext3{IDCred: in.ctx.Identity.IDCred, SignatureOrMAC: sigOrMAC3, EAD: eadOrNil(in.ctx.EAD3)}
	pt3Bytes, err := pt3.Encode()
	if err != nil {
		return nil, nil, err
	}

	ciphertext3, err := EncryptPlaintext3(s, prk3e2m, th3, pt3Bytes)
	if err != nil {
		return nil, nil, err
	}
	raw3, err := cborcodec.EncodeMessage3(ciphertext3)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.Send(raw3); err != nil {
		return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "send message_3", err)
	}

	th4, err := transcript.TH4(s.EDHOCHash, th3, pt3Bytes, in.ctx.Identity.CredBytes)
	if err != nil {
		return nil, nil, err
	}
	in.rt.th4 = th4

	if in.ctx.Config.Message4 {
		raw4, err := tr.Receive()
		if err != nil {
			return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "receive message_4", err)
		}
		if isErrorMessage(raw4) {
			em, derr := DecodeErrorMessage(raw4)
			if derr != nil {
				return nil, nil, derr
			}
			return nil, nil, common.Newf(common.ErrErrorMessageReceived, "responder sent error_message: %s", em.Text)
		}
		ciphertext4, err := cborcodec.DecodeMessage4(raw4)
		if err != nil {
			return nil, nil, err
		}
		plaintext4, err := DecryptCiphertext4(s, prk4e3m, th4, ciphertext4)
		if err != nil {
			return nil, nil, common.Wrap(common.ErrMACAuthenticationFailed, "decrypt ciphertext_4", err)
		}
		if in.ctx.EADCb != nil && len(plaintext4) != 0 {
			if err := in.ctx.EADCb(4, plaintext4); err != nil {
				return nil, nil, err
			}
		}
	}

	prkOut, err := kdf.PRKOut(s.EDHOCHash, prk4e3m, th4, s.HashLen())
	if err != nil {
		return nil, nil, err
	}
	prkExporter, err := kdf.PRKExporter(s.EDHOCHash, prkOut, s.HashLen())
	if err != nil {
		return nil, nil, err
	}

	return &Exporter{hashAlg: s.EDHOCHash, prkExporter: prkExporter}, msg2.CR, nil
}
