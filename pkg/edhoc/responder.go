package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/kdf"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/transcript"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/transport"
)

// Responder drives the Responder side of one EDHOC handshake (spec §3, §5).
// The zero value is not usable; construct with NewResponder.
type Responder struct {
	ctx ResponderContext
	rt  runtimeContext
}

// NewResponder constructs a Responder for one handshake.
func NewResponder(ctx ResponderContext) *Responder {
	return &Responder{ctx: ctx}
}

// Run drives the handshake to completion over tr and returns the resulting
// exporter. It processes message_1/message_3 and sends message_2 (and
// message_4 if ctx.Config.Message4 is set).
func (re *Responder) Run(tr transport.Transport) (*Exporter, error) {
	exp, _, err := re.run(tr)
	return exp, err
}

// RunExtended is Run, additionally returning the Initiator's connection
// identifier C_I (spec §9, "Supplemented features").
func (re *Responder) RunExtended(tr transport.Transport) (*Exporter, cborcodec.ConnID, error) {
	return re.run(tr)
}

func (re *Responder) abort(tr transport.Transport, text string) error {
	em := ErrorMessage{ErrCode: ErrCodeGeneric, Text: text}
	if raw, err := em.Encode(); err == nil {
		_ = tr.Send(raw)
	}
	return common.Newf(common.ErrErrorMessageSent, "%s", text)
}

func (re *Responder) run(tr transport.Transport) (*Exporter, cborcodec.ConnID, error) {
	raw1, err := tr.Receive()
	if err != nil {
		return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "receive message_1", err)
	}
	msg1, err := cborcodec.DecodeMessage1(raw1)
	if err != nil {
		return nil, nil, err
	}
	if re.ctx.EADCb != nil && len(msg1.EAD1) != 0 {
		if err := re.ctx.EADCb(1, msg1.EAD1); err != nil {
			return nil, nil, err
		}
	}

	s, ok := negotiateSuite(msg1.SuitesI, re.ctx.SuitesR)
	if !ok {
		em := ErrorMessage{ErrCode: ErrCodeUnsupportedSuites, Suites: suiteLabelsToInt64(re.ctx.SuitesR)}
		if raw, encErr := em.Encode(); encErr == nil {
			_ = tr.Send(raw)
		}
		return nil, nil, common.New(common.ErrUnsupportedCipherSuite, "no proposed suite is acceptable")
	}
	re.rt.suite = s

	iAuth, rAuth := splitMethod(msg1.Method)
	if rAuth != re.ctx.Identity.AuthenticatesWith {
		return nil, nil, re.abort(tr, "method does not match this responder's authentication key")
	}
	re.rt.staticDHI = iAuth == AuthStaticDH
	re.rt.staticDHR = rAuth == AuthStaticDH

	y, err := crypto.GenerateEphemeralKey(s.ECDH)
	if err != nil {
		return nil, nil, err
	}
	gXY, err := crypto.ECDH(s.ECDH, y.Private, msg1.GX)
	if err != nil {
		return nil, nil, re.abort(tr, "ecdh with g_x failed")
	}
	th2, err := transcript.TH2(s.EDHOCHash, raw1, y.Public, re.ctx.ConnID)
	if err != nil {
		return nil, nil, err
	}
	re.rt.th2 = th2
	prk2e := kdf.PRK2e(th2, gXY)
	re.rt.prk2e = prk2e

	prk3e2m := prk2e
	if re.rt.staticDHR {
		gRX, err := crypto.ECDH(s.ECDH, re.ctx.Identity.StaticDHPrivate, msg1.GX)
		if err != nil {
			return nil, nil, re.abort(tr, "static-dh ecdh for prk_3e2m failed")
		}
		prk3e2m, err = kdf.PRK3e2mStaticDH(s.EDHOCHash, prk2e, th2, gRX, s.HashLen())
		if err != nil {
			return nil, nil, err
		}
	}
	re.rt.prk3e2m = prk3e2m

	idCredRBytes, err := cborcodec.EncodeIDCredCompact(re.ctx.Identity.IDCred)
	if err != nil {
		return nil, nil, err
	}
	sigOrMAC2, err := ComputeSignatureOrMAC(s, re.rt.staticDHR, prk3e2m, kdf.LabelMAC2, re.ctx.Identity.SignPrivate, idCredRBytes, th2, re.ctx.Identity.CredBytes, re.ctx.EAD2)
	if err != nil {
		return nil, nil, err
	}

	pt2 := cborcodec.PlaintextWithConnID{
		ConnID:         re.ctx.ConnID,
		IDCred:         re.ctx.Identity.IDCred,
		SignatureOrMAC: sigOrMAC2,
		EAD:            eadOrNil(re.ctx.EAD2),
	}
	pt2Bytes, err := pt2.Encode()
	if err != nil {
		return nil, nil, err
	}

	ciphertext2, err := EncryptPlaintext2(s, prk2e, th2, pt2Bytes)
	if err != nil {
		return nil, nil, err
	}
	msg2 := cborcodec.Message2{GY: y.Public, Ciphertext2: ciphertext2, CR: re.ctx.ConnID}
	raw2, err := msg2.Encode()
	if err != nil {
		return nil, nil, err
	}
	if err := tr.Send(raw2); err != nil {
		return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "send message_2", err)
	}

	th3, err := transcript.TH3(s.EDHOCHash, th2, pt2Bytes, re.ctx.Identity.CredBytes)
	if err != nil {
		return nil, nil, err
	}
	re.rt.th3 = th3

	raw3, err := tr.Receive()
	if err != nil {
		return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "receive message_3", err)
	}
	if isErrorMessage(raw3) {
		em, derr := DecodeErrorMessage(raw3)
		if derr != nil {
			return nil, nil, derr
		}
		return nil, nil, common.Newf(common.ErrErrorMessageReceived, "initiator sent error_message: %s", em.Text)
	}
	ciphertext3, err := cborcodec.DecodeMessage3(raw3)
	if err != nil {
		return nil, nil, err
	}
	plaintext3Bytes, err := DecryptCiphertext3(s, prk3e2m, th3, ciphertext3)
	if err != nil {
		return nil, nil, common.Wrap(common.ErrMACAuthenticationFailed, "decrypt ciphertext_3", err)
	}
	pt3, err := cborcodec.DecodePlaintext3(plaintext3Bytes)
	if err != nil {
		return nil, nil, err
	}
	if re.ctx.EADCb != nil && len(pt3.EAD) != 0 {
		if err := re.ctx.EADCb(3, pt3.EAD); err != nil {
			return nil, nil, err
		}
	}

	entryI, err := re.ctx.Store.Resolve(pt3.IDCred)
	if err != nil {
		return nil, nil, re.abort(tr, "no matching credential for id_cred_i")
	}

	prk4e3m := prk3e2m
	if re.rt.staticDHI {
		gIY, err := crypto.ECDH(s.ECDH, y.Private, entryI.StaticDHPub)
		if err != nil {
			return nil, nil, err
		}
		prk4e3m, err = kdf.PRK4e3mStaticDH(s.EDHOCHash, prk3e2m, th3, gIY, s.HashLen())
		if err != nil {
			return nil, nil, err
		}
	}
	re.rt.prk4e3m = prk4e3m

	idCredIBytes, err := cborcodec.EncodeIDCredCompact(pt3.IDCred)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifySignatureOrMAC(s, re.rt.staticDHI, prk4e3m, kdf.LabelMAC3, entryI.SignaturePub, idCredIBytes, th3, entryI.CredBytes, pt3.EAD, pt3.SignatureOrMAC); err != nil {
		return nil, nil, re.abort(tr, "signature_or_mac_3 verification failed")
	}

	th4, err := transcript.TH4(s.EDHOCHash, th3, plaintext3Bytes, entryI.CredBytes)
	if err != nil {
		return nil, nil, err
	}
	re.rt.th4 = th4

	if re.ctx.Config.Message4 {
		ciphertext4, err := EncryptPlaintext4(s, prk4e3m, th4, nil)
		if err != nil {
			return nil, nil, err
		}
		raw4, err := cborcodec.EncodeMessage4(ciphertext4)
		if err != nil {
			return nil, nil, err
		}
		if err := tr.Send(raw4); err != nil {
			return nil, nil, common.Wrap(common.ErrUnexpectedResultFromExtLib, "send message_4", err)
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

	return &Exporter{hashAlg: s.EDHOCHash, prkExporter: prkExporter}, msg1.CI, nil
}
