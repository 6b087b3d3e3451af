package oscore

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/coap"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
)

// innerPlaintext builds code || class-E options || 0xFF || payload, the
// protected inner message (spec §6.1).
func innerPlaintext(p coap.Packet) ([]byte, error) {
	inner := coap.Packet{Code: p.Code, Payload: p.Payload}
	for _, o := range p.Options {
		if !coap.IsClassU(o.Number) {
			inner.Options = append(inner.Options, o)
		}
	}
	full, err := inner.Encode()
	if err != nil {
		return nil, err
	}
	// inner.Encode() emits a 4-byte CoAP header (with the code at byte 1)
	// followed by options/marker/payload; the inner plaintext replaces that
	// header with a single explicit code byte (spec §6.1).
	plaintext := make([]byte, 0, 1+len(full)-4)
	plaintext = append(plaintext, inner.Code)
	plaintext = append(plaintext, full[4:]...)
	return plaintext, nil
}

func splitInnerPlaintext(data []byte) (code uint8, options []coap.Option, payload []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil, common.New(common.ErrNotValidInputPacket, "empty oscore plaintext")
	}
	full := make([]byte, 4+len(data)-1)
	full[1] = data[0]
	copy(full[4:], data[1:])
	pkt, err := coap.Decode(full)
	if err != nil {
		return 0, nil, nil, err
	}
	return pkt.Code, pkt.Options, pkt.Payload, nil
}

// rewriteOutboundCode implements spec §4.11's outer-code rewrite.
func rewriteOutboundCode(p coap.Packet, mt coap.MessageType) uint8 {
	switch mt {
	case coap.TypeRegistration, coap.TypeCancellation:
		if p.Code == coap.CodeGET {
			return coap.CodeFETCH
		}
		return coap.CodePOST
	case coap.TypeRequest:
		if p.Code == coap.CodeGET {
			return coap.CodePOST
		}
		return p.Code
	case coap.TypeNotification:
		return coap.CodeContent
	default:
		return coap.CodeChanged
	}
}

func encodePIV(ssn uint64) []byte {
	if ssn == 0 {
		return nil
	}
	var b []byte
	for ssn > 0 {
		b = append([]byte{byte(ssn)}, b...)
		ssn >>= 8
	}
	return b
}

func decodePIV(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// CoAP2OSCORE protects an outbound CoAP packet under sc, implementing the
// request/response halves of spec §4.9-§4.14, §4.17.
func CoAP2OSCORE(sc *SecurityContext, p coap.Packet) (coap.Packet, error) {
	if uint64(sc.Sender.SSN) >= uint64(sc.Config.OSCORESSNOverflowValue) {
		return coap.Packet{}, common.New(common.ErrOscoreSSNOverflow, "sender sequence number overflow")
	}

	mt := coap.Classify(p)
	isRequest := mt == coap.TypeRequest || mt == coap.TypeRegistration || mt == coap.TypeCancellation

	plaintext, err := innerPlaintext(p)
	if err != nil {
		return coap.Packet{}, err
	}

	// Requests get a fresh PIV from this context's own SSN, nonce-keyed on
	// this context's Sender ID. Responses reuse the request's PIV and are
	// nonce-keyed on the Recipient ID instead: the same nonce the requester
	// used to protect the request, reused under the responder's own Sender
	// Key (RFC 8613 §5.4) — safe because requester and responder never
	// share an AEAD key.
	var piv uint64
	var pivBytes, aadKID, aadPIV []byte
	var nonceID []byte
	if isRequest {
		piv = uint64(sc.Sender.SSN)
		pivBytes = encodePIV(piv)
		nonceID = sc.Sender.ID
		aadKID, aadPIV = sc.Sender.ID, pivBytes
	} else {
		rec, err := sc.Interactions.GetRecord(p.Token)
		if err != nil {
			return coap.Packet{}, err
		}
		piv = decodePIV(rec.RequestPIV)
		pivBytes = rec.RequestPIV
		nonceID = sc.Recipient.ID
		aadKID, aadPIV = rec.RequestKID, rec.RequestPIV
	}

	nonce, err := DeriveNonce(len(sc.Common.CommonIV), nonceID, piv, sc.Common.CommonIV)
	if err != nil {
		return coap.Packet{}, err
	}
	aad, err := BuildAAD(int(sc.Common.AEADAlg), aadKID, aadPIV)
	if err != nil {
		return coap.Packet{}, err
	}

	ciphertext, err := crypto.SealCCM(sc.Sender.Key, nonce, plaintext, aad)
	if err != nil {
		return coap.Packet{}, err
	}

	opt := Option{}
	if isRequest {
		opt.PIV = pivBytes
		opt.KID = sc.Sender.ID
		opt.KIDContext = sc.Common.IDContext
	}
	optBytes, err := opt.Encode()
	if err != nil {
		return coap.Packet{}, err
	}

	out := coap.Packet{
		Type:      p.Type,
		Code:      rewriteOutboundCode(p, mt),
		MessageID: p.MessageID,
		Token:     p.Token,
		Payload:   ciphertext,
	}
	for _, o := range p.Options {
		if coap.IsClassU(o.Number) && o.Number != coap.OptionOSCORE {
			out.Options = append(out.Options, o)
		}
	}
	out.Options = append(out.Options, coap.Option{Number: coap.OptionOSCORE, Value: optBytes})

	if err := recordInteraction(sc, p, mt, pivBytes); err != nil {
		return coap.Packet{}, err
	}

	if isRequest {
		sc.Sender.SSN++
	}
	return out, nil
}

func recordInteraction(sc *SecurityContext, p coap.Packet, mt coap.MessageType, pivBytes []byte) error {
	switch mt {
	case coap.TypeRequest, coap.TypeRegistration, coap.TypeCancellation:
		return sc.Interactions.SetRecord(InteractionRecord{
			Token:       p.Token,
			RequestPIV:  pivBytes,
			RequestKID:  sc.Sender.ID,
			URIPath:     JoinURIPath(p, sc.Config.OSCOREMaxURIPathLen),
			RequestType: mt,
		})
	case coap.TypeResponse:
		if err := sc.Interactions.RemoveRecord(p.Token); err != nil {
			// A response to an exchange this context never tracked is not
			// itself a protocol error from the sender's point of view.
			return nil
		}
		return nil
	default:
		return nil
	}
}

// OSCORE2CoAP unprotects an inbound OSCORE-protected CoAP packet, applying
// the replay window / ECHO state machine for requests (spec §4.15-§4.18).
func OSCORE2CoAP(sc *SecurityContext, p coap.Packet) (coap.Packet, error) {
	oscoreOpt, ok := p.GetOption(coap.OptionOSCORE)
	if !ok {
		return coap.Packet{}, common.New(common.ErrNotOscorePkt, "packet carries no OSCORE option")
	}
	opt, err := DecodeOption(oscoreOpt.Value)
	if err != nil {
		return coap.Packet{}, err
	}

	mt := coap.Classify(p)
	isRequest := mt == coap.TypeRequest || mt == coap.TypeRegistration || mt == coap.TypeCancellation

	var piv uint64
	var kid []byte
	if isRequest {
		piv = decodePIV(opt.PIV)
		kid = opt.KID
	} else {
		rec, err := sc.Interactions.GetRecord(p.Token)
		if err != nil {
			return coap.Packet{}, err
		}
		piv = decodePIV(rec.RequestPIV)
		kid = rec.RequestKID
	}

	if isRequest && sc.Recipient.Echo == EchoSynchronized {
		if !sc.Recipient.Replay.IsValid(piv) {
			return coap.Packet{}, common.Newf(common.ErrOscoreReplayWindowProtectionError, "piv %d rejected by replay window", piv)
		}
	}
	if mt == coap.TypeNotification {
		if sc.Recipient.NotificationInit && piv <= uint64(sc.Recipient.NotificationNum) {
			return coap.Packet{}, common.New(common.ErrOscoreReplayNotificationProtectionError, "notification piv not strictly increasing")
		}
	}

	// A request's nonce is keyed on the peer's (requester's) Sender ID,
	// i.e. this context's Recipient ID. A response reuses the request's
	// nonce verbatim, which was keyed on this context's own Sender ID
	// (RFC 8613 §5.4).
	nonceID := sc.Recipient.ID
	if !isRequest {
		nonceID = sc.Sender.ID
	}
	nonce, err := DeriveNonce(len(sc.Common.CommonIV), nonceID, piv, sc.Common.CommonIV)
	if err != nil {
		return coap.Packet{}, err
	}
	aad, err := BuildAAD(int(sc.Common.AEADAlg), kid, encodePIV(piv))
	if err != nil {
		return coap.Packet{}, err
	}

	plaintext, err := crypto.OpenCCM(sc.Recipient.Key, nonce, p.Payload, aad)
	if err != nil {
		return coap.Packet{}, err
	}

	if isRequest {
		switch sc.Recipient.Echo {
		case EchoReboot:
			sc.Recipient.Echo = EchoVerify
			return coap.Packet{}, common.New(common.ErrFirstRequestAfterReboot, "first request after reboot requires an echo challenge")
		case EchoVerify:
			echoOpt, hasEcho := findInnerEcho(plaintext)
			if !hasEcho {
				return coap.Packet{}, common.New(common.ErrNoEchoOption, "verify state requires an echo option in the request")
			}
			if !echoMatches(echoOpt, sc.Recipient.EchoChallenge) {
				return coap.Packet{}, common.New(common.ErrEchoValMismatch, "echo option does not match the cached challenge")
			}
			sc.Recipient.Replay.Reinit(piv)
			sc.Recipient.Echo = EchoSynchronized
		case EchoSynchronized:
			sc.Recipient.Replay.Update(piv)
		}
	}

	innerCode, innerOptions, payload, err := splitInnerPlaintext(plaintext)
	if err != nil {
		return coap.Packet{}, err
	}

	if isRequest {
		if err := sc.Interactions.SetRecord(InteractionRecord{
			Token:       p.Token,
			RequestPIV:  opt.PIV,
			RequestKID:  opt.KID,
			URIPath:     JoinURIPath(coap.Packet{Options: innerOptions}, sc.Config.OSCOREMaxURIPathLen),
			RequestType: mt,
		}); err != nil {
			return coap.Packet{}, err
		}
	}
	if mt == coap.TypeNotification {
		sc.Recipient.NotificationNum = uint32(piv)
		sc.Recipient.NotificationInit = true
	}

	out := coap.Packet{
		Type:      p.Type,
		Code:      innerCode,
		MessageID: p.MessageID,
		Token:     p.Token,
		Payload:   payload,
	}
	for _, o := range p.Options {
		if coap.IsClassU(o.Number) && o.Number != coap.OptionOSCORE {
			out.Options = append(out.Options, o)
		}
	}
	out.Options = append(out.Options, innerOptions...)
	return out, nil
}

func findInnerEcho(plaintext []byte) (coap.Option, bool) {
	_, options, _, err := splitInnerPlaintext(plaintext)
	if err != nil {
		return coap.Option{}, false
	}
	for _, o := range options {
		if o.Number == coap.OptionEcho {
			return o, true
		}
	}
	return coap.Option{}, false
}

func echoMatches(o coap.Option, challenge []byte) bool {
	if len(o.Value) != len(challenge) {
		return false
	}
	for i := range o.Value {
		if o.Value[i] != challenge[i] {
			return false
		}
	}
	return true
}
