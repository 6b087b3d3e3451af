package cborcodec

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// Message1 is the CBOR sequence
// (method:int, SUITES_I, G_X:bstr, C_I, ? EAD_1).
type Message1 struct {
	Method  int64
	SuitesI []int64 // single-element encodes as a bare int, not an array
	GX      []byte
	CI      ConnID
	EAD1    []byte // already-encoded, optional EAD items concatenated; nil if absent
}

// Encode serialises m as a CBOR sequence.
func (m Message1) Encode() ([]byte, error) {
	b := new(SequenceBuilder).Add(m.Method)
	if len(m.SuitesI) == 1 {
		b.Add(m.SuitesI[0])
	} else {
		arr := make([]any, len(m.SuitesI))
		for i, s := range m.SuitesI {
			arr[i] = s
		}
		b.Add(arr)
	}
	b.Add([]byte(m.GX))
	ciBytes, err := EncodeConnID(m.CI)
	if err != nil {
		return nil, err
	}
	b.AddRaw(ciBytes)
	if len(m.EAD1) != 0 {
		b.AddRaw(m.EAD1)
	}
	return b.Bytes()
}

// DecodeMessage1 parses a message_1 sequence. Trailing bytes, if any, are
// treated as an opaque, already-CBOR-encoded EAD_1.
func DecodeMessage1(src []byte) (Message1, error) {
	r := NewSequenceReader(src)

	var method int64
	if err := r.Next(&method); err != nil {
		return Message1{}, common.Wrap(common.ErrCBORDecoding, "decode message_1 method", err)
	}

	var suitesRaw any
	if err := r.Next(&suitesRaw); err != nil {
		return Message1{}, common.Wrap(common.ErrCBORDecoding, "decode message_1 suites_i", err)
	}
	suites, err := decodeSuitesI(suitesRaw)
	if err != nil {
		return Message1{}, err
	}

	var gx []byte
	if err := r.Next(&gx); err != nil {
		return Message1{}, common.Wrap(common.ErrCBORDecoding, "decode message_1 g_x", err)
	}

	ci, rest, err := DecodeConnID(r.Remaining())
	if err != nil {
		return Message1{}, common.Wrap(common.ErrCBORDecoding, "decode message_1 c_i", err)
	}

	return Message1{Method: method, SuitesI: suites, GX: gx, CI: ci, EAD1: rest}, nil
}

func decodeSuitesI(raw any) ([]int64, error) {
	switch v := raw.(type) {
	case uint64:
		return []int64{int64(v)}, nil
	case int64:
		return []int64{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, common.New(common.ErrSuitesIListEmpty, "suites_i is empty")
		}
		out := make([]int64, len(v))
		for i, e := range v {
			switch n := e.(type) {
			case uint64:
				out[i] = int64(n)
			case int64:
				out[i] = n
			default:
				return nil, common.New(common.ErrCBORDecoding, "suites_i element is not an int")
			}
		}
		return out, nil
	default:
		return nil, common.New(common.ErrCBORDecoding, "suites_i must be an int or array of ints")
	}
}

// PlaintextWithConnID is PLAINTEXT_2 = (C_R, ID_CRED_R_compact,
// Signature_or_MAC_2, ? EAD_2).
type PlaintextWithConnID struct {
	ConnID          ConnID
	IDCred          IDCred
	SignatureOrMAC  []byte
	EAD             []byte
}

// Encode serialises PLAINTEXT_2.
func (p PlaintextWithConnID) Encode() ([]byte, error) {
	b := new(SequenceBuilder)
	ciBytes, err := EncodeConnID(p.ConnID)
	if err != nil {
		return nil, err
	}
	b.AddRaw(ciBytes)
	idBytes, err := EncodeIDCredCompact(p.IDCred)
	if err != nil {
		return nil, err
	}
	b.AddRaw(idBytes)
	b.Add(p.SignatureOrMAC)
	if len(p.EAD) != 0 {
		b.AddRaw(p.EAD)
	}
	return b.Bytes()
}

// DecodePlaintextWithConnID parses PLAINTEXT_2.
func DecodePlaintextWithConnID(src []byte) (PlaintextWithConnID, error) {
	ci, rest, err := DecodeConnID(src)
	if err != nil {
		return PlaintextWithConnID{}, common.Wrap(common.ErrCBORDecoding, "decode plaintext c_r", err)
	}
	idCred, rest, err := DecodeIDCredCompact(rest)
	if err != nil {
		return PlaintextWithConnID{}, common.Wrap(common.ErrCBORDecoding, "decode plaintext id_cred_r", err)
	}
	var sigOrMAC []byte
	rest, err = DecodeItemPrefix(rest, &sigOrMAC)
	if err != nil {
		return PlaintextWithConnID{}, common.Wrap(common.ErrCBORDecoding, "decode plaintext signature_or_mac", err)
	}
	return PlaintextWithConnID{ConnID: ci, IDCred: idCred, SignatureOrMAC: sigOrMAC, EAD: rest}, nil
}

// Plaintext3 is PLAINTEXT_3 = (ID_CRED_I_compact, Signature_or_MAC_3, ? EAD_3).
type Plaintext3 struct {
	IDCred         IDCred
	SignatureOrMAC []byte
	EAD            []byte
}

// Encode serialises PLAINTEXT_3.
func (p Plaintext3) Encode() ([]byte, error) {
	b := new(SequenceBuilder)
	idBytes, err := EncodeIDCredCompact(p.IDCred)
	if err != nil {
		return nil, err
	}
	b.AddRaw(idBytes)
	b.Add(p.SignatureOrMAC)
	if len(p.EAD) != 0 {
		b.AddRaw(p.EAD)
	}
	return b.Bytes()
}

// DecodePlaintext3 parses PLAINTEXT_3.
func DecodePlaintext3(src []byte) (Plaintext3, error) {
	idCred, rest, err := DecodeIDCredCompact(src)
	if err != nil {
		return Plaintext3{}, common.Wrap(common.ErrCBORDecoding, "decode plaintext3 id_cred_i", err)
	}
	var sigOrMAC []byte
	rest, err = DecodeItemPrefix(rest, &sigOrMAC)
	if err != nil {
		return Plaintext3{}, common.Wrap(common.ErrCBORDecoding, "decode plaintext3 signature_or_mac", err)
	}
	return Plaintext3{IDCred: idCred, SignatureOrMAC: sigOrMAC, EAD: rest}, nil
}

// Message2 is the CBOR sequence (G_Y_CIPHERTEXT_2:bstr, C_R): a single bstr
// holding G_Y concatenated with CIPHERTEXT_2 (its split point is fixed by
// the suite's ECDH public key length, not separately encoded), followed by
// the responder's connection identifier.
type Message2 struct {
	GY           []byte
	Ciphertext2  []byte
	CR           ConnID
}

// Encode serialises m as a CBOR sequence.
func (m Message2) Encode() ([]byte, error) {
	combined := append(append([]byte{}, m.GY...), m.Ciphertext2...)
	b := new(SequenceBuilder).Add(combined)
	crBytes, err := EncodeConnID(m.CR)
	if err != nil {
		return nil, err
	}
	b.AddRaw(crBytes)
	return b.Bytes()
}

// DecodeMessage2 parses a message_2 sequence, splitting the combined bstr at
// gYLen (the selected suite's ECDH public key length).
func DecodeMessage2(src []byte, gYLen int) (Message2, error) {
	r := NewSequenceReader(src)

	var combined []byte
	if err := r.Next(&combined); err != nil {
		return Message2{}, common.Wrap(common.ErrCBORDecoding, "decode message_2 g_y||ciphertext_2", err)
	}
	if len(combined) < gYLen {
		return Message2{}, common.Newf(common.ErrCBORDecoding, "message_2 first field shorter than g_y length %d", gYLen)
	}

	cr, rest, err := DecodeConnID(r.Remaining())
	if err != nil {
		return Message2{}, common.Wrap(common.ErrCBORDecoding, "decode message_2 c_r", err)
	}
	if len(rest) != 0 {
		return Message2{}, common.New(common.ErrCBORDecoding, "trailing bytes after message_2")
	}

	return Message2{GY: combined[:gYLen], Ciphertext2: combined[gYLen:], CR: cr}, nil
}

// EncodeInfo serialises the EDHOC-KDF `info` array:
// [label:uint, context:bstr, length:uint] (spec §4.3).
func EncodeInfo(label int64, context []byte, length int) ([]byte, error) {
	return EncodeArray(label, context, int64(length))
}

// EncodeSigStructure serialises the Sig_structure array used by
// Signature_or_MAC when the signer authenticates with a signature key
// (spec §4.5): [ "Signature1", ID_CRED, thCredEAD ], where idCredBytes is
// the already-CBOR-encoded ID_CRED item (spliced in as-is, not re-wrapped)
// and thCredEAD is the pre-concatenated bstr(TH) || CRED || EAD bytes
// (wrapped as a single bstr).
func EncodeSigStructure(idCredBytes []byte, thCredEAD []byte) ([]byte, error) {
	return EncodeArray("Signature1", cbor.RawMessage(idCredBytes), thCredEAD)
}

// EncodeEncStructure serialises the COSE Encrypt0 enc_structure used both by
// CIPHERTEXT_3/4 (spec §4.4) and by the OSCORE AEAD (spec §4.10):
// [ "Encrypt0", protected:bstr, external_aad:bstr ].
func EncodeEncStructure(protected []byte, externalAAD []byte) ([]byte, error) {
	return EncodeArray("Encrypt0", protected, externalAAD)
}

// EncodeMessage3 wraps CIPHERTEXT_3 as a bstr (spec §4.4): message_3 is a
// single CBOR item, not a sequence.
func EncodeMessage3(ciphertext3 []byte) ([]byte, error) {
	return EncodeItem(ciphertext3)
}

// DecodeMessage3 unwraps message_3's single bstr item.
func DecodeMessage3(src []byte) ([]byte, error) {
	var ciphertext3 []byte
	if err := DecodeItem(src, &ciphertext3); err != nil {
		return nil, common.Wrap(common.ErrCBORDecoding, "decode message_3", err)
	}
	return ciphertext3, nil
}

// EncodeMessage4 wraps CIPHERTEXT_4 as a bstr, the same shape as message_3.
func EncodeMessage4(ciphertext4 []byte) ([]byte, error) {
	return EncodeItem(ciphertext4)
}

// DecodeMessage4 unwraps message_4's single bstr item.
func DecodeMessage4(src []byte) ([]byte, error) {
	var ciphertext4 []byte
	if err := DecodeItem(src, &ciphertext4); err != nil {
		return nil, common.Wrap(common.ErrCBORDecoding, "decode message_4", err)
	}
	return ciphertext4, nil
}
