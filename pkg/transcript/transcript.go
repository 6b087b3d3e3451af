// Package transcript computes the running transcript hashes (TH_2, TH_3,
// TH_4) that bind every EDHOC message to everything exchanged before it
// (spec §4.2).
package transcript

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// TH2 computes TH_2 = H( bstr(H(message_1)), bstr(G_Y), encode(C_R) ), the
// hash of the CBOR-sequence concatenation of those three items.
func TH2(hashAlg suite.HashAlg, message1, gY []byte, cr cborcodec.ConnID) ([]byte, error) {
	hMessage1, err := crypto.Hash(hashAlg, message1)
	if err != nil {
		return nil, err
	}

	crBytes, err := cborcodec.EncodeConnID(cr)
	if err != nil {
		return nil, err
	}

	seq := new(cborcodec.SequenceBuilder).
		Add(hMessage1).
		Add(gY)
	seq.AddRaw(crBytes)
	input, err := seq.Bytes()
	if err != nil {
		return nil, err
	}

	return crypto.Hash(hashAlg, input)
}

// TH3 computes TH_3 = H( bstr(TH_2) || PLAINTEXT_2 || CRED_R ). TH_2 is
// wrapped as a CBOR bstr; PLAINTEXT_2 and CRED_R are appended raw.
func TH3(hashAlg suite.HashAlg, th2, plaintext2, credR []byte) ([]byte, error) {
	return thNext(hashAlg, th2, plaintext2, credR)
}

// TH4 computes TH_4 = H( bstr(TH_3) || PLAINTEXT_3 || CRED_I ), symmetric
// to TH3.
func TH4(hashAlg suite.HashAlg, th3, plaintext3, credI []byte) ([]byte, error) {
	return thNext(hashAlg, th3, plaintext3, credI)
}

func thNext(hashAlg suite.HashAlg, prevTH, plaintext, cred []byte) ([]byte, error) {
	thBstr, err := cborcodec.EncodeBstr(prevTH)
	if err != nil {
		return nil, common.Wrap(common.ErrCBOREncoding, "encode transcript hash bstr", err)
	}
	input := make([]byte, 0, len(thBstr)+len(plaintext)+len(cred))
	input = append(input, thBstr...)
	input = append(input, plaintext...)
	input = append(input, cred...)
	return crypto.Hash(hashAlg, input)
}
