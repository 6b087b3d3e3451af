package oscore

import "github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"

// BuildAAD computes the AEAD associated data for an OSCORE-protected
// message (spec §4.10): the COSE Encrypt0 enc_structure wrapping
// external_aad = [oscore_version=1, [alg_aead], request_kid, request_piv,
// options=h''] with an empty protected header and context "Encrypt0".
func BuildAAD(algAEAD int, requestKID, requestPIV []byte) ([]byte, error) {
	externalAAD, err := cborcodec.EncodeArray(int64(1), []any{int64(algAEAD)}, requestKID, requestPIV, []byte{})
	if err != nil {
		return nil, err
	}
	return cborcodec.EncodeEncStructure([]byte{}, externalAAD)
}
