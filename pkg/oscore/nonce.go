package oscore

import "github.com/mjoldfield/edhoc-oscore-go/pkg/common"

// DeriveNonce computes the AEAD nonce (spec §4.12): the 1-byte KID length,
// senderID zero-padded on the left to (ivLen-6) bytes, zero padding, and
// the PIV right-aligned in the low 5 bytes, all XORed with Common_IV.
func DeriveNonce(ivLen int, senderID []byte, piv uint64, commonIV []byte) ([]byte, error) {
	if len(commonIV) != ivLen {
		return nil, common.Newf(common.ErrWrongParameter, "common_iv length %d does not match aead_iv_len %d", len(commonIV), ivLen)
	}
	if len(senderID) > ivLen-6 {
		return nil, common.New(common.ErrWrongParameter, "sender id too long for nonce construction")
	}

	nonce := make([]byte, ivLen)
	nonce[0] = byte(len(senderID))
	copy(nonce[ivLen-5-len(senderID):ivLen-5], senderID)

	for i := 0; i < 5; i++ {
		nonce[ivLen-1-i] = byte(piv >> (8 * uint(i)))
	}

	for i := range nonce {
		nonce[i] ^= commonIV[i]
	}
	return nonce, nil
}
