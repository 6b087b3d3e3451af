package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/kdf"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// xorBytes XORs a and b into a new slice of len(a); b must be at least as
// long as a (spec §4.4, CIPHERTEXT_2's stream-cipher construction).
func xorBytes(a, b []byte) ([]byte, error) {
	if len(b) < len(a) {
		return nil, common.New(common.ErrCBORDecoding, "keystream shorter than plaintext")
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// EncryptPlaintext2 masks plaintext2 with KEYSTREAM_2 to produce
// CIPHERTEXT_2 (spec §4.4). Encryption and decryption are the same XOR
// operation.
func EncryptPlaintext2(s suite.Suite, prk2e, th2, plaintext2 []byte) ([]byte, error) {
	keystream, err := kdf.KeystreamMAC2(s.EDHOCHash, prk2e, th2, len(plaintext2))
	if err != nil {
		return nil, err
	}
	return xorBytes(plaintext2, keystream)
}

// DecryptCiphertext2 is EncryptPlaintext2's inverse.
func DecryptCiphertext2(s suite.Suite, prk2e, th2, ciphertext2 []byte) ([]byte, error) {
	return EncryptPlaintext2(s, prk2e, th2, ciphertext2)
}

// aeadKeyIVLen returns the AEAD key and nonce lengths for alg.
func aeadKeyIVLen(alg suite.AEADAlg) (keyLen, ivLen int) {
	switch alg {
	default: // AEADAESCCM16_64_128
		return 16, 13
	}
}

// EncryptPlaintext3 produces CIPHERTEXT_3 = AEAD(K_3, IV_3, PLAINTEXT_3,
// aad_3) where aad_3 = EncodeEncStructure(empty, TH_3) (spec §4.4).
func EncryptPlaintext3(s suite.Suite, prk3e2m, th3, plaintext3 []byte) ([]byte, error) {
	keyLen, ivLen := aeadKeyIVLen(s.EDHOCAEAD)
	k3, iv3, err := kdf.K3IV3(s.EDHOCHash, prk3e2m, th3, keyLen, ivLen)
	if err != nil {
		return nil, err
	}
	aad, err := cborcodec.EncodeEncStructure([]byte{}, th3)
	if err != nil {
		return nil, err
	}
	return crypto.SealCCM(k3, iv3, plaintext3, aad)
}

// DecryptCiphertext3 is EncryptPlaintext3's inverse.
func DecryptCiphertext3(s suite.Suite, prk3e2m, th3, ciphertext3 []byte) ([]byte, error) {
	keyLen, ivLen := aeadKeyIVLen(s.EDHOCAEAD)
	k3, iv3, err := kdf.K3IV3(s.EDHOCHash, prk3e2m, th3, keyLen, ivLen)
	if err != nil {
		return nil, err
	}
	aad, err := cborcodec.EncodeEncStructure([]byte{}, th3)
	if err != nil {
		return nil, err
	}
	return crypto.OpenCCM(k3, iv3, ciphertext3, aad)
}

// EncryptPlaintext4 produces CIPHERTEXT_4, symmetric to EncryptPlaintext3
// but keyed on PRK_4e3m/TH_4 (spec §4.4, message_4).
func EncryptPlaintext4(s suite.Suite, prk4e3m, th4, plaintext4 []byte) ([]byte, error) {
	keyLen, ivLen := aeadKeyIVLen(s.EDHOCAEAD)
	k4, iv4, err := kdf.K4IV4(s.EDHOCHash, prk4e3m, th4, keyLen, ivLen)
	if err != nil {
		return nil, err
	}
	aad, err := cborcodec.EncodeEncStructure([]byte{}, th4)
	if err != nil {
		return nil, err
	}
	return crypto.SealCCM(k4, iv4, plaintext4, aad)
}

// DecryptCiphertext4 is EncryptPlaintext4's inverse.
func DecryptCiphertext4(s suite.Suite, prk4e3m, th4, ciphertext4 []byte) ([]byte, error) {
	keyLen, ivLen := aeadKeyIVLen(s.EDHOCAEAD)
	k4, iv4, err := kdf.K4IV4(s.EDHOCHash, prk4e3m, th4, keyLen, ivLen)
	if err != nil {
		return nil, err
	}
	aad, err := cborcodec.EncodeEncStructure([]byte{}, th4)
	if err != nil {
		return nil, err
	}
	return crypto.OpenCCM(k4, iv4, ciphertext4, aad)
}
