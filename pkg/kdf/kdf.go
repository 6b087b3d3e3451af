// Package kdf implements the EDHOC key schedule: EDHOC-KDF(prk, label,
// context, length) and the chain of PRKs and exported keys derived from it
// (spec §4.3).
package kdf

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// Labels used within the handshake and by the exporter (spec §4.3).
const (
	LabelKeystream2    = 0
	LabelSalt3e2m      = 1
	LabelMAC2          = 2
	LabelK3            = 3
	LabelIV3           = 4
	LabelSalt4e3m      = 5
	LabelMAC3          = 6
	LabelPRKOut        = 7
	LabelK4            = 8
	LabelIV4           = 9
	LabelPRKExporter   = 10
	LabelPRKOutUpdate  = 11

	// OSCORE exporter labels (RFC 9528 §8.3.2).
	LabelOSCOREMasterSecret = 0
	LabelOSCOREMasterSalt   = 1
)

// Expand computes EDHOC-KDF(prk, label, context, length) =
// HKDF-Expand(prk, info, length) where info = [label, context, length].
func Expand(hashAlg suite.HashAlg, prk []byte, label int64, context []byte, length int) ([]byte, error) {
	info, err := cborcodec.EncodeInfo(label, context, length)
	if err != nil {
		return nil, err
	}
	return crypto.HKDFExpand(prk, info, length)
}

// PRK2e derives PRK_2e = HKDF-Extract(salt=TH_2, ikm=G_XY).
func PRK2e(th2, gXY []byte) []byte {
	return crypto.HKDFExtract(th2, gXY)
}

// PRK3e2mStaticDH derives PRK_3e2m when the Responder authenticates with a
// static DH key: HKDF-Extract(salt=EDHOC-KDF(PRK_2e, SALT_3e2m, TH_2,
// hash_len), ikm=G_RX).
func PRK3e2mStaticDH(hashAlg suite.HashAlg, prk2e, th2, gRX []byte, hashLen int) ([]byte, error) {
	salt, err := Expand(hashAlg, prk2e, LabelSalt3e2m, th2, hashLen)
	if err != nil {
		return nil, err
	}
	return crypto.HKDFExtract(salt, gRX), nil
}

// PRK4e3mStaticDH derives PRK_4e3m when the Initiator authenticates with a
// static DH key, symmetric to PRK3e2mStaticDH.
func PRK4e3mStaticDH(hashAlg suite.HashAlg, prk3e2m, th3, gIX []byte, hashLen int) ([]byte, error) {
	salt, err := Expand(hashAlg, prk3e2m, LabelSalt4e3m, th3, hashLen)
	if err != nil {
		return nil, err
	}
	return crypto.HKDFExtract(salt, gIX), nil
}

// PRKOut derives PRK_out = EDHOC-KDF(PRK_4e3m, PRK_out=7, TH_4, hash_len).
func PRKOut(hashAlg suite.HashAlg, prk4e3m, th4 []byte, hashLen int) ([]byte, error) {
	return Expand(hashAlg, prk4e3m, LabelPRKOut, th4, hashLen)
}

// PRKExporter derives PRK_exporter = EDHOC-KDF(PRK_out, PRK_exporter=10,
// empty, hash_len).
func PRKExporter(hashAlg suite.HashAlg, prkOut []byte, hashLen int) ([]byte, error) {
	return Expand(hashAlg, prkOut, LabelPRKExporter, nil, hashLen)
}

// OSCOREMasterSecret derives OSCORE_Master_Secret = EDHOC-KDF(PRK_exporter,
// label=0, empty, 16).
func OSCOREMasterSecret(hashAlg suite.HashAlg, prkExporter []byte) ([]byte, error) {
	return Expand(hashAlg, prkExporter, LabelOSCOREMasterSecret, nil, 16)
}

// OSCOREMasterSalt derives OSCORE_Master_Salt = EDHOC-KDF(PRK_exporter,
// label=1, empty, 8).
func OSCOREMasterSalt(hashAlg suite.HashAlg, prkExporter []byte) ([]byte, error) {
	return Expand(hashAlg, prkExporter, LabelOSCOREMasterSalt, nil, 8)
}

// Exporter derives application-specific exported keying material under an
// arbitrary label and length, using PRK_exporter (spec §4.3, RFC 9528 §8.3).
func Exporter(hashAlg suite.HashAlg, prkExporter []byte, label int64, context []byte, length int) ([]byte, error) {
	return Expand(hashAlg, prkExporter, label, context, length)
}

// KeystreamMAC2 derives KEYSTREAM_2, the stream-cipher mask XORed with
// PLAINTEXT_2 to produce CIPHERTEXT_2 (spec §4.4).
func KeystreamMAC2(hashAlg suite.HashAlg, prk2e, th2 []byte, length int) ([]byte, error) {
	return Expand(hashAlg, prk2e, LabelKeystream2, th2, length)
}

// K3IV3 derives the AEAD key and IV for CIPHERTEXT_3 from PRK_3e2m and TH_3.
func K3IV3(hashAlg suite.HashAlg, prk3e2m, th3 []byte, keyLen, ivLen int) (key, iv []byte, err error) {
	key, err = Expand(hashAlg, prk3e2m, LabelK3, th3, keyLen)
	if err != nil {
		return nil, nil, err
	}
	iv, err = Expand(hashAlg, prk3e2m, LabelIV3, th3, ivLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}

// K4IV4 derives the AEAD key and IV for CIPHERTEXT_4 from PRK_4e3m and TH_4.
func K4IV4(hashAlg suite.HashAlg, prk4e3m, th4 []byte, keyLen, ivLen int) (key, iv []byte, err error) {
	key, err = Expand(hashAlg, prk4e3m, LabelK4, th4, keyLen)
	if err != nil {
		return nil, nil, err
	}
	iv, err = Expand(hashAlg, prk4e3m, LabelIV4, th4, ivLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}

// MAC derives MAC_2/MAC_3 (spec §4.5):
// MAC_i = EDHOC-KDF(prk, label, context, length).
func MAC(hashAlg suite.HashAlg, prk []byte, label int64, context []byte, length int) ([]byte, error) {
	return Expand(hashAlg, prk, label, context, length)
}
