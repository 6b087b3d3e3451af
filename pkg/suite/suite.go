// Package suite is the cipher-suite registry: the mapping from an EDHOC
// suite label to the concrete algorithm identifiers and output sizes that
// label implies (spec §4.1).
package suite

import "github.com/mjoldfield/edhoc-oscore-go/pkg/common"

// AEADAlg identifies an AEAD algorithm.
type AEADAlg int

// HashAlg identifies a hash algorithm.
type HashAlg int

// ECDHAlg identifies an ECDH curve/algorithm.
type ECDHAlg int

// SignAlg identifies a signature algorithm.
type SignAlg int

const (
	AEADAESCCM16_64_128 AEADAlg = iota
)

const (
	HashSHA256 HashAlg = iota
)

const (
	ECDHX25519 ECDHAlg = iota
	ECDHP256
)

const (
	SignEdDSA SignAlg = iota
	SignES256
)

// Label is an EDHOC cipher-suite label as carried in SUITES_I.
type Label int

const (
	Suite0 Label = 0
	Suite2 Label = 2
)

// Suite is internally consistent: every field is populated from one row of
// RFC 9528's cipher-suite table (spec §4.1, Data Model invariants).
type Suite struct {
	Label Label

	EDHOCAEAD AEADAlg
	EDHOCHash HashAlg
	ECDH      ECDHAlg
	Sign      SignAlg
	AppAEAD   AEADAlg
	AppHash   HashAlg

	// StaticDHMACLen is the MAC length (bytes) used by Signature_or_MAC
	// when the signer authenticates via static DH instead of a signature.
	StaticDHMACLen int
}

var registry = map[Label]Suite{
	Suite0: {
		Label:          Suite0,
		EDHOCAEAD:      AEADAESCCM16_64_128,
		EDHOCHash:      HashSHA256,
		ECDH:           ECDHX25519,
		Sign:           SignEdDSA,
		AppAEAD:        AEADAESCCM16_64_128,
		AppHash:        HashSHA256,
		StaticDHMACLen: 8,
	},
	Suite2: {
		Label:          Suite2,
		EDHOCAEAD:      AEADAESCCM16_64_128,
		EDHOCHash:      HashSHA256,
		ECDH:           ECDHP256,
		Sign:           SignES256,
		AppAEAD:        AEADAESCCM16_64_128,
		AppHash:        HashSHA256,
		StaticDHMACLen: 8,
	},
}

// Get resolves a suite label to its Suite row. Unsupported labels fail with
// ErrUnsupportedCipherSuite.
func Get(label Label) (Suite, error) {
	s, ok := registry[label]
	if !ok {
		return Suite{}, common.Newf(common.ErrUnsupportedCipherSuite, "cipher suite %d not supported", label)
	}
	return s, nil
}

// HashLen returns the output length in bytes of the suite's hash algorithm.
func (s Suite) HashLen() int {
	switch s.EDHOCHash {
	case HashSHA256:
		return 32
	default:
		return 0
	}
}

// AEADKeyLen returns the AEAD key length in bytes (AES-CCM-16-64-128: 16).
func (s Suite) AEADKeyLen() int {
	switch s.EDHOCAEAD {
	case AEADAESCCM16_64_128:
		return 16
	default:
		return 0
	}
}

// AEADIVLen returns the AEAD nonce/IV length in bytes (AES-CCM-16-64-128: 13).
func (s Suite) AEADIVLen() int {
	switch s.EDHOCAEAD {
	case AEADAESCCM16_64_128:
		return 13
	default:
		return 0
	}
}

// AEADTagLen returns the AEAD authentication tag length in bytes
// (AES-CCM-16-64-128: 8).
func (s Suite) AEADTagLen() int {
	switch s.EDHOCAEAD {
	case AEADAESCCM16_64_128:
		return 8
	default:
		return 0
	}
}

// ECDHPublicKeyLen returns the length in bytes of an ephemeral/static ECDH
// public key for the suite's curve: 32 for X25519, 32 for the P-256 x
// coordinate (EDHOC encodes only the x coordinate per RFC 9528 Appendix A).
func (s Suite) ECDHPublicKeyLen() int {
	switch s.ECDH {
	case ECDHX25519:
		return 32
	case ECDHP256:
		return 32
	default:
		return 0
	}
}

// SignatureLen returns the length in bytes of a signature for the suite's
// signature algorithm: 64 for both Ed25519 and ECDSA P-256 (raw r||s).
func (s Suite) SignatureLen() int {
	switch s.Sign {
	case SignEdDSA, SignES256:
		return 64
	default:
		return 0
	}
}
