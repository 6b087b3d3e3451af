package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// isErrorMessage distinguishes an error_message from the message it was
// sent in place of. Every non-error message this driver ever waits for
// starts with a CBOR byte-string head (major type 2, 0x40 or above);
// error_message always starts with ERR_CODE, a CBOR small uint (1 or 2,
// major type 0), which no valid byte-string head collides with.
func isErrorMessage(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	return raw[0] == 0x01 || raw[0] == 0x02
}

func suiteLabelsToInt64(labels []suite.Label) []int64 {
	out := make([]int64, len(labels))
	for i, l := range labels {
		out[i] = int64(l)
	}
	return out
}

// gEphemeralLen is the wire length of an ECDH public key in EDHOC's x-only
// representation: 32 bytes for both mandatory-to-implement curves
// (spec §4.1, RFC 9528 Appendix A).
const gEphemeralLen = 32

func eadOrNil(ead []byte) []byte {
	if len(ead) == 0 {
		return nil
	}
	return ead
}

// negotiateSuite picks the first suite in proposed that accepted also
// accepts, preserving the Initiator's preference order (spec §4.1, suite
// negotiation).
func negotiateSuite(proposed []int64, accepted []suite.Label) (suite.Suite, bool) {
	for _, p := range proposed {
		for _, a := range accepted {
			if int64(a) == p {
				if s, err := suite.Get(a); err == nil {
					return s, true
				}
			}
		}
	}
	return suite.Suite{}, false
}
