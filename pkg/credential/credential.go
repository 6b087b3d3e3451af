// Package credential resolves ID_CRED_x to a CRED_x credential and the
// public key(s) it carries, and verifies x5chain/x5bag certificate chains
// against a trust-anchor set (spec §6.2).
package credential

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"

	"github.com/fxamacker/cbor/v2"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// Entry is one party's credential material, as supplied by the caller
// (spec §3 Data Model, "Other-party credential").
type Entry struct {
	IDCred         cborcodec.IDCred
	CredBytes      []byte // raw CRED_x bytes: CCS, X.509 DER chain, or C509 CBOR
	SignaturePub   []byte // public signature key, raw (Ed25519 32B, P-256 x||y 64B or x-only 32B)
	StaticDHPub    []byte // public static-DH key, raw x-coordinate
}

// Store is the set of credentials a party is willing to accept, plus the
// certificate authorities trusted to vouch for x5chain/x5bag credentials.
type Store struct {
	entries      []Entry
	trustAnchors []*x509.Certificate
}

// NewStore builds a Store from the caller-provided credential array and an
// optional list of trust anchors (PEM/DER-decoded by the caller).
func NewStore(entries []Entry, trustAnchors []*x509.Certificate) *Store {
	return &Store{entries: entries, trustAnchors: trustAnchors}
}

// Resolve finds the Entry whose ID_CRED_x matches the one received on the
// wire. kid is compared by value; for every other label the received
// ID_CRED_x value bytes are compared with the entry's ID_CRED_x value bytes
// (a value that is not a byte string never matches).
func (s *Store) Resolve(id cborcodec.IDCred) (Entry, error) {
	for _, e := range s.entries {
		if e.IDCred.Label != id.Label {
			continue
		}
		if id.Label == cborcodec.LabelKid {
			want, err := id.KidBytes()
			if err != nil {
				return Entry{}, err
			}
			have, err := e.IDCred.KidBytes()
			if err != nil {
				return Entry{}, err
			}
			if bytes.Equal(want, have) {
				return e, nil
			}
			continue
		}
		if valueBytes, ok := id.Value.([]byte); ok {
			if entryBytes, ok := e.IDCred.Value.([]byte); ok && bytes.Equal(valueBytes, entryBytes) {
				return e, nil
			}
		}
	}
	return Entry{}, common.New(common.ErrCredentialNotFound, "no matching credential for id_cred_x")
}

// VerifyX5Chain parses an x5chain CRED_x (a DER certificate, or a CBOR array
// of DER certificates in leaf-to-root order) and checks that the top-most
// certificate's issuer CN matches a trust anchor's subject CN and that each
// signature along the chain verifies, then returns the leaf certificate.
func VerifyX5Chain(credBytes []byte, trustAnchors []*x509.Certificate) (*x509.Certificate, error) {
	chain, err := parseX5Chain(credBytes)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, common.New(common.ErrCertificateAuthenticationFailed, "x5chain is empty")
	}

	top := chain[len(chain)-1]
	anchor := findAnchorByCN(trustAnchors, top.Issuer.CommonName)
	if anchor == nil {
		return nil, common.Newf(common.ErrNoSuchCA, "no trust anchor for issuer CN %q", top.Issuer.CommonName)
	}
	if err := top.CheckSignatureFrom(anchor); err != nil {
		return nil, common.Wrap(common.ErrCertificateAuthenticationFailed, "x5chain top certificate not signed by trust anchor", err)
	}

	for i := len(chain) - 1; i > 0; i-- {
		if err := chain[i-1].CheckSignatureFrom(chain[i]); err != nil {
			return nil, common.Wrap(common.ErrCertificateAuthenticationFailed, "x5chain link verification failed", err)
		}
	}

	return chain[0], nil
}

func parseX5Chain(credBytes []byte) ([]*x509.Certificate, error) {
	if cert, err := x509.ParseCertificate(credBytes); err == nil {
		return []*x509.Certificate{cert}, nil
	}

	var derList [][]byte
	if err := cbor.Unmarshal(credBytes, &derList); err != nil {
		return nil, common.Wrap(common.ErrCertificateAuthenticationFailed, "x5chain is neither DER nor CBOR array of DER", err)
	}
	chain := make([]*x509.Certificate, 0, len(derList))
	for _, der := range derList {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, common.Wrap(common.ErrCertificateAuthenticationFailed, "parse x5chain element", err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}

func findAnchorByCN(anchors []*x509.Certificate, cn string) *x509.Certificate {
	for _, a := range anchors {
		if a.Subject.CommonName == cn {
			return a
		}
	}
	return nil
}

// LeafSignaturePublicKey extracts the raw signature public key bytes from a
// leaf certificate, for the two MTI suites' signature algorithms.
func LeafSignaturePublicKey(cert *x509.Certificate) ([]byte, error) {
	switch pub := cert.PublicKey.(type) {
	case ed25519.PublicKey:
		return []byte(pub), nil
	case *ecdsa.PublicKey:
		x := pub.X.Bytes()
		y := pub.Y.Bytes()
		out := make([]byte, 0, 64)
		out = append(out, leftPad(x, 32)...)
		out = append(out, leftPad(y, 32)...)
		return out, nil
	default:
		return nil, common.New(common.ErrUnsupportedSignatureAlgorithm, "certificate public key is not Ed25519 or ECDSA")
	}
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
