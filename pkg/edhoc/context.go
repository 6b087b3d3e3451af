// Package edhoc implements the EDHOC (RFC 9528) key exchange: message
// construction/parsing, the Signature_or_MAC authentication step, and the
// Initiator/Responder drivers that carry a handshake from message_1 through
// the optional message_4 to an exported OSCORE master secret/salt.
package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/credential"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// EADHandler is invoked after each inbound EAD-bearing message, letting the
// caller inspect or act on external authorization data without the core
// needing to understand its contents (spec §4.6, "Supplemented features").
type EADHandler func(messageNumber int, ead []byte) error

// Identity is one party's own authentication material: its static DH and/or
// signature keypair, its credential, and how it identifies that credential
// to the peer (spec §3, "EDHOC Initiator/Responder context").
type Identity struct {
	StaticDHPrivate   []byte // nil if this party authenticates by signature only
	StaticDHPublic    []byte
	SignPrivate       []byte // nil if this party authenticates by static DH only
	SignPublic        []byte
	CredBytes         []byte
	IDCred            cborcodec.IDCred
	AuthenticatesWith AuthMethod
}

// AuthMethod selects whether a party authenticates via static DH (folded
// into Signature_or_MAC as a MAC) or via an explicit signature.
type AuthMethod int

const (
	AuthStaticDH AuthMethod = iota
	AuthSignature
)

// InitiatorContext is the caller-constructed, read-only-during-run state an
// Initiator carries through one handshake (spec §3).
type InitiatorContext struct {
	SuitesI            []suite.Label
	Identity           Identity
	ConnID             cborcodec.ConnID
	Store              *credential.Store
	ResponderAuthWith  AuthMethod // how the Responder is expected to authenticate, to pick METHOD
	EAD1               []byte
	EAD3               []byte
	EADCb              EADHandler
	Config             Config
}

// ResponderContext mirrors InitiatorContext for the Responder side.
type ResponderContext struct {
	SuitesR           []suite.Label // suites this Responder accepts, in order of preference
	Identity          Identity
	ConnID            cborcodec.ConnID
	Store             *credential.Store
	InitiatorAuthWith AuthMethod // how the Initiator is expected to authenticate, to check METHOD
	EAD2              []byte
	EADCb             EADHandler
	Config            Config
}

// method encodes (initiator auth, responder auth) as EDHOC's METHOD value
// (spec §4.1, RFC 9528 Table 4): 0 sig/sig, 1 sig/static-dh,
// 2 static-dh/sig, 3 static-dh/static-dh.
func method(initiator, responder AuthMethod) int64 {
	var m int64
	if initiator == AuthStaticDH {
		m += 2
	}
	if responder == AuthStaticDH {
		m += 1
	}
	return m
}

// splitMethod is method's inverse.
func splitMethod(m int64) (initiator, responder AuthMethod) {
	initiator = AuthSignature
	responder = AuthSignature
	if m&2 != 0 {
		initiator = AuthStaticDH
	}
	if m&1 != 0 {
		responder = AuthStaticDH
	}
	return initiator, responder
}

// runtimeContext is the per-handshake working state (spec §3,
// "Runtime context").
type runtimeContext struct {
	suite       suite.Suite
	message1Raw []byte
	th2, th3, th4 []byte
	prk2e, prk3e2m, prk4e3m []byte
	staticDHI bool // true if the Initiator authenticates via static DH
	staticDHR bool // true if the Responder authenticates via static DH
}
