package oscore

// EchoState is the ECHO (RFC 9175) freshness state machine of spec §4.16.
type EchoState int

const (
	// EchoReboot is the initial state for a context restored from a stored
	// master secret/salt: the server has no freshness guarantee about the
	// peer's replay window until it challenges with ECHO.
	EchoReboot EchoState = iota
	// EchoVerify is entered when a request received in REBOOT state
	// decrypts successfully; OSCORE2CoAP still rejects that request with
	// first_request_after_reboot. In this state a request is accepted only
	// if its inner ECHO option equals RecipientContext.EchoChallenge, which
	// this package does not set itself.
	EchoVerify
	// EchoSynchronized is the steady state: the initial state for a fresh
	// EDHOC-derived context, and the state reached once an ECHO challenge
	// has been verified.
	EchoSynchronized
)
