// Package common holds the error type shared by every EDHOC/OSCORE package.
package common

import "fmt"

// Code identifies the kind of failure a core operation produced. The set is
// closed and matches the error kinds grouped by the protocol specification.
type Code int

const (
	// Input well-formedness
	ErrCBORDecoding Code = iota
	ErrCBOREncoding
	ErrWrongParameter
	ErrBufferTooSmall
	ErrNotValidInputPacket
	ErrOscoreInpktInvalidTKL
	ErrOscoreInpktInvalidOptionDelta
	ErrOscoreInpktInvalidOptionLen
	ErrOscoreInpktInvalidPIV
	ErrTooManyOptions
	ErrSuitesIListEmpty
	ErrSuitesIListTooLong

	// Algorithm support
	ErrUnsupportedCipherSuite
	ErrUnsupportedECDHCurve
	ErrUnsupportedSignatureAlgorithm
	ErrCryptoOperationNotImplemented
	ErrOscoreInvalidAlgorithmAEAD
	ErrOscoreInvalidAlgorithmHKDF
	ErrOscoreUnknownHKDF

	// Authentication
	ErrMACAuthenticationFailed
	ErrSignatureAuthenticationFailed
	ErrCertificateAuthenticationFailed
	ErrCredentialNotFound
	ErrNoSuchCA

	// Protocol state
	ErrErrorMessageReceived
	ErrErrorMessageSent
	ErrFirstRequestAfterReboot
	ErrEchoValidationFailed
	ErrNoEchoOption
	ErrEchoValMismatch
	ErrNotOscorePkt

	// Replay / freshness
	ErrOscoreReplayWindowProtectionError
	ErrOscoreReplayNotificationProtectionError
	ErrOscoreSSNOverflow

	// Interactions
	ErrOscoreMaxInteractions
	ErrOscoreInteractionDuplicatedToken
	ErrOscoreInteractionNotFound

	// I/O or external
	ErrUnexpectedResultFromExtLib
	ErrSignFailed
	ErrShaFailed
	ErrHkdfFailed
	ErrXorError
)

var codeNames = map[Code]string{
	ErrCBORDecoding:                            "cbor_decoding_error",
	ErrCBOREncoding:                            "cbor_encoding_error",
	ErrWrongParameter:                          "wrong_parameter",
	ErrBufferTooSmall:                          "buffer_to_small",
	ErrNotValidInputPacket:                     "not_valid_input_packet",
	ErrOscoreInpktInvalidTKL:                   "oscore_inpkt_invalid_tkl",
	ErrOscoreInpktInvalidOptionDelta:           "oscore_inpkt_invalid_option_delta",
	ErrOscoreInpktInvalidOptionLen:             "oscore_inpkt_invalid_optionlen",
	ErrOscoreInpktInvalidPIV:                   "oscore_inpkt_invalid_piv",
	ErrTooManyOptions:                          "too_many_options",
	ErrSuitesIListEmpty:                        "suites_i_list_empty",
	ErrSuitesIListTooLong:                      "suites_i_list_to_long",
	ErrUnsupportedCipherSuite:                  "unsupported_cipher_suite",
	ErrUnsupportedECDHCurve:                    "unsupported_ecdh_curve",
	ErrUnsupportedSignatureAlgorithm:           "unsupported_signature_algorithm",
	ErrCryptoOperationNotImplemented:           "crypto_operation_not_implemented",
	ErrOscoreInvalidAlgorithmAEAD:              "oscore_invalid_algorithm_aead",
	ErrOscoreInvalidAlgorithmHKDF:              "oscore_invalid_algorithm_hkdf",
	ErrOscoreUnknownHKDF:                       "oscore_unknown_hkdf",
	ErrMACAuthenticationFailed:                 "mac_authentication_failed",
	ErrSignatureAuthenticationFailed:           "signature_authentication_failed",
	ErrCertificateAuthenticationFailed:         "certificate_authentication_failed",
	ErrCredentialNotFound:                      "credential_not_found",
	ErrNoSuchCA:                                "no_such_ca",
	ErrErrorMessageReceived:                    "error_message_received",
	ErrErrorMessageSent:                        "error_message_sent",
	ErrFirstRequestAfterReboot:                 "first_request_after_reboot",
	ErrEchoValidationFailed:                    "echo_validation_failed",
	ErrNoEchoOption:                            "no_echo_option",
	ErrEchoValMismatch:                         "echo_val_mismatch",
	ErrNotOscorePkt:                            "not_oscore_pkt",
	ErrOscoreReplayWindowProtectionError:       "oscore_replay_window_protection_error",
	ErrOscoreReplayNotificationProtectionError: "oscore_replay_notification_protection_error",
	ErrOscoreSSNOverflow:                       "oscore_ssn_overflow",
	ErrOscoreMaxInteractions:                   "oscore_max_interactions",
	ErrOscoreInteractionDuplicatedToken:        "oscore_interaction_duplicated_token",
	ErrOscoreInteractionNotFound:               "oscore_interaction_not_found",
	ErrUnexpectedResultFromExtLib:              "unexpected_result_from_ext_lib",
	ErrSignFailed:                              "sign_failed",
	ErrShaFailed:                               "sha_failed",
	ErrHkdfFailed:                              "hkdf_failed",
	ErrXorError:                                "xor_error",
}

// String returns the spec's name for the code, e.g. "oscore_ssn_overflow".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown_error"
}

// Error is the error type every exported operation in this module returns.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps an existing error as its cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Code, e.cause)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the wrapped cause, if any, so errors.Is/As work.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
