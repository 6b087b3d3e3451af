package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// ErrorMessage is the EDHOC error_message: the CBOR sequence
// (ERR_CODE:int, ERR_INFO) sent in place of the next expected message when
// a party cannot continue the handshake (spec §6.5/§7).
//
// ERR_CODE 1 ("generic error") carries a diagnostic tstr in ERR_INFO.
// ERR_CODE 2 ("unsupported suites") carries the sender's supported suites
// as an array of ints in ERR_INFO, letting the peer retry message_1 with a
// suite both sides accept.
type ErrorMessage struct {
	ErrCode int64
	Text    string  // set when ErrCode == 1
	Suites  []int64 // set when ErrCode == 2
}

const (
	ErrCodeGeneric            int64 = 1
	ErrCodeUnsupportedSuites  int64 = 2
)

// Encode serialises the error message as a CBOR sequence.
func (e ErrorMessage) Encode() ([]byte, error) {
	b := new(cborcodec.SequenceBuilder).Add(e.ErrCode)
	switch e.ErrCode {
	case ErrCodeUnsupportedSuites:
		arr := make([]any, len(e.Suites))
		for i, s := range e.Suites {
			arr[i] = s
		}
		b.Add(arr)
	default:
		b.Add(e.Text)
	}
	return b.Bytes()
}

// DecodeErrorMessage parses an error_message sequence.
func DecodeErrorMessage(src []byte) (ErrorMessage, error) {
	r := cborcodec.NewSequenceReader(src)

	var code int64
	if err := r.Next(&code); err != nil {
		return ErrorMessage{}, common.Wrap(common.ErrCBORDecoding, "decode error_message err_code", err)
	}

	switch code {
	case ErrCodeUnsupportedSuites:
		var raw []any
		if err := r.Next(&raw); err != nil {
			return ErrorMessage{}, common.Wrap(common.ErrCBORDecoding, "decode error_message suites", err)
		}
		suites := make([]int64, len(raw))
		for i, v := range raw {
			switch n := v.(type) {
			case uint64:
				suites[i] = int64(n)
			case int64:
				suites[i] = n
			default:
				return ErrorMessage{}, common.New(common.ErrCBORDecoding, "error_message suite is not an int")
			}
		}
		return ErrorMessage{ErrCode: code, Suites: suites}, nil
	default:
		var text string
		if err := r.Next(&text); err != nil {
			return ErrorMessage{}, common.Wrap(common.ErrCBORDecoding, "decode error_message text", err)
		}
		return ErrorMessage{ErrCode: code, Text: text}, nil
	}
}
