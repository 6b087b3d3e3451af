// Package cborcodec provides typed encoders/decoders for the fixed set of
// CBOR structures EDHOC and OSCORE exchange (spec §2, CBOR helpers):
// message_1..4, plaintext_2/3, id_cred_x, connection identifiers,
// sig_structure, enc_structure, and info. It has no aad_array, th2 or
// data_2 encoder; pkg/oscore (BuildAAD) and pkg/transcript (TH2) assemble
// those inputs from the helpers here. It is grounded on the teacher's
// pkg/axdr/encoder.go and decoder.go — the same typed, cursor-based
// encode/decode pattern, generalized here by sitting on top of
// github.com/fxamacker/cbor/v2 rather than hand-rolling the tag table,
// because the spec treats "CBOR codec primitives" as an assumed-available
// external collaborator rather than something to reimplement.
package cborcodec

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// EncodeItem CBOR-encodes a single Go value (int, []byte, string, or a
// []interface{} for an array) into one CBOR data item.
func EncodeItem(v any) ([]byte, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, common.Wrap(common.ErrCBOREncoding, "encode cbor item", err)
	}
	return b, nil
}

// DecodeItem decodes exactly one CBOR data item from src into out, failing
// if trailing bytes remain.
func DecodeItem(src []byte, out any) error {
	rest, err := DecodeItemPrefix(src, out)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return common.New(common.ErrCBORDecoding, "trailing bytes after cbor item")
	}
	return nil
}

// DecodeItemPrefix decodes the first CBOR data item from src into out and
// returns the remaining, undecoded bytes — the building block for parsing a
// CBOR *sequence* (EDHOC messages are concatenated top-level items, not one
// array), mirroring how the teacher's axdr decoder advances a cursor after
// each structure field.
func DecodeItemPrefix(src []byte, out any) ([]byte, error) {
	dec := cbor.NewDecoder(bytes.NewReader(src))
	if err := dec.Decode(out); err != nil {
		return nil, common.Wrap(common.ErrCBORDecoding, "decode cbor item", err)
	}
	return src[dec.NumBytesRead():], nil
}

// SequenceBuilder accumulates the concatenation of independently-encoded
// CBOR items that makes up an EDHOC message or transcript input.
type SequenceBuilder struct {
	buf bytes.Buffer
	err error
}

// Add encodes v and appends it to the sequence.
func (s *SequenceBuilder) Add(v any) *SequenceBuilder {
	if s.err != nil {
		return s
	}
	b, err := EncodeItem(v)
	if err != nil {
		s.err = err
		return s
	}
	s.buf.Write(b)
	return s
}

// AddRaw appends already-CBOR-encoded bytes verbatim (used for optional
// trailing EAD items the caller has pre-serialized).
func (s *SequenceBuilder) AddRaw(b []byte) *SequenceBuilder {
	s.buf.Write(b)
	return s
}

// Bytes returns the concatenated sequence, or the first encoding error.
func (s *SequenceBuilder) Bytes() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.buf.Bytes(), nil
}

// SequenceReader decodes items one at a time from a CBOR sequence.
type SequenceReader struct {
	rest []byte
}

// NewSequenceReader wraps a byte slice holding a CBOR sequence.
func NewSequenceReader(b []byte) *SequenceReader {
	return &SequenceReader{rest: b}
}

// Next decodes the next item into out.
func (r *SequenceReader) Next(out any) error {
	rest, err := DecodeItemPrefix(r.rest, out)
	if err != nil {
		return err
	}
	r.rest = rest
	return nil
}

// Remaining returns the undecoded tail of the sequence.
func (r *SequenceReader) Remaining() []byte {
	return r.rest
}

// Done reports whether every byte of the sequence has been consumed.
func (r *SequenceReader) Done() bool {
	return len(r.rest) == 0
}

// EncodeBstr CBOR-encodes b as a byte string.
func EncodeBstr(b []byte) ([]byte, error) {
	return EncodeItem(b)
}

// EncodeArray CBOR-encodes items as a single CBOR array (used for
// sig_structure, enc_structure, info, aad_array — all fixed-shape arrays,
// not sequences).
func EncodeArray(items ...any) ([]byte, error) {
	return EncodeItem(items)
}
