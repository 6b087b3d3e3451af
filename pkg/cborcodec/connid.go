package cborcodec

import "github.com/mjoldfield/edhoc-oscore-go/pkg/common"

// ConnID is a connection identifier (C_I or C_R): a short byte string that
// EDHOC encodes as a bare CBOR int when it is a single byte whose
// two's-complement value is in -24..23 (bytes 0x00..0x17 or 0xE8..0xFF, so
// the int's CBOR head is 0x00..0x17 or 0x20..0x37), and as a CBOR byte
// string otherwise (spec §4.2/§4.6).
type ConnID []byte

// EncodeConnID encodes a connection identifier using the int-or-bstr rule.
func EncodeConnID(id ConnID) ([]byte, error) {
	if n, ok := connIDAsInt(id); ok {
		return EncodeItem(n)
	}
	return EncodeItem([]byte(id))
}

// connIDAsInt reports whether id is exactly the one-byte two's-complement
// encoding of a small int in CBOR's direct (no-extra-bytes) range, and if
// so returns that int.
func connIDAsInt(id ConnID) (int64, bool) {
	if len(id) != 1 {
		return 0, false
	}
	b := int64(int8(id[0]))
	if b >= 0 && b <= 0x17 {
		return b, true
	}
	if b < 0 && b >= -24 {
		return b, true
	}
	return 0, false
}

// DecodeConnID decodes the first item of src (an int or a byte string) into
// a connection identifier and returns the remaining bytes.
func DecodeConnID(src []byte) (ConnID, []byte, error) {
	var raw any
	rest, err := DecodeItemPrefix(src, &raw)
	if err != nil {
		return nil, nil, err
	}
	switch v := raw.(type) {
	case []byte:
		return ConnID(v), rest, nil
	case uint64:
		if v > 0x17 {
			return nil, nil, common.Newf(common.ErrCBORDecoding, "connection id int %d out of range", v)
		}
		return ConnID{byte(v)}, rest, nil
	case int64:
		if v < -24 || v > 0x17 {
			return nil, nil, common.Newf(common.ErrCBORDecoding, "connection id int %d out of range", v)
		}
		return ConnID{byte(int8(v))}, rest, nil
	default:
		return nil, nil, common.New(common.ErrCBORDecoding, "connection id must be int or bstr")
	}
}
