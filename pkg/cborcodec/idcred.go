package cborcodec

import "github.com/mjoldfield/edhoc-oscore-go/pkg/common"

// IDCredLabel is one of the COSE header labels ID_CRED_x is allowed to
// carry (spec §6.2): at most one of these appears in a given ID_CRED_x map.
type IDCredLabel int

const (
	LabelKid     IDCredLabel = 4
	LabelX5Bag   IDCredLabel = 32
	LabelX5Chain IDCredLabel = 33
	LabelX5T     IDCredLabel = 34
	LabelX5U     IDCredLabel = 35
	LabelC5B     IDCredLabel = 52
	LabelC5C     IDCredLabel = 53
	LabelC5T     IDCredLabel = 54
	LabelC5U     IDCredLabel = 55
)

// IDCred is ID_CRED_x: a CBOR map with exactly one of the labels above.
type IDCred struct {
	Label IDCredLabel
	Value any
}

// EncodeIDCredCompact encodes ID_CRED_x using EDHOC's "compact" rule
// (spec §4.4): a kid-only ID_CRED is emitted as the bare kid value (bstr or
// int, unwrapped from its map); every other label is emitted as the CBOR
// map {label: value} in full.
func EncodeIDCredCompact(id IDCred) ([]byte, error) {
	if id.Label == LabelKid {
		return EncodeItem(id.Value)
	}
	m := map[int]any{int(id.Label): id.Value}
	return EncodeItem(m)
}

// DecodeIDCredCompact decodes the first item of src as a compact ID_CRED_x
// and returns the remaining bytes.
func DecodeIDCredCompact(src []byte) (IDCred, []byte, error) {
	var raw any
	rest, err := DecodeItemPrefix(src, &raw)
	if err != nil {
		return IDCred{}, nil, err
	}
	switch v := raw.(type) {
	case []byte:
		return IDCred{Label: LabelKid, Value: v}, rest, nil
	case uint64:
		return IDCred{Label: LabelKid, Value: v}, rest, nil
	case int64:
		return IDCred{Label: LabelKid, Value: v}, rest, nil
	case map[any]any:
		if len(v) != 1 {
			return IDCred{}, nil, common.Newf(common.ErrCBORDecoding, "id_cred_x map must carry exactly one label, got %d", len(v))
		}
		for k, val := range v {
			label, ok := toInt(k)
			if !ok {
				return IDCred{}, nil, common.New(common.ErrCBORDecoding, "id_cred_x label must be an int")
			}
			return IDCred{Label: IDCredLabel(label), Value: val}, rest, nil
		}
	}
	return IDCred{}, nil, common.New(common.ErrCBORDecoding, "id_cred_x must be an int, bstr, or single-key map")
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case uint64:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// KidBytes returns the kid value as a byte string, converting a compact int
// encoding (small kid values under the int range) to its single-byte form.
func (id IDCred) KidBytes() ([]byte, error) {
	if id.Label != LabelKid {
		return nil, common.New(common.ErrWrongParameter, "id_cred does not carry a kid")
	}
	switch v := id.Value.(type) {
	case []byte:
		return v, nil
	case uint64:
		return []byte{byte(v)}, nil
	case int64:
		return []byte{byte(v)}, nil
	default:
		return nil, common.New(common.ErrCBORDecoding, "unexpected kid value type")
	}
}
