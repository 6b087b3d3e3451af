package oscore

import "github.com/mjoldfield/edhoc-oscore-go/pkg/common"

// Option is a decoded OSCORE option value (spec §4.9): first byte flags
// h (KID context present), k (KID present), and n (PIV length, low 3 bits).
type Option struct {
	PIV        []byte // big-endian, no leading zero trimming guarantees beyond n bytes
	KIDContext []byte // present iff h=1
	KID        []byte // present iff k=1
}

// Encode serialises o into the OSCORE option value layout.
func (o Option) Encode() ([]byte, error) {
	if len(o.PIV) > 5 {
		return nil, common.New(common.ErrOscoreInpktInvalidPIV, "piv longer than 5 bytes")
	}
	flags := byte(len(o.PIV))
	if len(o.KIDContext) > 0 {
		flags |= 0x10
	}
	if o.KID != nil {
		flags |= 0x08
	}
	out := []byte{flags}
	out = append(out, o.PIV...)
	if len(o.KIDContext) > 0 {
		if len(o.KIDContext) > 255 {
			return nil, common.New(common.ErrWrongParameter, "kid context longer than 255 bytes")
		}
		out = append(out, byte(len(o.KIDContext)))
		out = append(out, o.KIDContext...)
	}
	if o.KID != nil {
		out = append(out, o.KID...)
	}
	return out, nil
}

// DecodeOption parses an OSCORE option value.
func DecodeOption(value []byte) (Option, error) {
	if len(value) == 0 {
		// An empty OSCORE option value means "forward this OSCORE-protected
		// request unchanged", carrying no PIV/KID/KID-context of its own.
		return Option{}, nil
	}
	flags := value[0]
	n := int(flags & 0x07)
	if n > 5 {
		return Option{}, common.Newf(common.ErrOscoreInpktInvalidPIV, "piv length nibble %d invalid", n)
	}
	pos := 1
	var o Option
	if n > 0 {
		if len(value) < pos+n {
			return Option{}, common.New(common.ErrOscoreInpktInvalidPIV, "piv truncated")
		}
		o.PIV = append([]byte{}, value[pos:pos+n]...)
		pos += n
	}
	if flags&0x10 != 0 {
		if len(value) < pos+1 {
			return Option{}, common.New(common.ErrNotValidInputPacket, "kid context length truncated")
		}
		kcLen := int(value[pos])
		pos++
		if len(value) < pos+kcLen {
			return Option{}, common.New(common.ErrNotValidInputPacket, "kid context truncated")
		}
		o.KIDContext = append([]byte{}, value[pos:pos+kcLen]...)
		pos += kcLen
	}
	if flags&0x08 != 0 {
		o.KID = append([]byte{}, value[pos:]...)
	}
	return o, nil
}
