// Package coap implements the CoAP packet model (RFC 7252 wire format):
// header, token, option sequence, and payload (spec §4.8).
package coap

import (
	"sort"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// Option numbers this package understands (spec §4.8).
const (
	OptionIfMatch       = 1
	OptionURIHost       = 3
	OptionETag          = 4
	OptionIfNoneMatch   = 5
	OptionObserve       = 6
	OptionURIPort       = 7
	OptionLocationPath  = 8
	OptionOSCORE        = 9
	OptionURIPath       = 11
	OptionContentFormat = 12
	OptionMaxAge        = 14
	OptionURIQuery      = 15
	OptionAccept        = 17
	OptionLocationQuery = 20
	OptionBlock2        = 23
	OptionBlock1        = 27
	OptionSize2         = 28
	OptionProxyURI      = 35
	OptionProxyScheme   = 39
	OptionSize1         = 60
	OptionEcho          = 252
)

// CoAP codes this package constructs or rewrites (spec §4.11).
const (
	CodeGET     = 0x01
	CodePOST    = 0x02
	CodeFETCH   = 0x05
	CodeChanged = 0x44
	CodeContent = 0x45
)

// Option is one CoAP option (number, value).
type Option struct {
	Number int
	Value  []byte
}

// Packet is a parsed CoAP packet.
type Packet struct {
	Version   uint8
	Type      uint8
	Code      uint8
	MessageID uint16
	Token     []byte
	Options   []Option
	Payload   []byte
}

// CodeClass returns the CoAP code class (bits 7..5 of Code): 0 for
// requests, nonzero for responses.
func (p Packet) CodeClass() uint8 {
	return p.Code >> 5
}

// GetOption returns the first option with the given number, if present.
func (p Packet) GetOption(number int) (Option, bool) {
	for _, o := range p.Options {
		if o.Number == number {
			return o, true
		}
	}
	return Option{}, false
}

// Encode serialises p into its RFC 7252 wire format.
func (p Packet) Encode() ([]byte, error) {
	if len(p.Token) > 15 {
		return nil, common.New(common.ErrWrongParameter, "coap token longer than 15 bytes")
	}
	out := make([]byte, 0, 32+len(p.Payload))
	out = append(out,
		(p.Version<<6)|(p.Type<<4)|uint8(len(p.Token)),
		p.Code,
		byte(p.MessageID>>8), byte(p.MessageID),
	)
	out = append(out, p.Token...)

	opts := make([]Option, len(p.Options))
	copy(opts, p.Options)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Number < opts[j].Number })

	running := 0
	for _, o := range opts {
		delta := o.Number - running
		if delta < 0 {
			return nil, common.New(common.ErrWrongParameter, "coap options not in ascending order")
		}
		running = o.Number
		out = append(out, encodeOption(delta, o.Value)...)
	}

	if len(p.Payload) > 0 {
		out = append(out, 0xFF)
		out = append(out, p.Payload...)
	}
	return out, nil
}

func encodeOption(delta int, value []byte) []byte {
	deltaNibble, deltaExt := splitExtended(delta)
	lenNibble, lenExt := splitExtended(len(value))

	out := []byte{byte(deltaNibble<<4) | byte(lenNibble)}
	out = append(out, deltaExt...)
	out = append(out, lenExt...)
	out = append(out, value...)
	return out
}

// splitExtended returns the 4-bit nibble and any extension bytes CoAP's
// option delta/length encoding requires for n (13/14-biased extension,
// spec §4.8).
func splitExtended(n int) (int, []byte) {
	switch {
	case n < 13:
		return n, nil
	case n < 269:
		return 13, []byte{byte(n - 13)}
	default:
		ext := n - 269
		return 14, []byte{byte(ext >> 8), byte(ext)}
	}
}

// Decode parses a CoAP packet from its RFC 7252 wire format.
func Decode(src []byte) (Packet, error) {
	if len(src) < 4 {
		return Packet{}, common.New(common.ErrNotValidInputPacket, "coap packet shorter than header")
	}
	tkl := int(src[0] & 0x0F)
	if tkl > 8 {
		return Packet{}, common.Newf(common.ErrOscoreInpktInvalidTKL, "coap token length %d invalid", tkl)
	}
	p := Packet{
		Version:   src[0] >> 6,
		Type:      (src[0] >> 4) & 0x03,
		Code:      src[1],
		MessageID: uint16(src[2])<<8 | uint16(src[3]),
	}
	pos := 4
	if len(src) < pos+tkl {
		return Packet{}, common.New(common.ErrNotValidInputPacket, "coap token truncated")
	}
	p.Token = append([]byte{}, src[pos:pos+tkl]...)
	pos += tkl

	running := 0
	for pos < len(src) {
		if src[pos] == 0xFF {
			pos++
			p.Payload = append([]byte{}, src[pos:]...)
			return p, nil
		}
		deltaNibble := int(src[pos] >> 4)
		lenNibble := int(src[pos] & 0x0F)
		pos++
		if deltaNibble == 15 || lenNibble == 15 {
			return Packet{}, common.New(common.ErrOscoreInpktInvalidOptionDelta, "coap option nibble value 15 is reserved")
		}
		delta, newPos, err := readExtended(src, pos, deltaNibble)
		if err != nil {
			return Packet{}, common.Wrap(common.ErrOscoreInpktInvalidOptionDelta, "read option delta extension", err)
		}
		pos = newPos
		length, newPos, err := readExtended(src, pos, lenNibble)
		if err != nil {
			return Packet{}, common.Wrap(common.ErrOscoreInpktInvalidOptionLen, "read option length extension", err)
		}
		pos = newPos
		if len(src) < pos+length {
			return Packet{}, common.New(common.ErrOscoreInpktInvalidOptionLen, "coap option value truncated")
		}
		running += delta
		p.Options = append(p.Options, Option{Number: running, Value: append([]byte{}, src[pos:pos+length]...)})
		pos += length
	}
	return p, nil
}

func readExtended(src []byte, pos, nibble int) (int, int, error) {
	switch nibble {
	case 13:
		if len(src) < pos+1 {
			return 0, 0, common.New(common.ErrNotValidInputPacket, "truncated 1-byte option extension")
		}
		return int(src[pos]) + 13, pos + 1, nil
	case 14:
		if len(src) < pos+2 {
			return 0, 0, common.New(common.ErrNotValidInputPacket, "truncated 2-byte option extension")
		}
		return (int(src[pos])<<8 | int(src[pos+1])) + 269, pos + 2, nil
	default:
		return nibble, pos, nil
	}
}
