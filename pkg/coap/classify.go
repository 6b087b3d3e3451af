package coap

// MessageType is the OSCORE-relevant classification of a CoAP packet
// (spec §4.13).
type MessageType int

const (
	TypeRequest MessageType = iota
	TypeRegistration
	TypeCancellation
	TypeNotification
	TypeResponse
)

// IsClassU reports whether option number is Class U (visible to, and
// processed by, proxies): URI_HOST, URI_PORT, OSCORE, PROXY_URI,
// PROXY_SCHEME. Every other option is Class E (spec §4.9); Class I is
// reserved and currently empty.
func IsClassU(number int) bool {
	switch number {
	case OptionURIHost, OptionURIPort, OptionOSCORE, OptionProxyURI, OptionProxyScheme:
		return true
	default:
		return false
	}
}

// Classify determines p's message type from its code class and OBSERVE
// option (spec §4.13).
func Classify(p Packet) MessageType {
	observe, hasObserve := p.GetOption(OptionObserve)
	if p.CodeClass() == 0 {
		if !hasObserve {
			return TypeRequest
		}
		if len(observe.Value) == 0 || (len(observe.Value) == 1 && observe.Value[0] == 0) {
			return TypeRegistration
		}
		if len(observe.Value) == 1 && observe.Value[0] == 1 {
			return TypeCancellation
		}
		return TypeRequest
	}
	if hasObserve {
		return TypeNotification
	}
	return TypeResponse
}
