// Package transport carries EDHOC messages and OSCORE-protected CoAP
// datagrams between an Initiator/client and a Responder/server, the same
// tx/rx capability the core's Run functions are parameterised over
// (spec §6.5).
package transport

import "net"

// Transport is a message-oriented, not a byte-stream, capability: each call
// to Send/Receive carries exactly one EDHOC message or one CoAP datagram,
// matching how the core hands messages to `tx`/`rx` rather than reassembling
// a fragmented stream itself.
type Transport interface {
	// Send transmits one message to the peer.
	Send(msg []byte) error

	// Receive blocks until the next message from the peer is available.
	Receive() ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// UDPTransport is a Transport backed by a connected net.UDPConn.
type UDPTransport struct {
	conn    *net.UDPConn
	readBuf []byte
}

// NewUDPClient dials addr and returns a Transport for the connection.
func NewUDPClient(addr string) (*UDPTransport, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	return &UDPTransport{conn: conn, readBuf: make([]byte, 2048)}, nil
}

// NewUDPServerConn wraps an already-connected UDP socket (as produced by a
// listening server after its first ReadFromUDP) into a Transport fixed to
// one peer address.
func NewUDPServerConn(conn *net.UDPConn) *UDPTransport {
	return &UDPTransport{conn: conn, readBuf: make([]byte, 2048)}
}

// Send writes msg as a single UDP datagram.
func (t *UDPTransport) Send(msg []byte) error {
	_, err := t.conn.Write(msg)
	return err
}

// Receive reads the next UDP datagram.
func (t *UDPTransport) Receive() ([]byte, error) {
	n, err := t.conn.Read(t.readBuf)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, t.readBuf[:n])
	return out, nil
}

// Close closes the underlying socket.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
