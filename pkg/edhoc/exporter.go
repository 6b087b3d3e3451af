package edhoc

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/kdf"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// Exporter is the handshake's output: PRK_exporter plus the hash algorithm
// it was derived under, from which application keying material and the
// OSCORE master secret/salt are derived (spec §4.3, RFC 9528 §8.3).
type Exporter struct {
	hashAlg     suite.HashAlg
	prkExporter []byte
}

// Export derives EDHOC_Exporter(label, context, length) (spec §4.3).
func (e *Exporter) Export(label int64, context []byte, length int) ([]byte, error) {
	return kdf.Exporter(e.hashAlg, e.prkExporter, label, context, length)
}

// OSCOREMasterSecret derives the 16-byte OSCORE Master Secret from this
// handshake's exporter (spec §4.3, §6.4).
func (e *Exporter) OSCOREMasterSecret() ([]byte, error) {
	return kdf.OSCOREMasterSecret(e.hashAlg, e.prkExporter)
}

// OSCOREMasterSalt derives the 8-byte OSCORE Master Salt from this
// handshake's exporter (spec §4.3, §6.4).
func (e *Exporter) OSCOREMasterSalt() ([]byte, error) {
	return kdf.OSCOREMasterSalt(e.hashAlg, e.prkExporter)
}
