package oscore

import (
	"bytes"
	"strings"

	"github.com/mjoldfield/edhoc-oscore-go/pkg/coap"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
)

// InteractionRecord correlates an outstanding exchange's token with the
// PIV/KID used to protect the request and the URI path it targeted
// (spec §4.14).
type InteractionRecord struct {
	occupied    bool
	Token       []byte
	RequestPIV  []byte
	RequestKID  []byte
	URIPath     string
	RequestType coap.MessageType
}

// InteractionsTable is the fixed-size interactions table of spec §4.14.
type InteractionsTable struct {
	records []InteractionRecord
}

// NewInteractionsTable creates a table with size slots.
func NewInteractionsTable(size int) *InteractionsTable {
	return &InteractionsTable{records: make([]InteractionRecord, size)}
}

// SetRecord updates the record matching (uriPath, requestType) if one
// exists, else allocates the first unoccupied slot, else fails with
// oscore_max_interactions. It rejects a token already occupying a
// different slot with oscore_interaction_duplicated_token.
func (t *InteractionsTable) SetRecord(rec InteractionRecord) error {
	for _, r := range t.records {
		if r.occupied && bytes.Equal(r.Token, rec.Token) && (r.URIPath != rec.URIPath || r.RequestType != rec.RequestType) {
			return common.New(common.ErrOscoreInteractionDuplicatedToken, "token already used by a different interaction")
		}
	}
	for i, r := range t.records {
		if r.occupied && r.URIPath == rec.URIPath && r.RequestType == rec.RequestType {
			rec.occupied = true
			t.records[i] = rec
			return nil
		}
	}
	for i, r := range t.records {
		if !r.occupied {
			rec.occupied = true
			t.records[i] = rec
			return nil
		}
	}
	return common.New(common.ErrOscoreMaxInteractions, "interactions table is full")
}

// GetRecord finds the record matching token.
func (t *InteractionsTable) GetRecord(token []byte) (InteractionRecord, error) {
	for _, r := range t.records {
		if r.occupied && bytes.Equal(r.Token, token) {
			return r, nil
		}
	}
	return InteractionRecord{}, common.New(common.ErrOscoreInteractionNotFound, "no interaction for token")
}

// RemoveRecord clears the slot matching token.
func (t *InteractionsTable) RemoveRecord(token []byte) error {
	for i, r := range t.records {
		if r.occupied && bytes.Equal(r.Token, token) {
			t.records[i] = InteractionRecord{}
			return nil
		}
	}
	return common.New(common.ErrOscoreInteractionNotFound, "no interaction for token")
}

// JoinURIPath concatenates the URI-path option values of p with "/",
// truncated to maxLen bytes (spec §4.14, §6.3 OSCORE_MAX_URI_PATH_LEN).
func JoinURIPath(p coap.Packet, maxLen int) string {
	var segs []string
	for _, o := range p.Options {
		if o.Number == coap.OptionURIPath {
			segs = append(segs, string(o.Value))
		}
	}
	joined := strings.Join(segs, "/")
	if len(joined) > maxLen {
		joined = joined[:maxLen]
	}
	return joined
}
