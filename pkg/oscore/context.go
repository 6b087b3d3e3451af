package oscore

import (
	"github.com/mjoldfield/edhoc-oscore-go/pkg/cborcodec"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/common"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/crypto"
	"github.com/mjoldfield/edhoc-oscore-go/pkg/suite"
)

// CommonContext is shared material derived once from the OSCORE master
// secret/salt (RFC 8613 §3.2, spec §4.12).
type CommonContext struct {
	AEADAlg  suite.AEADAlg
	HashAlg  suite.HashAlg
	IDContext []byte
	CommonIV []byte
}

// SenderContext is this endpoint's half of an OSCORE security context.
type SenderContext struct {
	ID  []byte
	Key []byte
	SSN uint32
}

// RecipientContext is the peer's half of an OSCORE security context.
type RecipientContext struct {
	ID               []byte
	Key              []byte
	Replay           ReplayWindow
	NotificationNum  uint32
	NotificationInit bool
	Echo             EchoState
	EchoChallenge    []byte
}

// SecurityContext bundles a common context with one sender and one
// recipient half, as created by oscore_context_init.
type SecurityContext struct {
	Common       CommonContext
	Sender       SenderContext
	Recipient    RecipientContext
	Config       Config
	Interactions *InteractionsTable
}

// DeriveParams is the caller-supplied input to DeriveContext (spec §6.5,
// oscore_context_init).
type DeriveParams struct {
	MasterSecret []byte
	MasterSalt   []byte
	IDContext    []byte
	SenderID     []byte
	RecipientID  []byte
	AEADAlg      suite.AEADAlg
	HashAlg      suite.HashAlg
	AEADKeyLen   int
	AEADIVLen    int
	Fresh        bool // true for an EDHOC-derived context: SSN starts at 0, no NVM load
	NVM          NVMStore
	NVMKey       string
	Config       Config
}

// DeriveContext implements RFC 8613 §3.2's HKDF-based context derivation:
// PRK = HKDF-Extract(master_salt, master_secret); each of Sender Key,
// Recipient Key, and Common IV is HKDF-Expand(PRK, info, length) where
// info = [id, id_context, alg_aead, "Key"|"IV", length].
func DeriveContext(p DeriveParams) (*SecurityContext, error) {
	prk := crypto.HKDFExtract(p.MasterSalt, p.MasterSecret)

	senderKey, err := deriveOne(prk, p.SenderID, p.IDContext, int(p.AEADAlg), "Key", p.AEADKeyLen)
	if err != nil {
		return nil, err
	}
	recipientKey, err := deriveOne(prk, p.RecipientID, p.IDContext, int(p.AEADAlg), "Key", p.AEADKeyLen)
	if err != nil {
		return nil, err
	}
	commonIV, err := deriveOne(prk, nil, p.IDContext, int(p.AEADAlg), "IV", p.AEADIVLen)
	if err != nil {
		return nil, err
	}

	ssn, err := initialSSN(p)
	if err != nil {
		return nil, err
	}

	sc := &SecurityContext{
		Common: CommonContext{AEADAlg: p.AEADAlg, HashAlg: p.HashAlg, IDContext: p.IDContext, CommonIV: commonIV},
		Sender: SenderContext{ID: p.SenderID, Key: senderKey, SSN: ssn},
		Recipient: RecipientContext{
			ID:     p.RecipientID,
			Key:    recipientKey,
			Replay: NewReplayWindow(p.Config.OSCOREServerReplayWindowSize),
			Echo:   EchoSynchronized,
		},
		Config:       p.Config,
		Interactions: NewInteractionsTable(p.Config.OSCOREInteractionsCount),
	}
	if !p.Fresh {
		sc.Recipient.Echo = EchoReboot
	}
	return sc, nil
}

func initialSSN(p DeriveParams) (uint32, error) {
	if p.Fresh || p.NVM == nil {
		return 0, nil
	}
	stored, err := p.NVM.ReadSSN(p.NVMKey)
	if err != nil {
		return 0, common.Wrap(common.ErrUnexpectedResultFromExtLib, "read ssn from nvm", err)
	}
	return stored + p.Config.KSSNNVMStoreInterval + p.Config.FNVMMaxWriteFailure, nil
}

func deriveOne(prk, id, idContext []byte, algAEAD int, purpose string, length int) ([]byte, error) {
	var idContextItem any
	if idContext != nil {
		idContextItem = idContext
	}
	info, err := cborcodec.EncodeArray(id, idContextItem, int64(algAEAD), purpose, int64(length))
	if err != nil {
		return nil, common.Wrap(common.ErrCBOREncoding, "encode oscore hkdf info", err)
	}
	return crypto.HKDFExpand(prk, info, length)
}
