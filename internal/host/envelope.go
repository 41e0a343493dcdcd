package host

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/LeJamon/goScalingd/internal/crypto/identity"
)

// Entry point names carried by an Envelope.
const (
	ActionInstantiate = "instantiate"
	ActionExecute     = "execute"
	ActionMigrate     = "migrate"
)

// Envelope is a signed call. The signature covers the chain id, the action,
// the target, the message and the signer's sequence. The host accepts only
// the sequence following the signer's last committed one, so an envelope
// runs at most once.
type Envelope struct {
	ChainID   string          `json:"chain_id"`
	Action    string          `json:"action"`
	Contract  string          `json:"contract,omitempty"` // label for instantiate
	Msg       json.RawMessage `json:"msg"`
	Sequence  uint64          `json:"sequence"`
	PublicKey string          `json:"public_key"`
	Signature string          `json:"signature"`
}

// SigningPayload returns the bytes that are signed: each field
// length-prefixed so that no two envelopes share a payload.
func (e *Envelope) SigningPayload() []byte {
	var out []byte
	for _, part := range [][]byte{[]byte(e.ChainID), []byte(e.Action), []byte(e.Contract), e.Msg} {
		out = binary.BigEndian.AppendUint32(out, uint32(len(part)))
		out = append(out, part...)
	}
	return binary.BigEndian.AppendUint64(out, e.Sequence)
}

// Seal fills PublicKey and Signature using id.
func Seal(id *identity.Identity, e Envelope) Envelope {
	e.PublicKey = id.PublicKeyHex()
	e.Signature = hex.EncodeToString(id.Sign(e.SigningPayload()))
	return e
}

// SequenceSource reports the sequence an account must sign its next
// envelope with.
type SequenceSource interface {
	Sequence(ctx context.Context, addr string) (uint64, error)
}

// SealNext asks src for the signer's next sequence and seals e with it.
func SealNext(ctx context.Context, src SequenceSource, id *identity.Identity, e Envelope) (Envelope, error) {
	seq, err := src.Sequence(ctx, id.Address())
	if err != nil {
		return Envelope{}, fmt.Errorf("sequence: %w", err)
	}
	e.Sequence = seq
	return Seal(id, e), nil
}

// Open verifies the envelope and returns the signer's address.
func (e *Envelope) Open(chainID string) (string, error) {
	if e.ChainID != chainID {
		return "", fmt.Errorf("%w: chain id %q, expected %q", ErrInvalidEnvelope, e.ChainID, chainID)
	}
	switch e.Action {
	case ActionInstantiate, ActionExecute, ActionMigrate:
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidEnvelope, e.Action)
	}

	pub, err := hex.DecodeString(e.PublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: public key: %v", ErrInvalidEnvelope, err)
	}
	sig, err := hex.DecodeString(e.Signature)
	if err != nil {
		return "", fmt.Errorf("%w: signature: %v", ErrInvalidEnvelope, err)
	}

	sender, err := identity.Verify(pub, e.SigningPayload(), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	return sender, nil
}
