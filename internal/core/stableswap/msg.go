// Package stableswap encodes the pool parameter update the contract emits.
// The wire layout matches osmosis.gamm.poolmodels.stableswap.v1beta1 so the
// bytes can be relayed to a chain unchanged.
package stableswap

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/anypb"

	addresscodec "github.com/LeJamon/goScalingd/internal/codec/address-codec"
)

// TypeURL identifies MsgStableSwapAdjustScalingFactors inside an Any.
const TypeURL = "/osmosis.gamm.poolmodels.stableswap.v1beta1.MsgStableSwapAdjustScalingFactors"

const (
	fieldSender         protowire.Number = 1
	fieldPoolID         protowire.Number = 2
	fieldScalingFactors protowire.Number = 3
)

var (
	ErrWrongTypeURL     = errors.New("unexpected type url")
	ErrInvalidSender    = errors.New("invalid sender address")
	ErrNoScalingFactors = errors.New("scaling factors must not be empty")
	ErrMalformedMessage = errors.New("malformed message")
)

// MsgStableSwapAdjustScalingFactors asks the pool module to replace the
// scaling factors of PoolID.
type MsgStableSwapAdjustScalingFactors struct {
	Sender         string   `json:"sender"`
	PoolID         uint64   `json:"pool_id"`
	ScalingFactors []uint64 `json:"scaling_factors"`
}

// Marshal returns the protobuf encoding. Zero-valued fields are omitted and
// factors are packed, as protoc-gen-go would emit them.
func (m *MsgStableSwapAdjustScalingFactors) Marshal() []byte {
	var b []byte
	if m.Sender != "" {
		b = protowire.AppendTag(b, fieldSender, protowire.BytesType)
		b = protowire.AppendString(b, m.Sender)
	}
	if m.PoolID != 0 {
		b = protowire.AppendTag(b, fieldPoolID, protowire.VarintType)
		b = protowire.AppendVarint(b, m.PoolID)
	}
	if len(m.ScalingFactors) > 0 {
		var packed []byte
		for _, f := range m.ScalingFactors {
			packed = protowire.AppendVarint(packed, f)
		}
		b = protowire.AppendTag(b, fieldScalingFactors, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

// Unmarshal accepts packed and unpacked factors and skips unknown fields.
func (m *MsgStableSwapAdjustScalingFactors) Unmarshal(b []byte) error {
	*m = MsgStableSwapAdjustScalingFactors{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldSender && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("%w: sender: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			m.Sender = v
			b = b[n:]
		case num == fieldPoolID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: pool_id: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			m.PoolID = v
			b = b[n:]
		case num == fieldScalingFactors && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: scaling_factors: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			for len(packed) > 0 {
				v, vn := protowire.ConsumeVarint(packed)
				if vn < 0 {
					return fmt.Errorf("%w: scaling_factors: %v", ErrMalformedMessage, protowire.ParseError(vn))
				}
				m.ScalingFactors = append(m.ScalingFactors, v)
				packed = packed[vn:]
			}
			b = b[n:]
		case num == fieldScalingFactors && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: scaling_factors: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			m.ScalingFactors = append(m.ScalingFactors, v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformedMessage, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

// ValidateBasic performs stateless checks.
func (m *MsgStableSwapAdjustScalingFactors) ValidateBasic() error {
	if !addresscodec.IsValidClassicAddress(m.Sender) {
		return fmt.Errorf("%w: %q", ErrInvalidSender, m.Sender)
	}
	if len(m.ScalingFactors) == 0 {
		return ErrNoScalingFactors
	}
	return nil
}

// ToAny wraps the message for a Response.
func (m *MsgStableSwapAdjustScalingFactors) ToAny() *anypb.Any {
	return &anypb.Any{TypeUrl: TypeURL, Value: m.Marshal()}
}

// FromAny unwraps a message produced by ToAny.
func FromAny(a *anypb.Any) (*MsgStableSwapAdjustScalingFactors, error) {
	if a.GetTypeUrl() != TypeURL {
		return nil, fmt.Errorf("%w: %q", ErrWrongTypeURL, a.GetTypeUrl())
	}
	m := new(MsgStableSwapAdjustScalingFactors)
	if err := m.Unmarshal(a.GetValue()); err != nil {
		return nil, err
	}
	return m, nil
}
