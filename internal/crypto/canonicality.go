package crypto

import (
	"math/big"
)

// Canonicality grades a DER-encoded secp256k1 signature.
type Canonicality int

const (
	// NotCanonical means malformed DER or R/S out of range.
	NotCanonical Canonicality = iota
	// Canonical signatures are valid but malleable: (R, N-S) verifies too.
	Canonical
	// FullyCanonical signatures have S <= N/2.
	FullyCanonical
)

var (
	curveOrder, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	halfOrder     = new(big.Int).Rsh(curveOrder, 1)
)

// ECDSACanonicality parses 0x30 len 0x02 rlen R 0x02 slen S and grades it.
// Envelope verification accepts FullyCanonical signatures only.
func ECDSACanonicality(sig []byte) Canonicality {
	r, s, ok := splitDER(sig)
	if !ok {
		return NotCanonical
	}
	if r.Sign() <= 0 || r.Cmp(curveOrder) >= 0 || s.Sign() <= 0 || s.Cmp(curveOrder) >= 0 {
		return NotCanonical
	}
	if s.Cmp(halfOrder) > 0 {
		return Canonical
	}
	return FullyCanonical
}

func splitDER(sig []byte) (r, s *big.Int, ok bool) {
	if len(sig) < 8 || len(sig) > 72 || sig[0] != 0x30 || int(sig[1]) != len(sig)-2 {
		return nil, nil, false
	}
	rb, rest, ok := derInteger(sig[2:])
	if !ok {
		return nil, nil, false
	}
	sb, rest, ok := derInteger(rest)
	if !ok || len(rest) != 0 {
		return nil, nil, false
	}
	return new(big.Int).SetBytes(rb), new(big.Int).SetBytes(sb), true
}

// derInteger reads one minimally encoded, non-negative INTEGER.
func derInteger(data []byte) (value, rest []byte, ok bool) {
	if len(data) < 2 || data[0] != 0x02 {
		return nil, nil, false
	}
	n := int(data[1])
	if n < 1 || n > 33 || len(data) < 2+n {
		return nil, nil, false
	}
	value = data[2 : 2+n]
	if value[0]&0x80 != 0 {
		return nil, nil, false
	}
	if value[0] == 0 && (n == 1 || value[1]&0x80 == 0) {
		return nil, nil, false
	}
	return value, data[2+n:], true
}

// MakeCanonical returns sig with S replaced by N-S when S > N/2, or nil if
// sig is not a valid signature at all.
func MakeCanonical(sig []byte) []byte {
	switch ECDSACanonicality(sig) {
	case NotCanonical:
		return nil
	case FullyCanonical:
		return append([]byte(nil), sig...)
	}
	r, s, _ := splitDER(sig)
	return EncodeDER(r, new(big.Int).Sub(curveOrder, s))
}

// EncodeDER serialises (R, S) with minimal integer encodings.
func EncodeDER(r, s *big.Int) []byte {
	ri, si := derBytes(r), derBytes(s)
	out := make([]byte, 0, 6+len(ri)+len(si))
	out = append(out, 0x30, byte(4+len(ri)+len(si)))
	out = append(out, 0x02, byte(len(ri)))
	out = append(out, ri...)
	out = append(out, 0x02, byte(len(si)))
	return append(out, si...)
}

func derBytes(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 || b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	return b
}
