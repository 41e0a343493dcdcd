package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// AccountIDSize is the size of an account ID in bytes.
const AccountIDSize = 20

// AccountID names a principal: an account key or a contract.
type AccountID = [AccountIDSize]byte

// Hash160 is RIPEMD160(SHA256(data)).
func Hash160(data []byte) AccountID {
	inner := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(inner[:])
	var id AccountID
	copy(id[:], h.Sum(nil))
	return id
}

// CalcAccountID derives the account of a compressed public key.
func CalcAccountID(publicKey []byte) AccountID {
	return Hash160(publicKey)
}

// ContractAccountID derives the contract a creator gets for label. The
// label is length-prefixed so creator/label pairs never collide.
func ContractAccountID(creator AccountID, label string) AccountID {
	preimage := make([]byte, 0, len(creator)+4+len(label))
	preimage = append(preimage, creator[:]...)
	preimage = append(preimage, byte(len(label)>>24), byte(len(label)>>16), byte(len(label)>>8), byte(len(label)))
	preimage = append(preimage, label...)
	return Hash160(preimage)
}

// AccountIDFromBytes checks the length of b.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDSize {
		return id, fmt.Errorf("account id must be %d bytes, got %d", AccountIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IsZeroAccountID reports whether every byte of id is zero.
func IsZeroAccountID(id AccountID) bool {
	return id == AccountID{}
}

// Sha512Half returns the first 32 bytes of SHA-512 over the concatenated
// inputs.
func Sha512Half(msgs ...[]byte) [32]byte {
	h := sha512.New()
	for _, m := range msgs {
		h.Write(m)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
