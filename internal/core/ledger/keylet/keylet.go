package keylet

import (
	"encoding/binary"

	"github.com/LeJamon/goScalingd/internal/crypto"
)

// Space identifiers for keylet generation
const (
	spaceConfig       uint16 = 'c' // Contract configuration (singleton)
	spaceOwnership    uint16 = 'o' // Ownership record (singleton)
	spaceContractInfo uint16 = 'v' // Contract name and version (singleton)
	spaceContractMeta uint16 = 'M' // Host: contract registration
	spaceHeight       uint16 = 'h' // Host: block height (singleton)
	spaceOutbox       uint16 = 'x' // Host: emitted instruction
	spaceOutboxSeq    uint16 = 'X' // Host: next outbox sequence (singleton)
	spaceAccount      uint16 = 'a' // Host: last sequence signed by an account
)

// Type identifies what a keylet points at.
type Type uint16

const (
	TypeConfig Type = iota + 1
	TypeOwnership
	TypeContractInfo
	TypeContractMeta
	TypeHeight
	TypeOutboxEntry
	TypeOutboxSequence
	TypeAccountSequence
)

func (t Type) String() string {
	switch t {
	case TypeConfig:
		return "Config"
	case TypeOwnership:
		return "Ownership"
	case TypeContractInfo:
		return "ContractInfo"
	case TypeContractMeta:
		return "ContractMeta"
	case TypeHeight:
		return "Height"
	case TypeOutboxEntry:
		return "OutboxEntry"
	case TypeOutboxSequence:
		return "OutboxSequence"
	case TypeAccountSequence:
		return "AccountSequence"
	default:
		return "Unknown"
	}
}

// Keylet represents an addressable location in contract or host state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// Config returns the keylet for the contract configuration record.
func Config() Keylet {
	return Keylet{Type: TypeConfig, Key: indexHash(spaceConfig)}
}

// Ownership returns the keylet for the ownership record.
func Ownership() Keylet {
	return Keylet{Type: TypeOwnership, Key: indexHash(spaceOwnership)}
}

// ContractInfo returns the keylet for the contract version stamp.
func ContractInfo() Keylet {
	return Keylet{Type: TypeContractInfo, Key: indexHash(spaceContractInfo)}
}

// ContractMeta returns the host keylet registering a contract.
func ContractMeta(accountID [20]byte) Keylet {
	return Keylet{Type: TypeContractMeta, Key: indexHash(spaceContractMeta, accountID[:])}
}

// Height returns the host keylet for the current block height.
func Height() Keylet {
	return Keylet{Type: TypeHeight, Key: indexHash(spaceHeight)}
}

// OutboxSequence returns the host keylet holding the next outbox sequence.
func OutboxSequence() Keylet {
	return Keylet{Type: TypeOutboxSequence, Key: indexHash(spaceOutboxSeq)}
}

// OutboxEntry returns the host keylet for the instruction with the given
// sequence. Entries are not ordered by key; the host walks them by sequence.
func OutboxEntry(seq uint64) Keylet {
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	return Keylet{Type: TypeOutboxEntry, Key: indexHash(spaceOutbox, seqBytes)}
}

// AccountSequence returns the host keylet holding the last envelope
// sequence committed for an account.
func AccountSequence(accountID [20]byte) Keylet {
	return Keylet{Type: TypeAccountSequence, Key: indexHash(spaceAccount, accountID[:])}
}
