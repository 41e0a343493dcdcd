// Package addresscodec encodes and decodes base58check classic addresses
// ("r..." account addresses) used for owners, hubs and contract instances.
package addresscodec

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/LeJamon/goScalingd/internal/crypto"
)

const (
	// AccountAddressPrefix is the type prefix byte of classic account addresses.
	AccountAddressPrefix byte = 0x00

	checksumLength = 4
)

var (
	// ErrInvalidAddress is returned when an address cannot be decoded.
	ErrInvalidAddress = errors.New("invalid classic address")

	// ErrInvalidChecksum is returned when the checksum does not match the payload.
	ErrInvalidChecksum = errors.New("invalid address checksum")

	// ErrInvalidPrefix is returned when the decoded type prefix is not an account prefix.
	ErrInvalidPrefix = errors.New("invalid address type prefix")
)

// alphabet is the ripple base58 dictionary.
var alphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// EncodeBase58 encodes raw bytes with the ripple alphabet.
func EncodeBase58(b []byte) string {
	return base58.EncodeAlphabet(b, alphabet)
}

// DecodeBase58 decodes a ripple-alphabet base58 string.
func DecodeBase58(s string) ([]byte, error) {
	return base58.DecodeAlphabet(s, alphabet)
}

// EncodeAccountID returns the classic address of an account ID.
func EncodeAccountID(id [crypto.AccountIDSize]byte) string {
	payload := make([]byte, 0, 1+crypto.AccountIDSize+checksumLength)
	payload = append(payload, AccountAddressPrefix)
	payload = append(payload, id[:]...)
	payload = append(payload, checksum(payload)...)
	return EncodeBase58(payload)
}

// DecodeAccountID decodes a classic address into its account ID.
func DecodeAccountID(address string) ([crypto.AccountIDSize]byte, error) {
	var id [crypto.AccountIDSize]byte

	if len(address) < 25 || len(address) > 35 || address[0] != 'r' {
		return id, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	raw, err := DecodeBase58(address)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 1+crypto.AccountIDSize+checksumLength {
		return id, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(raw))
	}

	payload, sum := raw[:len(raw)-checksumLength], raw[len(raw)-checksumLength:]
	if !bytes.Equal(checksum(payload), sum) {
		return id, ErrInvalidChecksum
	}
	if payload[0] != AccountAddressPrefix {
		return id, ErrInvalidPrefix
	}

	copy(id[:], payload[1:])
	return id, nil
}

// IsValidClassicAddress reports whether address decodes to an account ID.
func IsValidClassicAddress(address string) bool {
	_, err := DecodeAccountID(address)
	return err == nil
}

// checksum is the first four bytes of SHA256(SHA256(payload)).
func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}
