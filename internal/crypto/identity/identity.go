// Package identity manages the secp256k1 keypairs that sign contract calls.
// The signer's classic address is the sender the host hands to entry points.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	addresscodec "github.com/LeJamon/goScalingd/internal/codec/address-codec"
	"github.com/LeJamon/goScalingd/internal/crypto"
)

var (
	// ErrInvalidPrivateKey is returned when the private key is invalid
	ErrInvalidPrivateKey = errors.New("invalid private key")
	// ErrInvalidPublicKey is returned when the public key is invalid
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidSignature is returned when a signature cannot be parsed or does not verify
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalleableSignature is returned for a valid signature whose S is in
	// the upper half of the curve order
	ErrMalleableSignature = errors.New("signature is not fully canonical")
)

// Identity is a signing keypair.
type Identity struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey
}

// New creates a new random identity.
func New() (*Identity, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	return &Identity{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}, nil
}

// FromPrivateKey creates an identity from a hex-encoded private key.
// A leading "00" on a 66 character key is accepted.
func FromPrivateKey(privKeyHex string) (*Identity, error) {
	if len(privKeyHex) == 0 {
		return nil, ErrInvalidPrivateKey
	}

	if len(privKeyHex) == 66 && privKeyHex[:2] == "00" {
		privKeyHex = privKeyHex[2:]
	}

	if len(privKeyHex) != 64 {
		return nil, ErrInvalidPrivateKey
	}

	privKeyBytes, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}

	privateKey, _ := btcec.PrivKeyFromBytes(privKeyBytes)
	if privateKey == nil || privateKey.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}

	return &Identity{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}, nil
}

// Sign signs SHA-512Half(message) and returns a DER signature.
func (i *Identity) Sign(message []byte) []byte {
	hash := crypto.Sha512Half(message)
	return ecdsa.Sign(i.privateKey, hash[:]).Serialize()
}

// PublicKey returns the compressed public key bytes.
func (i *Identity) PublicKey() []byte {
	return i.publicKey.SerializeCompressed()
}

// PublicKeyHex returns the compressed public key as upper-case hex.
func (i *Identity) PublicKeyHex() string {
	return fmt.Sprintf("%X", i.PublicKey())
}

// PrivateKeyHex returns the private key as a hex string (with 00 prefix).
func (i *Identity) PrivateKeyHex() string {
	return "00" + hex.EncodeToString(i.privateKey.Serialize())
}

// AccountID returns RIPEMD160(SHA256(compressed public key)).
func (i *Identity) AccountID() [crypto.AccountIDSize]byte {
	return crypto.CalcAccountID(i.PublicKey())
}

// Address returns the classic address of the identity.
func (i *Identity) Address() string {
	return addresscodec.EncodeAccountID(i.AccountID())
}

// Verify checks a DER signature over SHA-512Half(message) and returns the
// classic address of the signer. Only fully canonical signatures are
// accepted.
func Verify(publicKey, message, signature []byte) (string, error) {
	switch crypto.ECDSACanonicality(signature) {
	case crypto.NotCanonical:
		return "", ErrInvalidSignature
	case crypto.Canonical:
		return "", ErrMalleableSignature
	}

	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	hash := crypto.Sha512Half(message)
	if !sig.Verify(hash[:], pub) {
		return "", ErrInvalidSignature
	}

	return addresscodec.EncodeAccountID(crypto.CalcAccountID(pub.SerializeCompressed())), nil
}
