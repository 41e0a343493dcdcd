package identity

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	addresscodec "github.com/LeJamon/goScalingd/internal/codec/address-codec"
	"github.com/LeJamon/goScalingd/internal/crypto"
)

func TestSignAndVerify(t *testing.T) {
	id, err := New()
	require.NoError(t, err)

	msg := []byte(`{"update_scaling_factor":{}}`)
	sig := id.Sign(msg)

	sender, err := Verify(id.PublicKey(), msg, sig)
	require.NoError(t, err)
	assert.Equal(t, id.Address(), sender)
	assert.True(t, addresscodec.IsValidClassicAddress(sender))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	id, err := New()
	require.NoError(t, err)

	sig := id.Sign([]byte("original"))
	_, err = Verify(id.PublicKey(), []byte("tampered"), sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	id, err := New()
	require.NoError(t, err)

	_, err = Verify([]byte{1, 2, 3}, []byte("m"), id.Sign([]byte("m")))
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = Verify(id.PublicKey(), []byte("m"), []byte{0x30, 0x01})
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestFromPrivateKeyRoundTrip(t *testing.T) {
	id, err := New()
	require.NoError(t, err)

	restored, err := FromPrivateKey(id.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, id.Address(), restored.Address())
	assert.Equal(t, id.PublicKeyHex(), restored.PublicKeyHex())

	restored, err = FromPrivateKey(id.PrivateKeyHex()[2:])
	require.NoError(t, err)
	assert.Equal(t, id.Address(), restored.Address())
}

func TestFromPrivateKeyInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "zz" + string(make([]byte, 62))} {
		_, err := FromPrivateKey(in)
		assert.ErrorIs(t, err, ErrInvalidPrivateKey)
	}
}

// highS rewrites a low-S DER signature as its malleated twin (R, N-S).
func highS(t *testing.T, sig []byte) []byte {
	t.Helper()
	rLen := int(sig[3])
	r := new(big.Int).SetBytes(sig[4 : 4+rLen])
	s := new(big.Int).SetBytes(sig[4+rLen+2:])
	n := btcec.S256().Params().N
	return crypto.EncodeDER(r, new(big.Int).Sub(n, s))
}

func TestVerifyRejectsMalleatedSignature(t *testing.T) {
	id, err := New()
	require.NoError(t, err)

	msg := []byte("m")
	sig := id.Sign(msg)
	require.Equal(t, crypto.FullyCanonical, crypto.ECDSACanonicality(sig))

	_, err = Verify(id.PublicKey(), msg, highS(t, sig))
	require.ErrorIs(t, err, ErrMalleableSignature)
}
