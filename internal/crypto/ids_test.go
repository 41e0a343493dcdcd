package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcAccountID(t *testing.T) {
	pub, err := hex.DecodeString("0330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7FD020")
	require.NoError(t, err)

	id := CalcAccountID(pub)
	assert.Equal(t, "b5f762798a53d543a014caf8b297cff8f2f937e8", hex.EncodeToString(id[:]))
}

func TestContractAccountID(t *testing.T) {
	creator := CalcAccountID([]byte("creator"))

	a := ContractAccountID(creator, "stATOM/ATOM")
	assert.Equal(t, a, ContractAccountID(creator, "stATOM/ATOM"))
	assert.NotEqual(t, a, ContractAccountID(creator, "stOSMO/OSMO"))
	assert.NotEqual(t, a, ContractAccountID(CalcAccountID([]byte("other")), "stATOM/ATOM"))
	assert.NotEqual(t, a, CalcAccountID(append(creator[:], "stATOM/ATOM"...)))
}

func TestAccountIDFromBytes(t *testing.T) {
	raw := make([]byte, AccountIDSize)
	raw[19] = 1

	id, err := AccountIDFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(1), id[19])
	assert.False(t, IsZeroAccountID(id))
	assert.True(t, IsZeroAccountID(AccountID{}))

	_, err = AccountIDFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestSha512Half(t *testing.T) {
	got := Sha512Half([]byte("fakeRandomString"))
	assert.Equal(t, "bb3eca8985e1484fa6a28c4b30fb0042a2cc5df3ec8dc37b5f3d126ddfd3ca14", hex.EncodeToString(got[:]))
	assert.Equal(t, got, Sha512Half([]byte("fake"), []byte("Random"), []byte("String")))
}
