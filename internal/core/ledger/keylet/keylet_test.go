package keylet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingletonsAreStable(t *testing.T) {
	assert.Equal(t, Config(), Config())
	assert.Equal(t, Ownership(), Ownership())
	assert.Equal(t, TypeConfig, Config().Type)
	assert.Equal(t, "Ownership", Ownership().Type.String())
}

func TestKeysDoNotCollide(t *testing.T) {
	var a, b [20]byte
	b[19] = 1

	keys := []Keylet{
		Config(), Ownership(), ContractInfo(),
		ContractMeta(a), ContractMeta(b),
		Height(), OutboxSequence(),
		OutboxEntry(0), OutboxEntry(1), OutboxEntry(1 << 40),
		AccountSequence(a), AccountSequence(b),
	}

	seen := make(map[[32]byte]Type)
	for _, k := range keys {
		prev, dup := seen[k.Key]
		require.Falsef(t, dup, "%s collides with %s", k.Type, prev)
		seen[k.Key] = k.Type
	}
}

func TestOutboxEntryDependsOnSequence(t *testing.T) {
	assert.Equal(t, OutboxEntry(7).Key, OutboxEntry(7).Key)
	assert.NotEqual(t, OutboxEntry(7).Key, OutboxEntry(8).Key)
}
