package keyValueDb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	name   string
	closed int
}

func TestCatalogOpensOnce(t *testing.T) {
	c := NewCatalog(func(db *fakeDB) error {
		db.closed++
		return nil
	})
	created := 0
	create := func() (*fakeDB, error) {
		created++
		return &fakeDB{name: "state"}, nil
	}

	a, err := c.Open("state", create)
	require.NoError(t, err)
	b, err := c.Open("state", create)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, created)
	assert.Equal(t, []string{"state"}, c.names())

	require.NoError(t, c.Close("state"))
	assert.Equal(t, 1, a.closed)
	assert.ErrorIs(t, c.Close("state"), ErrUnknownDB)
}

func TestCatalogCloseAll(t *testing.T) {
	boom := errors.New("boom")
	c := NewCatalog(func(db *fakeDB) error {
		if db.name == "bad" {
			return boom
		}
		return nil
	})
	for _, name := range []string{"good", "bad"} {
		name := name
		_, err := c.Open(name, func() (*fakeDB, error) { return &fakeDB{name: name}, nil })
		require.NoError(t, err)
	}

	err := c.CloseAll()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.names())

	_, err = c.Open("good", func() (*fakeDB, error) { return &fakeDB{}, nil })
	assert.ErrorIs(t, err, ErrDBClosed)
}

func TestCatalogCreateFailureIsNotCached(t *testing.T) {
	c := NewCatalog(func(*fakeDB) error { return nil })
	_, err := c.Open("state", func() (*fakeDB, error) { return nil, errors.New("locked") })
	require.Error(t, err)

	_, err = c.Open("state", func() (*fakeDB, error) { return &fakeDB{}, nil })
	assert.NoError(t, err)
}

func TestGate(t *testing.T) {
	var g Gate
	require.NoError(t, g.Enter())
	g.Leave()

	released := 0
	release := func() error { released++; return nil }
	require.NoError(t, g.Shut(release))
	require.NoError(t, g.Shut(release))
	assert.Equal(t, 1, released)
	assert.ErrorIs(t, g.Enter(), ErrDBClosed)
}

func TestCheckOps(t *testing.T) {
	assert.NoError(t, CheckOps([]BatchOperation{Put([]byte("a"), nil), Del([]byte("b"))}))
	assert.ErrorIs(t, CheckOps([]BatchOperation{{Type: 9}}), ErrUnknownBatchOp)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x02}, PrefixEnd([]byte{0x01}))
	assert.Equal(t, []byte{0x02}, PrefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
}
