package state

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
)

type sample struct {
	Name     string  `codec:"name"`
	Count    uint64  `codec:"count"`
	Optional *uint32 `codec:"optional,omitempty"`
}

func TestItemLoadMissing(t *testing.T) {
	base, _ := newBase(t)
	item := NewItem[sample](keylet.Config())

	_, err := item.Load(base)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := item.MayLoad(base)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemSaveLoad(t *testing.T) {
	base, _ := newBase(t)
	table := NewTable(base)
	item := NewItem[sample](keylet.Config())

	seven := uint32(7)
	want := sample{Name: "pool", Count: 1, Optional: &seven}
	require.NoError(t, item.Save(table, want))

	got, err := item.Load(table)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("loaded item mismatch (-want +got):\n%s", diff)
	}

	// Second save goes through Update.
	want.Count = 2
	require.NoError(t, item.Save(table, want))
	got, err = item.Load(table)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Count)
}

func TestItemUpdate(t *testing.T) {
	base, _ := newBase(t)
	table := NewTable(base)
	item := NewItem[sample](keylet.Config())

	_, err := item.Update(table, func(s sample) (sample, error) { return s, nil })
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, item.Save(table, sample{Name: "a"}))

	boom := errors.New("boom")
	_, err = item.Update(table, func(s sample) (sample, error) { return s, boom })
	assert.ErrorIs(t, err, boom)

	next, err := item.Update(table, func(s sample) (sample, error) {
		s.Count++
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Count)
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, err := Encode(sample{Name: "x", Count: 3})
	require.NoError(t, err)
	b, err := Encode(sample{Name: "x", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var out sample
	require.NoError(t, Decode(a, &out))
	assert.Nil(t, out.Optional)
}

func TestItemRemove(t *testing.T) {
	base, _ := newBase(t)
	table := NewTable(base)
	item := NewItem[sample](keylet.Config())
	require.NoError(t, item.Save(table, sample{Name: "a"}))
	require.NoError(t, item.Remove(table))

	_, err := item.Load(table)
	assert.ErrorIs(t, err, ErrNotFound)
}
