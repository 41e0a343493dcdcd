package host

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	addresscodec "github.com/LeJamon/goScalingd/internal/codec/address-codec"
)

const defaultAddressCacheSize = 1024

// AddressAPI validates classic addresses for contracts. Validated addresses
// are cached; failures are not.
type AddressAPI struct {
	valid *lru.Cache[string, string]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewAddressAPI creates an API caching up to size addresses.
func NewAddressAPI(size int) (*AddressAPI, error) {
	if size <= 0 {
		size = defaultAddressCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &AddressAPI{valid: cache}, nil
}

// AddrValidate decodes addr and returns its re-encoded canonical form.
func (a *AddressAPI) AddrValidate(addr string) (string, error) {
	if canonical, ok := a.valid.Get(addr); ok {
		a.hits.Add(1)
		return canonical, nil
	}
	a.misses.Add(1)

	id, err := addresscodec.DecodeAccountID(addr)
	if err != nil {
		return "", err
	}
	canonical := addresscodec.EncodeAccountID(id)
	a.valid.Add(addr, canonical)
	return canonical, nil
}

// Stats returns cache hits and misses.
func (a *AddressAPI) Stats() (hits, misses uint64) {
	return a.hits.Load(), a.misses.Load()
}
