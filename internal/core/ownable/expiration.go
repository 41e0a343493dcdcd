package ownable

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/LeJamon/goScalingd/internal/core/vm"
)

// Expiration is a point after which a pending transfer can no longer be
// accepted. The zero value never expires.
type Expiration struct {
	AtHeight *uint64 `codec:"at_height,omitempty"`
	// AtTime is in unix nanoseconds.
	AtTime *uint64 `codec:"at_time,omitempty"`
}

func AtHeight(h uint64) *Expiration { return &Expiration{AtHeight: &h} }

func AtTime(t time.Time) *Expiration {
	nanos := uint64(t.UnixNano())
	return &Expiration{AtTime: &nanos}
}

func Never() *Expiration { return &Expiration{} }

// IsExpired reports whether block is at or past the expiration.
func (e *Expiration) IsExpired(block vm.BlockInfo) bool {
	switch {
	case e == nil:
		return false
	case e.AtHeight != nil:
		return block.Height >= *e.AtHeight
	case e.AtTime != nil:
		return uint64(block.Time.UnixNano()) >= *e.AtTime
	default:
		return false
	}
}

func (e Expiration) String() string {
	switch {
	case e.AtHeight != nil:
		return fmt.Sprintf("expiration height: %d", *e.AtHeight)
	case e.AtTime != nil:
		return fmt.Sprintf("expiration time: %d", *e.AtTime)
	default:
		return "expiration: never"
	}
}

type expirationJSON struct {
	AtHeight *uint64   `json:"at_height,omitempty"`
	AtTime   *string   `json:"at_time,omitempty"`
	Never    *struct{} `json:"never,omitempty"`
}

// MarshalJSON uses the externally tagged form, with times as nanosecond
// strings: {"at_height":5}, {"at_time":"1700000000000000000"}, {"never":{}}.
func (e Expiration) MarshalJSON() ([]byte, error) {
	var out expirationJSON
	switch {
	case e.AtHeight != nil:
		out.AtHeight = e.AtHeight
	case e.AtTime != nil:
		s := strconv.FormatUint(*e.AtTime, 10)
		out.AtTime = &s
	default:
		out.Never = &struct{}{}
	}
	return json.Marshal(out)
}

func (e *Expiration) UnmarshalJSON(data []byte) error {
	var in expirationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	set := 0
	*e = Expiration{}
	if in.AtHeight != nil {
		set++
		e.AtHeight = in.AtHeight
	}
	if in.AtTime != nil {
		set++
		nanos, err := strconv.ParseUint(*in.AtTime, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid at_time: %w", err)
		}
		e.AtTime = &nanos
	}
	if in.Never != nil {
		set++
	}
	if set != 1 {
		return errors.New("expiration must have exactly one of at_height, at_time, never")
	}
	return nil
}
