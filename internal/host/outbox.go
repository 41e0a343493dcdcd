package host

import (
	"context"

	"google.golang.org/protobuf/types/known/anypb"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goScalingd/internal/core/state"
)

// OutboxEntry is an instruction emitted by a contract, kept for relaying.
type OutboxEntry struct {
	Sequence uint64 `codec:"sequence" json:"sequence"`
	Height   uint64 `codec:"height" json:"height"`
	Contract string `codec:"contract" json:"contract"`
	TypeURL  string `codec:"type_url" json:"type_url"`
	Value    []byte `codec:"value" json:"value"`
}

// Any rebuilds the emitted message.
func (e OutboxEntry) Any() *anypb.Any {
	return &anypb.Any{TypeUrl: e.TypeURL, Value: e.Value}
}

func outboxItem(seq uint64) state.Item[OutboxEntry] {
	return state.NewItem[OutboxEntry](keylet.OutboxEntry(seq))
}

func (h *Host) appendOutbox(c *call, msgs []*anypb.Any) error {
	if len(msgs) == 0 {
		return nil
	}
	next, err := outboxSeqItem.MayLoad(c.hostTable)
	if err != nil {
		return err
	}
	seq := uint64(0)
	if next != nil {
		seq = *next
	}
	for _, msg := range msgs {
		entry := OutboxEntry{
			Sequence: seq,
			Height:   c.env.Block.Height,
			Contract: c.env.Contract.Address,
			TypeURL:  msg.GetTypeUrl(),
			Value:    msg.GetValue(),
		}
		if err := outboxItem(seq).Save(c.hostTable, entry); err != nil {
			return err
		}
		seq++
	}
	return outboxSeqItem.Save(c.hostTable, seq)
}

// Outbox lists emitted instructions with sequence >= from, oldest first, up
// to limit entries (0 means no limit).
func (h *Host) Outbox(ctx context.Context, from uint64, limit int) ([]OutboxEntry, error) {
	view := h.hostView(ctx)
	next, err := outboxSeqItem.MayLoad(view)
	if err != nil || next == nil {
		return nil, err
	}

	var out []OutboxEntry
	for seq := from; seq < *next; seq++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		entry, err := outboxItem(seq).Load(view)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
