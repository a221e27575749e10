package stats

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

const pageSize = 100

// Scan tallies up to limit of the channel's most recent messages.
func Scan(ctx context.Context, p platform.Service, channelID string, limit int) (*Tally, error) {
	t := NewTally()
	before := ""
	for seen := 0; seen < limit; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := pageSize
		if limit-seen < n {
			n = limit - seen
		}
		msgs, err := p.Messages(channelID, n, before)
		if err != nil {
			return nil, fmt.Errorf("error fetching messages: %w", err)
		}
		for _, m := range msgs {
			t.Add(m)
		}
		seen += len(msgs)
		if len(msgs) < n {
			break
		}
		before = msgs[len(msgs)-1].ID
	}
	return t, nil
}
