package ticketing

import (
	"testing"
	"time"

	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase", in: "Alice", want: "alice"},
		{name: "spaces", in: "Bob the  Builder", want: "bob-the-builder"},
		{name: "symbols", in: "~*xX_Gamer_Xx*~", want: "xx-gamer-xx"},
		{name: "emoji only", in: "\U0001F600\U0001F600", want: "member"},
		{name: "empty", in: "", want: "member"},
		{name: "digits", in: "user 42", want: "user-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Length(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	require.Len(t, Normalize(long), maxNameLength)
}

func TestChannelName(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		origin entities.TicketOrigin
		want   string
	}{
		{name: "restriction", origin: entities.TicketOriginRestriction, want: "ticket-alice-smith"},
		{name: "command", origin: entities.TicketOriginCommand, want: "20240309-alice-smith"},
		{name: "panel", origin: entities.TicketOriginPanel, want: "20240309-alice-smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ChannelName(tt.origin, "Alice Smith", at))
		})
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]struct{}{
		"ticket-bob":   {},
		"ticket-bob-2": {},
	}
	require.Equal(t, "ticket-bob-3", uniqueName("ticket-bob", taken))
	require.Equal(t, "ticket-alice", uniqueName("ticket-alice", taken))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("ticket:finish_plain")
	require.True(t, ok)
	require.Equal(t, ActionFinishPlain, a)

	_, ok = ParseAction("open_ticket_button")
	require.False(t, ok)
}
