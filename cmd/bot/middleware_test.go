package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/messages"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/stretchr/testify/require"
)

func TestUIActions_HandleEveryAction(t *testing.T) {
	require.Len(t, uiActions, len(ticketing.Actions))
	for _, action := range ticketing.Actions {
		h, ok := uiActions[action]
		require.True(t, ok, "no handler for %s", action)
		require.NotNil(t, h.access, action)
		require.NotNil(t, h.process, action)
	}
}

func TestCommandDefinitions(t *testing.T) {
	defs := commandDefinitions(slashCommands)
	require.Len(t, defs, len(slashCommands))

	for n, d := range defs {
		require.Same(t, slashCommands[d.Name].def, d)
		require.NotNil(t, slashCommands[d.Name].access, d.Name)
		if n > 0 {
			require.Less(t, defs[n-1].Name, d.Name)
		}
	}
}

func TestResolve(t *testing.T) {
	access, process, ok := resolve(button("ch", nil, ticketing.ActionClose), slashCommands, uiActions)
	require.True(t, ok)
	require.NotNil(t, access)
	require.NotNil(t, process)

	_, _, ok = resolve(command("ch", nil, StatsCmdName), slashCommands, uiActions)
	require.True(t, ok)

	_, _, ok = resolve(button("ch", nil, "ticket:claim"), slashCommands, uiActions)
	require.False(t, ok)

	_, _, ok = resolve(command("ch", nil, "nope"), slashCommands, uiActions)
	require.False(t, ok)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		reason string
	}{
		{
			name:   "user error",
			err:    fmt.Errorf("wrapped: %w", newUserError(messages.ErrDMFailed, "bob")),
			want:   "The DM could not be delivered to <@bob>.",
			reason: "user",
		},
		{
			name:   "missing role",
			err:    errMissingRole,
			want:   messages.ErrMissingRole,
			reason: "user",
		},
		{
			name:   "wrong state",
			err:    fmt.Errorf("error closing ticket: %w", &ticketing.TransitionError{Ticket: 3, State: entities.TicketStateClosing}),
			want:   "This ticket cannot do that right now (it is closing).",
			reason: "ticket",
		},
		{
			name:   "not a ticket",
			err:    fmt.Errorf("error closing ticket: %w", ticketing.ErrNotATicket),
			want:   messages.ErrNotATicket,
			reason: "ticket",
		},
		{
			name:   "busy",
			err:    ticketing.ErrBusy,
			want:   messages.ErrTicketBusy,
			reason: "ticket",
		},
		{
			name:   "archival failed",
			err:    fmt.Errorf("%w: disk full", ticketing.ErrArchivalFailed),
			want:   messages.ErrArchivalFailed,
			reason: "archival",
		},
		{
			name:   "category unreachable",
			err:    ticketing.ErrCategoryUnreachable,
			want:   messages.ErrHelpdeskUnreachable,
			reason: "platform",
		},
		{
			name:   "permission denied",
			err:    platform.NewError("set overwrite", platform.KindPermissionDenied, errors.New("missing access")),
			want:   messages.ErrBotPermission,
			reason: "platform",
		},
		{
			name:   "not found",
			err:    platform.NewError("get channel", platform.KindNotFound, errors.New("unknown channel")),
			want:   messages.ErrNotFound,
			reason: "platform",
		},
		{
			name:   "unsupported language",
			err:    fmt.Errorf("%w: %w", translate.ErrUnsupportedLanguage, newUserError(messages.ErrUnsupportedLanguage, "XX")),
			want:   "`XX` is not a supported language code.",
			reason: "user",
		},
		{
			name:   "anything else",
			err:    errors.New("boom"),
			want:   messages.ErrUserErrorProcessing,
			reason: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, userMessage(tt.err))
			require.Equal(t, tt.reason, errorReason(tt.err))
		})
	}
}

func TestCommandOptions(t *testing.T) {
	i := command("ch", nil, StatsCmdName,
		opt(optChannel, discordgo.ApplicationCommandOptionChannel, "ch-9"),
		opt(optLimit, discordgo.ApplicationCommandOptionInteger, float64(250)),
		opt(optGrant, discordgo.ApplicationCommandOptionBoolean, false),
	)

	opts := commandOptions(i)
	require.Equal(t, "ch-9", opts.getString(optChannel))
	require.Equal(t, 250, opts.getInt(optLimit, defaultStatsLimit))
	require.False(t, opts.getBool(optGrant, true))

	require.Empty(t, opts.getString(optUser))
	require.Equal(t, 7, opts.getInt(optUser, 7))
	require.True(t, opts.getBool(optUser, true))
}

func TestInvokerID(t *testing.T) {
	require.Equal(t, "mia", invokerID(command("ch", member("mia"), ChatCmdName)))

	dm := command("ch", nil, ChatCmdName)
	dm.User = &discordgo.User{ID: "alice"}
	require.Equal(t, "alice", invokerID(dm))

	require.Empty(t, invokerID(command("ch", nil, ChatCmdName)))
}

func TestAccessChecks(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, requireModRole(ctx, b, command("ch", member("mia", modRoleID), ChatCmdName)))
	require.ErrorIs(t, requireModRole(ctx, b, command("ch", member("alice"), ChatCmdName)), errMissingRole)
	require.Equal(t, messages.ErrNotInGuild, userMessage(requireModRole(ctx, b, command("ch", nil, ChatCmdName))))

	require.NoError(t, requireMember(ctx, b, button("ch", member("alice"), ticketing.ActionOpen)))
	require.Error(t, requireMember(ctx, b, button("ch", nil, ticketing.ActionOpen)))

	tk, err := b.Tickets().Open(ctx, ticketing.OpenRequest{
		OwnerID:    "alice",
		GrantOwner: true,
		Origin:     entities.TicketOriginPanel,
	})
	require.NoError(t, err)

	require.NoError(t, requireModOrOwner(ctx, b, button(tk.ChannelID, member("alice"), ticketing.ActionClose)))
	require.NoError(t, requireModOrOwner(ctx, b, button(tk.ChannelID, member("mia", modRoleID), ticketing.ActionClose)))
	require.ErrorIs(t, requireModOrOwner(ctx, b, button(tk.ChannelID, member("bob"), ticketing.ActionClose)), errMissingRole)
	require.ErrorIs(t, requireModOrOwner(ctx, b, button(b.staffLog.ID, member("bob"), ticketing.ActionClose)), ticketing.ErrNotATicket)
}
