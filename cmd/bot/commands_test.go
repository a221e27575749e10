package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/messages"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/stretchr/testify/require"
)

func TestRestrictProcessor_Bob(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	mod := member("mia", modRoleID)

	general := b.f.AddChannel("general", discordgo.ChannelTypeGuildText, "")
	memes := b.f.AddChannel("memes", discordgo.ChannelTypeGuildText, "")
	secret := b.f.AddChannel("secret", discordgo.ChannelTypeGuildText, "")
	b.f.Unmanageable(secret.ID)

	params, err := restrictProcessor(ctx, b, command(general.ID, mod, RestrictCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
		opt(optReason, discordgo.ApplicationCommandOptionString, "spam"),
	))
	require.NoError(t, err)
	require.Contains(t, params.Content, "Restricted <@bob>: 2 channel(s) hidden, 1 skipped.")
	require.Contains(t, params.Content, "<#"+secret.ID+">")

	require.False(t, b.f.CanRead("bob", general.ID))
	require.False(t, b.f.CanRead("bob", memes.ID))

	tickets, err := b.svc.Tickets.Get(ctx, ticketChannel(t, b, "ticket-bob"))
	require.NoError(t, err)
	require.Equal(t, entities.TicketOriginRestriction, tickets.Origin)
	require.True(t, b.f.CanRead("bob", tickets.ChannelID))
	require.Contains(t, params.Content, "<#"+tickets.ChannelID+">")

	audits := b.f.SentTo(b.staffLog.ID)
	require.Len(t, audits, 1)
	require.Equal(t, "Member restricted", audits[0].Message.Embeds[0].Title)

	params, err = unrestrictProcessor(ctx, b, command(general.ID, mod, UnrestrictCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
	))
	require.NoError(t, err)
	require.Equal(t, "Unrestricted <@bob>: 2 channel(s) revealed, 0 skipped.", params.Content)
	require.True(t, b.f.CanRead("bob", general.ID))
	require.True(t, b.f.CanRead("bob", memes.ID))
}

func TestRestrictProcessor_Twice(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	mod := member("mia", modRoleID)
	general := b.f.AddChannel("general", discordgo.ChannelTypeGuildText, "")

	restrict := command(general.ID, mod, RestrictCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
	)
	_, err := restrictProcessor(ctx, b, restrict)
	require.NoError(t, err)

	_, err = restrictProcessor(ctx, b, restrict)
	require.Error(t, err)
	require.Equal(t, messages.ErrAlreadyRestricted, userMessage(err))
	require.Equal(t, "user", errorReason(err))

	channels, err := b.f.GuildChannels()
	require.NoError(t, err)
	tickets := 0
	for _, ch := range channels {
		if strings.HasPrefix(ch.Name, "ticket-bob") {
			tickets++
		}
	}
	require.Equal(t, 1, tickets)
	require.Len(t, b.f.SentTo(b.staffLog.ID), 1)

	_, err = unrestrictProcessor(ctx, b, command(general.ID, mod, UnrestrictCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
	))
	require.NoError(t, err)
	require.True(t, b.f.CanRead("bob", general.ID))
	require.Nil(t, b.f.Overwrite(general.ID, "bob"))
}

func TestUnrestrictProcessor_NoRecord(t *testing.T) {
	b := newTestBot(t)
	general := b.f.AddChannel("general", discordgo.ChannelTypeGuildText, "")

	params, err := unrestrictProcessor(context.Background(), b, command(general.ID, member("mia", modRoleID), UnrestrictCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
	))
	require.NoError(t, err)
	require.Contains(t, params.Content, messages.MsgUnrestrictNoLog)
}

func TestRestrictProcessor_UnknownMember(t *testing.T) {
	b := newTestBot(t)

	_, err := restrictProcessor(context.Background(), b, command("ch", member("mia", modRoleID), RestrictCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "ghost"),
	))
	require.Error(t, err)
	require.Equal(t, messages.ErrMemberNotFound, userMessage(err))
}

func ticketChannel(t *testing.T, b *testBot, name string) string {
	t.Helper()
	channels, err := b.f.GuildChannels()
	require.NoError(t, err)
	for _, ch := range channels {
		if ch.Name == name {
			return ch.ID
		}
	}
	t.Fatalf("no channel named %s", name)
	return ""
}

func TestTranslateProcessor_UnsupportedLanguage(t *testing.T) {
	b := newTestBot(t)

	_, err := translateProcessor(context.Background(), b, command("ch", member("mia", modRoleID), TranslateCmdName,
		opt(optText, discordgo.ApplicationCommandOptionString, "Hola"),
		opt(optLanguage, discordgo.ApplicationCommandOptionString, "XX"),
	))
	require.ErrorIs(t, err, translate.ErrUnsupportedLanguage)
	require.Equal(t, "`XX` is not a supported language code.", userMessage(err))
}

func TestTranslateProcessor_ServiceDown(t *testing.T) {
	b := newTestBot(t)

	_, err := translateProcessor(context.Background(), b, command("ch", member("mia", modRoleID), TranslateCmdName,
		opt(optText, discordgo.ApplicationCommandOptionString, "Hola"),
		opt(optLanguage, discordgo.ApplicationCommandOptionString, "EN-GB"),
	))
	require.Error(t, err)
	require.Equal(t, messages.ErrTranslateFailed, userMessage(err))
}

func TestTicketProcessors_Lifecycle(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	mod := member("mia", modRoleID)

	params, err := makeTicketProcessor(ctx, b, command("ch", mod, MakeTicketCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "alice"),
		opt(optLabel, discordgo.ApplicationCommandOptionString, "appeal"),
	))
	require.NoError(t, err)

	tk, err := b.svc.Tickets.Get(ctx, ticketChannel(t, b, time.Now().UTC().Format("20060102")+"-alice"))
	require.NoError(t, err)
	require.Equal(t, "Ticket <#"+tk.ChannelID+"> opened for <@alice>.", params.Content)
	require.True(t, b.f.CanRead("alice", tk.ChannelID))

	params, err = addUserProcessor(ctx, b, command(tk.ChannelID, mod, AddUserCmdName,
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
	))
	require.NoError(t, err)
	require.Equal(t, "Added <@bob> to this ticket.", params.Content)
	require.True(t, b.f.CanRead("bob", tk.ChannelID))

	b.f.Post(tk.ChannelID, "alice", "I would like to appeal", time.Now())

	_, err = closeTicketProcessor(ctx, b, button(tk.ChannelID, member("alice"), ticketing.ActionClose))
	require.NoError(t, err)
	require.False(t, b.f.CanRead("alice", tk.ChannelID))
	require.False(t, b.f.CanRead("bob", tk.ChannelID))
	require.True(t, b.f.CanRead("mia", tk.ChannelID))

	// Closing twice is refused with the current state.
	_, err = closeTicketProcessor(ctx, b, button(tk.ChannelID, member("alice"), ticketing.ActionClose))
	require.Equal(t, "This ticket cannot do that right now (it is closing).", userMessage(err))

	params, err = finishTranscriptProcessor(ctx, b, button(tk.ChannelID, mod, ticketing.ActionFinishTranscript))
	require.NoError(t, err)
	require.False(t, b.f.HasChannel(tk.ChannelID))

	tk, err = b.svc.Tickets.Get(ctx, tk.ChannelID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, tk.State)
	require.Equal(t, "Ticket archived as `"+tk.TranscriptRef+"`.", params.Content)

	_, err = os.Stat(filepath.Join(b.cfg.TranscriptDir, tk.TranscriptRef))
	require.NoError(t, err)
	require.Len(t, b.f.SentTo(b.transcript.ID), 1)
}

func TestTicketProcessors_PanelAndPlainFinish(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	mod := member("mia", modRoleID)

	params, err := openFromPanelProcessor(ctx, b, button("panel", member("alice"), ticketing.ActionOpen))
	require.NoError(t, err)
	require.Contains(t, params.Content, "opened for <@alice>")

	channelID := ticketChannel(t, b, time.Now().UTC().Format("20060102")+"-alice")
	tk, err := b.svc.Tickets.Get(ctx, channelID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketOriginPanel, tk.Origin)

	// Finishing is only possible once closed.
	_, err = finishPlainProcessor(ctx, b, button(channelID, mod, ticketing.ActionFinishPlain))
	require.ErrorIs(t, err, ticketing.ErrInvalidTransition)
	require.True(t, b.f.HasChannel(channelID))

	_, err = closeTicketProcessor(ctx, b, command(channelID, mod, CloseTicketCmdName))
	require.NoError(t, err)

	params, err = finishPlainProcessor(ctx, b, button(channelID, mod, ticketing.ActionFinishPlain))
	require.NoError(t, err)
	require.Equal(t, messages.MsgTicketDeleted, params.Content)
	require.False(t, b.f.HasChannel(channelID))
	require.Empty(t, b.f.SentTo(b.transcript.ID))
}

func TestForceDeleteProcessor(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	tk, err := b.Tickets().Open(ctx, ticketing.OpenRequest{OwnerID: "alice", GrantOwner: true, Origin: entities.TicketOriginCommand})
	require.NoError(t, err)

	params, err := forceDeleteProcessor(ctx, b, command(tk.ChannelID, member("mia", modRoleID), ForceDeleteTicketCmdName))
	require.NoError(t, err)
	require.Equal(t, messages.MsgTicketDeleted, params.Content)
	require.False(t, b.f.HasChannel(tk.ChannelID))

	_, err = forceDeleteProcessor(ctx, b, command(tk.ChannelID, member("mia", modRoleID), ForceDeleteTicketCmdName))
	require.ErrorIs(t, err, ticketing.ErrInvalidTransition)
}

func TestSaveTranscriptProcessor(t *testing.T) {
	b := newTestBot(t)
	general := b.f.AddChannel("general", discordgo.ChannelTypeGuildText, "")
	b.f.Post(general.ID, "alice", "hello", time.Now())

	params, err := saveTranscriptProcessor(context.Background(), b, command(general.ID, member("mia", modRoleID), SaveTranscriptCmdName))
	require.NoError(t, err)
	require.Equal(t, "Transcript saved as `general.html`.", params.Content)
	require.True(t, b.f.HasChannel(general.ID))

	params, err = saveTranscriptProcessor(context.Background(), b, command(general.ID, member("mia", modRoleID), SaveTranscriptCmdName))
	require.NoError(t, err)
	require.Equal(t, "Transcript saved as `general-1.html`.", params.Content)
}

func TestTicketPanel_RepostedWhenMissing(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	lobby := b.f.AddChannel("lobby", discordgo.ChannelTypeGuildText, "")

	params, err := ticketPanelProcessor(ctx, b, command(lobby.ID, member("mia", modRoleID), TicketPanelCmdName,
		opt(optChannel, discordgo.ApplicationCommandOptionChannel, lobby.ID),
	))
	require.NoError(t, err)
	require.Equal(t, "Ticket panel posted in <#"+lobby.ID+">.", params.Content)

	panels, err := b.Panels().GetPanels(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, panels, 1)
	first := panels[0].MessageID

	// Still there, nothing to do.
	b.verifyPanels(ctx)
	require.Len(t, b.f.SentTo(lobby.ID), 1)

	require.NoError(t, b.f.DeleteMessage(lobby.ID, first))
	b.verifyPanels(ctx)
	require.Len(t, b.f.SentTo(lobby.ID), 2)

	panels, err = b.Panels().GetPanels(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, panels, 1)
	require.NotEqual(t, first, panels[0].MessageID)
	_, err = b.f.Message(lobby.ID, panels[0].MessageID)
	require.NoError(t, err)
}

func TestChatAndDmProcessors(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	mod := member("mia", modRoleID)
	general := b.f.AddChannel("general", discordgo.ChannelTypeGuildText, "")

	params, err := chatProcessor(ctx, b, command("ch", mod, ChatCmdName,
		opt(optMessage, discordgo.ApplicationCommandOptionString, "hello all"),
		opt(optChannel, discordgo.ApplicationCommandOptionChannel, general.ID),
	))
	require.NoError(t, err)
	require.Equal(t, "Message sent to <#"+general.ID+">.", params.Content)
	require.Equal(t, "hello all", b.f.SentTo(general.ID)[0].Message.Content)

	params, err = dmProcessor(ctx, b, command("ch", mod, DmCmdName,
		opt(optMessage, discordgo.ApplicationCommandOptionString, "please read the rules"),
		opt(optUser, discordgo.ApplicationCommandOptionUser, "bob"),
	))
	require.NoError(t, err)
	require.Equal(t, "DM sent to <@bob>: please read the rules", params.Content)
	require.Len(t, b.f.DMsTo("bob"), 1)
	require.Equal(t, "Direct message sent", b.f.SentTo(b.staffLog.ID)[0].Message.Embeds[0].Title)

	b.f.Fail("dm", "alice", platform.KindTransient)
	_, err = dmProcessor(ctx, b, command("ch", mod, DmCmdName,
		opt(optMessage, discordgo.ApplicationCommandOptionString, "hi"),
		opt(optUser, discordgo.ApplicationCommandOptionUser, "alice"),
	))
	require.Equal(t, "The DM could not be delivered to <@alice>.", userMessage(err))
}

func TestStatsProcessor(t *testing.T) {
	b := newTestBot(t)
	general := b.f.AddChannel("general", discordgo.ChannelTypeGuildText, "")
	now := time.Now()
	b.f.Post(general.ID, "alice", "pizza pizza tonight", now)
	b.f.Post(general.ID, "bob", "pizza again", now.Add(time.Second))

	params, err := statsProcessor(context.Background(), b, command(general.ID, member("mia", modRoleID), StatsCmdName))
	require.NoError(t, err)
	require.Len(t, params.Embeds, 1)
	require.Contains(t, params.Embeds[0].Description, "last 2 message(s)")
	require.Contains(t, params.Embeds[0].Fields[0].Value, "pizza 3")
	require.Len(t, params.Files, 1)
	require.Equal(t, "stats.png", params.Files[0].Name)

	empty := b.f.AddChannel("empty", discordgo.ChannelTypeGuildText, "")
	params, err = statsProcessor(context.Background(), b, command("ch", member("mia", modRoleID), StatsCmdName,
		opt(optChannel, discordgo.ApplicationCommandOptionChannel, empty.ID),
	))
	require.NoError(t, err)
	require.Equal(t, "No messages to report on in <#"+empty.ID+">.", params.Content)
}
