package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/cmd/bot/config"
	"github.com/Jacobbrewer1/yupil/pkg/automod"
	"github.com/Jacobbrewer1/yupil/pkg/mirror"
	"github.com/Jacobbrewer1/yupil/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/transcript"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/Jacobbrewer1/yupil/pkg/visibility"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const modRoleID = "role-mod"

// testBot is an App over a fake guild. It has no discord session.
type testBot struct {
	*App
	f          *platformtest.Fake
	helpdesk   *discordgo.Channel
	staffLog   *discordgo.Channel
	transcript *discordgo.Channel
	shutdownBy string
}

func (b *testBot) Shutdown(actorID string) {
	b.shutdownBy = actorID
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	f := platformtest.New("guild", "bot")
	f.AddRole(modRoleID, "Moderator")
	f.AddMember("mia", "Mia", modRoleID)
	f.AddMember("alice", "Alice")
	f.AddMember("bob", "Bob")

	helpdesk := f.AddChannel("helpdesk", discordgo.ChannelTypeGuildCategory, "")
	staffLog := f.AddChannel("staff-log", discordgo.ChannelTypeGuildText, helpdesk.ID)
	transcripts := f.AddChannel("transcripts", discordgo.ChannelTypeGuildText, helpdesk.ID)

	cfg := &config.Config{
		GuildId:             "guild",
		ModRoleName:         "moderator",
		StaffLogChannelId:   staffLog.ID,
		TranscriptChannelId: transcripts.ID,
		HelpdeskCategoryId:  helpdesk.ID,
		MessageCacheSize:    100,
		TranscriptDir:       t.TempDir(),
		TranscriptZone:      time.UTC,
	}

	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	stores := NewStores(l, nil)

	store, err := transcript.NewStore(cfg.TranscriptDir)
	require.NoError(t, err)
	archiver := transcript.NewArchiver(l, f, transcript.NewRenderer(f, cfg.TranscriptZone), store, cfg.TranscriptChannelId)

	cache, err := mirror.NewCache(cfg.MessageCacheSize)
	require.NoError(t, err)
	mir := mirror.NewMirror(l, f, cache, mirror.NewFetcher(nil), cfg.StaffLogChannelId)

	mod, err := automod.NewModerator(l, f, automod.DefaultConfig(), mir, cfg.ModRoleName, "")
	require.NoError(t, err)

	ctrl := visibility.NewController(l, f, rate.NewLimiter(rate.Inf, 1))
	svc := &Services{
		Platform:     f,
		Tickets:      NewTickets(l, f, stores, archiver, cfg),
		Restrictions: visibility.NewRestrictions(ctrl, stores.Restrictions, cfg.HelpdeskCategoryId),
		Archiver:     archiver,
		Mirror:       mir,
		Automod:      mod,
		Translator:   translate.NewClient("http://127.0.0.1:0", "key"),
		Panels:       stores.Panels,
	}

	return &testBot{
		App:        &App{l: l, cfg: cfg, svc: svc},
		f:          f,
		helpdesk:   helpdesk,
		staffLog:   staffLog,
		transcript: transcripts,
	}
}

func member(id string, roles ...string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id}, Roles: roles}
}

func command(channelID string, m *discordgo.Member, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild",
		ChannelID: channelID,
		Member:    m,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: opts,
		},
	}}
}

func button(channelID string, m *discordgo.Member, action ticketing.UIAction) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "guild",
		ChannelID: channelID,
		Member:    m,
		Data: discordgo.MessageComponentInteractionData{
			CustomID: string(action),
		},
	}}
}

func opt(name string, typ discordgo.ApplicationCommandOptionType, value any) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Value: value}
}
