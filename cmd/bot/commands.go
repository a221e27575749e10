package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/messages"
	"github.com/Jacobbrewer1/yupil/pkg/mirror"
	"github.com/Jacobbrewer1/yupil/pkg/stats"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/Jacobbrewer1/yupil/pkg/visibility"
)

const (
	ChatCmdName              = "chat"
	DmCmdName                = "dm"
	TranslateCmdName         = "translate"
	RestrictCmdName          = "restrict"
	UnrestrictCmdName        = "unrestrict"
	MakeTicketCmdName        = "make_ticket"
	AddUserCmdName           = "add_user"
	CloseTicketCmdName       = "close_ticket"
	SaveTranscriptCmdName    = "save_transcript"
	ForceDeleteTicketCmdName = "force_delete_ticket"
	TicketPanelCmdName       = "ticket_panel"
	StatsCmdName             = "stats"
	ShutdownCmdName          = "shutdown"
)

const (
	optMessage  = "message"
	optChannel  = "channel"
	optUser     = "user"
	optText     = "text"
	optLanguage = "language"
	optReason   = "reason"
	optLabel    = "label"
	optGrant    = "grant_access"
	optLimit    = "limit"
)

const (
	// defaultStatsLimit is how many messages a stats scan reads when no limit is given.
	defaultStatsLimit = 1000

	// maxStatsLimit caps a stats scan.
	maxStatsLimit = 10000

	// statsTop is how many entries each stats list shows.
	statsTop = 10

	// maxSkippedListed is how many skipped channels a restrict reply names.
	maxSkippedListed = 10
)

// Embed colours.
const (
	colourInfo    = 0x5865f2
	colourWarning = 0xfaa61a
	colourDanger  = 0xed4245
)

var textChannels = []discordgo.ChannelType{discordgo.ChannelTypeGuildText}

// slashCommands is every command the bot registers.
var slashCommands = map[string]*slashCommand{
	ChatCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        ChatCmdName,
			Description: "Send a message to a channel as the bot.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optMessage, Type: discordgo.ApplicationCommandOptionString, Description: "The message to send.", Required: true},
				{Name: optChannel, Type: discordgo.ApplicationCommandOptionChannel, Description: "The channel to send it to.", Required: true, ChannelTypes: textChannels},
			},
		},
		access:  requireModRole,
		process: chatProcessor,
	},
	DmCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        DmCmdName,
			Description: "Send a direct message to a member as the bot.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optMessage, Type: discordgo.ApplicationCommandOptionString, Description: "The message to send.", Required: true},
				{Name: optUser, Type: discordgo.ApplicationCommandOptionUser, Description: "The member to message.", Required: true},
			},
		},
		access:  requireModRole,
		process: dmProcessor,
	},
	TranslateCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        TranslateCmdName,
			Description: "Translate text into another language.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optText, Type: discordgo.ApplicationCommandOptionString, Description: "The text to translate.", Required: true},
				{Name: optLanguage, Type: discordgo.ApplicationCommandOptionString, Description: "Target language code, e.g. EN-GB, FR, JA.", Required: true},
			},
		},
		access:  requireModRole,
		process: translateProcessor,
	},
	RestrictCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        RestrictCmdName,
			Description: "Hide every channel from a member and open a ticket with them.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optUser, Type: discordgo.ApplicationCommandOptionUser, Description: "The member to restrict.", Required: true},
				{Name: optReason, Type: discordgo.ApplicationCommandOptionString, Description: "Why the member is being restricted."},
			},
		},
		access:  requireModRole,
		process: restrictProcessor,
	},
	UnrestrictCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        UnrestrictCmdName,
			Description: "Give a restricted member their channels back.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optUser, Type: discordgo.ApplicationCommandOptionUser, Description: "The member to unrestrict.", Required: true},
			},
		},
		access:  requireModRole,
		process: unrestrictProcessor,
	},
	MakeTicketCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        MakeTicketCmdName,
			Description: "Open a ticket for a member.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optUser, Type: discordgo.ApplicationCommandOptionUser, Description: "The member the ticket is for.", Required: true},
				{Name: optLabel, Type: discordgo.ApplicationCommandOptionString, Description: "What the ticket is about."},
				{Name: optGrant, Type: discordgo.ApplicationCommandOptionBoolean, Description: "Let the member see the ticket. Defaults to true."},
			},
		},
		access:  requireModRole,
		process: makeTicketProcessor,
	},
	AddUserCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        AddUserCmdName,
			Description: "Add a member to this ticket.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optUser, Type: discordgo.ApplicationCommandOptionUser, Description: "The member to add.", Required: true},
			},
		},
		access:  requireModRole,
		process: addUserProcessor,
	},
	CloseTicketCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        CloseTicketCmdName,
			Description: "Close this ticket. The member loses access and staff can finish it.",
		},
		access:  requireModOrOwner,
		process: closeTicketProcessor,
	},
	SaveTranscriptCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        SaveTranscriptCmdName,
			Description: "Save a transcript of this channel without closing anything.",
		},
		access:  requireModRole,
		process: saveTranscriptProcessor,
	},
	ForceDeleteTicketCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        ForceDeleteTicketCmdName,
			Description: "Delete this ticket straight away without a transcript.",
		},
		access:  requireModRole,
		process: forceDeleteProcessor,
	},
	TicketPanelCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        TicketPanelCmdName,
			Description: "Post the self-service ticket panel.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optChannel, Type: discordgo.ApplicationCommandOptionChannel, Description: "Where to post the panel.", Required: true, ChannelTypes: textChannels},
			},
		},
		access:  requireModRole,
		process: ticketPanelProcessor,
	},
	StatsCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        StatsCmdName,
			Description: "Report the most used words, emoji and reactions in a channel.",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: optChannel, Type: discordgo.ApplicationCommandOptionChannel, Description: "The channel to scan. Defaults to this one.", ChannelTypes: textChannels},
				{Name: optLimit, Type: discordgo.ApplicationCommandOptionInteger, Description: "How many messages to read.", MinValue: ptr(1.0), MaxValue: maxStatsLimit},
			},
		},
		access:  requireModRole,
		process: statsProcessor,
	},
	ShutdownCmdName: {
		def: &discordgo.ApplicationCommand{
			Name:        ShutdownCmdName,
			Description: "Stop the bot.",
		},
		access:  requireModRole,
		process: shutdownProcessor,
	},
}

func ptr[T any](v T) *T {
	return &v
}

// commandDefinitions lists the command definitions sorted by name.
func commandDefinitions(cmds map[string]*slashCommand) []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, c := range cmds {
		defs = append(defs, c.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func chatProcessor(_ context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	opts := commandOptions(i)
	channelID := opts.getString(optChannel)

	if _, err := a.Platform().Send(channelID, &discordgo.MessageSend{
		Content:         opts.getString(optMessage),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}); err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgChatSent, channelID)), nil
}

func dmProcessor(_ context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	opts := commandOptions(i)
	userID := opts.getString(optUser)
	content := opts.getString(optMessage)

	if _, err := a.Platform().SendDM(userID, &discordgo.MessageSend{Content: content}); err != nil {
		a.Log().Warn("Error sending DM",
			slog.String(logging.KeyUserID, userID),
			slog.String(logging.KeyError, err.Error()),
		)
		return nil, newUserError(messages.ErrDMFailed, userID)
	}

	a.Mirror().Audit(&discordgo.MessageEmbed{
		Title: "Direct message sent",
		Color: colourInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "To", Value: fmt.Sprintf("<@%s>", userID), Inline: true},
			{Name: "By", Value: fmt.Sprintf("<@%s>", invokerID(i)), Inline: true},
			{Name: "Content", Value: mirror.Truncate(content, mirror.MaxContentLength)},
		},
	})
	return reply(fmt.Sprintf(messages.MsgDMSent, userID, content)), nil
}

func translateProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	opts := commandOptions(i)
	language := opts.getString(optLanguage)

	res, err := a.Translator().Translate(ctx, opts.getString(optText), language)
	switch {
	case errors.Is(err, translate.ErrUnsupportedLanguage):
		return nil, fmt.Errorf("%w: %w", err, newUserError(messages.ErrUnsupportedLanguage, language))
	case err != nil:
		a.Log().Error("Error translating text", slog.String(logging.KeyError, err.Error()))
		return nil, newUserError(messages.ErrTranslateFailed)
	}
	return reply(fmt.Sprintf(messages.MsgTranslation, res.Source, res.Target, res.Text)), nil
}

func restrictProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	opts := commandOptions(i)
	memberID := opts.getString(optUser)
	reason := opts.getString(optReason)
	actorID := invokerID(i)

	if _, err := a.Platform().Member(memberID); err != nil {
		return nil, fmt.Errorf("%w: %w", err, newUserError(messages.ErrMemberNotFound))
	}

	restriction, res, err := a.Restrictions().Restrict(ctx, memberID, actorID, reason)
	if err != nil {
		return nil, fmt.Errorf("error restricting member: %w", err)
	}

	ticketRef := "none"
	t, err := a.Tickets().Open(ctx, ticketing.OpenRequest{
		OwnerID:    memberID,
		Label:      reason,
		GrantOwner: true,
		Origin:     entities.TicketOriginRestriction,
	})
	if err != nil {
		a.Log().Error("Error opening restriction ticket",
			slog.String(logging.KeyUserID, memberID),
			slog.String(logging.KeyError, err.Error()),
		)
		ticketRef = userMessage(err)
	} else {
		ticketRef = fmt.Sprintf("<#%s>", t.ChannelID)
		if err := a.Restrictions().LinkTicket(ctx, restriction, t.ChannelID); err != nil {
			a.Log().Warn("Error linking ticket to restriction", slog.String(logging.KeyError, err.Error()))
		}
	}

	a.Mirror().Audit(&discordgo.MessageEmbed{
		Title: "Member restricted",
		Color: colourDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", memberID), Inline: true},
			{Name: "By", Value: fmt.Sprintf("<@%s>", actorID), Inline: true},
			{Name: "Hidden", Value: fmt.Sprintf("%d", len(res.Applied)), Inline: true},
			{Name: "Skipped", Value: fmt.Sprintf("%d", len(res.Skipped)), Inline: true},
			{Name: "Reason", Value: orNone(reason)},
			{Name: "Ticket", Value: ticketRef},
		},
	})

	content := fmt.Sprintf(messages.MsgRestricted, memberID, len(res.Applied), len(res.Skipped), ticketRef)
	return reply(content + skippedSummary(res)), nil
}

func unrestrictProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	memberID := commandOptions(i).getString(optUser)

	res, recorded, err := a.Restrictions().Unrestrict(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("error unrestricting member: %w", err)
	}

	a.Mirror().Audit(&discordgo.MessageEmbed{
		Title: "Member unrestricted",
		Color: colourInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", memberID), Inline: true},
			{Name: "By", Value: fmt.Sprintf("<@%s>", invokerID(i)), Inline: true},
			{Name: "Revealed", Value: fmt.Sprintf("%d", len(res.Applied)), Inline: true},
			{Name: "Skipped", Value: fmt.Sprintf("%d", len(res.Skipped)), Inline: true},
		},
	})

	content := fmt.Sprintf(messages.MsgUnrestricted, memberID, len(res.Applied), len(res.Skipped))
	if !recorded {
		content += "\n" + messages.MsgUnrestrictNoLog
	}
	return reply(content + skippedSummary(res)), nil
}

// skippedSummary names the channels a batch left alone and why.
func skippedSummary(res *visibility.Result) string {
	if len(res.Skipped) == 0 {
		return ""
	}

	sb := new(strings.Builder)
	sb.WriteString("\nSkipped:")
	for n, s := range res.Skipped {
		if n == maxSkippedListed {
			fmt.Fprintf(sb, "\n… and %d more", len(res.Skipped)-n)
			break
		}
		fmt.Fprintf(sb, "\n- <#%s>: %s", s.ChannelID, s.Reason)
	}
	return sb.String()
}

func statsProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	opts := commandOptions(i)
	channelID := opts.getString(optChannel)
	if channelID == "" {
		channelID = i.ChannelID
	}
	limit := opts.getInt(optLimit, defaultStatsLimit)
	if limit > maxStatsLimit {
		limit = maxStatsLimit
	}

	tally, err := stats.Scan(ctx, a.Platform(), channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("error scanning channel: %w", err)
	}

	report := tally.Report(statsTop)
	if report.Messages == 0 {
		return reply(fmt.Sprintf(messages.MsgStatsEmpty, channelID)), nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Channel stats",
		Description: fmt.Sprintf("<#%s>, last %d message(s).", channelID, report.Messages),
		Color:       colourInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Words", Value: countList(report.Words, "%s"), Inline: true},
			{Name: "Emoji", Value: countList(report.Emoji, "%s"), Inline: true},
			{Name: "Reactions", Value: countList(report.Reactions, "%s"), Inline: true},
			{Name: "Authors", Value: countList(report.Authors, "<@%s>")},
		},
	}

	params := &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
	if len(report.Words) > 0 {
		buf := new(bytes.Buffer)
		if err := stats.Chart(buf, "Top words", report.Words); err != nil {
			a.Log().Warn("Error drawing stats chart", slog.String(logging.KeyError, err.Error()))
		} else {
			embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://stats.png"}
			params.Files = []*discordgo.File{{Name: "stats.png", ContentType: "image/png", Reader: buf}}
		}
	}
	return params, nil
}

func countList(counts []stats.Count, keyFormat string) string {
	if len(counts) == 0 {
		return "none"
	}
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf(keyFormat+" %d", c.Key, c.Count))
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func shutdownProcessor(_ context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	actorID := invokerID(i)
	msg := fmt.Sprintf(messages.MsgShutdown, actorID)

	a.Mirror().Audit(&discordgo.MessageEmbed{
		Title:       "Shutting down",
		Description: msg,
		Color:       colourWarning,
	})

	// The reply has to go out before the session closes.
	if _, err := a.Session().FollowupMessageCreate(i.Interaction, true, ephemeral(reply(msg))); err != nil {
		a.Log().Warn("Error sending followup", slog.String(logging.KeyError, err.Error()))
	}
	a.Shutdown(actorID)
	return nil, nil
}
