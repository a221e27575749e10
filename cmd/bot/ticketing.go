package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/messages"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
)

// uiActions maps every ticket button to its handler.
var uiActions = map[ticketing.UIAction]*uiHandler{
	ticketing.ActionOpen: {
		access:  requireMember,
		process: openFromPanelProcessor,
	},
	ticketing.ActionClose: {
		access:  requireModOrOwner,
		process: closeTicketProcessor,
	},
	ticketing.ActionFinishTranscript: {
		access:  requireModRole,
		process: finishTranscriptProcessor,
	},
	ticketing.ActionFinishPlain: {
		access:  requireModRole,
		process: finishPlainProcessor,
	},
}

func makeTicketProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	opts := commandOptions(i)
	ownerID := opts.getString(optUser)

	t, err := a.Tickets().Open(ctx, ticketing.OpenRequest{
		OwnerID:    ownerID,
		Label:      opts.getString(optLabel),
		GrantOwner: opts.getBool(optGrant, true),
		Origin:     entities.TicketOriginCommand,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening ticket: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgTicketOpened, t.ChannelID, ownerID)), nil
}

func openFromPanelProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	ownerID := invokerID(i)

	t, err := a.Tickets().Open(ctx, ticketing.OpenRequest{
		OwnerID:    ownerID,
		GrantOwner: true,
		Origin:     entities.TicketOriginPanel,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening ticket: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgTicketOpened, t.ChannelID, ownerID)), nil
}

func addUserProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	memberID := commandOptions(i).getString(optUser)

	if _, err := a.Tickets().AddParticipant(ctx, i.ChannelID, memberID); err != nil {
		return nil, fmt.Errorf("error adding participant: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgParticipantAdd, memberID)), nil
}

func closeTicketProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	actorID := invokerID(i)

	if _, err := a.Tickets().Close(ctx, i.ChannelID, actorID); err != nil {
		return nil, fmt.Errorf("error closing ticket: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgTicketClosed, actorID)), nil
}

func finishTranscriptProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	t, err := a.Tickets().FinishWithTranscript(ctx, i.ChannelID, invokerID(i))
	if err != nil {
		return nil, fmt.Errorf("error finishing ticket: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgTicketArchived, t.TranscriptRef)), nil
}

func finishPlainProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	if _, err := a.Tickets().FinishWithoutTranscript(ctx, i.ChannelID, invokerID(i)); err != nil {
		return nil, fmt.Errorf("error finishing ticket: %w", err)
	}
	return reply(messages.MsgTicketDeleted), nil
}

func forceDeleteProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	if _, err := a.Tickets().ForceDelete(ctx, i.ChannelID, invokerID(i)); err != nil {
		return nil, fmt.Errorf("error deleting ticket: %w", err)
	}
	return reply(messages.MsgTicketDeleted), nil
}

func saveTranscriptProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	ch, err := a.Platform().Channel(i.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("error getting channel: %w", err)
	}

	ref, err := a.Archiver().Archive(ctx, ch.ID, ch.Name)
	if err != nil {
		return nil, fmt.Errorf("error archiving channel: %w", err)
	}
	return reply(fmt.Sprintf(messages.MsgTranscriptSaved, ref)), nil
}

func ticketPanelProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error) {
	channelID := commandOptions(i).getString(optChannel)

	if _, err := postPanel(ctx, a, channelID, ticketing.ActionOpen); err != nil {
		return nil, err
	}
	return reply(fmt.Sprintf(messages.MsgPanelPosted, channelID)), nil
}

// postPanel sends the panel message for action and records where it lives.
func postPanel(ctx context.Context, a IApp, channelID string, action ticketing.UIAction) (*entities.Panel, error) {
	// Only the open action has a standing panel.
	if action != ticketing.ActionOpen {
		return nil, fmt.Errorf("no panel for action %q", action)
	}

	msg, err := a.Platform().Send(channelID, ticketing.PanelMessage())
	if err != nil {
		return nil, fmt.Errorf("error sending panel: %w", err)
	}

	panel := &entities.Panel{
		GuildID:   a.Platform().GuildID(),
		ChannelID: channelID,
		MessageID: msg.ID,
		Action:    string(action),
	}
	if err := a.Panels().SavePanel(ctx, panel); err != nil {
		return nil, fmt.Errorf("error saving panel: %w", err)
	}
	return panel, nil
}

// verifyPanels re-posts any recorded panel whose message has gone.
func (a *App) verifyPanels(ctx context.Context) {
	panels, err := a.Panels().GetPanels(ctx, a.Platform().GuildID())
	if err != nil {
		a.l.Error("Error getting panels", slog.String(logging.KeyError, err.Error()))
		return
	}

	for _, p := range panels {
		l := a.l.With(
			slog.String(logging.KeyChannelID, p.ChannelID),
			slog.String("action", p.Action),
		)

		action, ok := ticketing.ParseAction(p.Action)
		if !ok {
			l.Warn("Panel has an unknown action")
			continue
		}

		_, err := a.Platform().Message(p.ChannelID, p.MessageID)
		switch {
		case err == nil:
			l.Debug("Panel verified")
			continue
		case platform.Classify(err) != platform.KindNotFound:
			l.Warn("Error checking panel", slog.String(logging.KeyError, err.Error()))
			continue
		}

		if _, err := postPanel(ctx, a, p.ChannelID, action); err != nil {
			l.Error("Error re-posting panel", slog.String(logging.KeyError, err.Error()))
			continue
		}
		l.Info("Panel re-posted")
	}
}
