package main

import (
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

// deferEphemeral acknowledges the interaction so the work can carry on past the response deadline.
func deferEphemeral(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func ephemeral(params *discordgo.WebhookParams) *discordgo.WebhookParams {
	params.Flags |= discordgo.MessageFlagsEphemeral
	if params.AllowedMentions == nil {
		params.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	return params
}

func reply(content string) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{Content: content}
}

func followupText(a IApp, l *slog.Logger, i *discordgo.InteractionCreate, content string) {
	if _, err := a.Session().FollowupMessageCreate(i.Interaction, true, ephemeral(reply(content))); err != nil {
		l.Error("Error sending followup", slog.String(logging.KeyError, err.Error()))
	}
}

// invokerID is the user behind the interaction, in or out of a guild.
func invokerID(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	default:
		return ""
	}
}

func hasRole(p platform.Service, m *discordgo.Member, roleName string) (bool, error) {
	role, err := p.RoleByName(roleName)
	if err != nil {
		return false, err
	}
	for _, id := range m.Roles {
		if id == role.ID {
			return true, nil
		}
	}
	return false, nil
}

// options indexes the top level options of a slash command by name.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func commandOptions(i *discordgo.InteractionCreate) options {
	opts := make(options)
	for _, o := range i.ApplicationCommandData().Options {
		opts[o.Name] = o
	}
	return opts
}

func (o options) getString(name string) string {
	if v, ok := o[name]; ok {
		if s, ok := v.Value.(string); ok {
			return s
		}
	}
	return ""
}

func (o options) getInt(name string, def int) int {
	if v, ok := o[name]; ok {
		if f, ok := v.Value.(float64); ok {
			return int(f)
		}
	}
	return def
}

func (o options) getBool(name string, def bool) bool {
	if v, ok := o[name]; ok {
		if b, ok := v.Value.(bool); ok {
			return b
		}
	}
	return def
}
