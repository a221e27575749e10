package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/yupil/pkg/automod"
)

func guildJoinedHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Log().Info(fmt.Sprintf("Joined guild %s", g.Name))

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()
	}
}

func guildLeaveHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Log().Info(fmt.Sprintf("Left guild %s", g.ID))

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()
	}
}

// messageCreateHandler runs automod over new messages and caches the ones it lets through.
func messageCreateHandler(a IApp, mod *automod.Moderator) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil || m.Author == nil || m.Author.Bot {
			return
		}
		if mod.OnCreate(m.Message) != automod.VerdictAllow {
			return
		}
		a.Mirror().OnCreate(m.Message)
	}
}

func messageUpdateHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageUpdate) {
	return func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Message == nil {
			return
		}
		a.Mirror().OnUpdate(m.Message, m.BeforeUpdate)
	}
}

func messageDeleteHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageDelete) {
	return func(_ *discordgo.Session, m *discordgo.MessageDelete) {
		if m.Message == nil {
			return
		}
		a.Mirror().OnDelete(context.Background(), m.ChannelID, m.ID, m.BeforeDelete)
	}
}
