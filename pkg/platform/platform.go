// Package platform is the boundary between the bot and the chat platform. Everything the bot needs from
// Discord goes through Service so the ticket, visibility and mirror logic can run against a fake.
package platform

import (
	"github.com/Jacobbrewer1/discordgo"
)

const (
	// PermissionRead is what a member needs to follow a ticket channel.
	PermissionRead = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionAttachFiles |
		discordgo.PermissionEmbedLinks

	// PermissionManage is what staff and the bot hold on ticket channels.
	PermissionManage = PermissionRead |
		discordgo.PermissionManageMessages |
		discordgo.PermissionManageChannels |
		discordgo.PermissionManageRoles
)

// Service is the chat platform as seen by the bot. All calls are scoped to the configured guild.
type Service interface {
	// GuildID is the guild the service is scoped to.
	GuildID() string

	// BotUserID is the user ID of the bot itself.
	BotUserID() string

	// Member resolves a guild member by user ID.
	Member(userID string) (*discordgo.Member, error)

	// RoleByName resolves a guild role by name, case-insensitively.
	RoleByName(name string) (*discordgo.Role, error)

	// GuildChannels lists every channel in the guild.
	GuildChannels() ([]*discordgo.Channel, error)

	// Channel gets a channel by ID.
	Channel(channelID string) (*discordgo.Channel, error)

	// CreateChannel creates a guild channel.
	CreateChannel(data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// DeleteChannel deletes a channel.
	DeleteChannel(channelID string) error

	// SetOverwrite sets an explicit permission overwrite for a member or role.
	SetOverwrite(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error

	// DeleteOverwrite clears the explicit overwrite for a member or role.
	DeleteOverwrite(channelID, targetID string) error

	// CanManage reports whether the bot can see the channel and change its overwrites.
	CanManage(channelID string) (bool, error)

	// Send sends a message to a channel.
	Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// SendDM sends a direct message to a user.
	SendDM(userID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// Messages fetches up to limit messages before beforeID, newest first. An empty beforeID starts
	// from the latest message.
	Messages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error)

	// Message fetches a single message.
	Message(channelID, messageID string) (*discordgo.Message, error)

	// DeleteMessage deletes a message.
	DeleteMessage(channelID, messageID string) error
}

// IsKind reports whether the channel is one of the kinds given.
func IsKind(c *discordgo.Channel, kinds ...discordgo.ChannelType) bool {
	for _, k := range kinds {
		if c.Type == k {
			return true
		}
	}
	return false
}

// VisibilityKinds are the channel kinds a restriction applies to.
var VisibilityKinds = []discordgo.ChannelType{
	discordgo.ChannelTypeGuildText,
	discordgo.ChannelTypeGuildVoice,
	discordgo.ChannelTypeGuildForum,
}

// MessageLink builds a jump link to a message. An empty message ID links to the channel.
func MessageLink(guildID, channelID, messageID string) string {
	if messageID == "" {
		return "https://discord.com/channels/" + guildID + "/" + channelID
	}
	return "https://discord.com/channels/" + guildID + "/" + channelID + "/" + messageID
}
