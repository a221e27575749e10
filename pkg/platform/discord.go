package platform

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
)

// Discord is the Service backed by a discordgo session.
type Discord struct {
	// s is the discord session.
	s *discordgo.Session

	// guildID is the guild every call is scoped to.
	guildID string
}

// NewDiscord creates a new Discord service.
func NewDiscord(s *discordgo.Session, guildID string) *Discord {
	return &Discord{
		s:       s,
		guildID: guildID,
	}
}

func (d *Discord) GuildID() string {
	return d.guildID
}

func (d *Discord) BotUserID() string {
	if d.s.State == nil || d.s.State.User == nil {
		return ""
	}
	return d.s.State.User.ID
}

func (d *Discord) Member(userID string) (*discordgo.Member, error) {
	if m, err := d.s.State.Member(d.guildID, userID); err == nil {
		return m, nil
	}
	m, err := d.s.GuildMember(d.guildID, userID)
	return m, wrap("get member", err)
}

func (d *Discord) RoleByName(name string) (*discordgo.Role, error) {
	if r := d.stateRole(name); r != nil {
		return r, nil
	}

	roles, err := d.s.GuildRoles(d.guildID)
	if err != nil {
		return nil, wrap("get roles", err)
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return nil, NewError("get roles", KindNotFound, fmt.Errorf("role %q does not exist", name))
}

// stateRole looks the role up in the gateway cache. Nil when the guild or role is not cached.
func (d *Discord) stateRole(name string) *discordgo.Role {
	if d.s.State == nil {
		return nil
	}
	g, err := d.s.State.Guild(d.guildID)
	if err != nil {
		return nil
	}

	d.s.State.RLock()
	defer d.s.State.RUnlock()
	for _, r := range g.Roles {
		if strings.EqualFold(r.Name, name) {
			return r
		}
	}
	return nil
}

func (d *Discord) GuildChannels() ([]*discordgo.Channel, error) {
	channels, err := d.s.GuildChannels(d.guildID)
	return channels, wrap("get channels", err)
}

func (d *Discord) Channel(channelID string) (*discordgo.Channel, error) {
	c, err := d.s.Channel(channelID)
	return c, wrap("get channel", err)
}

func (d *Discord) CreateChannel(data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	c, err := d.s.GuildChannelCreateComplex(d.guildID, data)
	return c, wrap("create channel", err)
}

func (d *Discord) DeleteChannel(channelID string) error {
	_, err := d.s.ChannelDelete(channelID)
	return wrap("delete channel", err)
}

func (d *Discord) SetOverwrite(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	return wrap("set overwrite", d.s.ChannelPermissionSet(channelID, targetID, targetType, allow, deny))
}

func (d *Discord) DeleteOverwrite(channelID, targetID string) error {
	return wrap("delete overwrite", d.s.ChannelPermissionDelete(channelID, targetID))
}

func (d *Discord) CanManage(channelID string) (bool, error) {
	perms, err := d.s.UserChannelPermissions(d.BotUserID(), channelID)
	if err != nil {
		return false, wrap("get permissions", err)
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	const need = discordgo.PermissionViewChannel | discordgo.PermissionManageRoles
	return perms&need == need, nil
}

func (d *Discord) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	m, err := d.s.ChannelMessageSendComplex(channelID, msg)
	return m, wrap("send message", err)
}

func (d *Discord) SendDM(userID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	c, err := d.s.UserChannelCreate(userID)
	if err != nil {
		return nil, wrap("create dm channel", err)
	}
	m, err := d.s.ChannelMessageSendComplex(c.ID, msg)
	return m, wrap("send dm", err)
}

func (d *Discord) Messages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	msgs, err := d.s.ChannelMessages(channelID, limit, beforeID, "", "")
	return msgs, wrap("get messages", err)
}

func (d *Discord) Message(channelID, messageID string) (*discordgo.Message, error) {
	m, err := d.s.ChannelMessage(channelID, messageID)
	return m, wrap("get message", err)
}

func (d *Discord) DeleteMessage(channelID, messageID string) error {
	return wrap("delete message", d.s.ChannelMessageDelete(channelID, messageID))
}

var _ Service = (*Discord)(nil)
