// Package platformtest provides an in-memory platform.Service for tests.
package platformtest

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

// Sent is a message sent through the fake.
type Sent struct {
	// ChannelID is the channel (or user for DMs) the message went to.
	ChannelID string

	// Message is the message that was sent.
	Message *discordgo.MessageSend

	// Files maps file names to their contents.
	Files map[string][]byte
}

// Fake is an in-memory guild. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	guildID string
	botID   string
	nextID  int

	channels     map[string]*discordgo.Channel
	members      map[string]*discordgo.Member
	roles        []*discordgo.Role
	unmanageable map[string]bool
	history      map[string][]*discordgo.Message
	failures     map[string]error
	calls        map[string]int

	sent            []Sent
	dms             []Sent
	deletedChannels []string
	deletedMessages []string
}

// New creates a fake guild with a bot user.
func New(guildID, botID string) *Fake {
	f := &Fake{
		guildID:      guildID,
		botID:        botID,
		channels:     make(map[string]*discordgo.Channel),
		members:      make(map[string]*discordgo.Member),
		unmanageable: make(map[string]bool),
		history:      make(map[string][]*discordgo.Message),
		failures:     make(map[string]error),
		calls:        make(map[string]int),
	}
	f.members[botID] = &discordgo.Member{User: &discordgo.User{ID: botID, Username: "bot", Bot: true}}
	return f
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// AddChannel registers a channel and returns it.
func (f *Fake) AddChannel(name string, kind discordgo.ChannelType, parentID string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := &discordgo.Channel{
		ID:       f.id("ch"),
		GuildID:  f.guildID,
		Name:     name,
		Type:     kind,
		ParentID: parentID,
	}
	f.channels[c.ID] = c
	return c
}

// AddMember registers a member with roles.
func (f *Fake) AddMember(id, name string, roles ...string) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := &discordgo.Member{
		GuildID: f.guildID,
		User:    &discordgo.User{ID: id, Username: name},
		Roles:   roles,
	}
	f.members[id] = m
	return m
}

// AddRole registers a role.
func (f *Fake) AddRole(id, name string) *discordgo.Role {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := &discordgo.Role{ID: id, Name: name}
	f.roles = append(f.roles, r)
	return r
}

// Unmanageable marks a channel the bot cannot see or modify.
func (f *Fake) Unmanageable(channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unmanageable[channelID] = true
}

// Fail makes the operation on the ID fail with a classified error. Ops are "create", "delete",
// "overwrite", "send", "dm" and "messages".
func (f *Fake) Fail(op, id string, kind platform.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op+":"+id] = platform.NewError(op, kind, errors.New("injected failure"))
}

// Heal removes an injected failure.
func (f *Fake) Heal(op, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, op+":"+id)
}

func (f *Fake) failure(op, id string) error {
	return f.failures[op+":"+id]
}

// Post adds a message to a channel's history as if a member had sent it.
func (f *Fake) Post(channelID, authorID, content string, at time.Time) *discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	author := &discordgo.User{ID: authorID, Username: authorID}
	if m, ok := f.members[authorID]; ok {
		author = m.User
	}

	msg := &discordgo.Message{
		ID:        f.id("msg"),
		ChannelID: channelID,
		GuildID:   f.guildID,
		Author:    author,
		Content:   content,
		Timestamp: at,
	}
	f.history[channelID] = append(f.history[channelID], msg)
	return msg
}

// HasChannel reports whether the channel exists.
func (f *Fake) HasChannel(channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelID]
	return ok
}

// Overwrite returns the explicit overwrite for the target, if any.
func (f *Fake) Overwrite(channelID, targetID string) *discordgo.PermissionOverwrite {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.channels[channelID]
	if !ok {
		return nil
	}
	for _, o := range c.PermissionOverwrites {
		if o.ID == targetID {
			cp := *o
			return &cp
		}
	}
	return nil
}

// Readers returns the sorted IDs of every member or role explicitly allowed to view the channel.
func (f *Fake) Readers(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	readers := make([]string, 0)
	c, ok := f.channels[channelID]
	if !ok {
		return readers
	}
	for _, o := range c.PermissionOverwrites {
		if o.Allow&discordgo.PermissionViewChannel != 0 {
			readers = append(readers, o.ID)
		}
	}
	sort.Strings(readers)
	return readers
}

// CanRead resolves whether a member can view a channel from @everyone, role and member overwrites.
func (f *Fake) CanRead(userID, channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.channels[channelID]
	if !ok {
		return false
	}
	if userID == f.botID {
		return !f.unmanageable[channelID]
	}

	var roles []string
	if m, ok := f.members[userID]; ok {
		roles = m.Roles
	}

	visible := true
	for _, o := range c.PermissionOverwrites {
		if o.ID == f.guildID {
			visible = applyView(visible, o)
		}
	}

	roleAllow, roleDeny := false, false
	for _, o := range c.PermissionOverwrites {
		if o.Type != discordgo.PermissionOverwriteTypeRole || o.ID == f.guildID || !contains(roles, o.ID) {
			continue
		}
		if o.Allow&discordgo.PermissionViewChannel != 0 {
			roleAllow = true
		} else if o.Deny&discordgo.PermissionViewChannel != 0 {
			roleDeny = true
		}
	}
	if roleAllow {
		visible = true
	} else if roleDeny {
		visible = false
	}

	for _, o := range c.PermissionOverwrites {
		if o.Type == discordgo.PermissionOverwriteTypeMember && o.ID == userID {
			visible = applyView(visible, o)
		}
	}
	return visible
}

func applyView(visible bool, o *discordgo.PermissionOverwrite) bool {
	if o.Deny&discordgo.PermissionViewChannel != 0 {
		return false
	}
	if o.Allow&discordgo.PermissionViewChannel != 0 {
		return true
	}
	return visible
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// SentTo returns the messages sent to a channel.
func (f *Fake) SentTo(channelID string) []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Sent, 0)
	for _, s := range f.sent {
		if s.ChannelID == channelID {
			out = append(out, s)
		}
	}
	return out
}

// DMsTo returns the direct messages sent to a user.
func (f *Fake) DMsTo(userID string) []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Sent, 0)
	for _, s := range f.dms {
		if s.ChannelID == userID {
			out = append(out, s)
		}
	}
	return out
}

// DeletedMessages returns the IDs of deleted messages.
func (f *Fake) DeletedMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletedMessages...)
}

func (f *Fake) GuildID() string {
	return f.guildID
}

func (f *Fake) BotUserID() string {
	return f.botID
}

func (f *Fake) Member(userID string) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[userID]
	if !ok {
		return nil, platform.NewError("get member", platform.KindNotFound, fmt.Errorf("member %s", userID))
	}
	return m, nil
}

// Calls returns how many times op was called. Only lookups that cost a request are counted.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) RoleByName(name string) (*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls["role_by_name"]++

	for _, r := range f.roles {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return nil, platform.NewError("get roles", platform.KindNotFound, fmt.Errorf("role %q", name))
}

func (f *Fake) GuildChannels() ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*discordgo.Channel, 0, len(f.channels))
	for _, c := range f.channels {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) Channel(channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.channels[channelID]
	if !ok {
		return nil, platform.NewError("get channel", platform.KindNotFound, fmt.Errorf("channel %s", channelID))
	}
	cp := *c
	cp.PermissionOverwrites = append([]*discordgo.PermissionOverwrite(nil), c.PermissionOverwrites...)
	return &cp, nil
}

func (f *Fake) CreateChannel(data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failure("create", data.ParentID); err != nil {
		return nil, err
	}
	if data.ParentID != "" {
		if _, ok := f.channels[data.ParentID]; !ok || f.unmanageable[data.ParentID] {
			return nil, platform.NewError("create channel", platform.KindNotFound, fmt.Errorf("category %s", data.ParentID))
		}
	}

	c := &discordgo.Channel{
		ID:       f.id("ch"),
		GuildID:  f.guildID,
		Name:     data.Name,
		Topic:    data.Topic,
		Type:     data.Type,
		ParentID: data.ParentID,
	}
	for _, o := range data.PermissionOverwrites {
		cp := *o
		c.PermissionOverwrites = append(c.PermissionOverwrites, &cp)
	}
	f.channels[c.ID] = c
	return c, nil
}

func (f *Fake) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failure("delete", channelID); err != nil {
		return err
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.NewError("delete channel", platform.KindNotFound, fmt.Errorf("channel %s", channelID))
	}
	delete(f.channels, channelID)
	f.deletedChannels = append(f.deletedChannels, channelID)
	return nil
}

func (f *Fake) SetOverwrite(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, err := f.manageable("set overwrite", channelID)
	if err != nil {
		return err
	}
	for _, o := range c.PermissionOverwrites {
		if o.ID == targetID {
			o.Type, o.Allow, o.Deny = targetType, allow, deny
			return nil
		}
	}
	c.PermissionOverwrites = append(c.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID:    targetID,
		Type:  targetType,
		Allow: allow,
		Deny:  deny,
	})
	return nil
}

func (f *Fake) DeleteOverwrite(channelID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, err := f.manageable("delete overwrite", channelID)
	if err != nil {
		return err
	}
	kept := c.PermissionOverwrites[:0]
	for _, o := range c.PermissionOverwrites {
		if o.ID != targetID {
			kept = append(kept, o)
		}
	}
	c.PermissionOverwrites = kept
	return nil
}

func (f *Fake) manageable(op, channelID string) (*discordgo.Channel, error) {
	if err := f.failure("overwrite", channelID); err != nil {
		return nil, err
	}
	c, ok := f.channels[channelID]
	if !ok {
		return nil, platform.NewError(op, platform.KindNotFound, fmt.Errorf("channel %s", channelID))
	}
	if f.unmanageable[channelID] {
		return nil, platform.NewError(op, platform.KindPermissionDenied, fmt.Errorf("channel %s", channelID))
	}
	return c, nil
}

func (f *Fake) CanManage(channelID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.channels[channelID]; !ok {
		return false, platform.NewError("get permissions", platform.KindNotFound, fmt.Errorf("channel %s", channelID))
	}
	return !f.unmanageable[channelID], nil
}

func (f *Fake) record(channelID string, msg *discordgo.MessageSend) (Sent, error) {
	s := Sent{ChannelID: channelID, Message: msg, Files: make(map[string][]byte)}
	for _, file := range msg.Files {
		b, err := io.ReadAll(file.Reader)
		if err != nil {
			return Sent{}, err
		}
		s.Files[file.Name] = b
	}
	return s, nil
}

func (f *Fake) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failure("send", channelID); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, platform.NewError("send message", platform.KindNotFound, fmt.Errorf("channel %s", channelID))
	}

	s, err := f.record(channelID, msg)
	if err != nil {
		return nil, err
	}
	f.sent = append(f.sent, s)

	out := &discordgo.Message{
		ID:        f.id("msg"),
		ChannelID: channelID,
		GuildID:   f.guildID,
		Author:    f.members[f.botID].User,
		Content:   msg.Content,
		Embeds:    msg.Embeds,
		Timestamp: time.Now(),
	}
	f.history[channelID] = append(f.history[channelID], out)
	return out, nil
}

func (f *Fake) SendDM(userID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failure("dm", userID); err != nil {
		return nil, err
	}
	s, err := f.record(userID, msg)
	if err != nil {
		return nil, err
	}
	f.dms = append(f.dms, s)
	return &discordgo.Message{ID: f.id("msg"), ChannelID: "dm-" + userID, Content: msg.Content}, nil
}

func (f *Fake) Messages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failure("messages", channelID); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, platform.NewError("get messages", platform.KindNotFound, fmt.Errorf("channel %s", channelID))
	}

	all := f.history[channelID]
	end := len(all)
	if beforeID != "" {
		end = 0
		for i, m := range all {
			if m.ID == beforeID {
				end = i
				break
			}
		}
	}

	out := make([]*discordgo.Message, 0, limit)
	for i := end - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (f *Fake) Message(channelID, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.history[channelID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, platform.NewError("get message", platform.KindNotFound, fmt.Errorf("message %s", messageID))
}

func (f *Fake) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.history[channelID]
	for i, m := range msgs {
		if m.ID == messageID {
			f.history[channelID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	f.deletedMessages = append(f.deletedMessages, messageID)
	return nil
}

var _ platform.Service = (*Fake)(nil)
