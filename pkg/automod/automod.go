// Package automod removes promotion posts and duplicate welcome messages as they arrive.
package automod

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/messages"
	"github.com/Jacobbrewer1/yupil/pkg/mirror"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Verdict is the outcome of checking a message.
type Verdict int

const (
	// VerdictAllow leaves the message alone.
	VerdictAllow Verdict = iota

	// VerdictPromo is a promotion or commission post outside an exempt channel.
	VerdictPromo

	// VerdictDuplicateWelcome is a repeated welcome message.
	VerdictDuplicateWelcome
)

// String returns a string representation of the Verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictPromo:
		return "promo"
	case VerdictDuplicateWelcome:
		return "duplicate_welcome"
	default:
		return "unknown"
	}
}

// modRoleTTL is how long a resolved moderation role ID is reused before it is looked up again.
const modRoleTTL = 10 * time.Minute

// Auditor posts an entry to the staff log.
type Auditor interface {
	Audit(embed *discordgo.MessageEmbed)

	// Suppress keeps the removal of a message out of the staff log.
	Suppress(messageID string)
}

// Moderator checks new messages.
type Moderator struct {
	// l is the logger.
	l *slog.Logger

	// p is the chat platform.
	p platform.Service

	// cfg is the configuration.
	cfg *Config

	// audit is where removals are reported.
	audit Auditor

	// modRoleName exempts moderators from the promotion check.
	modRoleName string

	// welcomeChannelID is where duplicate welcomes are filtered. Empty disables the filter.
	welcomeChannelID string

	// mu guards the check and store of seen.
	mu sync.Mutex

	// seen maps author and content to when it was last posted.
	seen *lru.Cache[string, time.Time]

	// roleMu guards modRoleID and modRoleAt.
	roleMu sync.Mutex

	// modRoleID is the resolved moderation role. Empty when it could not be resolved.
	modRoleID string

	// modRoleAt is when modRoleID was last resolved.
	modRoleAt time.Time

	// now is the clock.
	now func() time.Time
}

// NewModerator creates a new moderator.
func NewModerator(l *slog.Logger, p platform.Service, cfg *Config, audit Auditor, modRoleName, welcomeChannelID string) (*Moderator, error) {
	seen, err := lru.New[string, time.Time](cfg.WelcomeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating welcome cache: %w", err)
	}

	return &Moderator{
		l:                l.With(slog.String(logging.KeyComponent, "automod")),
		p:                p,
		cfg:              cfg,
		audit:            audit,
		modRoleName:      modRoleName,
		welcomeChannelID: welcomeChannelID,
		seen:             seen,
		now:              time.Now,
	}, nil
}

func normalize(content string) string {
	return strings.Join(strings.Fields(strings.ToLower(content)), " ")
}

func containsAny(content string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p != "" && strings.Contains(content, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// Check decides what to do with a message. Checking a welcome message records it.
func (m *Moderator) Check(msg *discordgo.Message) Verdict {
	if msg.Author == nil || msg.Author.Bot {
		return VerdictAllow
	}
	content := normalize(msg.Content)

	if !m.exempt(msg) {
		if _, ok := containsAny(content, m.cfg.PromoKeywords); ok {
			return VerdictPromo
		}
	}

	if m.welcomeChannelID != "" && msg.ChannelID == m.welcomeChannelID {
		if _, ok := containsAny(content, m.cfg.WelcomeKeywords); ok {
			return m.checkWelcome(msg.Author.ID, content)
		}
	}
	return VerdictAllow
}

func (m *Moderator) checkWelcome(authorID, content string) Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := authorID + "|" + content
	now := m.now()
	if last, ok := m.seen.Get(key); ok && now.Sub(last) < m.cfg.WelcomeWindow {
		return VerdictDuplicateWelcome
	}
	m.seen.Add(key, now)
	return VerdictAllow
}

func (m *Moderator) exempt(msg *discordgo.Message) bool {
	for _, id := range m.cfg.ExemptChannels {
		if id == msg.ChannelID {
			return true
		}
	}
	if msg.Member == nil || m.modRoleName == "" {
		return false
	}

	roleID := m.modRole()
	if roleID == "" {
		return false
	}
	for _, r := range msg.Member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// modRole returns the moderation role ID, resolving it at most once per modRoleTTL. A failed lookup
// is also kept for modRoleTTL.
func (m *Moderator) modRole() string {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()

	now := m.now()
	if !m.modRoleAt.IsZero() && now.Sub(m.modRoleAt) < modRoleTTL {
		return m.modRoleID
	}

	m.modRoleAt = now
	role, err := m.p.RoleByName(m.modRoleName)
	if err != nil {
		m.l.Warn("Error resolving moderation role", slog.String(logging.KeyError, err.Error()))
		m.modRoleID = ""
		return ""
	}
	m.modRoleID = role.ID
	return m.modRoleID
}

// OnCreate checks a new message and acts on the verdict. Errors are logged and never returned.
func (m *Moderator) OnCreate(msg *discordgo.Message) Verdict {
	defer func() {
		if r := recover(); r != nil {
			m.l.Warn("Recovered from panic in automod", slog.Any("panic", r))
		}
	}()

	if msg.GuildID != "" && msg.GuildID != m.p.GuildID() {
		return VerdictAllow
	}

	v := m.Check(msg)
	if v == VerdictAllow {
		return v
	}

	AutomodActions.WithLabelValues(v.String()).Inc()
	l := m.l.With(
		slog.String("verdict", v.String()),
		slog.String(logging.KeyChannelID, msg.ChannelID),
		slog.String(logging.KeyUserID, msg.Author.ID),
	)

	if m.audit != nil {
		m.audit.Suppress(msg.ID)
	}
	if err := m.p.DeleteMessage(msg.ChannelID, msg.ID); err != nil {
		l.Warn("Error deleting message", slog.String(logging.KeyError, err.Error()))
		return v
	}
	l.Info("Removed message")

	if v != VerdictPromo {
		return v
	}

	if _, err := m.p.SendDM(msg.Author.ID, &discordgo.MessageSend{
		Content: fmt.Sprintf(messages.MsgAutomodPromo, msg.ChannelID),
	}); err != nil {
		l.Warn("Error sending automod notice", slog.String(logging.KeyError, err.Error()))
	}

	if m.audit != nil {
		m.audit.Audit(&discordgo.MessageEmbed{
			Title: "Promotion removed",
			Color: 0xeb459e,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Author", Value: fmt.Sprintf("<@%s>", msg.Author.ID), Inline: true},
				{Name: "Channel", Value: fmt.Sprintf("<#%s>", msg.ChannelID), Inline: true},
				{Name: "Content", Value: mirror.Truncate(msg.Content, mirror.MaxContentLength)},
			},
		})
	}
	return v
}
