// Package mirror relays deleted and edited messages to the staff log channel.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

const (
	// MaxContentLength is the most characters of one side of an edit that is shown.
	MaxContentLength = 1000

	// TruncationMarker ends content that was cut short.
	TruncationMarker = "… (truncated)"
)

const (
	colorDeleted = 0xed4245
	colorEdited  = 0xfee75c
)

// Mirror reports message deletes and edits. It never panics into the caller.
type Mirror struct {
	// l is the logger.
	l *slog.Logger

	// p is the chat platform.
	p platform.Service

	// cache holds recent messages.
	cache *Cache

	// fetcher downloads attachments of deleted messages.
	fetcher *Fetcher

	// logChannelID is the staff log channel.
	logChannelID string

	// now is the clock.
	now func() time.Time
}

// NewMirror creates a mirror posting to the staff log channel.
func NewMirror(l *slog.Logger, p platform.Service, cache *Cache, fetcher *Fetcher, logChannelID string) *Mirror {
	return &Mirror{
		l:            l.With(slog.String(logging.KeyComponent, "mirror")),
		p:            p,
		cache:        cache,
		fetcher:      fetcher,
		logChannelID: logChannelID,
		now:          time.Now,
	}
}

// Truncate cuts s to at most max characters, ending it with the truncation marker when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(TruncationMarker)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(s)[:keep]) + TruncationMarker
}

func (m *Mirror) recoverPanic(event string) {
	if r := recover(); r != nil {
		MirroredEvents.WithLabelValues(event, "panic").Inc()
		m.l.Warn("Recovered from panic in mirror", slog.String("event", event), slog.Any("panic", r))
	}
}

func (m *Mirror) tracked(msg *discordgo.Message) bool {
	return msg.GuildID == "" || msg.GuildID == m.p.GuildID()
}

// OnCreate remembers a new message so a later delete or edit can be reported with its content.
func (m *Mirror) OnCreate(msg *discordgo.Message) {
	defer m.recoverPanic("create")

	if msg.Author == nil || msg.Author.Bot || !m.tracked(msg) {
		return
	}
	m.cache.Put(msg)
}

// OnDelete reports a deleted message. before is the message as known to the session state and may be
// nil, in which case the cache is consulted.
func (m *Mirror) OnDelete(ctx context.Context, channelID, messageID string, before *discordgo.Message) {
	defer m.recoverPanic("delete")

	outcome, err := m.handleDelete(ctx, channelID, messageID, before)
	if err != nil {
		outcome = "error"
		m.l.Warn("Error mirroring deleted message",
			slog.String(logging.KeyChannelID, channelID),
			slog.String("message_id", messageID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
	MirroredEvents.WithLabelValues("delete", outcome).Inc()
}

func (m *Mirror) handleDelete(ctx context.Context, channelID, messageID string, before *discordgo.Message) (string, error) {
	if channelID == m.logChannelID {
		return "ignored", nil
	}

	cached, ok := m.cache.Remove(messageID)
	if m.cache.TakeSuppressed(messageID) {
		return "suppressed", nil
	}
	if before == nil || before.Author == nil {
		before = cached
	}
	if !ok && (before == nil || before.Author == nil) {
		return "uncached", m.send(&discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{m.minimalDelete(channelID, messageID)},
		})
	}
	if before.Author.Bot {
		return "bot", nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Message deleted",
		Description: platform.MessageLink(m.p.GuildID(), channelID, ""),
		Color:       colorDeleted,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    before.Author.Username,
			IconURL: before.Author.AvatarURL(""),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: fmt.Sprintf("<@%s>", before.Author.ID), Inline: true},
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", channelID), Inline: true},
			{Name: "Content", Value: shown(before.Content)},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Message ID " + messageID},
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}

	files, skipped := m.attachments(ctx, before.Attachments)
	if len(skipped) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Attachments not forwarded",
			Value: Truncate(strings.Join(skipped, "\n"), MaxContentLength),
		})
	}

	return "mirrored", m.send(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  files,
	})
}

func (m *Mirror) minimalDelete(channelID, messageID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Message deleted",
		Description: "The content of this message was not cached.",
		Color:       colorDeleted,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Message ID", Value: messageID, Inline: true},
			{Name: "Channel", Value: platform.MessageLink(m.p.GuildID(), channelID, ""), Inline: true},
		},
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}
}

// attachments downloads the media attachments that can still be retrieved. Anything that cannot be
// forwarded is returned as an annotation.
func (m *Mirror) attachments(ctx context.Context, in []*discordgo.MessageAttachment) ([]*discordgo.File, []string) {
	files := make([]*discordgo.File, 0)
	skipped := make([]string, 0)
	for _, a := range in {
		if !Forwardable(a) {
			skipped = append(skipped, fmt.Sprintf("%s (not media)", a.Filename))
			continue
		}
		data, err := m.fetcher.Fetch(ctx, a.URL)
		if err != nil {
			m.l.Debug("Skipping attachment", slog.String("file", a.Filename), slog.String(logging.KeyError, err.Error()))
			skipped = append(skipped, fmt.Sprintf("%s (%s)", a.Filename, err))
			continue
		}
		files = append(files, &discordgo.File{
			Name:        a.Filename,
			ContentType: a.ContentType,
			Reader:      bytes.NewReader(data),
		})
	}
	return files, skipped
}

// OnUpdate reports an edited message. before is the message as known to the session state and may be
// nil, in which case the cache is consulted. Edits without a known previous version, or where the
// content did not change, are not reported.
func (m *Mirror) OnUpdate(after *discordgo.Message, before *discordgo.Message) {
	defer m.recoverPanic("update")

	outcome, err := m.handleUpdate(after, before)
	if err != nil {
		outcome = "error"
		m.l.Warn("Error mirroring edited message",
			slog.String(logging.KeyChannelID, after.ChannelID),
			slog.String("message_id", after.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
	MirroredEvents.WithLabelValues("update", outcome).Inc()
}

func (m *Mirror) handleUpdate(after *discordgo.Message, before *discordgo.Message) (string, error) {
	if !m.tracked(after) || after.ChannelID == m.logChannelID {
		return "ignored", nil
	}

	cached, ok := m.cache.Get(after.ID)
	if before == nil {
		before = cached
	}

	author := after.Author
	if author == nil && before != nil {
		author = before.Author
	}
	if author == nil || author.Bot {
		return "bot", nil
	}

	if ok {
		updated := *cached
		updated.Content = after.Content
		updated.EditedTimestamp = after.EditedTimestamp
		m.cache.Put(&updated)
	}

	if before == nil {
		return "uncached", nil
	}
	if before.Content == after.Content {
		return "unchanged", nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Message edited",
		Description: platform.MessageLink(m.p.GuildID(), after.ChannelID, after.ID),
		Color:       colorEdited,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    author.Username,
			IconURL: author.AvatarURL(""),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: fmt.Sprintf("<@%s>", author.ID), Inline: true},
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", after.ChannelID), Inline: true},
			{Name: "Before", Value: shown(before.Content)},
			{Name: "After", Value: shown(after.Content)},
		},
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}

	return "mirrored", m.send(&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
}

// Suppress stops the delete of a message from being reported. Components that remove a message and
// report it themselves call this before deleting.
func (m *Mirror) Suppress(messageID string) {
	m.cache.Suppress(messageID)
}

// Audit posts an arbitrary embed to the staff log channel, for other components to report through.
func (m *Mirror) Audit(embed *discordgo.MessageEmbed) {
	defer m.recoverPanic("audit")

	if embed.Timestamp == "" {
		embed.Timestamp = m.now().UTC().Format(time.RFC3339)
	}
	if err := m.send(&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}); err != nil {
		m.l.Warn("Error posting audit entry", slog.String(logging.KeyError, err.Error()))
	}
}

func (m *Mirror) send(msg *discordgo.MessageSend) error {
	if _, err := m.p.Send(m.logChannelID, msg); err != nil {
		return fmt.Errorf("error sending to staff log: %w", err)
	}
	return nil
}

func shown(content string) string {
	if content == "" {
		return "*(empty)*"
	}
	return Truncate(content, MaxContentLength)
}
