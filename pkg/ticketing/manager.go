// Package ticketing manages private support channels through their lifecycle. Every ticket has a
// durable record so its state survives a restart: open, then closing, then archived.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/custom"
	"github.com/Jacobbrewer1/yupil/pkg/dataaccess"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

// Archiver stores a transcript of a channel and returns a reference to the stored document.
type Archiver interface {
	Archive(ctx context.Context, channelID, name string) (string, error)
}

// Config is the guild setup the manager needs.
type Config struct {
	// HelpdeskCategoryID is the category tickets are created under.
	HelpdeskCategoryID string

	// ModRoleName is the name of the moderation role.
	ModRoleName string
}

// OpenRequest describes a ticket to open.
type OpenRequest struct {
	// OwnerID is the member the ticket is for.
	OwnerID string

	// Label is an optional subject.
	Label string

	// GrantOwner gives the owner read access to the channel.
	GrantOwner bool

	// Origin is the entry path and decides the channel name.
	Origin entities.TicketOrigin
}

// Manager drives tickets between states.
type Manager struct {
	// l is the logger.
	l *slog.Logger

	// p is the chat platform.
	p platform.Service

	// store is the ticket ledger.
	store dataaccess.TicketDal

	// archiver stores transcripts.
	archiver Archiver

	// cfg is the guild setup.
	cfg Config

	// now is the clock.
	now func() time.Time

	// idMu serialises ticket number allocation.
	idMu sync.Mutex

	// busyMu guards busy.
	busyMu sync.Mutex

	// busy holds the channels with an operation in flight.
	busy map[string]struct{}
}

// NewManager creates a new ticket manager.
func NewManager(l *slog.Logger, p platform.Service, store dataaccess.TicketDal, archiver Archiver, cfg Config) *Manager {
	return &Manager{
		l:        l.With(slog.String(logging.KeyComponent, "ticketing")),
		p:        p,
		store:    store,
		archiver: archiver,
		cfg:      cfg,
		now:      time.Now,
		busy:     make(map[string]struct{}),
	}
}

// acquire marks the channel busy. The returned func releases it.
func (m *Manager) acquire(channelID string) (func(), error) {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()

	if _, ok := m.busy[channelID]; ok {
		return nil, ErrBusy
	}
	m.busy[channelID] = struct{}{}

	return func() {
		m.busyMu.Lock()
		delete(m.busy, channelID)
		m.busyMu.Unlock()
	}, nil
}

// Get returns the ticket backed by the channel.
func (m *Manager) Get(ctx context.Context, channelID string) (*entities.Ticket, error) {
	t, err := m.store.GetTicket(ctx, m.p.GuildID(), channelID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrNotATicket
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return t, nil
}

func (m *Manager) modRole() (*discordgo.Role, error) {
	role, err := m.p.RoleByName(m.cfg.ModRoleName)
	if err != nil {
		return nil, fmt.Errorf("error getting moderation role: %w", err)
	}
	return role, nil
}

// Open creates a ticket channel under the helpdesk category. The moderation role and the bot can
// read and manage it, and the owner can read it when granted.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*entities.Ticket, error) {
	owner, err := m.p.Member(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("error getting member: %w", err)
	}

	role, err := m.modRole()
	if err != nil {
		return nil, err
	}

	name, err := m.channelName(req.Origin, displayName(owner))
	if err != nil {
		return nil, err
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   m.p.GuildID(),
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    role.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: platform.PermissionManage,
		},
		{
			ID:    m.p.BotUserID(),
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: platform.PermissionManage,
		},
	}
	if req.GrantOwner {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    req.OwnerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: platform.PermissionRead,
			Deny:  discordgo.PermissionMentionEveryone,
		})
	}

	ch, err := m.p.CreateChannel(discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Ticket for %s", displayName(owner)),
		ParentID:             m.cfg.HelpdeskCategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		TicketFailures.WithLabelValues("open").Inc()
		switch platform.Classify(err) {
		case platform.KindNotFound, platform.KindPermissionDenied:
			return nil, fmt.Errorf("%w: %w", ErrCategoryUnreachable, err)
		}
		return nil, fmt.Errorf("error creating channel: %w", err)
	}

	m.idMu.Lock()
	id, err := m.nextID(ctx)
	if err != nil {
		m.idMu.Unlock()
		m.discard(ch.ID)
		return nil, err
	}

	t := &entities.Ticket{
		ID:           id,
		GuildID:      m.p.GuildID(),
		ChannelID:    ch.ID,
		ChannelName:  ch.Name,
		OwnerID:      req.OwnerID,
		OwnerName:    displayName(owner),
		OwnerGranted: req.GrantOwner,
		Label:        req.Label,
		Origin:       req.Origin,
		State:        entities.TicketStateOpen,
		Participants: make([]string, 0),
		CreatedAt:    custom.NewDatetime(m.now()),
	}
	err = m.store.SaveTicket(ctx, t)
	m.idMu.Unlock()
	if err != nil {
		m.discard(ch.ID)
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	if _, err := m.p.Send(ch.ID, openedMessage(req.OwnerID, req.GrantOwner, req.Label)); err != nil {
		m.l.Warn("Error sending ticket welcome message",
			slog.String(logging.KeyChannelID, ch.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	TicketTransitions.WithLabelValues("", string(entities.TicketStateOpen)).Inc()
	m.l.Info("Ticket opened",
		slog.Int("ticket", t.ID),
		slog.String(logging.KeyChannelID, ch.ID),
		slog.String(logging.KeyUserID, req.OwnerID),
		slog.String("origin", string(req.Origin)),
	)
	return t, nil
}

// discard deletes a channel created for a ticket that could not be recorded.
func (m *Manager) discard(channelID string) {
	if err := m.p.DeleteChannel(channelID); err != nil {
		m.l.Error("Error deleting unrecorded ticket channel",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// nextID returns the next ticket number. The caller holds idMu until the ticket is saved.
func (m *Manager) nextID(ctx context.Context) (int, error) {
	latest, err := m.store.GetLatestTicket(ctx, m.p.GuildID())
	switch {
	case errors.Is(err, dataaccess.ErrNotFound):
		return 1, nil
	case err != nil:
		return 0, fmt.Errorf("error getting latest ticket: %w", err)
	}
	return latest.ID + 1, nil
}

func (m *Manager) channelName(origin entities.TicketOrigin, name string) (string, error) {
	channels, err := m.p.GuildChannels()
	if err != nil {
		return "", fmt.Errorf("error listing channels: %w", err)
	}

	taken := make(map[string]struct{})
	for _, ch := range channels {
		if ch.ParentID == m.cfg.HelpdeskCategoryID {
			taken[ch.Name] = struct{}{}
		}
	}
	return uniqueName(ChannelName(origin, name, m.now()), taken), nil
}

// load acquires the channel and loads its ticket, checking the state is one of those allowed.
func (m *Manager) load(ctx context.Context, channelID string, allowed ...entities.TicketState) (*entities.Ticket, func(), error) {
	release, err := m.acquire(channelID)
	if err != nil {
		return nil, nil, err
	}

	t, err := m.Get(ctx, channelID)
	if err != nil {
		release()
		return nil, nil, err
	}

	for _, s := range allowed {
		if t.State == s {
			return t, release, nil
		}
	}
	release()
	return t, nil, &TransitionError{Ticket: t.ID, State: t.State}
}

// Close revokes every overwrite that is not the moderation role, the bot or the @everyone deny, and
// posts the finish controls. The channel is kept.
func (m *Manager) Close(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	t, release, err := m.load(ctx, channelID, entities.TicketStateOpen)
	if err != nil {
		return t, err
	}
	defer release()

	role, err := m.modRole()
	if err != nil {
		return t, err
	}

	ch, err := m.p.Channel(channelID)
	if err != nil {
		TicketFailures.WithLabelValues("close").Inc()
		return t, fmt.Errorf("error getting channel: %w", err)
	}

	keep := map[string]struct{}{
		role.ID:         {},
		m.p.BotUserID(): {},
		m.p.GuildID():   {},
	}
	for _, o := range ch.PermissionOverwrites {
		if _, ok := keep[o.ID]; ok {
			continue
		}
		if err := m.p.DeleteOverwrite(channelID, o.ID); err != nil {
			TicketFailures.WithLabelValues("close").Inc()
			return t, fmt.Errorf("error revoking access for %s: %w", o.ID, err)
		}
	}

	t.State = entities.TicketStateClosing
	t.ClosedBy = actorID
	t.ClosedAt = custom.NewDatetime(m.now())

	msg, err := m.p.Send(channelID, finishMessage(actorID))
	if err != nil {
		m.l.Warn("Error sending finish controls",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	} else {
		t.FinishMessageID = msg.ID
	}

	if err := m.store.SaveTicket(ctx, t); err != nil {
		return t, fmt.Errorf("error saving ticket: %w", err)
	}

	TicketTransitions.WithLabelValues(string(entities.TicketStateOpen), string(entities.TicketStateClosing)).Inc()
	m.l.Info("Ticket closed", slog.Int("ticket", t.ID), slog.String(logging.KeyUserID, actorID))
	return t, nil
}

// FinishWithTranscript archives the channel and then deletes it. If archival fails the channel is
// kept and the ticket stays closing.
func (m *Manager) FinishWithTranscript(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	t, release, err := m.load(ctx, channelID, entities.TicketStateClosing)
	if err != nil {
		return t, err
	}
	defer release()

	if t.TranscriptRef == "" {
		ref, err := m.archiver.Archive(ctx, channelID, t.ChannelName)
		if err != nil {
			TicketFailures.WithLabelValues("archive").Inc()
			m.l.Error("Error archiving ticket, channel kept",
				slog.Int("ticket", t.ID),
				slog.String(logging.KeyError, err.Error()),
			)
			return t, fmt.Errorf("%w: %w", ErrArchivalFailed, err)
		}

		t.TranscriptRef = ref
		if err := m.store.SaveTicket(ctx, t); err != nil {
			return t, fmt.Errorf("error saving ticket: %w", err)
		}
	}

	return t, m.archive(ctx, t, actorID)
}

// FinishWithoutTranscript deletes a closing ticket's channel without archiving it.
func (m *Manager) FinishWithoutTranscript(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	t, release, err := m.load(ctx, channelID, entities.TicketStateClosing)
	if err != nil {
		return t, err
	}
	defer release()

	return t, m.archive(ctx, t, actorID)
}

// ForceDelete deletes an open or closing ticket's channel without archiving it.
func (m *Manager) ForceDelete(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	t, release, err := m.load(ctx, channelID, entities.TicketStateOpen, entities.TicketStateClosing)
	if err != nil {
		return t, err
	}
	defer release()

	m.l.Warn("Force deleting ticket", slog.Int("ticket", t.ID), slog.String(logging.KeyUserID, actorID))
	return t, m.archive(ctx, t, actorID)
}

// archive deletes the channel and marks the ticket archived.
func (m *Manager) archive(ctx context.Context, t *entities.Ticket, actorID string) error {
	if err := m.p.DeleteChannel(t.ChannelID); err != nil && !errors.Is(err, platform.ErrNotFound) {
		TicketFailures.WithLabelValues("delete").Inc()
		return fmt.Errorf("error deleting channel: %w", err)
	}

	from := t.State
	t.State = entities.TicketStateArchived
	t.ArchivedBy = actorID
	t.ArchivedAt = custom.NewDatetime(m.now())
	if err := m.store.SaveTicket(ctx, t); err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}

	TicketTransitions.WithLabelValues(string(from), string(entities.TicketStateArchived)).Inc()
	m.l.Info("Ticket archived",
		slog.Int("ticket", t.ID),
		slog.String("transcript", t.TranscriptRef),
		slog.String(logging.KeyUserID, actorID),
	)
	return nil
}

// AddParticipant grants read access to another member on an open ticket.
func (m *Manager) AddParticipant(ctx context.Context, channelID, memberID string) (*entities.Ticket, error) {
	t, release, err := m.load(ctx, channelID, entities.TicketStateOpen)
	if err != nil {
		return t, err
	}
	defer release()

	if _, err := m.p.Member(memberID); err != nil {
		return t, fmt.Errorf("error getting member: %w", err)
	}

	if err := m.p.SetOverwrite(channelID, memberID, discordgo.PermissionOverwriteTypeMember, platform.PermissionRead, discordgo.PermissionMentionEveryone); err != nil {
		TicketFailures.WithLabelValues("add_participant").Inc()
		return t, fmt.Errorf("error granting access: %w", err)
	}

	if memberID == t.OwnerID {
		t.OwnerGranted = true
	} else if !t.HasAccess(memberID) {
		t.Participants = append(t.Participants, memberID)
	}

	if err := m.store.SaveTicket(ctx, t); err != nil {
		return t, fmt.Errorf("error saving ticket: %w", err)
	}
	return t, nil
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	return m.User.Username
}
