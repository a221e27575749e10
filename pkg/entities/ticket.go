package entities

import (
	"fmt"

	"github.com/Jacobbrewer1/yupil/pkg/custom"
)

// TicketState is the lifecycle state of a ticket.
type TicketState string

const (
	// TicketStateOpen means the owner (if granted) and the moderation role can read the channel.
	TicketStateOpen TicketState = "open"

	// TicketStateClosing means the owner has lost access and staff can finish the ticket.
	TicketStateClosing TicketState = "closing"

	// TicketStateArchived is terminal. The channel has been deleted.
	TicketStateArchived TicketState = "archived"
)

// TicketOrigin is the entry path that created a ticket. It decides the channel naming convention.
type TicketOrigin string

const (
	// TicketOriginCommand is a ticket opened by a moderator with the make_ticket command.
	TicketOriginCommand TicketOrigin = "command"

	// TicketOriginRestriction is a ticket opened as part of restricting a member.
	TicketOriginRestriction TicketOrigin = "restriction"

	// TicketOriginPanel is a ticket a member opened themselves from the ticket panel.
	TicketOriginPanel TicketOrigin = "panel"
)

// Ticket is a ticket.
type Ticket struct {
	// ID is the number of the ticket within the guild.
	ID int `json:"id" bson:"id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the channel backing the ticket.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// ChannelName is the name the channel was created with.
	ChannelName string `json:"channel_name" bson:"channel_name"`

	// OwnerID is the ID of the member the ticket was opened for.
	OwnerID string `json:"owner_id" bson:"owner_id"`

	// OwnerName is the display name of the owner when the ticket was opened.
	OwnerName string `json:"owner_name" bson:"owner_name"`

	// OwnerGranted is whether the owner was given access to the channel.
	OwnerGranted bool `json:"owner_granted" bson:"owner_granted"`

	// Label is the free text subject of the ticket.
	Label string `json:"label" bson:"label"`

	// Origin is how the ticket was created.
	Origin TicketOrigin `json:"origin" bson:"origin"`

	// State is the lifecycle state.
	State TicketState `json:"state" bson:"state"`

	// Participants are the members added after the ticket was opened.
	Participants []string `json:"participants" bson:"participants"`

	// FinishMessageID is the ID of the message holding the finish controls.
	FinishMessageID string `json:"finish_message_id" bson:"finish_message_id"`

	// TranscriptRef is the stored transcript file name. Only set once archived with a transcript.
	TranscriptRef string `json:"transcript_ref" bson:"transcript_ref"`

	// ClosedBy is the ID of the user that closed the ticket.
	ClosedBy string `json:"closed_by" bson:"closed_by"`

	// ArchivedBy is the ID of the user that archived the ticket.
	ArchivedBy string `json:"archived_by" bson:"archived_by"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// ClosedAt is the time that the ticket was closed.
	ClosedAt custom.Datetime `json:"closed_at" bson:"closed_at"`

	// ArchivedAt is the time that the ticket was archived.
	ArchivedAt custom.Datetime `json:"archived_at" bson:"archived_at"`
}

// Name returns a short human reference for the ticket, e.g. "#12 (alice)".
func (t *Ticket) Name() string {
	return fmt.Sprintf("#%d (%s)", t.ID, t.OwnerName)
}

// HasAccess reports whether the member is meant to read the channel in the current state.
func (t *Ticket) HasAccess(memberID string) bool {
	if t.State != TicketStateOpen {
		return false
	}
	if memberID == t.OwnerID {
		return t.OwnerGranted
	}
	for _, p := range t.Participants {
		if p == memberID {
			return true
		}
	}
	return false
}
