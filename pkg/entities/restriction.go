package entities

import "github.com/Jacobbrewer1/yupil/pkg/custom"

// Restriction records the channels hidden from a member.
type Restriction struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// MemberID is the ID of the restricted member.
	MemberID string `json:"member_id" bson:"member_id"`

	// HiddenChannelIDs are the channels an override was applied to.
	HiddenChannelIDs []string `json:"hidden_channel_ids" bson:"hidden_channel_ids"`

	// PriorOverwrites are the member overwrites that existed on hidden channels before the restriction.
	PriorOverwrites []Overwrite `json:"prior_overwrites" bson:"prior_overwrites"`

	// SkippedChannelIDs are the channels the bot could not modify when restricting.
	SkippedChannelIDs []string `json:"skipped_channel_ids" bson:"skipped_channel_ids"`

	// TicketChannelID is the ticket opened alongside the restriction.
	TicketChannelID string `json:"ticket_channel_id" bson:"ticket_channel_id"`

	// Reason is the optional reason given by the moderator.
	Reason string `json:"reason" bson:"reason"`

	// RestrictedBy is the ID of the moderator.
	RestrictedBy string `json:"restricted_by" bson:"restricted_by"`

	// CreatedAt is when the restriction was applied.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// LiftedAt is when the restriction was lifted. Zero while active.
	LiftedAt custom.Datetime `json:"lifted_at" bson:"lifted_at"`
}

// Active reports whether the restriction has not been lifted.
func (r *Restriction) Active() bool {
	return r.LiftedAt.IsZero()
}

// Overwrite is an explicit member overwrite on a channel.
type Overwrite struct {
	// ChannelID is the channel the overwrite is on.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// Allow is the allowed permission bits.
	Allow int64 `json:"allow" bson:"allow"`

	// Deny is the denied permission bits.
	Deny int64 `json:"deny" bson:"deny"`
}
