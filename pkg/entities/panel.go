package entities

// Panel is a persisted message carrying a UI control. It is re-verified at startup.
type Panel struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the channel the panel was posted in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// MessageID is the ID of the panel message.
	MessageID string `json:"message_id" bson:"message_id"`

	// Action is the UI action the panel's button triggers.
	Action string `json:"action" bson:"action"`
}
