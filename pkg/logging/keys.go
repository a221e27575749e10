package logging

const (
	// KeyError is the key used for errors.
	KeyError = "err"

	// KeyDal is the key used for the data access layer name.
	KeyDal = "dal"

	// KeyComponent is the key used for the component name.
	KeyComponent = "component"

	// KeyGuildID is the key used for guild IDs.
	KeyGuildID = "guild_id"

	// KeyChannelID is the key used for channel IDs.
	KeyChannelID = "channel_id"

	// KeyUserID is the key used for user IDs.
	KeyUserID = "user_id"

	// KeyCommand is the key used for command and component names.
	KeyCommand = "command"
)
