package config

import "time"

const (
	// AppName is the name of the application.
	AppName = "yupil"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvGuildId is the environment variable for the guild the bot serves.
	EnvGuildId = `GUILD_ID`

	// EnvModRoleName is the environment variable for the name of the moderation role.
	EnvModRoleName = `MOD_ROLE_NAME`

	// EnvStaffLogChannelId is the environment variable for the staff log channel.
	EnvStaffLogChannelId = `STAFF_LOG_CHANNEL_ID`

	// EnvTranscriptChannelId is the environment variable for the channel transcripts are uploaded to.
	EnvTranscriptChannelId = `TRANSCRIPT_CHANNEL_ID`

	// EnvHelpdeskCategoryId is the environment variable for the category tickets are created under.
	EnvHelpdeskCategoryId = `HELPDESK_CATEGORY_ID`

	// EnvTranslateApiKey is the environment variable for the translation API key.
	EnvTranslateApiKey = `TRANSLATE_API_KEY`

	// EnvTranslateApiUrl is the environment variable for the translation API base URL.
	EnvTranslateApiUrl = `TRANSLATE_API_URL`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvMessageCacheSize is the environment variable for the number of messages kept for the mirror.
	EnvMessageCacheSize = `MESSAGE_CACHE_SIZE`

	// EnvTranscriptDir is the environment variable for the local transcript directory.
	EnvTranscriptDir = `TRANSCRIPT_DIR`

	// EnvTranscriptTimezone is the environment variable for the zone transcript times are shown in.
	EnvTranscriptTimezone = `TRANSCRIPT_TIMEZONE`

	// EnvAutomodConfig is the environment variable for the automod YAML file.
	EnvAutomodConfig = `AUTOMOD_CONFIG`

	// EnvWelcomeChannelId is the environment variable for the welcome channel.
	EnvWelcomeChannelId = `WELCOME_CHANNEL_ID`

	// EnvReconcileSchedule is the environment variable for the ticket reconciliation cron spec.
	EnvReconcileSchedule = `RECONCILE_SCHEDULE`
)

const (
	defaultMonitoringPort   = "8080"
	defaultMessageCacheSize = 5000
	defaultTranscriptDir    = "transcripts"
	defaultReconcile        = "@every 1h"
)

// Config is the configuration of the bot. It is parsed once at startup.
type Config struct {
	BotToken            string
	ApplicationId       string
	GuildId             string
	ModRoleName         string
	StaffLogChannelId   string
	TranscriptChannelId string
	HelpdeskCategoryId  string
	TranslateApiKey     string
	TranslateApiUrl     string

	// MongoUri is optional. Without it records are kept in memory.
	MongoUri string

	MonitoringPort    string
	MessageCacheSize  int
	TranscriptDir     string
	TranscriptZone    *time.Location
	AutomodConfig     string
	WelcomeChannelId  string
	ReconcileSchedule string
}
