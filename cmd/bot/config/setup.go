package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/joho/godotenv"
)

// ErrIncomplete is returned when a required environment variable is missing.
var ErrIncomplete = errors.New("not all required environment variables have been provided")

// Parse loads a .env file if one exists and reads the configuration from the environment.
func Parse(l *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.Warn("Error loading .env file", slog.String(logging.KeyError, err.Error()))
	}

	c := new(Config)
	missing := make([]string, 0)
	required := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			l.Debug("Found value in environment", slog.String("key", key))
			*dst = v
			return
		}
		missing = append(missing, key)
	}
	optional := func(key string, dst *string, def string) {
		if v := os.Getenv(key); v != "" {
			l.Debug("Found value in environment", slog.String("key", key))
			*dst = v
			return
		}
		*dst = def
	}

	required(EnvBotToken, &c.BotToken)
	required(EnvApplicationId, &c.ApplicationId)
	required(EnvGuildId, &c.GuildId)
	required(EnvModRoleName, &c.ModRoleName)
	required(EnvStaffLogChannelId, &c.StaffLogChannelId)
	required(EnvTranscriptChannelId, &c.TranscriptChannelId)
	required(EnvHelpdeskCategoryId, &c.HelpdeskCategoryId)

	optional(EnvTranslateApiKey, &c.TranslateApiKey, "")
	optional(EnvTranslateApiUrl, &c.TranslateApiUrl, "")
	optional(EnvMongoUri, &c.MongoUri, "")
	optional(EnvMonitoringPort, &c.MonitoringPort, defaultMonitoringPort)
	optional(EnvTranscriptDir, &c.TranscriptDir, defaultTranscriptDir)
	optional(EnvAutomodConfig, &c.AutomodConfig, "")
	optional(EnvWelcomeChannelId, &c.WelcomeChannelId, "")
	optional(EnvReconcileSchedule, &c.ReconcileSchedule, defaultReconcile)

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	c.MessageCacheSize = defaultMessageCacheSize
	if v := os.Getenv(EnvMessageCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a positive integer", EnvMessageCacheSize, v)
		}
		c.MessageCacheSize = n
	}

	c.TranscriptZone = time.UTC
	if v := os.Getenv(EnvTranscriptTimezone); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvTranscriptTimezone, v, err)
		}
		c.TranscriptZone = loc
	}

	if c.MongoUri == "" {
		l.Warn("No MongoDB URI provided, tickets and restrictions will not survive a restart", slog.String("key", EnvMongoUri))
	}
	if c.TranslateApiKey == "" {
		l.Warn("No translation API key provided, the translate command will fail", slog.String("key", EnvTranslateApiKey))
	}

	l.Debug("All required environment variables have been provided")
	return c, nil
}
