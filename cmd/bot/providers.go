package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/cmd/bot/config"
	"github.com/Jacobbrewer1/yupil/pkg/automod"
	"github.com/Jacobbrewer1/yupil/pkg/dataaccess"
	"github.com/Jacobbrewer1/yupil/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/mirror"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/transcript"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/Jacobbrewer1/yupil/pkg/visibility"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

// overwritesPerSecond paces bulk overwrite changes under the platform's per-route limit.
const overwritesPerSecond = 4

// Stores are the record stores the bot runs on.
type Stores struct {
	Tickets      dataaccess.TicketDal
	Restrictions dataaccess.RestrictionDal
	Panels       dataaccess.PanelDal
}

func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsAll
	s.State.MaxMessageCount = cfg.MessageCacheSize
	return s, nil
}

func NewPlatform(s *discordgo.Session, cfg *config.Config) *platform.Discord {
	return platform.NewDiscord(s, cfg.GuildId)
}

// NewMongoClient dials MongoDB. A nil client is returned when no URI is configured.
func NewMongoClient(l *slog.Logger, cfg *config.Config) (*mongo.Client, func(), error) {
	if cfg.MongoUri == "" {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	m := &connection.MongoDB{URI: cfg.MongoUri, AppName: config.AppName}
	client, err := m.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	l.Info("Connected to MongoDB")

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			l.Error("Error disconnecting from MongoDB", slog.String(logging.KeyError, err.Error()))
		}
	}
	return client, cleanup, nil
}

func NewStores(l *slog.Logger, db *mongo.Client) *Stores {
	if db == nil {
		mem := dataaccess.NewMemoryStore()
		return &Stores{
			Tickets:      mem,
			Restrictions: mem,
			Panels:       mem,
		}
	}
	return &Stores{
		Tickets:      dataaccess.NewTicketDal(l, db),
		Restrictions: dataaccess.NewRestrictionDal(l, db),
		Panels:       dataaccess.NewPanelDal(l, db),
	}
}

func NewOverwriteLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(overwritesPerSecond), 1)
}

func NewVisibility(l *slog.Logger, p platform.Service, limiter *rate.Limiter, stores *Stores, cfg *config.Config) *visibility.Restrictions {
	ctrl := visibility.NewController(l, p, limiter)
	return visibility.NewRestrictions(ctrl, stores.Restrictions, cfg.HelpdeskCategoryId)
}

func NewArchiver(l *slog.Logger, p platform.Service, cfg *config.Config) (*transcript.Archiver, error) {
	store, err := transcript.NewStore(cfg.TranscriptDir)
	if err != nil {
		return nil, fmt.Errorf("error creating transcript store: %w", err)
	}
	renderer := transcript.NewRenderer(p, cfg.TranscriptZone)
	return transcript.NewArchiver(l, p, renderer, store, cfg.TranscriptChannelId), nil
}

func NewTickets(l *slog.Logger, p platform.Service, stores *Stores, archiver ticketing.Archiver, cfg *config.Config) *ticketing.Manager {
	return ticketing.NewManager(l, p, stores.Tickets, archiver, ticketing.Config{
		HelpdeskCategoryID: cfg.HelpdeskCategoryId,
		ModRoleName:        cfg.ModRoleName,
	})
}

func NewMirror(l *slog.Logger, p platform.Service, cfg *config.Config) (*mirror.Mirror, error) {
	cache, err := mirror.NewCache(cfg.MessageCacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating message cache: %w", err)
	}
	return mirror.NewMirror(l, p, cache, mirror.NewFetcher(nil), cfg.StaffLogChannelId), nil
}

func NewAutomod(l *slog.Logger, p platform.Service, audit automod.Auditor, cfg *config.Config) (*automod.Moderator, error) {
	amCfg, err := automod.LoadConfig(cfg.AutomodConfig)
	if err != nil {
		return nil, err
	}
	return automod.NewModerator(l, p, amCfg, audit, cfg.ModRoleName, cfg.WelcomeChannelId)
}

func NewTranslator(cfg *config.Config) *translate.Client {
	return translate.NewClient(cfg.TranslateApiUrl, cfg.TranslateApiKey)
}

func NewScheduler() *cron.Cron {
	return cron.New()
}
