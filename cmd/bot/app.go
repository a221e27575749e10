package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/cmd/bot/config"
	"github.com/Jacobbrewer1/yupil/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/yupil/pkg/automod"
	"github.com/Jacobbrewer1/yupil/pkg/dataaccess"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/mirror"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/request"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/transcript"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/Jacobbrewer1/yupil/pkg/visibility"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Config returns the configuration.
	Config() *config.Config

	// Platform returns the chat platform.
	Platform() platform.Service

	// Tickets returns the ticket manager.
	Tickets() *ticketing.Manager

	// Restrictions returns the restriction service.
	Restrictions() *visibility.Restrictions

	// Archiver returns the transcript archiver.
	Archiver() *transcript.Archiver

	// Mirror returns the moderation event mirror.
	Mirror() *mirror.Mirror

	// Translator returns the translation client.
	Translator() *translate.Client

	// Panels returns the panel store.
	Panels() dataaccess.PanelDal

	// Shutdown asks the application to stop.
	Shutdown(actorID string)
}

// Services are the components the application wires together.
type Services struct {
	Platform     platform.Service
	Tickets      *ticketing.Manager
	Restrictions *visibility.Restrictions
	Archiver     *transcript.Archiver
	Mirror       *mirror.Mirror
	Automod      *automod.Moderator
	Translator   *translate.Client
	Panels       dataaccess.PanelDal
}

type App struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the configuration.
	cfg *config.Config

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// db is the MongoDB client. Nil when records are kept in memory.
	db *mongo.Client

	// svc are the bot components.
	svc *Services

	// scheduler runs the periodic jobs.
	scheduler *cron.Cron

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// shutdown receives the user that asked for a shutdown.
	shutdown chan string
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, cfg *config.Config, r *mux.Router, s *discordgo.Session, db *mongo.Client, svc *Services, scheduler *cron.Cron) *App {
	a := &App{
		l:         l,
		cfg:       cfg,
		r:         r,
		s:         s,
		db:        db,
		svc:       svc,
		scheduler: scheduler,
		// Buffered so the session never blocks on the listener.
		eventNotifier: make(chan any, 100),
		shutdown:      make(chan string, 1),
	}
	s.SetEventNotifier(a.eventNotifier)
	return a
}

func (a *App) Run() error {
	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.l.Info(fmt.Sprintf("Logged in as %s", r.User.Username))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	a.verifyPanels(ctx)
	cancel()

	if err := a.startScheduler(); err != nil {
		return fmt.Errorf("error starting scheduler: %w", err)
	}

	a.l.Info("Bot is now running.")

	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		a.l.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case actor := <-a.shutdown:
		a.l.Warn("Shutdown requested", slog.String(logging.KeyUserID, actor))
	}

	return a.ShutdownHook()
}

// Shutdown asks Run to stop. Only the first request is kept.
func (a *App) Shutdown(actorID string) {
	select {
	case a.shutdown <- actorID:
	default:
	}
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	<-a.scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if a.svr != nil {
		if err := a.svr.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error stopping monitoring server: %w", err))
		}
	}

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		errs = append(errs, fmt.Errorf("error unregistering slash commands: %w", err))
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) runServer() {
	go func() {
		a.l.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.l.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.l.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a, a.healthCheck())).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.l)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.l)

	a.svr = &http.Server{
		Addr:              ":" + a.cfg.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Message lifecycle.
	a.s.AddHandler(messageCreateHandler(a, a.svc.Automod))
	a.s.AddHandler(messageUpdateHandler(a))
	a.s.AddHandler(messageDeleteHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a, slashCommands, uiActions))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.l.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	defs := commandDefinitions(slashCommands)
	created, err := a.s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, a.cfg.GuildId, defs)
	if err != nil {
		return fmt.Errorf("error creating commands for guild %s: %w", a.cfg.GuildId, err)
	}
	a.l.Info("Registered slash commands", slog.Int("count", len(created)), slog.String(logging.KeyGuildID, a.cfg.GuildId))
	return nil
}

func (a *App) unregisterSlashCommands() error {
	if _, err := a.s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, a.cfg.GuildId, []*discordgo.ApplicationCommand{}); err != nil {
		return fmt.Errorf("error deleting commands for guild %s: %w", a.cfg.GuildId, err)
	}
	return nil
}

func (a *App) Log() *slog.Logger {
	return a.l
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Platform() platform.Service {
	return a.svc.Platform
}

func (a *App) Tickets() *ticketing.Manager {
	return a.svc.Tickets
}

func (a *App) Restrictions() *visibility.Restrictions {
	return a.svc.Restrictions
}

func (a *App) Archiver() *transcript.Archiver {
	return a.svc.Archiver
}

func (a *App) Mirror() *mirror.Mirror {
	return a.svc.Mirror
}

func (a *App) Translator() *translate.Client {
	return a.svc.Translator
}

func (a *App) Panels() dataaccess.PanelDal {
	return a.svc.Panels
}
