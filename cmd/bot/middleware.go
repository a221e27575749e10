package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/messages"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/request"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/translate"
	"github.com/Jacobbrewer1/yupil/pkg/visibility"
	"github.com/gorilla/mux"
)

// processor does the work for an interaction once it has been acknowledged. The returned params are
// sent back to the invoking member as a followup.
type processor func(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (*discordgo.WebhookParams, error)

// accessCheck decides whether the invoking member may run an interaction.
type accessCheck func(ctx context.Context, a IApp, i *discordgo.InteractionCreate) error

// slashCommand is a registered slash command.
type slashCommand struct {
	def     *discordgo.ApplicationCommand
	access  accessCheck
	process processor
}

// uiHandler handles a message component.
type uiHandler struct {
	access  accessCheck
	process processor
}

// userError carries a message meant for the invoking member.
type userError struct {
	msg string
}

func (e *userError) Error() string {
	return e.msg
}

func newUserError(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

// errMissingRole is returned when the member does not hold the moderation role.
var errMissingRole = errors.New("member does not hold the moderation role")

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(a IApp, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				request.Encode(a.Log(), cw, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// The status code is only known once the handler has run.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionName is the command name or component custom ID of the interaction.
func interactionName(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	default:
		return ""
	}
}

// resolve finds the access check and processor for an interaction.
func resolve(i *discordgo.InteractionCreate, commands map[string]*slashCommand, actions map[ticketing.UIAction]*uiHandler) (accessCheck, processor, bool) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		cmd, ok := commands[i.ApplicationCommandData().Name]
		if !ok {
			return nil, nil, false
		}
		return cmd.access, cmd.process, true
	case discordgo.InteractionMessageComponent:
		action, ok := ticketing.ParseAction(i.MessageComponentData().CustomID)
		if !ok {
			return nil, nil, false
		}
		h, ok := actions[action]
		if !ok {
			return nil, nil, false
		}
		return h.access, h.process, true
	default:
		return nil, nil, false
	}
}

// interactionHandler acknowledges every command and component straight away, then runs the handler
// and delivers the outcome as an ephemeral followup. Handler errors and panics never escape.
func interactionHandler(a IApp, commands map[string]*slashCommand, actions map[ticketing.UIAction]*uiHandler) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		name := interactionName(i)
		if name == "" {
			return
		}

		l := a.Log().With(
			slog.String(logging.KeyCommand, name),
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyUserID, invokerID(i)),
		)
		l.Debug("Handling interaction")

		t := time.Now()
		defer func() {
			monitoring.DiscordCommandDuration.WithLabelValues(name).Observe(time.Since(t).Seconds())
		}()

		if err := deferEphemeral(a, i); err != nil {
			l.Error("Error acknowledging interaction", slog.String(logging.KeyError, err.Error()))
			monitoring.DiscordCommandErrors.WithLabelValues(name, "ack").Inc()
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				l.Error("Panic handling interaction",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				monitoring.DiscordCommandErrors.WithLabelValues(name, "panic").Inc()
				followupText(a, l, i, messages.ErrUserErrorProcessing)
			}
		}()

		access, process, ok := resolve(i, commands, actions)
		if !ok {
			l.Error("No handler found for interaction")
			monitoring.DiscordCommandErrors.WithLabelValues(name, "unknown").Inc()
			followupText(a, l, i, messages.ErrUnknownAction)
			return
		}

		ctx := context.Background()
		if access != nil {
			if err := access(ctx, a, i); err != nil {
				l.Info("Interaction refused", slog.String(logging.KeyError, err.Error()))
				monitoring.DiscordCommandErrors.WithLabelValues(name, "forbidden").Inc()
				followupText(a, l, i, userMessage(err))
				return
			}
		}

		params, err := process(ctx, a, i)
		if err != nil {
			reason := errorReason(err)
			if reason == "internal" || reason == "platform" {
				l.Error("Error processing interaction", slog.String(logging.KeyError, err.Error()))
			} else {
				l.Info("Interaction rejected", slog.String(logging.KeyError, err.Error()))
			}
			monitoring.DiscordCommandErrors.WithLabelValues(name, reason).Inc()
			followupText(a, l, i, userMessage(err))
			return
		}

		if params == nil {
			return
		}
		if _, err := a.Session().FollowupMessageCreate(i.Interaction, true, ephemeral(params)); err != nil {
			l.Error("Error sending followup", slog.String(logging.KeyError, err.Error()))
		}
	}
}

// userMessage converts an error into the text shown to the invoking member.
func userMessage(err error) string {
	var ue *userError
	var te *ticketing.TransitionError
	switch {
	case errors.As(err, &ue):
		return ue.msg
	case errors.Is(err, errMissingRole):
		return messages.ErrMissingRole
	case errors.As(err, &te):
		return fmt.Sprintf(messages.ErrTicketWrongState, te.State)
	case errors.Is(err, visibility.ErrAlreadyRestricted):
		return messages.ErrAlreadyRestricted
	case errors.Is(err, ticketing.ErrNotATicket):
		return messages.ErrNotATicket
	case errors.Is(err, ticketing.ErrBusy):
		return messages.ErrTicketBusy
	case errors.Is(err, ticketing.ErrArchivalFailed):
		return messages.ErrArchivalFailed
	case errors.Is(err, ticketing.ErrCategoryUnreachable):
		return messages.ErrHelpdeskUnreachable
	case errors.Is(err, platform.ErrPermissionDenied):
		return messages.ErrBotPermission
	case errors.Is(err, platform.ErrNotFound):
		return messages.ErrNotFound
	default:
		return messages.ErrUserErrorProcessing
	}
}

// errorReason is the metric label for a handler error.
func errorReason(err error) string {
	var ue *userError
	switch {
	case errors.As(err, &ue), errors.Is(err, errMissingRole), errors.Is(err, translate.ErrUnsupportedLanguage),
		errors.Is(err, visibility.ErrAlreadyRestricted):
		return "user"
	case errors.Is(err, ticketing.ErrInvalidTransition),
		errors.Is(err, ticketing.ErrNotATicket),
		errors.Is(err, ticketing.ErrBusy):
		return "ticket"
	case errors.Is(err, ticketing.ErrArchivalFailed):
		return "archival"
	case errors.Is(err, platform.ErrPermissionDenied),
		errors.Is(err, platform.ErrNotFound),
		errors.Is(err, platform.ErrTransient),
		errors.Is(err, ticketing.ErrCategoryUnreachable):
		return "platform"
	default:
		return "internal"
	}
}

// requireModRole refuses members without the moderation role.
func requireModRole(_ context.Context, a IApp, i *discordgo.InteractionCreate) error {
	if i.Member == nil {
		return newUserError(messages.ErrNotInGuild)
	}
	ok, err := hasRole(a.Platform(), i.Member, a.Config().ModRoleName)
	if err != nil {
		return fmt.Errorf("error checking moderation role: %w", err)
	}
	if !ok {
		return errMissingRole
	}
	return nil
}

// requireMember refuses interactions from outside the guild.
func requireMember(_ context.Context, _ IApp, i *discordgo.InteractionCreate) error {
	if i.Member == nil {
		return newUserError(messages.ErrNotInGuild)
	}
	return nil
}

// requireModOrOwner lets the ticket owner through as well as moderators.
func requireModOrOwner(ctx context.Context, a IApp, i *discordgo.InteractionCreate) error {
	if err := requireModRole(ctx, a, i); err == nil || !errors.Is(err, errMissingRole) {
		return err
	}
	t, err := a.Tickets().Get(ctx, i.ChannelID)
	if err != nil {
		return err
	}
	if t.OwnerID != invokerID(i) {
		return errMissingRole
	}
	return nil
}
