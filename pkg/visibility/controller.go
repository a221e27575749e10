// Package visibility hides and reveals channels for a single member through explicit permission
// overwrites. Channels are processed one at a time; a channel that fails is skipped and reported.
package visibility

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"golang.org/x/time/rate"
)

// Change is a channel whose overwrite was changed.
type Change struct {
	// ChannelID is the channel that was changed.
	ChannelID string

	// ChannelName is the name of the channel at the time of the change.
	ChannelName string

	// Prior is the member's explicit overwrite before the change. Nil when there was none.
	Prior *entities.Overwrite
}

// Skip is a channel that was left untouched.
type Skip struct {
	// ChannelID is the channel that was skipped.
	ChannelID string

	// ChannelName is the channel name, when known.
	ChannelName string

	// Reason is why the channel was skipped.
	Reason error
}

// Result is the outcome of a batch. A partial result is a normal outcome.
type Result struct {
	Applied []Change
	Skipped []Skip
}

// AppliedIDs returns the IDs of the changed channels.
func (r *Result) AppliedIDs() []string {
	ids := make([]string, 0, len(r.Applied))
	for _, c := range r.Applied {
		ids = append(ids, c.ChannelID)
	}
	return ids
}

// SkippedIDs returns the IDs of the skipped channels.
func (r *Result) SkippedIDs() []string {
	ids := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		ids = append(ids, s.ChannelID)
	}
	return ids
}

// Controller applies and clears per-member visibility overwrites.
type Controller struct {
	// l is the logger.
	l *slog.Logger

	// p is the chat platform.
	p platform.Service

	// limiter paces overwrite writes.
	limiter *rate.Limiter
}

// NewController creates a new visibility controller.
func NewController(l *slog.Logger, p platform.Service, limiter *rate.Limiter) *Controller {
	return &Controller{
		l:       l.With(slog.String(logging.KeyComponent, "visibility")),
		p:       p,
		limiter: limiter,
	}
}

// Candidates lists the text, voice and forum channels of the guild, leaving out any whose parent
// category is excluded.
func (c *Controller) Candidates(excludeParents ...string) ([]*discordgo.Channel, error) {
	channels, err := c.p.GuildChannels()
	if err != nil {
		return nil, fmt.Errorf("error listing channels: %w", err)
	}

	excluded := make(map[string]struct{}, len(excludeParents))
	for _, id := range excludeParents {
		excluded[id] = struct{}{}
	}

	out := make([]*discordgo.Channel, 0, len(channels))
	for _, ch := range channels {
		if !platform.IsKind(ch, platform.VisibilityKinds...) {
			continue
		}
		if _, ok := excluded[ch.ParentID]; ok {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

// Hide sets an explicit hidden overwrite for the member on every channel given. Channels the bot
// cannot manage are skipped.
func (c *Controller) Hide(ctx context.Context, memberID string, channels []*discordgo.Channel) *Result {
	res := new(Result)
	for i, ch := range channels {
		if err := c.limiter.Wait(ctx); err != nil {
			for _, rest := range channels[i:] {
				res.Skipped = append(res.Skipped, Skip{ChannelID: rest.ID, ChannelName: rest.Name, Reason: err})
			}
			break
		}

		if err := c.ensureManageable(ch.ID); err != nil {
			c.skip(res, "hide", ch.ID, ch.Name, err)
			continue
		}

		prior := memberOverwrite(ch, memberID)
		if err := c.p.SetOverwrite(ch.ID, memberID, discordgo.PermissionOverwriteTypeMember, 0, discordgo.PermissionViewChannel); err != nil {
			c.skip(res, "hide", ch.ID, ch.Name, err)
			continue
		}

		OverwriteChanges.WithLabelValues("hide", "applied").Inc()
		res.Applied = append(res.Applied, Change{ChannelID: ch.ID, ChannelName: ch.Name, Prior: prior})
	}

	c.l.Info("Hid channels from member",
		slog.String(logging.KeyUserID, memberID),
		slog.Int("applied", len(res.Applied)),
		slog.Int("skipped", len(res.Skipped)),
	)
	return res
}

// Reveal clears the member's overwrite on every channel given. A channel with a prior overwrite has
// that overwrite put back instead.
func (c *Controller) Reveal(ctx context.Context, memberID string, channelIDs []string, prior []entities.Overwrite) *Result {
	priorByChannel := make(map[string]entities.Overwrite, len(prior))
	for _, o := range prior {
		priorByChannel[o.ChannelID] = o
	}

	res := new(Result)
	for i, id := range channelIDs {
		if err := c.limiter.Wait(ctx); err != nil {
			for _, rest := range channelIDs[i:] {
				res.Skipped = append(res.Skipped, Skip{ChannelID: rest, Reason: err})
			}
			break
		}

		ch, err := c.p.Channel(id)
		if err != nil {
			c.skip(res, "reveal", id, "", err)
			continue
		}

		if err := c.ensureManageable(ch.ID); err != nil {
			c.skip(res, "reveal", ch.ID, ch.Name, err)
			continue
		}

		if o, ok := priorByChannel[ch.ID]; ok {
			err = c.p.SetOverwrite(ch.ID, memberID, discordgo.PermissionOverwriteTypeMember, o.Allow, o.Deny)
		} else {
			err = c.p.DeleteOverwrite(ch.ID, memberID)
		}
		if err != nil {
			c.skip(res, "reveal", ch.ID, ch.Name, err)
			continue
		}

		OverwriteChanges.WithLabelValues("reveal", "applied").Inc()
		res.Applied = append(res.Applied, Change{ChannelID: ch.ID, ChannelName: ch.Name})
	}

	c.l.Info("Revealed channels to member",
		slog.String(logging.KeyUserID, memberID),
		slog.Int("applied", len(res.Applied)),
		slog.Int("skipped", len(res.Skipped)),
	)
	return res
}

func (c *Controller) ensureManageable(channelID string) error {
	ok, err := c.p.CanManage(channelID)
	if err != nil {
		return err
	} else if !ok {
		return platform.NewError("check permissions", platform.KindPermissionDenied, fmt.Errorf("bot cannot manage channel %s", channelID))
	}
	return nil
}

func (c *Controller) skip(res *Result, action, id, name string, err error) {
	kind := platform.Classify(err)
	OverwriteChanges.WithLabelValues(action, kind.String()).Inc()
	c.l.Debug("Skipping channel",
		slog.String("action", action),
		slog.String(logging.KeyChannelID, id),
		slog.String(logging.KeyError, err.Error()),
	)
	res.Skipped = append(res.Skipped, Skip{ChannelID: id, ChannelName: name, Reason: err})
}

func memberOverwrite(ch *discordgo.Channel, memberID string) *entities.Overwrite {
	for _, o := range ch.PermissionOverwrites {
		if o.Type == discordgo.PermissionOverwriteTypeMember && o.ID == memberID {
			return &entities.Overwrite{ChannelID: ch.ID, Allow: o.Allow, Deny: o.Deny}
		}
	}
	return nil
}
