package visibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/yupil/pkg/custom"
	"github.com/Jacobbrewer1/yupil/pkg/dataaccess"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
)

// ErrAlreadyRestricted is returned by Restrict when the member has an active restriction.
var ErrAlreadyRestricted = errors.New("member is already restricted")

// Restrictions records which channels were hidden from a member so they can be restored exactly.
type Restrictions struct {
	// ctrl applies the overwrites.
	ctrl *Controller

	// store persists restriction records.
	store dataaccess.RestrictionDal

	// excludeParents are categories whose channels are never hidden (the helpdesk).
	excludeParents []string

	// now is the clock.
	now func() time.Time
}

// NewRestrictions creates a restriction service. Channels under the excluded categories are left alone.
func NewRestrictions(ctrl *Controller, store dataaccess.RestrictionDal, excludeParents ...string) *Restrictions {
	return &Restrictions{
		ctrl:           ctrl,
		store:          store,
		excludeParents: excludeParents,
		now:            time.Now,
	}
}

// Restrict hides every candidate channel from the member and records the outcome. A member with an
// active restriction is refused with ErrAlreadyRestricted and the active record is returned.
func (r *Restrictions) Restrict(ctx context.Context, memberID, actorID, reason string) (*entities.Restriction, *Result, error) {
	active, err := r.store.GetActiveRestriction(ctx, r.ctrl.p.GuildID(), memberID)
	switch {
	case err == nil:
		return active, nil, fmt.Errorf("%w: %s", ErrAlreadyRestricted, memberID)
	case !errors.Is(err, dataaccess.ErrNotFound):
		return nil, nil, fmt.Errorf("error getting restriction: %w", err)
	}

	channels, err := r.ctrl.Candidates(r.excludeParents...)
	if err != nil {
		return nil, nil, err
	}

	res := r.ctrl.Hide(ctx, memberID, channels)

	restriction := &entities.Restriction{
		GuildID:           r.ctrl.p.GuildID(),
		MemberID:          memberID,
		HiddenChannelIDs:  res.AppliedIDs(),
		SkippedChannelIDs: res.SkippedIDs(),
		Reason:            reason,
		RestrictedBy:      actorID,
		CreatedAt:         custom.NewDatetime(r.now()),
	}
	for _, c := range res.Applied {
		if c.Prior != nil {
			restriction.PriorOverwrites = append(restriction.PriorOverwrites, *c.Prior)
		}
	}

	if err := r.store.SaveRestriction(ctx, restriction); err != nil {
		return restriction, res, fmt.Errorf("error saving restriction: %w", err)
	}
	return restriction, res, nil
}

// LinkTicket stores the ticket opened for the restriction.
func (r *Restrictions) LinkTicket(ctx context.Context, restriction *entities.Restriction, channelID string) error {
	restriction.TicketChannelID = channelID
	if err := r.store.SaveRestriction(ctx, restriction); err != nil {
		return fmt.Errorf("error saving restriction: %w", err)
	}
	return nil
}

// Unrestrict reveals the channels recorded when the member was restricted. When no record exists the
// channels currently visible to the bot are used and recorded is false.
func (r *Restrictions) Unrestrict(ctx context.Context, memberID string) (res *Result, recorded bool, err error) {
	restriction, err := r.store.GetActiveRestriction(ctx, r.ctrl.p.GuildID(), memberID)
	switch {
	case errors.Is(err, dataaccess.ErrNotFound):
		channels, err := r.ctrl.Candidates(r.excludeParents...)
		if err != nil {
			return nil, false, err
		}
		ids := make([]string, 0, len(channels))
		for _, ch := range channels {
			ids = append(ids, ch.ID)
		}

		r.ctrl.l.Warn("No restriction record, revealing current candidates", slog.Int("channels", len(ids)))
		return r.ctrl.Reveal(ctx, memberID, ids, nil), false, nil
	case err != nil:
		return nil, false, fmt.Errorf("error getting restriction: %w", err)
	}

	res = r.ctrl.Reveal(ctx, memberID, restriction.HiddenChannelIDs, restriction.PriorOverwrites)

	restriction.LiftedAt = custom.NewDatetime(r.now())
	if err := r.store.SaveRestriction(ctx, restriction); err != nil {
		return res, true, fmt.Errorf("error saving restriction: %w", err)
	}
	return res, true, nil
}
