package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/yupil/pkg/custom"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

// ReconcileReport is the outcome of a reconciliation run.
type ReconcileReport struct {
	// Checked is the number of live tickets looked at.
	Checked int

	// Orphaned is the number of tickets whose channel had gone and were marked archived.
	Orphaned int

	// Resurfaced is the number of closing tickets whose finish controls were posted again.
	Resurfaced int
}

// Reconcile compares the ticket ledger with the guild. A live ticket whose channel no longer exists
// is archived without a transcript. A closing ticket whose finish controls are gone gets them again.
func (m *Manager) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	tickets, err := m.store.GetTicketsByState(ctx, m.p.GuildID(), entities.TicketStateOpen, entities.TicketStateClosing)
	if err != nil {
		return nil, fmt.Errorf("error getting live tickets: %w", err)
	}

	report := new(ReconcileReport)
	for _, t := range tickets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		release, err := m.acquire(t.ChannelID)
		if err != nil {
			continue
		}
		m.reconcileTicket(ctx, t, report)
		release()
	}

	m.l.Info("Reconciled tickets",
		slog.Int("checked", report.Checked),
		slog.Int("orphaned", report.Orphaned),
		slog.Int("resurfaced", report.Resurfaced),
	)
	return report, nil
}

func (m *Manager) reconcileTicket(ctx context.Context, t *entities.Ticket, report *ReconcileReport) {
	l := m.l.With(slog.Int("ticket", t.ID), slog.String(logging.KeyChannelID, t.ChannelID))

	_, err := m.p.Channel(t.ChannelID)
	switch {
	case errors.Is(err, platform.ErrNotFound):
		from := t.State
		t.State = entities.TicketStateArchived
		t.ArchivedAt = custom.NewDatetime(m.now())
		if err := m.store.SaveTicket(ctx, t); err != nil {
			l.Error("Error archiving orphaned ticket", slog.String(logging.KeyError, err.Error()))
			return
		}
		TicketTransitions.WithLabelValues(string(from), string(entities.TicketStateArchived)).Inc()
		report.Orphaned++
		l.Warn("Archived ticket with no channel")
		return
	case err != nil:
		l.Warn("Error checking ticket channel", slog.String(logging.KeyError, err.Error()))
		return
	}

	if t.State != entities.TicketStateClosing {
		return
	}
	if t.FinishMessageID != "" {
		if _, err := m.p.Message(t.ChannelID, t.FinishMessageID); err == nil {
			return
		} else if !errors.Is(err, platform.ErrNotFound) {
			l.Warn("Error checking finish controls", slog.String(logging.KeyError, err.Error()))
			return
		}
	}

	msg, err := m.p.Send(t.ChannelID, finishMessage(t.ClosedBy))
	if err != nil {
		l.Warn("Error posting finish controls", slog.String(logging.KeyError, err.Error()))
		return
	}
	t.FinishMessageID = msg.ID
	if err := m.store.SaveTicket(ctx, t); err != nil {
		l.Error("Error saving ticket", slog.String(logging.KeyError, err.Error()))
		return
	}
	report.Resurfaced++
}
