package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
)

// reconcileTimeout bounds a single reconciliation run.
const reconcileTimeout = 10 * time.Minute

func (a *App) startScheduler() error {
	if _, err := a.scheduler.AddFunc(a.cfg.ReconcileSchedule, a.reconcileTickets); err != nil {
		return fmt.Errorf("error scheduling ticket reconciliation %q: %w", a.cfg.ReconcileSchedule, err)
	}
	a.scheduler.Start()

	// Catch up on anything that happened while the bot was down.
	go a.reconcileTickets()
	return nil
}

func (a *App) reconcileTickets() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	report, err := a.Tickets().Reconcile(ctx)
	if err != nil {
		monitoring.ReconcileRuns.WithLabelValues("error").Inc()
		a.l.Error("Error reconciling tickets", slog.String(logging.KeyError, err.Error()))
		return
	}
	monitoring.ReconcileRuns.WithLabelValues("success").Inc()

	if report.Orphaned > 0 || report.Resurfaced > 0 {
		a.Mirror().Audit(reconcileEmbed(report.Checked, report.Orphaned, report.Resurfaced))
	}
}

func reconcileEmbed(checked, orphaned, resurfaced int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Tickets reconciled",
		Color: colourWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Checked", Value: fmt.Sprintf("%d", checked), Inline: true},
			{Name: "Orphaned", Value: fmt.Sprintf("%d", orphaned), Inline: true},
			{Name: "Finish controls re-posted", Value: fmt.Sprintf("%d", resurfaced), Inline: true},
		},
	}
}
