package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/internal/bot"
	"task-tracker/internal/service"
)

const jobTimeout = 2 * time.Minute

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the task tracker over Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				return runBot(cmd.Context(), a)
			})
		},
	}
}

func runBot(ctx context.Context, a *app) error {
	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}

	telegramBot, err := bot.New(&a.cfg, a.remote, a.tokens, a.ix, a.log)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(a.ix.Location(), jobTimeout, a.log)
	if a.cfg.RefreshInterval > 0 {
		if _, err := scheduler.ScheduleInterval(a.cfg.RefreshInterval, "refresh", telegramBot.RefreshAll); err != nil {
			return err
		}
	}
	if a.cfg.ReportTime != "" {
		if _, err := scheduler.ScheduleDaily(a.cfg.ReportTime, "weekly-chart", telegramBot.SendWeeklyReports); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	a.log.Info("task tracker bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
