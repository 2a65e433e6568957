package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/quant-edge/internal/scheduler"
	"github.com/yourusername/quant-edge/internal/service"
)

func newScheduleCmd() *cobra.Command {
	var withAPI bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the analysis on the configured daily schedule",
		Long: `Runs the pipeline on schedule.daily_cron and, when
schedule.pretip_window_minutes is set, once more when the day's first tip-off
is inside that window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if err := validate(cfg); err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			log := newLogger(cfg, cmd.OutOrStdout())
			comps, err := service.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer comps.Close()

			sched := scheduler.NewScheduler(comps.Service, loc, log)
			if err := sched.ScheduleDailyRun(cfg.Schedule.DailyCron); err != nil {
				return err
			}
			if cfg.Schedule.PretipWindowMinutes > 0 {
				if err := sched.SchedulePretipCheck(cfg.Schedule.PretipCheckCron, cfg.PretipWindow()); err != nil {
					return err
				}
			}
			if err := sched.Start(); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"jobs":     len(sched.Entries()),
				"next_run": sched.NextRun(),
			}).Info("Scheduler running")

			g, gctx := errgroup.WithContext(ctx)
			if withAPI {
				srv := newAPIServer(cfg, comps, log)
				g.Go(func() error { return srv.ListenAndServe(gctx) })
			}
			g.Go(func() error {
				<-gctx.Done()
				return sched.Stop()
			})
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&withAPI, "serve", false, "Also serve the HTTP API")
	return cmd
}
