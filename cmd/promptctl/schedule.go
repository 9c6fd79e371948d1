package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"promptsmith/internal/schedule"
)

func newScheduleCmd(st *cliState) *cobra.Command {
	var (
		spec    string
		name    string
		timeout time.Duration
	)
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run generate on a cron schedule until interrupted",
		Example: `  promptctl schedule --cron "0 */6 * * *" --setting rooftop --count 3 --bind pose,accessories
  promptctl schedule --cron "@every 30m" --setting kitchen`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			sched, err := schedule.NewScheduler(st.services.Controller, schedule.Options{
				Logger:     &st.logger,
				RunTimeout: timeout,
			})
			if err != nil {
				return err
			}
			if err := sched.Add(schedule.Job{Name: name, Schedule: spec, Request: req}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			sched.Run(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", `cron expression, 5 or 6 fields or a descriptor such as "@hourly" (required)`)
	cmd.Flags().StringVar(&name, "name", "default", "job name used in logs")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "upper bound for one run")
	_ = cmd.MarkFlagRequired("cron")
	flags.register(cmd)
	return cmd
}
