package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/law-makers/bounty/internal/config"
	"github.com/law-makers/bounty/internal/scheduler"
	urlutil "github.com/law-makers/bounty/internal/utils/url"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Scrape a listing page on a schedule",
	Long: `Watch scrapes the page right away and then on every tick of --schedule.
New bounties are logged and, with --nats-url, published as events.
Ticks that arrive while a scrape is still running are skipped.`,
	Example: `  # Every ten minutes
  bounty watch https://earn.example.com/bounties

  # Weekdays at 09:00, publishing to NATS
  bounty watch https://earn.example.com/bounties --schedule "0 9 * * 1-5" --nats-url nats://localhost:4222`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("schedule", config.DefaultWatchSchedule, "Cron expression or descriptor (e.g. @every 10m)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	target := strings.TrimSpace(args[0])
	if err := urlutil.ValidateURL(target); err != nil {
		return err
	}
	expr, _ := cmd.Flags().GetString("schedule")

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		payload, err := a.Pipeline.Run(ctx, target)
		if err != nil {
			return err
		}
		writeSummary(a, target, payload)
		return nil
	}

	sched := scheduler.New(loc)
	if err := sched.Schedule(expr, job); err != nil {
		return err
	}

	// First run happens immediately; a failure here is reported, not fatal
	if err := job(cmd.Context()); err != nil {
		log.Warn().Err(err).Str("url", target).Msg("Initial scrape failed")
	}

	sched.Start()
	log.Info().Str("schedule", expr).Time("next", sched.Next()).Msg("Watching for new bounties")

	<-cmd.Context().Done()
	sched.Stop()
	return nil
}
