package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"DailyBriefing/internal/app"
	"DailyBriefing/internal/config"
	"DailyBriefing/internal/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dailybriefing",
		Short:         "Collect RSS feeds, classify articles, and deliver a daily briefing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newFetchCommand(),
		newProcessCommand(),
		newBriefingCommand(),
		newRunCommand(),
		newScheduleCommand(),
		newTestCommand(),
		newStatsCommand(),
	)
	return root
}

// withApp builds the application for one command invocation and tears it
// down afterwards.
func withApp(ctx context.Context, fn func(context.Context, *app.Application) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(ctx, application)
}

func newFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all feeds and store fresh articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				report, err := a.Pipeline().Fetch(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("fetched %d articles, %d new\n", report.Fetched, report.Added)
				return nil
			})
		},
	}
}

func newProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Classify pending articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				outcomes, err := a.Pipeline().Process(ctx)
				if err != nil {
					return err
				}
				classified := 0
				for _, outcome := range outcomes {
					if outcome.Result != nil {
						classified++
					}
				}
				fmt.Printf("classified %d of %d pending articles\n", classified, len(outcomes))
				return nil
			})
		},
	}
}

func newBriefingCommand() *cobra.Command {
	var dateFlag string
	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Assemble and deliver the briefing for a date (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				loc := a.Config().Scheduler.Location()
				day := time.Now().In(loc)
				if dateFlag != "" {
					parsed, err := time.ParseInLocation("2006-01-02", dateFlag, loc)
					if err != nil {
						return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", dateFlag, err)
					}
					day = parsed
				}

				delivered, err := a.Pipeline().Briefing(ctx, day)
				if err != nil {
					return err
				}
				if delivered == nil {
					fmt.Println("no articles for that date, nothing sent")
					existing, err := a.Store().FindBriefingByDate(ctx, day.Format("2006-01-02"))
					if err != nil {
						return err
					}
					if existing != nil {
						fmt.Printf("a briefing for %s already exists (%d articles)\n", existing.Date, existing.ArticleCount)
					}
					return nil
				}
				for channel, ok := range delivered {
					fmt.Printf("%s: sent=%v\n", channel, ok)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "briefing date as YYYY-MM-DD")
	return cmd
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full workflow once: fetch, classify, deliver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				loc := a.Config().Scheduler.Location()
				a.Pipeline().Run(ctx, time.Now().In(loc))
				return nil
			})
		},
	}
}

func newScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the workflow now, then on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(ctx context.Context, a *app.Application) error {
				loc := a.Config().Scheduler.Location()
				a.Pipeline().Run(ctx, time.Now().In(loc))

				if err := a.Scheduler().Start(ctx); err != nil {
					return err
				}
				<-ctx.Done()

				stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return a.Scheduler().Stop(stopCtx)
			})
		},
	}
}

func newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check connectivity of every configured delivery channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				for _, pub := range a.Publishers() {
					name := pub.Channel()
					if !pub.Enabled() {
						fmt.Printf("%s: not configured\n", name)
						continue
					}
					if err := pub.TestConnection(ctx); err != nil {
						fmt.Printf("%s: FAILED (%v)\n", name, err)
						continue
					}
					fmt.Printf("%s: ok\n", name)
				}
				return nil
			})
		},
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				stats, err := a.Store().Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("articles: %d total, %d processed\n", stats.TotalArticles, stats.ProcessedArticles)
				fmt.Printf("briefings: %d\n", stats.TotalBriefings)

				latest, err := a.Store().FindLatestBriefing(ctx)
				if err != nil {
					return err
				}
				if latest != nil {
					fmt.Printf("latest briefing: %s (%d articles)\n", latest.Date, latest.ArticleCount)
				}
				return nil
			})
		},
	}
}
