package realtime

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/api"
	"github.com/travigo/timetable-realtime/pkg/config"
	"github.com/travigo/timetable-realtime/pkg/database"
	"github.com/travigo/timetable-realtime/pkg/elastic_client"
	"github.com/travigo/timetable-realtime/pkg/realtime/archive"
	"github.com/travigo/timetable-realtime/pkg/realtime/feeds"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"github.com/travigo/timetable-realtime/pkg/redis_client"
	"github.com/travigo/timetable-realtime/pkg/schedule"
	"github.com/travigo/timetable-realtime/pkg/util"
	"github.com/urfave/cli/v2"
)

const scheduleFeedID = "schedule"

func RegisterCLI() *cli.Command {
	fileFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "feed",
			Usage:    "id of the configured feed the file belongs to",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "file",
			Usage:    "path of a saved feed response",
			Required: true,
		},
	}

	return &cli.Command{
		Name:  "realtime",
		Usage: "Merges GTFS-RT and SIRI-ET trip updates into the schedule",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "poll every configured feed and serve the realtime snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen target for the queue stats and health server",
					},
				},
				Action: func(c *cli.Context) error {
					return run(c.String("stats-listen"))
				},
			},
			{
				Name:  "cleaner",
				Usage: "run the queue cleaner for the feed queue",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					StartCleaner(ctx, redis_client.QueueConnection)

					return nil
				},
			},
			{
				Name:  "apply-file",
				Usage: "apply a saved feed response to the schedule and report the result",
				Flags: append(fileFlags,
					&cli.StringFlag{
						Name:  "shadow-backwards",
						Usage: "also apply with this backwards propagation and compare",
					},
					&cli.StringFlag{
						Name:  "shadow-forwards",
						Usage: "also apply with this forwards propagation and compare",
					},
				),
				Action: func(c *cli.Context) error {
					service, body, err := loadServiceAndFile(c.String("file"))
					if err != nil {
						return err
					}

					if c.String("shadow-backwards") != "" || c.String("shadow-forwards") != "" {
						feed := service.Config.Feed(c.String("feed"))
						if feed == nil {
							return feeds.ErrUnknownFeed
						}

						shadowOptions := feed.UpdateOptions()
						if c.String("shadow-backwards") != "" {
							shadowOptions.BackwardsPropagation = tripupdate.BackwardsPropagation(c.String("shadow-backwards"))
						}
						if c.String("shadow-forwards") != "" {
							shadowOptions.ForwardsPropagation = tripupdate.ForwardsPropagation(c.String("shadow-forwards"))
						}

						comparison, err := service.ComparePayload(c.String("feed"), body, time.Now(), shadowOptions)
						if err != nil {
							return err
						}

						for _, difference := range comparison.Differences {
							log.Info().Str("trip", difference.TripID).Str("date", difference.ServiceDate.String()).Str("reason", difference.Reason).Msg("Shadow difference")
						}
						log.Info().Int("differences", len(comparison.Differences)).Msg("Shadow comparison finished")

						return nil
					}

					result, err := service.ApplyPayload(c.String("feed"), body, time.Now())
					if err != nil {
						return err
					}

					for errorType, count := range result.ErrorsByType() {
						log.Info().Str("error", string(errorType)).Int("count", count).Msg("Update errors")
					}
					log.Info().Int("total", result.Total()).Int("successes", len(result.Successes)).Int("errors", len(result.Errors)).Msg("Applied feed file")

					return nil
				},
			},
			{
				Name:  "inspect",
				Usage: "print the canonical updates parsed from a saved feed response",
				Flags: fileFlags,
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					feed := cfg.Feed(c.String("feed"))
					if feed == nil {
						return feeds.ErrUnknownFeed
					}

					body, err := os.ReadFile(c.String("file"))
					if err != nil {
						return err
					}

					updates, incrementality, err := feeds.Decode(feed, body, time.Now())
					if err != nil {
						return err
					}

					pretty.Println("Incrementality:", incrementality)
					for _, update := range updates {
						if update.Err != nil {
							pretty.Println("Error:", update.Err.Error())
							continue
						}
						pretty.Println(update.Update)
					}

					return nil
				},
			},
		},
	}
}

func loadService() (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.ScheduleDirectory == "" {
		return nil, errors.New("No schedule directory configured")
	}

	model, err := schedule.LoadGTFS(cfg.ScheduleDirectory, scheduleFeedID)
	if err != nil {
		return nil, err
	}

	return NewService(cfg, model, time.Now), nil
}

func loadServiceAndFile(path string) (*Service, []byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	service, err := loadService()
	if err != nil {
		return nil, nil, err
	}

	return service, body, nil
}

func run(statsListen string) error {
	service, err := loadService()
	if err != nil {
		return err
	}

	if err := redis_client.Connect(); err != nil {
		return err
	}

	env := util.GetEnvironmentVariables()
	if env["TRAVIGO_MONGODB_CONNECTION"] != "" {
		if err := database.Connect(); err != nil {
			return err
		}
		defer database.Disconnect()

		mongoListener := archive.NewMongoListener(database.GetCollection(archive.CollectionName))
		service.Manager.AddListener(mongoListener)
		service.Manager.AddCommitListener(mongoListener)
	}

	if err := elastic_client.Connect(); err != nil {
		return err
	}
	if elastic_client.BulkIndexer != nil {
		service.Applier.AddBatchListener(archive.NewAuditListener(elastic_client.BulkIndexer))
		defer elastic_client.WaitUntilQueueEmpty()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue, err := feeds.StartConsumers(redis_client.QueueConnection, service.Config, service.Applier, service.Manager)
	if err != nil {
		return err
	}

	digests := feeds.NewDigestCache(redis_client.Client, 24*time.Hour)
	for i := range service.Config.Feeds {
		go feeds.NewPoller(&service.Config.Feeds[i], queue, digests).Run(ctx)
	}

	go service.RunCommitLoop(ctx)
	go StartStatsServer(statsListen, redis_client.QueueConnection, redis_client.Client, service.Manager)
	go func() {
		if err := api.SetupServer(service.Config.APIListen, service.Manager, service.Applier.Metrics()); err != nil {
			log.Error().Err(err).Msg("API server stopped")
		}
	}()

	<-ctx.Done() // wait for signal
	stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT)
	defer signal.Stop(signals)
	go func() {
		<-signals // hard exit on second signal (in case shutdown gets stuck)
		os.Exit(1)
	}()

	<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

	return nil
}
