// cmd/metrics/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/velstore/stockpulse/internal/cache"
	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/pipeline"
	"github.com/velstore/stockpulse/internal/repository/postgres"
	"github.com/velstore/stockpulse/internal/service"
	"github.com/velstore/stockpulse/internal/storage"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "from",
			Usage: "Window start (RFC3339), defaults to the configured trailing window",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Window end (RFC3339)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Override the configured worker count",
		},
		&cli.BoolFlag{
			Name:  "export",
			Usage: "Upload the coefficient CSV after a successful run",
		},
	}
}

func stageAction(stages pipeline.Stages) cli.ActionFunc {
	return func(c *cli.Context) error {
		return executeRun(c, stages)
	}
}

func main() {
	app := &cli.App{
		Name:  "metrics",
		Usage: "Compute availability, gap and correction metrics",
		Commands: []*cli.Command{
			{
				Name:   "psb",
				Usage:  "Compute availability scores only",
				Flags:  runFlags(),
				Action: stageAction(pipeline.Stages{Availability: true}),
			},
			{
				Name:   "gaps",
				Usage:  "Compute probe gap metrics only",
				Flags:  runFlags(),
				Action: stageAction(pipeline.Stages{Gaps: true}),
			},
			{
				Name:   "corrections",
				Usage:  "Compute correction coefficients from stored scores",
				Flags:  runFlags(),
				Action: stageAction(pipeline.Stages{Corrections: true}),
			},
			{
				Name:   "all",
				Usage:  "Run every stage",
				Flags:  runFlags(),
				Action: stageAction(pipeline.AllStages()),
			},
			{
				Name:  "artifacts",
				Usage: "List a run's exported artifacts, optionally downloading the coefficient CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "run-id",
						Usage:    "Run whose artifacts to fetch",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "Local directory for downloads",
						Value: "./data/artifacts",
					},
					&cli.BoolFlag{
						Name:  "download",
						Usage: "Download coefficients.csv after listing",
					},
				},
				Action: fetchArtifacts,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func executeRun(c *cli.Context, stages pipeline.Stages) error {
	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	pipeCfg := pipeline.Config{
		WorkerCount: cfg.Metrics.WorkerCount,
		ProbeBucket: time.Duration(cfg.Metrics.ProbeBucketSeconds) * time.Second,
		Export:      c.Bool("export"),
	}
	if workers := c.Int("workers"); workers > 0 {
		pipeCfg.WorkerCount = workers
	}

	// Export is best effort: a dead artifact store downgrades the run,
	// it does not block it.
	var artifacts storage.ObjectStorage
	if pipeCfg.Export {
		client, err := storage.NewMinioClient(c.Context, cfg.Storage)
		if err != nil {
			log.Printf("warning: artifact storage unavailable, export disabled: %v", err)
		} else {
			artifacts = client
		}
	}

	runs := pipeline.NewRepository(db.DB.DB)
	runner := pipeline.NewRunner(
		pipeCfg,
		postgres.NewSnapshotRepository(db),
		postgres.NewMetricsRepository(db),
		runs,
		artifacts,
	)

	metricsCache, err := cache.NewMetricsCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: cache unavailable: %v", err)
		metricsCache = cache.NewNoopMetricsCache()
	}

	runService := service.NewRunService(cfg.Metrics, runner, runs, metricsCache)

	window, err := runService.ResolveWindow(c.String("from"), c.String("to"))
	if err != nil {
		return err
	}

	summary, err := runService.Execute(c.Context, window, stages)
	if err != nil {
		return err
	}

	fmt.Printf("run %s completed in %s\n", summary.Run.ID, summary.Duration.Round(time.Millisecond))
	fmt.Printf("  products:     %d\n", summary.Run.TotalProducts)
	fmt.Printf("  scores:       %d\n", summary.Scores)
	fmt.Printf("  gaps:         %d\n", summary.Gaps)
	fmt.Printf("  coefficients: %d\n", summary.Coefficients)
	fmt.Printf("  skipped:      %d\n", summary.Skipped)
	return nil
}

func fetchArtifacts(c *cli.Context) error {
	runID, err := uuid.Parse(c.String("run-id"))
	if err != nil {
		return fmt.Errorf("invalid run id: %w", err)
	}

	cfg := config.Load()
	client, err := storage.NewMinioClient(c.Context, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to init artifact storage: %w", err)
	}

	prefix := fmt.Sprintf("runs/%s/", runID)
	objects, err := client.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Printf("no artifacts under %s\n", prefix)
		return nil
	}

	for _, obj := range objects {
		fmt.Printf("%10d  %s\n", obj.Size, obj.Key)
	}

	if !c.Bool("download") {
		return nil
	}

	key := prefix + "coefficients.csv"
	dest := filepath.Join(c.String("out-dir"), runID.String(), "coefficients.csv")
	if err := client.DownloadObject(c.Context, key, dest); err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}

	fmt.Printf("downloaded %s to %s\n", key, dest)
	return nil
}
