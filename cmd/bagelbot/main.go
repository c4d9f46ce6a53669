package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/multierr"

	"github.com/andra1/bagelbot/internal/checkout"
	"github.com/andra1/bagelbot/internal/orders"
	"github.com/andra1/bagelbot/internal/runner"
	"github.com/andra1/bagelbot/internal/scheduler"
	"github.com/andra1/bagelbot/internal/session"
	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/clock"
	"github.com/andra1/bagelbot/pkg/config"
	"github.com/andra1/bagelbot/pkg/db"
	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/andra1/bagelbot/pkg/metrics"
	"github.com/andra1/bagelbot/pkg/migrate"
	"github.com/andra1/bagelbot/pkg/redis"
)

var (
	orderConfigPath string
	triggerTime     string
	dryRun          bool
	ordersLimit     int
)

func main() {
	app := cli.NewApp()
	app.Name = "bagelbot"
	app.Usage = "wakes up for a bakery drop, watches for it to go live, and buys the configured order"
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "execute one purchase run",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "order-config, c",
					Usage:       "path to the YAML order configuration",
					EnvVar:      "BAGELBOT_ORDER_CONFIG",
					Value:       "./order.yaml",
					Destination: &orderConfigPath,
				},
				cli.StringFlag{
					Name:        "time, t",
					Usage:       "wall-clock trigger time HH:MM[:SS]; omitted means start immediately",
					EnvVar:      "BAGELBOT_TRIGGER_TIME",
					Destination: &triggerTime,
				},
				cli.BoolFlag{
					Name:        "dry-run, n",
					Usage:       "stop after cart assembly without checking out",
					Destination: &dryRun,
				},
			},
			Action: runAction,
		},
		{
			Name:  "orders",
			Usage: "list recently recorded orders",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:        "limit, l",
					Usage:       "maximum number of orders to show",
					Value:       20,
					Destination: &ordersLimit,
				},
			},
			Action: ordersAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *logger.Logger, error) {
	logg := logger.New(logger.Options{ServiceName: "bagelbot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bagelbot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	return cfg, logg, nil
}

func runAction(_ *cli.Context) error {
	cfg, logg, err := bootstrap()
	if err != nil {
		return err
	}

	order, err := config.LoadOrder(orderConfigPath)
	if err != nil {
		return err
	}

	var triggerAt *scheduler.TimeOfDay
	if triggerTime != "" {
		tod, err := scheduler.ParseTimeOfDay(triggerTime)
		if err != nil {
			return err
		}
		triggerAt = &tod
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var closers []func() error
	defer func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		if errs != nil {
			logg.Error(ctx, "error releasing resources", errs)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrapping database: %w", err)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("running dev migrations: %w", err)
	}

	var lock runner.Lock = runner.NoopLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("bootstrapping redis: %w", err)
		}
		closers = append(closers, redisClient.Close)

		lock, err = runner.NewRedisLock(redisClient, redisClient.RunLockKey(cfg.Vendor.VendorID), cfg.Redis.LockTTL)
		if err != nil {
			return fmt.Errorf("creating run lock: %w", err)
		}
	}

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	if cfg.Ops.Enabled {
		ops := runner.NewOpsServer(cfg.Ops.Addr, logg)
		ops.Start(ctx)
		closers = append(closers, func() error {
			return ops.Shutdown(context.WithoutCancel(ctx))
		})
	}

	sessions, err := session.NewFileProvider(cfg.Session.CookieJar, logg)
	if err != nil {
		return err
	}
	credentials := &session.Holder{}

	vendorClient, err := vendor.NewHTTPClient(vendor.HTTPClientParams{
		Config:      cfg.Vendor,
		Logger:      logg,
		Credentials: credentials,
	})
	if err != nil {
		return err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Logger:  logg,
		Vendor:  vendorClient,
		Orders:  orders.NewRepository(dbClient.DB()),
		Metrics: pipelineMetrics,
	})
	if err != nil {
		return err
	}

	run, err := runner.New(runner.Params{
		Logger:      logg,
		Clock:       clock.New(),
		Metrics:     pipelineMetrics,
		Vendor:      vendorClient,
		Sessions:    sessions,
		Credentials: credentials,
		Checkout:    checkoutSvc,
		Lock:        lock,
		VendorID:    cfg.Vendor.VendorID,
		Monitor:     cfg.Monitor,
		Order:       order,
		TriggerAt:   triggerAt,
		DryRun:      dryRun,
	})
	if err != nil {
		return err
	}

	receipt, err := run.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logg.Info(ctx, "run interrupted, shutting down")
			return nil
		}
		return err
	}
	if receipt != nil {
		fmt.Printf("order confirmed: %s (cart %s, %d cents)\n", receipt.ConfirmationID, receipt.CartID, receipt.TotalCents)
	}
	return nil
}

func ordersAction(_ *cli.Context) error {
	cfg, logg, err := bootstrap()
	if err != nil {
		return err
	}

	ctx := context.Background()
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrapping database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	records, err := orders.NewRepository(dbClient.DB()).ListRecent(ctx, ordersLimit)
	if err != nil {
		return fmt.Errorf("listing orders: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no orders recorded")
		return nil
	}
	for _, record := range records {
		fmt.Printf("%s  %s  %6d cents  %s\n",
			record.CreatedAt.Format("2006-01-02 15:04:05"), record.ID, record.TotalCents, record.ConfirmationID)
	}
	return nil
}
