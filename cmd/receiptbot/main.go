package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/Yvann20/Flask/internal/bot"
	"github.com/Yvann20/Flask/internal/clock"
	"github.com/Yvann20/Flask/internal/conversation"
	"github.com/Yvann20/Flask/internal/database"
	router "github.com/Yvann20/Flask/internal/http"
	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/services"
	"github.com/Yvann20/Flask/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	queueCapacity = 100
	queueWorkers  = 4
)

var Version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %s\n", err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags flagValues

	runE := func(cmd *cobra.Command, _ []string) error {
		config, err := NewConfig(flags, os.LookupEnv)
		if err != nil {
			return err
		}
		return run(cmd.Context(), config)
	}

	rootCmd := &cobra.Command{
		Use:          "receiptbot",
		Short:        "Telegram bot that registers orders and issues PDF receipts",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runE,
	}

	rootCmd.PersistentFlags().StringVar(&flags.token, "token", "", "telegram bot token")
	rootCmd.PersistentFlags().StringVar(&flags.adminID, "admin", "", "telegram user id allowed to register orders")
	rootCmd.PersistentFlags().StringVarP(&flags.dsn, "database", "d", "", "data source name for database connection")
	rootCmd.PersistentFlags().StringVarP(&flags.endpoint, "address", "a", defaultEndpoint, "address and port of the http api, empty to disable it")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Start the bot and the http api",
		RunE:  runE,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := NewMigrateConfig(flags, os.LookupEnv)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), config)
		},
	})

	return rootCmd
}

func migrate(ctx context.Context, config Config) error {
	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		return fmt.Errorf("logger wasn't initialized due to %w", err)
	}
	defer func() { _ = logger.Log.Sync() }()

	db, err := database.New(ctx, config.dsn)
	if err != nil {
		return fmt.Errorf("database wasn't initialized due to %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("migrations weren't run due to %w", err)
	}

	return nil
}

func run(ctx context.Context, config Config) error {
	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		return fmt.Errorf("logger wasn't initialized due to %w", err)
	}
	defer func() { _ = logger.Log.Sync() }()

	if config.generatedSecret {
		logger.Log.Warn("AUTH_SECRET_KEY is not set, api tokens will not survive a restart")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := utils.HandleTerminationProcess(func() {
		logger.Log.Info("termination signal received, shutting down")
		cancel()
	})
	defer stop()

	db, err := database.New(ctx, config.dsn)
	if err != nil {
		return fmt.Errorf("database wasn't initialized due to %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("migrations weren't run due to %w", err)
	}

	reg := metrics.NewRegistry()
	clk := clock.NewSystem()

	orderService := services.NewOrderService(db, clk, reg)
	receiptService := services.NewReceiptService(reg)
	jwtService := services.NewJWTService(config.authSecretKey)

	jobQueueService := services.NewJobQueueService(ctx, queueCapacity, queueWorkers)
	defer jobQueueService.Shutdown()

	intake := conversation.NewIntake(conversation.NewSessions(reg), orderService, clk, reg)
	handler := bot.NewHandler(config.adminID, orderService, receiptService, jwtService, intake, reg)

	telegram, err := bot.NewBot(config.token, handler, jobQueueService, reg)
	if err != nil {
		return fmt.Errorf("telegram bot wasn't initialized due to %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return telegram.Run(groupCtx)
	})

	if config.endpoint != "" {
		api := router.New(
			router.Config{
				Endpoint:     config.endpoint,
				AdminSubject: strconv.FormatInt(config.adminID, 10),
				Ready:        db.Ping,
			},
			orderService,
			receiptService,
			jwtService,
			reg.Handler(),
		)

		group.Go(func() error {
			return api.Run(groupCtx)
		})
	} else {
		logger.Log.Info("http api disabled")
	}

	logger.Log.Info("receiptbot started", zap.Int64("adminID", config.adminID))

	return group.Wait()
}
