package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pleadbot/mail-intake/internal/api"
	"github.com/pleadbot/mail-intake/internal/config"
	"github.com/pleadbot/mail-intake/internal/dispatch"
	"github.com/pleadbot/mail-intake/internal/docstore"
	"github.com/pleadbot/mail-intake/internal/fetch"
	"github.com/pleadbot/mail-intake/internal/intake"
	"github.com/pleadbot/mail-intake/internal/ledger"
	"github.com/pleadbot/mail-intake/internal/logger"
	"github.com/pleadbot/mail-intake/internal/mailbox"
	"github.com/pleadbot/mail-intake/internal/runlock"
)

func main() {
	configPath := flag.String("config", "config", "directory containing config.yaml")
	once := flag.Bool("once", false, "run a single poll cycle and exit")
	flag.Parse()

	// Load configuration from the given directory.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured JSON logger.
	log := logger.NewFromConfig(logger.LoggingConfig{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting mail intake")

	// Single-instance guard. The kernel frees the port when the process
	// exits, however it exits.
	if cfg.Intake.LockPort > 0 {
		lock := runlock.New(cfg.Intake.LockPort)
		if err := lock.Acquire(); err != nil {
			log.Fatal().Err(err).Int("port", cfg.Intake.LockPort).
				Msg("another intake process appears to be running")
		}
		defer lock.Release()
	}

	// Stop on SIGINT/SIGTERM; the runner drains the in-flight message.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store.
	store, err := docstore.New(docstore.Config{
		Type:       cfg.Storage.Type,
		Path:       cfg.Storage.Path,
		S3Bucket:   cfg.Storage.S3Bucket,
		S3Prefix:   cfg.Storage.S3Prefix,
		S3Endpoint: cfg.Storage.S3Endpoint,
		S3Region:   cfg.Storage.S3Region,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document store")
	}

	// Intake ledger.
	led, err := ledger.New(ctx, ledger.Config{
		Type:           cfg.Ledger.Type,
		URL:            cfg.Ledger.URL,
		Path:           cfg.Ledger.Path,
		PoolMin:        cfg.Ledger.PoolMin,
		PoolMax:        cfg.Ledger.PoolMax,
		ConnectTimeout: cfg.Ledger.ConnectTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize ledger")
	}

	// Dispatch queue.
	queue, err := dispatch.NewEnqueuer(dispatch.Config{
		Type:          cfg.Queue.Type,
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Stream:        cfg.Queue.Stream,
		SQSQueueURL:   cfg.Queue.SQSQueueURL,
		SQSRegion:     cfg.Queue.SQSRegion,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dispatch queue")
	}

	// Remote document fetcher.
	fetcher := fetch.NewHTTPClient(fetch.Config{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
	})

	// Mailbox.
	mb := mailbox.NewIMAPMailbox(mailbox.Config{
		Host:               cfg.Mailbox.Host,
		Port:               cfg.Mailbox.Port,
		Username:           cfg.Mailbox.Username,
		Password:           cfg.Mailbox.Password,
		UseTLS:             cfg.Mailbox.UseTLS,
		InsecureSkipVerify: cfg.Mailbox.InsecureSkipVerify,
		Inbox:              cfg.Mailbox.Inbox,
		Folders:            cfg.Mailbox.Folders,
	}, log)

	if len(cfg.Mailbox.Folders) > 0 {
		if err := mb.EnsureFolders(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to provision mailbox folders")
		}
	}

	// Admin endpoint.
	var adminSrv *http.Server
	if cfg.Admin.Enabled {
		adminSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Admin.Host, cfg.Admin.Port),
			Handler: api.NewRouter(led, log),
		}
		go func() {
			log.Info().Str("addr", adminSrv.Addr).Msg("admin endpoint listening")
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("admin server error")
			}
		}()
	}

	proc := intake.NewProcessor(store, fetcher, led, queue, cfg.Intake.FromFallback, log)
	runner := intake.NewRunner(mb, proc, cfg.Intake.PollInterval, log)

	exitCode := 0
	if *once {
		if err := runner.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("poll cycle failed")
			exitCode = 1
		}
	} else {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("poll loop terminated")
			exitCode = 1
		}
	}

	log.Info().Msg("shutting down mail intake")

	if adminSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("admin server shutdown error")
		}
	}

	if err := led.Close(); err != nil {
		log.Error().Err(err).Msg("ledger close error")
	}

	log.Info().Msg("mail intake stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
