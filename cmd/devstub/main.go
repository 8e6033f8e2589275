package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/healthmall/client-core/internal/devapi"
	"github.com/healthmall/client-core/internal/infrastructure/db/redis"
	"github.com/healthmall/client-core/internal/infrastructure/storage"
	"github.com/healthmall/client-core/internal/miniapp"
	"github.com/healthmall/client-core/internal/pkg/config"
	"github.com/healthmall/client-core/pkg/logger"
)

var serveFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "addr",
		Usage: "listen address (overrides DEVSTUB_ADDR)",
	},
	&cli.StringFlag{
		Name:  "redis-addr",
		Usage: "Redis address for idempotency replay state; empty keeps it in memory",
	},
	&cli.BoolFlag{
		Name:  "pretty",
		Value: true,
		Usage: "human-friendly console logs",
	},
}

var probeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "base-url",
		Usage: "fixture origin to probe (overrides API_BASE_URL)",
	},
	&cli.StringFlag{
		Name:  "code",
		Value: "provider",
		Usage: "auth code to exchange; the fixture maps it to a seeded account",
	},
}

func main() {
	app := &cli.App{
		Name:  "devstub",
		Usage: "contract fixture server for the client core",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the fixture API",
				Flags:  serveFlags,
				Action: serve,
			},
			{
				Name:   "probe",
				Usage:  "smoke-test a running fixture through the real client",
				Flags:  probeFlags,
				Action: probe,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if v := cCtx.String("addr"); v != "" {
		cfg.Devstub.Addr = v
	}
	if v := cCtx.String("redis-addr"); v != "" {
		cfg.Devstub.RedisAddr = v
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cCtx.Bool("pretty")})

	var replay devapi.ReplayStore = devapi.NewMemoryReplay()
	if cfg.Devstub.RedisAddr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr: cfg.Devstub.RedisAddr,
			DB:   cfg.Devstub.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("devstub: %w", err)
		}
		defer rdb.Close()
		replay = redis.NewReplayStore(rdb)
		log.Info().Str("addr", cfg.Devstub.RedisAddr).Msg("replay state in redis")
	}

	e := devapi.NewRouter(devapi.NewStore(), replay, cfg.Devstub.JWTSecret, logger.Named("devapi"))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Devstub.Addr).Msg("devstub listening")
		errCh <- e.Start(cfg.Devstub.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// probe logs in through the mini-program client, fetches the profile and the
// current agreement, and prints the last recorded API event. It exercises
// the same code paths the embedded runtime uses.
func probe(cCtx *cli.Context) error {
	ctx := cCtx.Context

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if v := cCtx.String("base-url"); v != "" {
		cfg.APIBaseURL = v
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	kv, err := storage.OpenFile(cfg.StatePath, log)
	if err != nil {
		return err
	}
	baseURL, err := cfg.ResolveBaseURL(kv)
	if err != nil {
		return err
	}

	app := miniapp.New(miniapp.Config{
		BaseURL: baseURL,
		Timeout: cfg.RequestTimeout,
	}, kv, nil, nil, logger.Named("miniapp"))
	app.Init(ctx)
	defer app.Teardown()

	res, err := app.Login(ctx, cCtx.String("code"))
	if err != nil {
		return fmt.Errorf("probe login: %w", err)
	}
	log.Info().RawJSON("user", res.User).Msg("logged in")

	if err := app.ValidateToken(ctx); err != nil {
		return fmt.Errorf("probe profile: %w", err)
	}
	agreement, err := app.CurrentAgreement(ctx)
	if err != nil {
		return fmt.Errorf("probe agreement: %w", err)
	}
	log.Info().Str("title", agreement.Title).Str("version", agreement.Version).Msg("agreement")

	if evt, ok := app.Diagnostics().Last(); ok {
		log.Info().
			Str("method", evt.Method).
			Str("url", evt.URL).
			Int("status", evt.StatusCode).
			Int64("durationMs", evt.DurationMs).
			Msg("last api event")
	}
	return nil
}
