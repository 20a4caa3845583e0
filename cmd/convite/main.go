package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/sync/errgroup"

	"github.com/du-events/convite/internal/server"
	"github.com/du-events/convite/internal/server/handler/admin"
	"github.com/du-events/convite/internal/server/handler/verify"
	"github.com/du-events/convite/internal/server/render"
	"github.com/du-events/convite/internal/server/repository"
	"github.com/du-events/convite/internal/server/service"
	"github.com/du-events/convite/internal/server/storage"
	"github.com/du-events/convite/internal/shared/infra"
	"github.com/du-events/convite/internal/shared/log"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "convite.toml", "path to config file")
	flag.Parse()

	logger := log.New("server")

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal().Err(err).Msg("failed to load config")
		}
		logger.Warn().
			Str("file", *configPath).
			Msg("config file not found, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	runner := infra.NewBunTransactionRunner(db)
	runner.Timeout = cfg.UploadTimeout()

	var (
		students *repository.BunStudentRepository
		invites  *repository.BunInviteRepository
	)
	err = runner.Exec(ctx, func(ctx context.Context) error {
		var err error
		if students, err = repository.NewBunStudentRepository(ctx, db); err != nil {
			return err
		}
		invites, err = repository.NewBunInviteRepository(ctx, db)
		return err
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}

	issuer := &service.Issuer{
		Students:       students,
		Invites:        invites,
		Renderer:       &render.PDF{},
		Artifacts:      &storage.Disk{Dir: cfg.ArtifactDir, BaseURL: cfg.PublicBaseURL},
		TXRunner:       runner,
		Event:          cfg.EventMeta(),
		DefaultCountry: cfg.DefaultCountry,
		UploadTimeout:  cfg.UploadTimeout(),
		Logger:         &logger,
	}
	gate := &service.Gate{
		Invites: invites,
		Logger:  &logger,
	}

	srv := &server.Server{
		Addr:        cfg.Addr,
		Logger:      &logger,
		Verify:      &verify.Handler{Gate: gate, GatePIN: cfg.GatePin, Logger: &logger},
		Admin:       &admin.Handler{Issuer: issuer, Invites: invites, Logger: &logger},
		JWTSecret:   cfg.JWTSecret,
		AdminEmails: cfg.AdminEmails,
		ArtifactDir: cfg.ArtifactDir,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
