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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/config"
	httpapi "github.com/tbourn/go-intro-broker/internal/http"
	"github.com/tbourn/go-intro-broker/internal/observability"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

const (
	shutdownGrace = 15 * time.Second
	purgeEvery    = time.Hour
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run schema migrations before serving")
	return cmd
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(repo.Options{
		Driver:     cfg.DBDriver,
		SQLitePath: cfg.DBPath,
		DSN:        cfg.DBDSN,
		Tracing:    cfg.OTEL.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// newSender picks the outbound transport. The returned close func is never
// nil.
func newSender(cfg config.OutboundConfig) (outbound.Sender, func(), error) {
	switch cfg.Kind {
	case "nats":
		s, err := outbound.DialNATS(cfg.NATSURL, cfg.SubjectPrefix, appName)
		if err != nil {
			return nil, nil, fmt.Errorf("nats: %w", err)
		}
		return s, s.Close, nil
	default:
		return outbound.NewLogSender(log.Logger), func() {}, nil
	}
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	shutdownTracing, err := observability.Start(ctx, cfg.OTEL, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	reg, err := templates.NewRegistry(cfg.TemplatesPath)
	if err != nil {
		return err
	}
	for _, is := range templates.Check(reg.List(), cfg.Dispatch.SMSLimit) {
		log.Warn().Str("template", is.Type).Str("channel", string(is.Channel)).Str("code", is.Code).Msg(is.Detail)
	}

	sender, closeSender, err := newSender(cfg.Outbound)
	if err != nil {
		return err
	}
	defer closeSender()

	if cfg.TemplatesWatch {
		if err := reg.Watch(ctx, templates.DefaultDebounce, nil); err != nil {
			return fmt.Errorf("watch templates: %w", err)
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.NewServices(db, reg, sender, cfg), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		purgeIdempotency(gctx, db, purgeEvery)
		return nil
	})
	return g.Wait()
}

// purgeIdempotency drops expired replay records every interval until ctx is
// done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged expired idempotency records")
			}
		}
	}
}
