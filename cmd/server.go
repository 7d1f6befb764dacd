package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/cache"
	"github.com/example/tablebook/internal/config"
	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/migrate"
	"github.com/example/tablebook/internal/platform"
	"github.com/example/tablebook/internal/refresh"
	"github.com/example/tablebook/internal/secrets"
	"github.com/example/tablebook/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI + cache refresher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			var sealer *secrets.Sealer
			if len(cfg.TokenEncKey) > 0 {
				if sealer, err = secrets.New(cfg.TokenEncKey); err != nil {
					return fmt.Errorf("token encryption key: %w", err)
				}
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey, sealer)
			client := platform.New(cfg.PlatformBaseURL, cfg.PlatformAPIKey)

			readCache := cache.New(cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
			if readCache.Enabled() {
				if err := readCache.Ping(ctx); err != nil {
					log.Warn().Err(err).Msg("redis unreachable, cache misses will go upstream")
				}
				r := &refresh.Refresher{
					Platform: client,
					Cache:    readCache,
					Interval: cfg.RefreshInterval,
				}
				go func() { _ = r.Run(ctx) }()
			}

			ws := &web.Server{
				Auth:     authStore,
				Platform: client,
				Cache:    readCache,
				BaseURL:  cfg.BaseURL,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
