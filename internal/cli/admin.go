package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/kata/useradmin/internal/api"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
	"github.com/kata/useradmin/internal/core/service"
	"github.com/kata/useradmin/internal/infrastructure/db/postgres"
	redisdb "github.com/kata/useradmin/internal/infrastructure/db/redis"
	"github.com/kata/useradmin/internal/infrastructure/http/handlers"
	"github.com/kata/useradmin/pkg/logger"
)

// AdminCmd serves the admin panel backed by PostgreSQL and Redis sessions.
func AdminCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Serve the admin panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := setup("admin")
			log := logger.Get()

			if err := cfg.ValidateSession(); err != nil {
				return err
			}

			if !skipMigrate {
				if err := postgres.ApplyMigrations(ctx, cfg.Postgres.URL); err != nil {
					return err
				}
			}

			pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			rdb, err := redisdb.Connect(ctx, redisdb.Config{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				PoolSize: cfg.Redis.PoolSize,
			})
			if err != nil {
				return err
			}
			defer rdb.Close()

			// --- Dependencies ---
			users := postgres.NewUserRepository(pool)
			roles := postgres.NewRoleRepository(pool)
			hasher := security.NewBcryptHasher(cfg.BcryptCost)

			userSvc := service.NewUserService(users, roles, hasher, logger.For("user_service"))
			authSvc := service.NewAuthService(users, hasher, logger.For("auth_service"))
			sessionMgr := service.NewSessionManager(authSvc, logger.For("session_manager"))

			created, err := userSvc.EnsureAdmin(ctx, ports.BootstrapAdmin{
				Username: cfg.Bootstrap.Username,
				Email:    cfg.Bootstrap.Email,
				Password: cfg.Bootstrap.Password,
			})
			if err != nil {
				return fmt.Errorf("bootstrap admin: %w", err)
			}
			if created {
				log.Info().Str("username", cfg.Bootstrap.Username).Msg("bootstrap admin created")
			}

			store := redisdb.NewSessionStore(rdb, cfg.Session.TTL, []byte(cfg.Session.Secret))
			store.Options.Secure = cfg.Session.Secure

			e, err := api.NewAdminRouter(api.AdminDeps{
				Log:           log,
				Users:         userSvc,
				Sessions:      sessionMgr,
				Store:         store,
				Policy:        security.DefaultPolicy(),
				SecureCookies: cfg.Session.Secure,
				Health: []handlers.Dependency{
					handlers.PostgresDependency(pool),
					handlers.RedisDependency(rdb),
				},
			})
			if err != nil {
				return err
			}

			return serve(ctx, log, e, net.JoinHostPort("", cfg.Port))
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start-up")
	return cmd
}
