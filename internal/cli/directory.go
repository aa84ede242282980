package cli

import (
	"context"
	"net"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"

	"github.com/kata/useradmin/internal/api"
	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/service"
	"github.com/kata/useradmin/internal/infrastructure/db/mongo"
	"github.com/kata/useradmin/internal/infrastructure/http/handlers"
	"github.com/kata/useradmin/pkg/logger"
)

// DirectoryCmd serves the unauthenticated user directory backed by MongoDB.
func DirectoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "Serve the plain user directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := setup("directory")
			log := logger.Get()

			client, db, err := mongo.Connect(ctx, mongo.Config{
				URI:         cfg.Mongo.URI,
				Database:    cfg.Mongo.Database,
				MaxPoolSize: cfg.Mongo.MaxPoolSize,
			})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			repo := mongo.NewDirectoryRepository(db)
			if err := repo.EnsureIndexes(ctx); err != nil {
				return err
			}

			// Flash messages only; a per-process key is enough.
			secret := []byte(cfg.Session.Secret)
			if len(secret) < 32 {
				secret = securecookie.GenerateRandomKey(32)
			}
			store := websession.NewCookieStore(cfg.Session.Secure, secret)

			e, err := api.NewDirectoryRouter(api.DirectoryDeps{
				Log:       log,
				Directory: service.NewDirectoryService(repo, logger.For("directory_service")),
				Store:     store,
				Health:    []handlers.Dependency{handlers.MongoDependency(db)},
			})
			if err != nil {
				return err
			}

			return serve(ctx, log, e, net.JoinHostPort("", cfg.Port))
		},
	}
}
