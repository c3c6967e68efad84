package app

import (
	"context"
	"fmt"

	"github.com/chapterzero/bookstore/internal/api/handler"
	"github.com/chapterzero/bookstore/internal/core/ports"
	mongodb "github.com/chapterzero/bookstore/internal/infrastructure/db/mongo"
	"github.com/chapterzero/bookstore/internal/infrastructure/db/mysql"
	"github.com/chapterzero/bookstore/internal/infrastructure/db/postgres"
	"github.com/chapterzero/bookstore/internal/pkg/config"
)

// Store is an opened credential store with its probe and teardown.
type Store struct {
	ports.CredentialStore
	Check handler.HealthCheck
	close func(context.Context) error
}

// Close releases the underlying connection pool.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects to the driver selected by cfg.StoreDriver. When migrate
// is true the schema (indexes, tables, seed roles) is brought up to date.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		repo := mongodb.NewUserRepository(db)
		if migrate {
			if err := repo.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
		}
		return &Store{
			CredentialStore: repo,
			Check: handler.HealthCheck{Name: "mongodb", Ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}},
			close: client.Disconnect,
		}, nil

	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.MySQL.DSN)
		if err != nil {
			return nil, err
		}
		closeDB := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		if migrate {
			if err := mysql.Migrate(ctx, db); err != nil {
				_ = closeDB(ctx)
				return nil, err
			}
		}
		return &Store{
			CredentialStore: mysql.NewUserRepository(db),
			Check: handler.HealthCheck{Name: "mysql", Ping: func(ctx context.Context) error {
				return mysql.Ping(ctx, db)
			}},
			close: closeDB,
		}, nil

	case config.DriverPostgres:
		if migrate {
			if err := postgres.Migrate(cfg.Postgres.DSN, true); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return &Store{
			CredentialStore: postgres.NewUserRepository(pool),
			Check:           handler.HealthCheck{Name: "postgres", Ping: pool.Ping},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
