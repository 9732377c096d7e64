// Package database opens the storage backend selected by configuration.
package database

import (
	"context"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CloseFunc releases the connections of an opened backend.
type CloseFunc func(ctx context.Context) error

// Open connects to the backend named by cfg.Database.Driver and returns its repositories.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositories.Set, CloseFunc, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return repositories.NewMemorySet(), func(context.Context) error { return nil }, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := OpenGORM(cfg.Database.Driver, cfg.Database.DSN, cfg.IsDevelopment())
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.MigrateGORM(db); err != nil {
			return nil, nil, err
		}
		logger.Info("connected to SQL database", zap.String("driver", cfg.Database.Driver))
		return repositories.NewGORMSet(db), func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}, nil

	case config.DriverMongo:
		client, db, err := OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		if err := EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return repositories.NewMongoSet(db), client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
}

// OpenGORM opens a Postgres or SQLite database. Driver errors are translated so unique
// violations surface as gorm.ErrDuplicatedKey.
func OpenGORM(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}

	logMode := gormlogger.Silent
	if verbose {
		logMode = gormlogger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenMongo connects to MongoDB and checks the primary is reachable.
func OpenMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// EnsureMongoIndexes creates the indexes the repositories rely on. Emails are unique.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		repositories.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		repositories.ProductsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		repositories.OrdersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for _, name := range []string{repositories.UsersCollection, repositories.ProductsCollection, repositories.OrdersCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes[name]); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
