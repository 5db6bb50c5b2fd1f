package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"plastikhb/internal/config"
	"plastikhb/internal/repositories"
	"plastikhb/internal/scheduler"
	"plastikhb/internal/server"
	"plastikhb/internal/services"
	"plastikhb/pkg/cache"
	"plastikhb/pkg/geo"
	"plastikhb/pkg/logger"
	"plastikhb/pkg/rabbitmq"
	"plastikhb/pkg/storage"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}
	cmd.Flags().String("port", "", "Listen address, e.g. :8080")
	_ = v.BindPFlag("APP_PORT", cmd.Flags().Lookup("port"))
	return cmd
}

func serve(v *viper.Viper) error {
	cfg, db, err := setup(v)
	if err != nil {
		return err
	}
	ctx := context.Background()

	files, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	// --- Optional infrastructure ---
	var productOpts []services.ProductOption
	var catalogCache services.Cache
	redisCache := connectCache(cfg)
	if redisCache != nil {
		catalogCache = redisCache
		productOpts = append(productOpts, services.WithCache(redisCache))
	}
	mqClient := connectBroker(cfg)
	if mqClient != nil {
		productOpts = append(productOpts, services.WithEventPublisher(mqClient))
		if err := mqClient.ConsumeEvents(logCatalogEvent); err != nil {
			logger.Error().Err(err).Msg("failed to start catalog event consumer")
		}
	}
	var locator services.Locator
	if cfg.GeoLookupURL != "" {
		locator = geo.NewHTTPLocator(cfg.GeoLookupURL, cfg.GeoLookupTimeout)
	}

	// --- Repositories and services ---
	products := repositories.NewGORMProductRepository(db)
	categories := repositories.NewGORMCategoryRepository(db)
	assets := repositories.NewGORMAssetRepository(db)

	authService := newAuthService(cfg, db)
	if err := seedAdmin(ctx, cfg, authService); err != nil {
		return err
	}
	productService := services.NewProductService(
		services.NewTxRunner(db, files),
		products, categories, assets,
		productOpts...,
	)

	jobs := scheduler.New(authService)
	if err := jobs.Start(ctx, cfg.SessionPurgeSchedule); err != nil {
		return err
	}

	app := server.NewApp(server.Options{
		BodyLimit:      cfg.BodyLimit(),
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadFiles: cfg.MaxUploadFiles,
		MaxUploadSize:  cfg.MaxUploadSize,
		AccessLog:      true,
	}, server.Services{
		Products:   productService,
		Categories: services.NewCategoryService(categories, products, catalogCache),
		Auth:       authService,
		Pages:      services.NewPageService(repositories.NewGORMPageRepository(db)),
		Analytics:  services.NewAnalyticsService(repositories.NewGORMAnalyticRepository(db), locator),
		Files:      files,
	})

	go func() {
		logger.Info().Str("addr", cfg.AppPort).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Error().Err(err).Msg("server stopped listening")
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		// One operation so the steps run in order: requests drain before their dependencies close.
		"server": func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			if err := app.ShutdownWithContext(ctx); err != nil {
				logger.Error().Err(err).Msg("error during fiber shutdown")
			}
			jobs.Stop()
			if mqClient != nil {
				if err := mqClient.Close(); err != nil {
					logger.Error().Err(err).Msg("error closing RabbitMQ client")
				}
			}
			if redisCache != nil {
				if err := redisCache.Close(); err != nil {
					logger.Error().Err(err).Msg("error closing redis client")
				}
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	exitCode := <-wait
	logger.Info().Int("exit_code", exitCode).Msg("server gracefully stopped")
	if exitCode != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", exitCode)
	}
	return nil
}

// connectCache returns nil when no redis is configured or it cannot be reached; the catalog
// then reads straight from the database.
func connectCache(cfg *config.Config) *cache.RedisCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	c, err := cache.NewRedisCache(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("catalog cache disabled")
		return nil
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("catalog cache connected")
	return c
}

// connectBroker returns nil when no RabbitMQ is configured or it cannot be reached; catalog
// events are then not published.
func connectBroker(cfg *config.Config) *rabbitmq.Client {
	if cfg.RabbitMQURL == "" {
		return nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
	if err != nil {
		logger.Warn().Err(err).Msg("catalog events disabled")
		return nil
	}
	return client
}

// logCatalogEvent records every catalog event in the log as an audit trail.
func logCatalogEvent(msg amqp.Delivery) error {
	var event services.CatalogEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed catalog event: %w", err)
	}
	logger.Info().
		Str("type", event.Type).
		Str("product_id", event.ProductID).
		Time("at", event.At).
		Uint64("delivery_tag", msg.DeliveryTag).
		Msg("catalog event")
	return nil
}
