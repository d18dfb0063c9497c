package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/analytics"
	astore "github.com/ricwein/shurl/internal/analytics/store"
	"github.com/ricwein/shurl/internal/cache"
	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/dispatch"
	"github.com/ricwein/shurl/internal/handlers"
	"github.com/ricwein/shurl/internal/health"
	"github.com/ricwein/shurl/internal/messaging"
	"github.com/ricwein/shurl/internal/middleware"
	"github.com/ricwein/shurl/internal/redirect"
	"github.com/ricwein/shurl/internal/render"
	"github.com/ricwein/shurl/internal/resolver"
	"github.com/ricwein/shurl/internal/slug"
	"github.com/ricwein/shurl/internal/store"
	"github.com/ricwein/shurl/internal/tracker"
)

const (
	cachePrefix     = "shurl"
	consumerGroup   = "shurl-analytics"
	fetchTimeout    = 10 * time.Second
	randomSlugWidth = 8
)

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "console" || options.Development {
			return zap.NewDevelopment()
		}

		return zap.NewProduction()
	})
}

// ConfigPackage provides the application config derived from the flags.
func ConfigPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (config.Config, error) {
		return do.MustInvoke[*Options](i).Config(), nil
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})
}

// PostgresPackage provides the pgx connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return pgxpool.New(context.Background(), options.DatabaseURL)
	})
}

// StorePackage provides the entry and visit stores on top of Postgres.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*store.Postgres, error) {
		cfg := do.MustInvoke[config.Config](i)
		pool := do.MustInvoke[*pgxpool.Pool](i)

		return store.NewPostgres(pool, cfg.Slug), nil
	})

	do.Provide(injector, func(i *do.Injector) (redirect.Store, error) {
		return do.MustInvoke[*store.Postgres](i), nil
	})

	do.Provide(injector, func(i *do.Injector) (redirect.VisitStore, error) {
		return do.MustInvoke[*store.Postgres](i), nil
	})
}

// CachePackage provides the lookup cache. A disabled cache is a nil
// interface, which the consumers treat as "no cache".
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (cache.Cache, error) {
		cfg := do.MustInvoke[config.Config](i)
		if !cfg.Cache.Enabled {
			return nil, nil
		}

		switch cfg.Cache.Engine {
		case "memory":
			return cache.NewMemory(), nil
		case "redis", "":
			client := do.MustInvoke[*redis.Client](i)

			return cache.NewRedis(client, cachePrefix), nil
		default:
			return nil, fmt.Errorf("unknown cache engine %q", cfg.Cache.Engine)
		}
	})
}

// CorePackage provides the domain pipeline: codec, generator, resolver,
// tracker, renderer and dispatcher.
func CorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*slug.Codec, error) {
		cfg := do.MustInvoke[config.Config](i)

		return slug.NewCodec(cfg.Slug)
	})

	do.Provide(injector, func(i *do.Injector) (slug.Generator, error) {
		cfg := do.MustInvoke[config.Config](i)

		return slug.NewGenerator(cfg.Slug, randomSlugWidth)
	})

	do.Provide(injector, func(i *do.Injector) (*render.Renderer, error) {
		return render.New()
	})

	do.Provide(injector, func(i *do.Injector) (*resolver.Resolver, error) {
		cfg := do.MustInvoke[config.Config](i)

		return resolver.New(
			do.MustInvoke[redirect.Store](i),
			do.MustInvoke[cache.Cache](i),
			cfg.Cache.TTL,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*tracker.Tracker, error) {
		cfg := do.MustInvoke[config.Config](i)

		return tracker.New(
			do.MustInvoke[redirect.VisitStore](i),
			cfg.Tracking,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*dispatch.Dispatcher, error) {
		cfg := do.MustInvoke[config.Config](i)

		return dispatch.New(
			cfg,
			do.MustInvoke[cache.Cache](i),
			dispatch.NewHTTPFetcher(fetchTimeout),
			do.MustInvoke[*render.Renderer](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherGroupPackage provides the visit event publisher over Redis
// streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.VisitEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.VisitEvent](group.Publisher(), analytics.TopicVisitRecorded), nil
	})
}

// ConsumerGroupPackage provides the visit event consumer. Without a
// database the events are only logged.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.DatabaseURL == "" {
			return astore.NewNoop(logger), nil
		}

		return astore.NewPostgres(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroup,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewVisitConsumer(subscriber, do.MustInvoke[analytics.Store](i), logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with all routes
// registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)
		router.Use(middleware.RequestMeta)
		router.Use(middleware.Metrics)
		router.Handle("/metrics", promhttp.Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		cfg := do.MustInvoke[config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("shurl", "1.0.0"))

		renderer := do.MustInvoke[*render.Renderer](i)
		publishVisit := do.MustInvoke[messaging.Publish[analytics.VisitEvent]](i)

		redirector := handlers.NewRedirector(
			do.MustInvoke[*resolver.Resolver](i),
			do.MustInvoke[*tracker.Tracker](i),
			do.MustInvoke[*dispatch.Dispatcher](i),
			do.MustInvoke[redirect.Store](i),
			do.MustInvoke[cache.Cache](i),
			renderer,
			publishVisit,
			cfg,
			logger,
		)

		jsonAPI := handlers.NewAPI(
			do.MustInvoke[*resolver.Resolver](i),
			do.MustInvoke[*tracker.Tracker](i),
			do.MustInvoke[redirect.Store](i),
			do.MustInvoke[*slug.Codec](i),
			do.MustInvoke[slug.Generator](i),
			publishVisit,
			cfg,
			logger,
		)

		healthHandler := health.NewHandler(
			do.MustInvoke[*store.Postgres](i),
			health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
		)
		health.RegisterRoutes(api, healthHandler)

		handlers.RegisterRoutes(router, api, redirector, jsonAPI)

		return api, nil
	})
}
