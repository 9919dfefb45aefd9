package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/newleaf/newleaf/internal/booking"
	"github.com/newleaf/newleaf/internal/cache"
	"github.com/newleaf/newleaf/internal/config"
	"github.com/newleaf/newleaf/internal/database"
	"github.com/newleaf/newleaf/internal/events"
	"github.com/newleaf/newleaf/internal/feed"
	"github.com/newleaf/newleaf/internal/folder"
	"github.com/newleaf/newleaf/internal/handler"
	"github.com/newleaf/newleaf/internal/image"
	"github.com/newleaf/newleaf/internal/listing"
	"github.com/newleaf/newleaf/internal/logger"
	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/middleware"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/notification"
	"github.com/newleaf/newleaf/internal/plot"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/taskboard"
	"github.com/newleaf/newleaf/internal/tool"
	"github.com/newleaf/newleaf/internal/user"
)

// cacheKeyPrefix はRedisのキーに付与する接頭辞。
const cacheKeyPrefix = "newleaf:"

// closer は終了時に呼ぶ後始末の一覧。登録の逆順に実行する。
type closer []func()

func (c *closer) add(f func()) { *c = append(*c, f) }

func (c closer) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// openDatabase はDB接続プールを開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, database.Options{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		ConnectTimeout:   cfg.DBConnectTimeout,
		StatementTimeout: cfg.DBStatementTimeout,
		ConnMaxIdleTime:  database.DefaultOptions().ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBAcquireTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", logger.MaskURL(cfg.DatabaseURL)),
		slog.Int("max_open_conns", cfg.DBMaxOpenConns),
	)
	return db, nil
}

// newCacheStore はREDIS_URLが設定されていればRedis、なければプロセス内キャッシュを返す。
func newCacheStore(ctx context.Context, cfg *config.Config, c *closer) (cache.Store, error) {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryStore(), nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	c.add(func() { client.Close() })
	slog.Info("redis cache enabled", slog.String("redis_url", logger.MaskURL(cfg.RedisURL)))
	return cache.NewRedisStore(client, cacheKeyPrefix), nil
}

// newPublisher はNATS_URLが設定されていればNATS、なければイベントを破棄するPublisherを返す。
func newPublisher(cfg *config.Config, c *closer) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		slog.Info("NATS_URL not set, domain events are disabled")
		return events.Nop{}, nil
	}
	nc, err := events.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	c.add(func() {
		if err := nc.Drain(); err != nil {
			slog.Warn("NATS drain failed", slog.String("error", err.Error()))
		}
	})
	slog.Info("domain event publishing enabled", slog.String("nats_url", logger.MaskURL(cfg.NATSURL)))
	return events.NewNATSPublisher(nc), nil
}

// newMetricsRegistry はランタイムメトリクスとアプリケーションメトリクスを登録したレジストリを返す。
func newMetricsRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// newSegmentResolver はキャッシュ、CSV、外部サービスの順で郵便番号を解決するResolverを組み立てる。
func newSegmentResolver(cfg *config.Config, store cache.Store, m metrics.MetricsCollector) *mosaic.Resolver {
	sources := []mosaic.NamedSource{
		{Name: "csv", Source: mosaic.NewCSVSegmentSource(cfg.PostcodeDataDir)},
	}
	if cfg.SegmentLookupURL != "" {
		client := security.NewSSRFGuard().NewSafeClient(cfg.SegmentLookupTimeout)
		sources = append(sources, mosaic.NamedSource{
			Name:   "lookup",
			Source: mosaic.NewHTTPSegmentClient(cfg.SegmentLookupURL, client),
		})
	}
	return mosaic.NewResolver(store, cfg.SegmentCacheTTL, m, slog.Default(), sources...)
}

// buildRouter はDB接続と外部サービスから全依存関係をワイヤリングし、HTTPハンドラーを返す。
func buildRouter(ctx context.Context, cfg *config.Config, db *sql.DB, c *closer) (http.Handler, error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db).WithAcquireTimeout(cfg.DBAcquireTimeout)
	listingRepo := repository.NewPostgresListingRepo(db).WithAcquireTimeout(cfg.DBAcquireTimeout)
	preferenceRepo := repository.NewPostgresPreferenceRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	folderRepo := repository.NewPostgresFolderRepo(db)
	boardRepo := repository.NewPostgresTaskBoardRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	plotRepo := repository.NewPostgresPlotRepo(db)
	toolRepo := repository.NewPostgresToolRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)

	// 2. 外部サービス
	store, err := newCacheStore(ctx, cfg, c)
	if err != nil {
		return nil, err
	}
	publisher, err := newPublisher(cfg, c)
	if err != nil {
		return nil, err
	}
	reg, collector := newMetricsRegistry()
	sanitizer := security.NewContentSanitizer()

	// 3. 推薦
	resolver := newSegmentResolver(cfg, store, collector)
	matrices := mosaic.NewMatrixStore(preferenceRepo, store, cfg.MatrixCacheTTL, collector, slog.Default())
	recommender := mosaic.NewRecommender(
		resolver, matrices, listingRepo, plotRepo,
		cfg.RecommendationRecencyBucket, collector, slog.Default(),
	)

	// 4. ドメインサービスの初期化
	notificationService := notification.NewService(notificationRepo, sanitizer, publisher)
	userService := user.NewService(userRepo)
	listingService := listing.NewService(listing.Deps{
		Listings:    listingRepo,
		Users:       userRepo,
		Boards:      boardRepo,
		Segments:    resolver,
		Recommender: recommender,
		Sanitizer:   sanitizer,
		Publisher:   publisher,
		Metrics:     collector,
	})
	folderService := folder.NewService(folderRepo)
	taskboardService := taskboard.NewService(taskboard.Deps{
		Boards:    boardRepo,
		Tasks:     taskRepo,
		Plots:     plotRepo,
		Folders:   folderService,
		Notifier:  notificationService,
		Sanitizer: sanitizer,
	})
	plotService := plot.NewService(plot.Deps{
		Plots:       plotRepo,
		Users:       userRepo,
		Recommender: recommender,
		Notifier:    notificationService,
		Sanitizer:   sanitizer,
	})
	toolService := tool.NewService(toolRepo, sanitizer)
	bookingService := booking.NewService(bookingRepo, plotRepo)
	imageStorage := image.NewS3Storage(image.Config{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.AWSRegion,
		Bucket:          cfg.S3Bucket,
		Prefix:          cfg.ImageUploadPrefix,
	})

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitPurchase))
	c.add(rateLimiter.Stop)

	return handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		SecurityHeaders: middleware.NewSecurityHeadersConfig(cfg.CookieSecure),
		AuthSecret:      []byte(cfg.AuthJWTSecret),
		RateLimiter:     rateLimiter,
		Metrics:         collector,
		MetricsHandler:  metrics.Handler(reg),
		Health:          db,

		Users:         userService,
		Listings:      listingService,
		Feed:          feed.NewBuilder(cfg.BaseURL),
		FeedType:      feed.ContentType,
		Notifications: notificationService,
		Folders:       folderService,
		Taskboards:    taskboardService,
		Plots:         plotService,
		Tools:         toolService,
		Bookings:      bookingService,
		Images:        imageStorage,
	}), nil
}

// newHTTPServer はハンドラーのタイムアウトより長い書き込みタイムアウトでサーバーを生成する。
func newHTTPServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: handler.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
