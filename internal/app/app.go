package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newleaf/newleaf/internal/config"
	"github.com/newleaf/newleaf/internal/database"
	"github.com/newleaf/newleaf/internal/logger"
	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/notification"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/worker/cleanup"
)

// シャットダウンとジョブ間隔。
const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 24 * time.Hour
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから、.envと環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeedPreferences:
		return runSeedPreferences(ctx, cfg, commandArgs(args))
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var c closer
	defer c.close()

	router, err := buildRouter(ctx, cfg, db, &c)
	if err != nil {
		return err
	}

	return serveUntilDone(ctx, newHTTPServer(cfg.ServerPort, router), "API server")
}

// serveUntilDone はサーバーを起動し、ctxのキャンセルでシャットダウンする。
func serveUntilDone(ctx context.Context, server *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s listen error: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down " + name + "...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 通知クリーンアップジョブを日次で実行し、/metricsを公開する。
// ctxがキャンセルされるとシャットダウンする。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg, collector := newMetricsRegistry()

	notificationService := notification.NewService(
		repository.NewPostgresNotificationRepo(db),
		security.NewContentSanitizer(),
		nil,
	)
	job := cleanup.NewCleanupJob(
		notificationService,
		repository.NewPostgresPreferenceRepo(db),
		collector,
		slog.Default(),
	)
	job.Retention = cfg.NotificationRetention()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cleanupInterval),
		slog.Int("notification_retention_days", cfg.NotificationRetentionDays),
	)

	go job.Start(ctx, cleanupInterval)

	server := newHTTPServer(cfg.ServerPort, metrics.SetupMetricsRoute(reg))
	if err := serveUntilDone(ctx, server, "worker metrics server"); err != nil {
		return err
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", logger.MaskURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeedPreferences はYAMLファイルの嗜好マトリクスをDBへ投入し、キャッシュを破棄する。
func runSeedPreferences(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: newleaf seed-preferences <file.yaml>")
	}

	matrices, err := mosaic.LoadMatrixFile(args[0], time.Now().UTC())
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var c closer
	defer c.close()
	store, err := newCacheStore(ctx, cfg, &c)
	if err != nil {
		return err
	}

	matrixStore := mosaic.NewMatrixStore(repository.NewPostgresPreferenceRepo(db), store, cfg.MatrixCacheTTL, nil, slog.Default())
	if err := matrixStore.Seed(ctx, matrices); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	slog.Info("嗜好マトリクスを投入しました",
		slog.String("file", args[0]),
		slog.Int("count", len(matrices)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
