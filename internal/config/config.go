package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile は起動時に読み込む.envファイルのパス。
const DefaultEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL        string
	DBMaxOpenConns     int
	DBConnectTimeout   time.Duration
	DBStatementTimeout time.Duration
	DBAcquireTimeout   time.Duration

	// Auth
	AuthJWTSecret string

	// Object storage
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	ImageUploadPrefix  string

	// Rate Limit（1ユーザー1分あたり）
	RateLimitGeneral  int
	RateLimitPurchase int

	// External services（空なら無効）
	RedisURL string
	NATSURL  string

	// Segment lookup
	PostcodeDataDir      string
	SegmentLookupURL     string
	SegmentLookupTimeout time.Duration
	SegmentCacheTTL      time.Duration
	MatrixCacheTTL       time.Duration

	// Recommendation
	RecommendationRecencyBucket time.Duration

	// Notification
	NotificationRetentionDays int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は.envと環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadWithEnvFile(DefaultEnvFile)
}

// LoadWithEnvFile は指定した.envファイルを読み込んだ上でConfigを組み立てる。
// ファイルが存在しない場合は環境変数のみを使う。既存の環境変数は上書きしない。
func LoadWithEnvFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}

	// Required fields
	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.AuthJWTSecret = required("AUTH_JWT_SECRET")
	cfg.AWSAccessKeyID = required("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretAccessKey = required("AWS_SECRET_ACCESS_KEY")
	cfg.AWSRegion = required("AWS_REGION")
	cfg.S3Bucket = required("S3_BUCKET")

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBConnectTimeout = getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second)
	cfg.DBStatementTimeout = getEnvDuration("DB_STATEMENT_TIMEOUT", 45*time.Second)
	cfg.DBAcquireTimeout = getEnvDuration("DB_ACQUIRE_TIMEOUT", 5*time.Second)
	cfg.ImageUploadPrefix = getEnvString("IMAGE_UPLOAD_PREFIX", "uploads/")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitPurchase = getEnvInt("RATE_LIMIT_PURCHASE", 10)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.NATSURL = getEnvString("NATS_URL", "")
	cfg.PostcodeDataDir = getEnvString("POSTCODE_DATA_DIR", "data/postcodes")
	cfg.SegmentLookupURL = getEnvString("SEGMENT_LOOKUP_URL", "")
	cfg.SegmentLookupTimeout = getEnvDuration("SEGMENT_LOOKUP_TIMEOUT", 3*time.Second)
	cfg.SegmentCacheTTL = getEnvDuration("SEGMENT_CACHE_TTL", 24*time.Hour)
	cfg.MatrixCacheTTL = getEnvDuration("MATRIX_CACHE_TTL", 10*time.Minute)
	cfg.RecommendationRecencyBucket = getEnvDuration("RECOMMENDATION_RECENCY_BUCKET", 24*time.Hour)
	cfg.NotificationRetentionDays = getEnvInt("NOTIFICATION_RETENTION_DAYS", 90)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// NotificationRetention は通知の保持期間を返す。
func (c *Config) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
