// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Options は接続プールと接続パラメータの設定。
type Options struct {
	MaxOpenConns     int           // プールの最大接続数
	ConnectTimeout   time.Duration // 接続確立のタイムアウト
	StatementTimeout time.Duration // サーバー側のステートメントタイムアウト
	ConnMaxIdleTime  time.Duration
}

// DefaultOptions はデフォルトの接続設定を返す。
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:     10,
		ConnectTimeout:   5 * time.Second,
		StatementTimeout: 45 * time.Second,
		ConnMaxIdleTime:  5 * time.Minute,
	}
}

// Open はPostgreSQLデータベース接続プールを開く。
// プロセス起動時に1度だけ呼び出し、生成した*sql.DBを各リポジトリに渡すこと。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
// 切断された接続はdatabase/sqlが次回利用時に張り直す。
func Open(databaseURL string, opts Options) (*sql.DB, error) {
	dsn, err := withConnParams(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	return db, nil
}

// withConnParams は接続URLにconnect_timeoutとstatement_timeoutを付与する。
// URLに既に指定されている値は上書きしない。
func withConnParams(databaseURL string, opts Options) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database url: %w", err)
	}
	q := u.Query()
	if opts.ConnectTimeout > 0 && q.Get("connect_timeout") == "" {
		secs := int(opts.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	if opts.StatementTimeout > 0 && q.Get("statement_timeout") == "" {
		q.Set("statement_timeout", strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Acquire はタイムアウト付きでプールから接続を取得する。
// プールが枯渇している場合でも無制限には待たない。
func Acquire(ctx context.Context, db *sql.DB, timeout time.Duration) (*sql.Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("データベース接続の取得に失敗しました: %w", err)
	}
	return conn, nil
}
