package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// apiContentSecurityPolicy はJSONとRSSのみを返すAPI向けのCSP。
// 応答をHTMLとして描画・埋め込みさせない。
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// SecurityHeadersConfig はレスポンスに付与するセキュリティヘッダーの設定。
type SecurityHeadersConfig struct {
	// HSTSMaxAge が正の場合にStrict-Transport-Securityを付与する。HTTPSで配信する場合のみ設定する。
	HSTSMaxAge time.Duration
	// NoStorePrefix に一致するパスの応答はキャッシュさせない。空の場合は全パス。
	NoStorePrefix string
}

// NewSecurityHeadersConfig はHTTPS配信かどうかからヘッダー設定を生成する。
func NewSecurityHeadersConfig(https bool) SecurityHeadersConfig {
	cfg := SecurityHeadersConfig{NoStorePrefix: "/api/"}
	if https {
		cfg.HSTSMaxAge = 180 * 24 * time.Hour
	}
	return cfg
}

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// Cache-Controlはハンドラー側で上書きできる。
func NewSecurityHeadersMiddleware(cfg SecurityHeadersConfig) func(next http.Handler) http.Handler {
	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.FormatInt(int64(cfg.HSTSMaxAge/time.Second), 10) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", apiContentSecurityPolicy)
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if strings.HasPrefix(r.URL.Path, cfg.NoStorePrefix) {
				h.Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
