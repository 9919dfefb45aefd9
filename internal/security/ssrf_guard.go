// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// OutboundGuard は外部HTTPアクセスのSSRF防止機能。
// セグメント検索サービスへの問い合わせと画像URLの事前検証で使用する。
type OutboundGuard interface {
	// NewSafeClient はプライベートIP等への接続を遮断するHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はDNS解決前の静的な検証を行う。
	ValidateURL(rawURL string) error
}

// blockedNetworks は宛先として許可しないネットワーク範囲。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16", // クラウドメタデータIPを含む
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %s: %v", cidr, err))
		}
		networks = append(networks, network)
	}
	return networks
}

// ssrfGuard はOutboundGuardの実装。
type ssrfGuard struct {
	schemes []string
	ports   []int
}

// NewSSRFGuard はhttp/httpsの80/443番ポートのみを許可するガードを生成する。
func NewSSRFGuard() *ssrfGuard {
	return &ssrfGuard{schemes: []string{"http", "https"}, ports: []int{80, 443}}
}

// NewHTTPSOnlyGuard はhttpsのみを許可するガードを生成する。
func NewHTTPSOnlyGuard() *ssrfGuard {
	return &ssrfGuard{schemes: []string{"https"}, ports: []int{443}}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを生成する。
// 接続時にDNS解決後のIPも検証されるため、DNS再バインディングも遮断される。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(g.schemes...).
		SetAllowedPorts(g.ports...).
		Build()
	return safeurl.Client(config).Client
}

// ValidateURL はスキーム、ホスト、IPアドレスを検証する。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URLが空です")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URLの形式が不正です: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !g.allowsScheme(scheme) {
		return fmt.Errorf("許可されていないスキームです: %q", scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("ホストが空です: %s", rawURL)
	}
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("許可されていないIPアドレスです: %s", ip)
		}
		return nil
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return fmt.Errorf("許可されていないホストです: %s", host)
	}
	return nil
}

func (g *ssrfGuard) allowsScheme(scheme string) bool {
	for _, s := range g.schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

var _ OutboundGuard = (*ssrfGuard)(nil)
