package mosaic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

const (
	// initialBackoff は接続エラー時の初回待機時間。
	initialBackoff = 100 * time.Millisecond
	// maxBackoff は待機時間の上限。
	maxBackoff = 2 * time.Second
	// defaultMaxRetries は接続エラー時の最大リトライ回数。
	defaultMaxRetries = 3
	// maxLookupResponseSize はレスポンスボディの読み取り上限。
	maxLookupResponseSize = 64 * 1024
)

// CalculateBackoff は連続失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回100ミリ秒、2倍ずつ増加、最大2秒。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// lookupResponse は外部セグメント検索サービスのレスポンス。
type lookupResponse struct {
	Type      string  `json:"type"`
	Eastings  float64 `json:"eastings"`
	Northings float64 `json:"northings"`
}

// HTTPSegmentClient は外部のセグメント検索サービスに問い合わせる。
// 接続エラーのみ有界の指数バックオフでリトライし、HTTPエラーはリトライしない。
type HTTPSegmentClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewHTTPSegmentClient はHTTPSegmentClientを生成する。
// 本番ではSSRF対策済みのクライアントを渡す。
func NewHTTPSegmentClient(baseURL string, client *http.Client) *HTTPSegmentClient {
	return &HTTPSegmentClient{
		baseURL:    baseURL,
		client:     client,
		maxRetries: defaultMaxRetries,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Lookup は GET {baseURL}?postcode=... を呼び出す。
// 404と推薦対象外のセグメントは(nil, nil)を返す。
func (c *HTTPSegmentClient) Lookup(ctx context.Context, postcode string) (*model.PostcodeSegment, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("セグメント検索URLの解析に失敗しました: %w", err)
	}
	q := u.Query()
	q.Set("postcode", NormalizePostcode(postcode))
	u.RawQuery = q.Encode()

	resp, err := c.do(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("セグメント検索サービスがステータス%dを返しました", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxLookupResponseSize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("セグメント検索レスポンスの解析に失敗しました: %w", err)
	}
	code := model.SegmentCode(body.Type)
	if !code.Valid() {
		return nil, nil
	}
	return &model.PostcodeSegment{
		Postcode:  postcode,
		Type:      code,
		Eastings:  body.Eastings,
		Northings: body.Northings,
	}, nil
}

// do はリクエストを送信し、接続エラーの場合はバックオフしながら再送する。
func (c *HTTPSegmentClient) do(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, CalculateBackoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("セグメント検索のリトライが中断されました: %w", err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "NewLeaf/1.0")

		resp, err := c.client.Do(req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("セグメント検索リクエストに失敗しました: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("セグメント検索リクエストが%d回失敗しました: %w", c.maxRetries+1, lastErr)
}

var _ SegmentSource = (*HTTPSegmentClient)(nil)
