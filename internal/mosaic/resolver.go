package mosaic

import (
	"context"
	"log/slog"
	"time"

	"github.com/newleaf/newleaf/internal/cache"
	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/model"
)

// NamedSource は名前付きのセグメント情報源。名前はログに使う。
type NamedSource struct {
	Name   string
	Source SegmentSource
}

// Resolver はキャッシュ、CSV、外部サービスの順にセグメントを解決する。
// 最初に見つかった結果を採用し、エラーを返した情報源は読み飛ばす。
type Resolver struct {
	sources []NamedSource
	cache   cache.Store
	ttl     time.Duration
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewResolver はResolverを生成する。cacheがnilの場合はキャッシュしない。
func NewResolver(store cache.Store, ttl time.Duration, m metrics.MetricsCollector, logger *slog.Logger, sources ...NamedSource) *Resolver {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{sources: sources, cache: store, ttl: ttl, metrics: m, logger: logger}
}

func segmentCacheKey(normalized string) string {
	return "segment:" + normalized
}

// Resolve は郵便番号のセグメントを返す。どの情報源にもない場合は(nil, nil)。
// 情報源のエラーはWarnログに残し、呼び出し元には返さない。
func (r *Resolver) Resolve(ctx context.Context, postcode string) (*model.PostcodeSegment, error) {
	start := time.Now()
	defer func() { r.metrics.RecordSegmentLookup(time.Since(start)) }()

	normalized := NormalizePostcode(postcode)
	if normalized == "" {
		return nil, nil
	}

	if r.cache != nil {
		seg, found, err := cache.GetJSON[model.PostcodeSegment](ctx, r.cache, segmentCacheKey(normalized))
		if err != nil {
			r.logger.Warn("セグメントキャッシュの読み出しに失敗しました", slog.String("error", err.Error()))
		}
		r.metrics.RecordCacheResult("segment", found)
		if found && seg.Type.Valid() {
			return seg, nil
		}
	}

	for _, s := range r.sources {
		seg, err := s.Source.Lookup(ctx, postcode)
		if err != nil {
			r.logger.Warn("セグメント情報源の参照に失敗しました",
				slog.String("source", s.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if seg == nil {
			continue
		}
		if r.cache != nil {
			if err := cache.SetJSON(ctx, r.cache, segmentCacheKey(normalized), seg, r.ttl); err != nil {
				r.logger.Warn("セグメントキャッシュの書き込みに失敗しました", slog.String("error", err.Error()))
			}
		}
		return seg, nil
	}
	return nil, nil
}
