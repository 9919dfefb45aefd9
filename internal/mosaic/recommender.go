package mosaic

import (
	"context"
	"log/slog"
	"time"

	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/model"
)

// FallbackReason は推薦がパーソナライズされなかった理由。
type FallbackReason string

const (
	ReasonSegmentUnresolved FallbackReason = "segment_unresolved"
	ReasonMatrixMissing     FallbackReason = "matrix_missing"
	ReasonMatrixExpired     FallbackReason = "matrix_expired"
	ReasonMatrixError       FallbackReason = "matrix_error"
	// ReasonTypeFiltered は種別指定があり重み付けが不要だったことを示す。
	ReasonTypeFiltered FallbackReason = "type_filtered"
)

// SegmentResolver は郵便番号をセグメントに解決する。
type SegmentResolver interface {
	Resolve(ctx context.Context, postcode string) (*model.PostcodeSegment, error)
}

// MatrixLoader はセグメントの重みを読み出す。
type MatrixLoader interface {
	Get(ctx context.Context, code model.SegmentCode) (*model.PreferenceMatrix, error)
}

// ListingLister は出品の一覧取得。
type ListingLister interface {
	List(ctx context.Context, q model.ListingQuery, page model.PaginationQuery) ([]*model.Listing, int, error)
	ListRanked(ctx context.Context, q model.ListingQuery, ranking model.ListingRanking, page model.PaginationQuery) ([]*model.Listing, int, error)
}

// PlotLister は区画の一覧取得。
type PlotLister interface {
	List(ctx context.Context, f model.PlotFilter, page model.PaginationQuery) ([]*model.Plot, int, error)
	ListRanked(ctx context.Context, f model.PlotFilter, ranking model.PlotRanking, page model.PaginationQuery) ([]*model.Plot, int, error)
}

// Recommendation は推薦結果。Personalizedがfalseの場合はFallbackReasonに理由が入る。
type Recommendation[T any] struct {
	*model.PaginatedResult[T]
	Personalized   bool           `json:"personalized"`
	FallbackReason FallbackReason `json:"fallback_reason,omitempty"`
	Segment        string         `json:"segment,omitempty"`
}

// Recommender はセグメントの重みで出品・区画の並び順を調整する。
// 重みが得られない場合は通常の一覧にフォールバックし、エラーにはしない。
type Recommender struct {
	segments      SegmentResolver
	matrices      MatrixLoader
	listings      ListingLister
	plots         PlotLister
	recencyBucket time.Duration
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
	now           func() time.Time
}

// NewRecommender はRecommenderを生成する。
func NewRecommender(
	segments SegmentResolver,
	matrices MatrixLoader,
	listings ListingLister,
	plots PlotLister,
	recencyBucket time.Duration,
	m metrics.MetricsCollector,
	logger *slog.Logger,
) *Recommender {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{
		segments:      segments,
		matrices:      matrices,
		listings:      listings,
		plots:         plots,
		recencyBucket: recencyBucket,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// NormalizeListingWeights は出品種別の重みを合計1に正規化する。
// 負の重みは0とみなし、合計が0の場合は均等にする。
func NormalizeListingWeights(w model.ListingWeights) model.TypeWeights {
	raw := model.TypeWeights{
		model.ListingTypeItem:    max(w.Item, 0),
		model.ListingTypeService: max(w.Service, 0),
		model.ListingTypeShare:   max(w.Share, 0),
	}
	var sum float64
	for _, v := range raw {
		sum += v
	}
	if sum <= 0 {
		return UniformListingWeights()
	}
	for t, v := range raw {
		raw[t] = v / sum
	}
	return raw
}

// UniformListingWeights は全種別を同じ重みで扱う。
func UniformListingWeights() model.TypeWeights {
	w := model.TypeWeights{}
	types := model.ListingTypes()
	for _, t := range types {
		w[t] = 1 / float64(len(types))
	}
	return w
}

// NormalizePlotWeights は共有形態の重みを合計1に正規化する。
// Communalはshared、Privateはprivateの重みを使う。
func NormalizePlotWeights(w model.PlotWeights) map[model.PlotGroupType]float64 {
	shared, private := max(w.Shared, 0), max(w.Private, 0)
	sum := shared + private
	if sum <= 0 {
		return map[model.PlotGroupType]float64{model.PlotCommunal: 0.5, model.PlotPrivate: 0.5}
	}
	return map[model.PlotGroupType]float64{
		model.PlotCommunal: shared / sum,
		model.PlotPrivate:  private / sum,
	}
}

// loadMatrix はセグメントと重みを解決する。得られない場合は理由を返す。
func (r *Recommender) loadMatrix(ctx context.Context, kind, postcode string) (*model.PreferenceMatrix, FallbackReason) {
	seg, err := r.segments.Resolve(ctx, postcode)
	if err != nil || seg == nil {
		attrs := []any{slog.String("kind", kind), slog.String("reason", string(ReasonSegmentUnresolved))}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		r.logger.Warn("推薦をフォールバックしました", attrs...)
		return nil, ReasonSegmentUnresolved
	}

	m, err := r.matrices.Get(ctx, seg.Type)
	var reason FallbackReason
	switch {
	case err != nil:
		reason = ReasonMatrixError
	case m == nil:
		reason = ReasonMatrixMissing
	case m.Expired(r.now()):
		reason = ReasonMatrixExpired
	default:
		return m, ""
	}

	attrs := []any{
		slog.String("kind", kind),
		slog.String("reason", string(reason)),
		slog.String("segment", string(seg.Type)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.logger.Warn("推薦をフォールバックしました", attrs...)
	return nil, reason
}

// RecommendListings は郵便番号のセグメントの重みで出品を並べ替える。
// 種別指定がある場合と重みが得られない場合は通常の一覧をそのまま返す。
func (r *Recommender) RecommendListings(ctx context.Context, postcode string, q model.ListingQuery, page model.PaginationQuery) (*Recommendation[*model.Listing], error) {
	var (
		m      *model.PreferenceMatrix
		reason = ReasonTypeFiltered
	)
	if q.Type == "" {
		m, reason = r.loadMatrix(ctx, "listing", postcode)
	}

	if m == nil {
		listings, total, err := r.listings.List(ctx, q, page)
		if err != nil {
			return nil, err
		}
		r.metrics.RecordRecommendation("listing", false, string(reason))
		return &Recommendation[*model.Listing]{
			PaginatedResult: model.NewPaginatedResult(listings, total, page),
			FallbackReason:  reason,
		}, nil
	}

	ranking := model.ListingRanking{
		Weights:       NormalizeListingWeights(m.Listing),
		RecencyBucket: r.recencyBucket,
	}
	listings, total, err := r.listings.ListRanked(ctx, q, ranking, page)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordRecommendation("listing", true, "")
	return &Recommendation[*model.Listing]{
		PaginatedResult: model.NewPaginatedResult(listings, total, page),
		Personalized:    true,
		Segment:         string(m.GroupType),
	}, nil
}

// RecommendPlots は郵便番号のセグメントの重みで区画を並べ替える。
// 共有形態の指定がある場合と重みが得られない場合は通常の一覧を返す。
func (r *Recommender) RecommendPlots(ctx context.Context, postcode string, f model.PlotFilter, page model.PaginationQuery) (*Recommendation[*model.Plot], error) {
	var (
		m      *model.PreferenceMatrix
		reason = ReasonTypeFiltered
	)
	if f.GroupType == "" {
		m, reason = r.loadMatrix(ctx, "plot", postcode)
	}

	if m == nil {
		plots, total, err := r.plots.List(ctx, f, page)
		if err != nil {
			return nil, err
		}
		r.metrics.RecordRecommendation("plot", false, string(reason))
		return &Recommendation[*model.Plot]{
			PaginatedResult: model.NewPaginatedResult(plots, total, page),
			FallbackReason:  reason,
		}, nil
	}

	plots, total, err := r.plots.ListRanked(ctx, f, model.PlotRanking{Weights: NormalizePlotWeights(m.Plot)}, page)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordRecommendation("plot", true, "")
	return &Recommendation[*model.Plot]{
		PaginatedResult: model.NewPaginatedResult(plots, total, page),
		Personalized:    true,
		Segment:         string(m.GroupType),
	}, nil
}
