package mosaic

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newleaf/newleaf/internal/cache"
	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
)

// MatrixStore はセグメントの重みをキャッシュ経由で読み出す。
type MatrixStore struct {
	repo    repository.PreferenceRepository
	cache   cache.Store
	ttl     time.Duration
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewMatrixStore はMatrixStoreを生成する。cacheがnilの場合は毎回DBから読む。
func NewMatrixStore(repo repository.PreferenceRepository, store cache.Store, ttl time.Duration, m metrics.MetricsCollector, logger *slog.Logger) *MatrixStore {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatrixStore{repo: repo, cache: store, ttl: ttl, metrics: m, logger: logger}
}

func matrixCacheKey(code model.SegmentCode) string {
	return "matrix:" + string(code)
}

// Get はセグメントの重みを返す。存在しない場合は(nil, nil)。
// キャッシュの障害はDB読み出しに切り替える。
func (s *MatrixStore) Get(ctx context.Context, code model.SegmentCode) (*model.PreferenceMatrix, error) {
	if s.cache != nil {
		m, found, err := cache.GetJSON[model.PreferenceMatrix](ctx, s.cache, matrixCacheKey(code))
		if err != nil {
			s.logger.Warn("嗜好マトリクスのキャッシュ読み出しに失敗しました", slog.String("error", err.Error()))
		}
		s.metrics.RecordCacheResult("matrix", found)
		if found {
			return m, nil
		}
	}

	m, err := s.repo.FindByGroupType(ctx, code)
	if err != nil {
		return nil, err
	}
	if m != nil && s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, matrixCacheKey(code), m, s.ttl); err != nil {
			s.logger.Warn("嗜好マトリクスのキャッシュ書き込みに失敗しました", slog.String("error", err.Error()))
		}
	}
	return m, nil
}

// Invalidate はセグメントのキャッシュを破棄する。重みの投入後に呼ぶ。
func (s *MatrixStore) Invalidate(ctx context.Context, code model.SegmentCode) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, matrixCacheKey(code))
}

// Seed は重みを作成または上書きし、キャッシュを破棄する。
func (s *MatrixStore) Seed(ctx context.Context, matrices []*model.PreferenceMatrix) error {
	for _, m := range matrices {
		if err := s.repo.Upsert(ctx, m); err != nil {
			return fmt.Errorf("セグメント%sの重みの保存に失敗しました: %w", m.GroupType, err)
		}
		if err := s.Invalidate(ctx, m.GroupType); err != nil {
			s.logger.Warn("嗜好マトリクスのキャッシュ破棄に失敗しました",
				slog.String("group_type", string(m.GroupType)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// matrixFile は重み投入用YAMLファイルの形式。
type matrixFile struct {
	Matrices []struct {
		GroupType model.SegmentCode    `yaml:"group_type"`
		Listing   model.ListingWeights `yaml:"listing"`
		Plot      model.PlotWeights    `yaml:"plot"`
		ExpiresAt *time.Time           `yaml:"expires_at"`
	} `yaml:"matrices"`
}

// ParseMatrices はYAMLからPreferenceMatrixの一覧を読み取り、検証する。
func ParseMatrices(data []byte, now time.Time) ([]*model.PreferenceMatrix, error) {
	var f matrixFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("重みファイルの解析に失敗しました: %w", err)
	}
	if len(f.Matrices) == 0 {
		return nil, fmt.Errorf("重みファイルにmatricesがありません")
	}

	seen := map[model.SegmentCode]bool{}
	out := make([]*model.PreferenceMatrix, 0, len(f.Matrices))
	for i, e := range f.Matrices {
		if !e.GroupType.Valid() {
			return nil, fmt.Errorf("matrices[%d]: group_type %q は22〜25のいずれかである必要があります", i, e.GroupType)
		}
		if seen[e.GroupType] {
			return nil, fmt.Errorf("matrices[%d]: group_type %q が重複しています", i, e.GroupType)
		}
		seen[e.GroupType] = true
		if e.Listing.Item < 0 || e.Listing.Service < 0 || e.Listing.Share < 0 ||
			e.Plot.Shared < 0 || e.Plot.Private < 0 {
			return nil, fmt.Errorf("matrices[%d]: 重みは0以上である必要があります", i)
		}
		recorded := now
		out = append(out, &model.PreferenceMatrix{
			GroupType:  e.GroupType,
			Listing:    e.Listing,
			Plot:       e.Plot,
			RecordedAt: &recorded,
			ExpiresAt:  e.ExpiresAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out, nil
}

// LoadMatrixFile はYAMLファイルから重みを読み込む。
func LoadMatrixFile(path string, now time.Time) ([]*model.PreferenceMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("重みファイルの読み込みに失敗しました: %w", err)
	}
	return ParseMatrices(data, now)
}
