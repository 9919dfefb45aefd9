// Package listing はマーケットプレイス出品のドメインロジックを提供する。
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/events"
	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/validation"
)

// FeedSize はRSSフィードに含める出品数。
const FeedSize = 20

// Recommender はセグメントの重みによる出品推薦のインターフェース。
type Recommender interface {
	RecommendListings(ctx context.Context, postcode string, q model.ListingQuery, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error)
}

// Deps はServiceの依存関係。
type Deps struct {
	Listings    repository.ListingRepository
	Users       repository.UserRepository
	Boards      repository.TaskBoardRepository
	Segments    mosaic.SegmentResolver
	Recommender Recommender
	Sanitizer   security.Sanitizer
	Publisher   events.Publisher
	Metrics     metrics.MetricsCollector
}

// Service は出品のサービス層。
type Service struct {
	listings    repository.ListingRepository
	users       repository.UserRepository
	boards      repository.TaskBoardRepository
	segments    mosaic.SegmentResolver
	recommender Recommender
	sanitizer   security.Sanitizer
	publisher   events.Publisher
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(deps Deps) *Service {
	s := &Service{
		listings:    deps.Listings,
		users:       deps.Users,
		boards:      deps.Boards,
		segments:    deps.Segments,
		recommender: deps.Recommender,
		sanitizer:   deps.Sanitizer,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		now:         time.Now,
	}
	if s.sanitizer == nil {
		s.sanitizer = security.NewContentSanitizer()
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

// List はフィルタとページネーションに従って出品一覧を返す。
func (s *Service) List(ctx context.Context, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
	q, err := BuildQuery(f)
	if err != nil {
		return nil, err
	}
	listings, total, err := s.listings.List(ctx, q, page)
	if err != nil {
		return nil, fmt.Errorf("出品一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(listings, total, page), nil
}

// Search はname/description/categoryの部分一致で出品を検索する。
// 空白のみの検索語はストレージに問い合わせず0件を返す。
func (s *Service) Search(ctx context.Context, term string, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return model.EmptyPaginatedResult[*model.Listing](page), nil
	}
	if err := validation.MaxLength("q", term, 100); err != nil {
		return nil, err
	}
	q, err := BuildQuery(f)
	if err != nil {
		return nil, err
	}
	q.Search = term
	listings, total, err := s.listings.List(ctx, q, page)
	if err != nil {
		return nil, fmt.Errorf("出品の検索に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(listings, total, page), nil
}

// GetByID は出品を取得する。見つからない場合はnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	return l, nil
}

// Recommend は郵便番号のセグメントに応じて並べた出品一覧を返す。
// postcodeが空の場合はユーザーの登録住所の郵便番号を使う。
func (s *Service) Recommend(ctx context.Context, userID, postcode string, f model.ListingFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error) {
	q, err := BuildQuery(f)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(postcode) == "" && userID != "" {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if u != nil {
			postcode = u.Address.PostCode
		}
	}
	rec, err := s.recommender.RecommendListings(ctx, postcode, q, page)
	if err != nil {
		return nil, fmt.Errorf("出品の推薦に失敗しました: %w", err)
	}
	return rec, nil
}

// ListByUser はユーザーが出品した一覧を新しい順に返す。
func (s *Service) ListByUser(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
	if err := validation.ID("id", userID); err != nil {
		return nil, err
	}
	q := model.ListingQuery{
		CreatedBy: userID,
		OrderBy:   []model.SortField{{Field: "createdAt", Desc: true}},
	}
	listings, total, err := s.listings.List(ctx, q, page)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの出品一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(listings, total, page), nil
}

// Latest はRSSフィード用に新しい順のopenな出品を返す。
func (s *Service) Latest(ctx context.Context) ([]*model.Listing, error) {
	q := model.ListingQuery{
		Status:  model.ListingStatusOpen,
		OrderBy: []model.SortField{{Field: "createdAt", Desc: true}},
	}
	listings, _, err := s.listings.List(ctx, q, model.PaginationQuery{Page: 1, Limit: FeedSize})
	if err != nil {
		return nil, fmt.Errorf("新着出品の取得に失敗しました: %w", err)
	}
	return listings, nil
}

// splitBoardPath はタスクボードのパス "/dir/.../Title" をフォルダパスとタイトルに分ける。
func splitBoardPath(p string) (dir, title string, ok bool) {
	i := strings.LastIndex(p, "/")
	if !strings.HasPrefix(p, "/") || i == len(p)-1 {
		return "", "", false
	}
	return p[:i+1], p[i+1:], true
}

// findServiceBoard は出品者が所有するタスクボードをパスから引く。
func (s *Service) findServiceBoard(ctx context.Context, path, owner string) (*model.TaskBoard, error) {
	dir, title, ok := splitBoardPath(strings.TrimSpace(path))
	if !ok {
		return nil, model.NewValidationError("path", "タスクボードのパスは /フォルダ/.../タイトル の形式で指定してください。")
	}
	b, err := s.boards.FindByPath(ctx, dir, title, owner)
	if err != nil {
		return nil, fmt.Errorf("タスクボードの取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewNotFoundError("タスクボード", path)
	}
	return b, nil
}

// locate は郵便番号から出品位置を求める。解決できない場合は[0,0]。
func (s *Service) locate(ctx context.Context, postcode string) [2]float64 {
	if s.segments == nil {
		return [2]float64{}
	}
	seg, err := s.segments.Resolve(ctx, postcode)
	if err != nil {
		slog.Warn("出品の位置情報の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return [2]float64{}
	}
	if seg == nil {
		return [2]float64{}
	}
	return seg.Location()
}

// Create は出品を作成する。
// service出品は出品者のタスクボードを指定する必要があり、そのボードを出品中にする。
func (s *Service) Create(ctx context.Context, in validation.ListingCreate) (*model.Listing, error) {
	in.Name = s.sanitizer.Text(in.Name)
	in.Description = s.sanitizer.Description(in.Description)
	in.Category = s.sanitizer.Text(in.Category)
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	creator, err := s.users.FindByID(ctx, in.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("出品者の取得に失敗しました: %w", err)
	}
	if creator == nil {
		return nil, model.NewUserNotFoundError()
	}
	if !creator.Address.HasAddress() {
		return nil, model.NewValidationError("address", "出品するには住所の登録が必要です。")
	}

	var board *model.TaskBoard
	if model.ListingType(in.Type) == model.ListingTypeService {
		board, err = s.findServiceBoard(ctx, in.Path, creator.ID)
		if err != nil {
			return nil, err
		}
		if board.Listed {
			return nil, model.NewTaskboardListedError(board.ID)
		}
	}

	now := s.now().UTC()
	l := &model.Listing{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Price:        *in.Price,
		Quantity:     *in.Quantity,
		Type:         model.ListingType(in.Type),
		Category:     in.Category,
		Status:       model.ListingStatusOpen,
		ImageURLs:    in.ImageURLs,
		Description:  in.Description,
		CreatedBy:    creator.ID,
		PickupMethod: model.PickupMethod(in.PickupMethod),
		Postcode:     in.Postcode,
		Location:     s.locate(ctx, in.Postcode),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}
	if board != nil {
		l.TaskboardID = &board.ID
	}

	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("出品の作成に失敗しました: %w", err)
	}
	if board != nil {
		if err := s.boards.SetListed(ctx, board.ID, true); err != nil {
			return nil, fmt.Errorf("タスクボードの出品状態の更新に失敗しました: %w", err)
		}
	}
	return l, nil
}

// Update は出品を部分更新する。出品者本人または管理者のみ更新できる。
// 出品者が行える状態変更は open→closed（取り下げ）のみ。
// pathを変更した場合は新旧タスクボードの出品中フラグを入れ替える。
func (s *Service) Update(ctx context.Context, id, userID string, in validation.ListingUpdate) (*model.Listing, error) {
	if err := validation.First(validation.ID("id", id), in.Validate()); err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, model.NewValidationError("body", "更新する項目がありません。")
	}

	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	if l == nil {
		return nil, model.NewListingNotFoundError(id)
	}
	if l.CreatedBy != userID && !in.Admin {
		return nil, model.NewForbiddenError("他のユーザーの出品は更新できません。")
	}
	// 終了済みの出品は管理者による訂正のみ受け付ける。購入済みの出品は再公開できない。
	if l.Status == model.ListingStatusClosed && !in.Admin {
		return nil, model.NewListingClosedError()
	}
	if in.Status != nil && model.ListingStatus(*in.Status) == model.ListingStatusOpen && l.PurchasedBy != nil {
		return nil, model.NewListingClosedError()
	}

	if in.Name != nil {
		l.Name = s.sanitizer.Text(*in.Name)
		if err := validation.Length("name", l.Name, 2, 100); err != nil {
			return nil, err
		}
	}
	if in.Price != nil {
		l.Price = *in.Price
	}
	if in.Quantity != nil {
		l.Quantity = *in.Quantity
	}
	if in.Category != nil {
		l.Category = s.sanitizer.Text(*in.Category)
		if err := validation.First(
			validation.Required("category", l.Category),
			validation.MaxLength("category", l.Category, 100),
		); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		l.Description = s.sanitizer.Description(*in.Description)
		if err := validation.MaxLength("description", l.Description, 1000); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		l.Status = model.ListingStatus(*in.Status)
	}
	if in.ImageURLs != nil {
		l.ImageURLs = *in.ImageURLs
	}
	if in.PickupMethod != nil {
		l.PickupMethod = model.PickupMethod(*in.PickupMethod)
	}
	if in.Postcode != nil && strings.TrimSpace(*in.Postcode) != l.Postcode {
		l.Postcode = strings.TrimSpace(*in.Postcode)
		l.Location = s.locate(ctx, l.Postcode)
	}

	var prevBoardID *string
	var next *model.TaskBoard
	if in.Path != nil {
		if l.Type != model.ListingTypeService {
			return nil, model.NewValidationError("path", "タスクボードを指定できるのはサービス出品のみです。")
		}
		next, err = s.findServiceBoard(ctx, *in.Path, l.CreatedBy)
		if err != nil {
			return nil, err
		}
		if l.TaskboardID != nil && *l.TaskboardID == next.ID {
			next = nil
		} else {
			if next.Listed {
				return nil, model.NewTaskboardListedError(next.ID)
			}
			prevBoardID = l.TaskboardID
			l.TaskboardID = &next.ID
		}
	}

	l.UpdatedAt = s.now().UTC()
	if err := s.listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("出品の更新に失敗しました: %w", err)
	}

	if next != nil {
		if prevBoardID != nil {
			if err := s.boards.SetListed(ctx, *prevBoardID, false); err != nil {
				return nil, fmt.Errorf("タスクボードの出品状態の更新に失敗しました: %w", err)
			}
		}
		if err := s.boards.SetListed(ctx, next.ID, true); err != nil {
			return nil, fmt.Errorf("タスクボードの出品状態の更新に失敗しました: %w", err)
		}
	}
	return l, nil
}

// Delete は出品を削除する（管理者操作）。紐付くタスクボードは出品中を解除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validation.ID("id", id); err != nil {
		return err
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	if l == nil {
		return model.NewListingNotFoundError(id)
	}
	if _, err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("出品の削除に失敗しました: %w", err)
	}
	if l.TaskboardID != nil {
		if err := s.boards.SetListed(ctx, *l.TaskboardID, false); err != nil {
			return fmt.Errorf("タスクボードの出品状態の更新に失敗しました: %w", err)
		}
	}
	slog.Info("出品を削除しました", slog.String("listing_id", id))
	return nil
}

// Purchase は出品を購入する。
// 事前検証は 未存在 → 終了済み → 自分の出品 → ポイント不足 の順に行い、
// 確定処理はリポジトリの1トランザクションで行う。同時購入は1件のみ成功する。
func (s *Service) Purchase(ctx context.Context, id, buyerID string) (*model.Listing, error) {
	if err := validation.First(validation.ID("id", id), validation.ID("buyer_id", buyerID)); err != nil {
		return nil, err
	}

	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		s.metrics.RecordPurchase("error")
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	if l == nil {
		s.metrics.RecordPurchase("not_found")
		return nil, model.NewListingNotFoundError(id)
	}
	if l.Status != model.ListingStatusOpen {
		s.metrics.RecordPurchase("closed")
		return nil, model.NewListingClosedError()
	}
	if l.CreatedBy == buyerID {
		s.metrics.RecordPurchase("own_listing")
		return nil, model.NewOwnListingError()
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		s.metrics.RecordPurchase("error")
		return nil, fmt.Errorf("購入者の取得に失敗しました: %w", err)
	}
	if buyer == nil {
		s.metrics.RecordPurchase("not_found")
		return nil, model.NewUserNotFoundError()
	}
	cost := l.PointsCost()
	if buyer.Points < cost {
		s.metrics.RecordPurchase("insufficient_points")
		return nil, model.NewInsufficientPointsError(buyer.Points, l.Price)
	}

	now := s.now().UTC()
	notifications := []*model.Notification{
		{
			ID:        uuid.NewString(),
			UserID:    l.CreatedBy,
			Type:      model.NotificationMarketplace,
			Title:     "出品が購入されました",
			Message:   fmt.Sprintf("「%s」が購入されました。%dポイントが加算されました。", l.Name, cost),
			Link:      "/marketplace/" + l.ID,
			Status:    model.NotificationUnread,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        uuid.NewString(),
			UserID:    buyerID,
			Type:      model.NotificationMarketplace,
			Title:     "購入が完了しました",
			Message:   fmt.Sprintf("「%s」を購入しました。%dポイントを使用しました。", l.Name, cost),
			Link:      "/marketplace/" + l.ID,
			Status:    model.NotificationUnread,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	purchased, err := s.listings.Purchase(ctx, id, buyerID, cost, notifications...)
	switch {
	case errors.Is(err, repository.ErrListingClosed):
		s.metrics.RecordPurchase("closed")
		return nil, model.NewListingClosedError()
	case errors.Is(err, repository.ErrInsufficientPoints):
		s.metrics.RecordPurchase("insufficient_points")
		return nil, model.NewInsufficientPointsError(buyer.Points, l.Price)
	case err != nil:
		s.metrics.RecordPurchase("error")
		return nil, fmt.Errorf("購入処理に失敗しました: %w", err)
	}
	s.metrics.RecordPurchase("success")

	events.PublishBestEffort(ctx, s.publisher, events.SubjectListingPurchased, events.ListingPurchased{
		ListingID:   purchased.ID,
		SellerID:    purchased.CreatedBy,
		BuyerID:     buyerID,
		Points:      cost,
		PurchasedAt: now,
	})
	for _, n := range notifications {
		events.PublishBestEffort(ctx, s.publisher, events.SubjectNotificationCreated, events.NotificationCreated{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Type:           string(n.Type),
			CreatedAt:      n.CreatedAt,
		})
	}
	return purchased, nil
}
