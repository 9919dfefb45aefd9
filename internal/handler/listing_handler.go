package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/newleaf/newleaf/internal/middleware"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/validation"
)

// ListingServiceInterface は出品ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	List(ctx context.Context, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error)
	Search(ctx context.Context, term string, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error)
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	// Recommend は郵便番号のセグメントに応じて並べた出品一覧を返す。
	Recommend(ctx context.Context, userID, postcode string, f model.ListingFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error)
	ListByUser(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error)
	Latest(ctx context.Context) ([]*model.Listing, error)
	Create(ctx context.Context, in validation.ListingCreate) (*model.Listing, error)
	Update(ctx context.Context, id, userID string, in validation.ListingUpdate) (*model.Listing, error)
	Delete(ctx context.Context, id string) error
	// Purchase は出品を購入し、ポイントを移動する。
	Purchase(ctx context.Context, id, buyerID string) (*model.Listing, error)
}

// FeedBuilder は出品一覧をRSS文書に変換する。
type FeedBuilder interface {
	Build(listings []*model.Listing) ([]byte, error)
}

// ListingHandler は出品のHTTPハンドラー。
type ListingHandler struct {
	service     ListingServiceInterface
	feed        FeedBuilder
	contentType string
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface, feed FeedBuilder, feedContentType string) *ListingHandler {
	return &ListingHandler{service: service, feed: feed, contentType: feedContentType}
}

// listingFilterFromQuery はクエリパラメータから出品フィルタを組み立てる。
func listingFilterFromQuery(r *http.Request) model.ListingFilter {
	q := r.URL.Query()
	return model.ListingFilter{
		Status:        q.Get("status"),
		Type:          q.Get("type"),
		Category:      q.Get("category"),
		CreatedByID:   q.Get("created_by_id"),
		PurchasedByID: q.Get("purchased_by_id"),
		Sort:          q.Get("sort"),
	}
}

// ListListings はフィルタと並び順を適用した出品一覧を返す。重み付けは行わない。
// GET /api/listings
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.List(r.Context(), listingFilterFromQuery(r), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecommendListings はセグメントの嗜好で並べた出品一覧を返す。
// typeが指定された場合、重み付けは行わずフォールバック理由を付けて返す。
// GET /api/listings/recommended
func (h *ListingHandler) RecommendListings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Recommend(r.Context(), userID, r.URL.Query().Get("postcode"), listingFilterFromQuery(r), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SearchListings は名前・説明・カテゴリの部分一致で出品を検索する。
// GET /api/listings/search?q=
func (h *ListingHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), listingFilterFromQuery(r), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetListing は出品詳細を返す。
// GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if l == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewListingNotFoundError(id))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ListUserListings はユーザーの出品一覧を返す。
// GET /api/users/{id}/listings
func (h *ListingHandler) ListUserListings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListByUser(r.Context(), id, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateListing は出品を作成する。
// POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.ListingCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CreatedBy = userID

	l, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// UpdateListing は出品を部分更新する。管理者は終了済みの出品も訂正できる。
// PATCH /api/listings/{id}
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.ListingUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Admin = middleware.RoleFromContext(r.Context()) == model.RoleAdmin

	l, err := h.service.Update(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DeleteListing は出品を削除する。管理者のみ。
// DELETE /api/listings/{id}
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurchaseListing は出品を購入する。
// POST /api/listings/{id}/purchase
func (h *ListingHandler) PurchaseListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	l, err := h.service.Purchase(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// feedCacheControl はRSSフィードの応答に付けるCache-Control。
const feedCacheControl = "public, max-age=300"

// Feed は新着のopenな出品をRSS 2.0で返す。
// GET /api/listings/feed
func (h *ListingHandler) Feed(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.Latest(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	body, err := h.feed.Build(listings)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", h.contentType)
	w.Header().Set("Cache-Control", feedCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("failed to write feed", slog.String("error", err.Error()))
	}
}
