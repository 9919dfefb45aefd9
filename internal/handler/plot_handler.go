package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/validation"
)

// PlotServiceInterface は区画ハンドラーが必要とするサービスインターフェース。
type PlotServiceInterface interface {
	Create(ctx context.Context, in validation.PlotCreate) (*model.Plot, error)
	GetByID(ctx context.Context, id string) (*model.Plot, error)
	Mine(ctx context.Context, userID string) ([]*model.Plot, error)
	List(ctx context.Context, f model.PlotFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Plot], error)
	Recommend(ctx context.Context, userID, postcode string, f model.PlotFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Plot], error)
	Update(ctx context.Context, id, userID string, in validation.PlotUpdate) (*model.Plot, error)
	Delete(ctx context.Context, id, userID string) error
	RequestJoin(ctx context.Context, id, userID string) (*model.Plot, error)
	AcceptJoin(ctx context.Context, id, ownerID, userID string) (*model.Plot, error)
	RejectJoin(ctx context.Context, id, ownerID, userID string) error
	RemoveMember(ctx context.Context, id, actorID, userID string) (*model.Plot, error)
}

// PlotHandler は区画のHTTPハンドラー。
type PlotHandler struct {
	service PlotServiceInterface
}

// NewPlotHandler はPlotHandlerを生成する。
func NewPlotHandler(service PlotServiceInterface) *PlotHandler {
	return &PlotHandler{service: service}
}

func plotFilterFromQuery(r *http.Request) model.PlotFilter {
	q := r.URL.Query()
	return model.PlotFilter{
		Status:    model.PlotStatus(q.Get("status")),
		GroupType: model.PlotGroupType(q.Get("group_type")),
		SoilType:  q.Get("soil_type"),
		Condition: q.Get("condition"),
		OwnerID:   q.Get("owner_id"),
		Sort:      q.Get("sort"),
	}
}

// ListPlots は条件に一致する区画一覧を返す。
// GET /api/plots
func (h *PlotHandler) ListPlots(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.List(r.Context(), plotFilterFromQuery(r), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecommendPlots はセグメントの嗜好で並べた区画一覧を返す。
// GET /api/plots/recommended
func (h *PlotHandler) RecommendPlots(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Recommend(r.Context(), userID, r.URL.Query().Get("postcode"), plotFilterFromQuery(r), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// MyPlots は所有または参加している区画を返す。
// GET /api/plots/mine
func (h *PlotHandler) MyPlots(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	ps, err := h.service.Mine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ps})
}

// GetPlot は区画詳細を返す。
// GET /api/plots/{id}
func (h *PlotHandler) GetPlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p == nil {
		writeNotFound(w, "区画", id)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePlot は区画を登録する。
// POST /api/plots
func (h *PlotHandler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.PlotCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.OwnerID = userID

	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlot は区画を部分更新する。所有者のみ。
// PATCH /api/plots/{id}
func (h *PlotHandler) UpdatePlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.PlotUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.service.Update(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlot は区画を削除する。所有者のみ。
// DELETE /api/plots/{id}
func (h *PlotHandler) DeletePlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestJoin は区画への参加を申請する。
// POST /api/plots/{id}/join
func (h *PlotHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.RequestJoin(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AcceptJoin は参加申請を承認する。所有者のみ。
// POST /api/plots/{id}/requests/{userId}/accept
func (h *PlotHandler) AcceptJoin(w http.ResponseWriter, r *http.Request) {
	ownerID, id, userID, ok := plotMemberParams(w, r)
	if !ok {
		return
	}
	p, err := h.service.AcceptJoin(r.Context(), id, ownerID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RejectJoin は参加申請を却下する。所有者のみ。
// DELETE /api/plots/{id}/requests/{userId}
func (h *PlotHandler) RejectJoin(w http.ResponseWriter, r *http.Request) {
	ownerID, id, userID, ok := plotMemberParams(w, r)
	if !ok {
		return
	}
	if err := h.service.RejectJoin(r.Context(), id, ownerID, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember はメンバーを外す。所有者または本人のみ。
// DELETE /api/plots/{id}/members/{userId}
func (h *PlotHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, id, userID, ok := plotMemberParams(w, r)
	if !ok {
		return
	}
	p, err := h.service.RemoveMember(r.Context(), id, actorID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// plotMemberParams は操作者・区画ID・対象ユーザーIDを取り出す。
func plotMemberParams(w http.ResponseWriter, r *http.Request) (actorID, plotID, userID string, ok bool) {
	if actorID, ok = requireUserID(w, r); !ok {
		return
	}
	if plotID, ok = pathID(w, r, "id"); !ok {
		return
	}
	userID, ok = pathID(w, r, "userId")
	return
}
