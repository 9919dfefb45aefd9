package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// ToolServiceInterface は道具ハンドラーが必要とするサービスインターフェース。
type ToolServiceInterface interface {
	List(ctx context.Context, f model.ToolFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Tool], error)
	GetByID(ctx context.Context, id string) (*model.Tool, error)
	Create(ctx context.Context, in validation.ToolCreate) (*model.Tool, error)
	Update(ctx context.Context, id, userID string, in validation.ToolUpdate) (*model.Tool, error)
	Delete(ctx context.Context, id, userID string) error
	Borrow(ctx context.Context, id, userID string, in validation.ToolBorrow) (*model.Tool, error)
	Return(ctx context.Context, id, userID string, in validation.ToolReturn) (*model.Tool, error)
}

// ToolHandler は道具貸し出しのHTTPハンドラー。
type ToolHandler struct {
	service ToolServiceInterface
}

// NewToolHandler はToolHandlerを生成する。
func NewToolHandler(service ToolServiceInterface) *ToolHandler {
	return &ToolHandler{service: service}
}

// ListTools は道具一覧を返す。
// GET /api/tools
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := model.ToolFilter{
		Category:     q.Get("category"),
		Availability: model.ToolAvailability(q.Get("availability")),
		OwnerID:      q.Get("owner_id"),
	}
	result, err := h.service.List(r.Context(), f, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetTool は道具の詳細を返す。
// GET /api/tools/{id}
func (h *ToolHandler) GetTool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if t == nil {
		writeNotFound(w, "道具", id)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTool は道具を登録する。
// POST /api/tools
func (h *ToolHandler) CreateTool(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.ToolCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.OwnerID = userID

	t, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTool は道具を部分更新する。
// PATCH /api/tools/{id}
func (h *ToolHandler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.ToolUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.service.Update(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTool は道具を削除する。
// DELETE /api/tools/{id}
func (h *ToolHandler) DeleteTool(w http.ResponseWriter, r *http.Request) {
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

// BorrowTool は道具を借りる。
// POST /api/tools/{id}/borrow
func (h *ToolHandler) BorrowTool(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.ToolBorrow
	if r.ContentLength != 0 && !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.service.Borrow(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ReturnTool は道具を返却する。
// POST /api/tools/{id}/return
func (h *ToolHandler) ReturnTool(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.ToolReturn
	if r.ContentLength != 0 && !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.service.Return(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
