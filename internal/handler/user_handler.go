package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/middleware"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Create(ctx context.Context, in validation.UserCreate) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, role string, page model.PaginationQuery) (*model.PaginatedResult[*model.User], error)
	// Search は名前またはメールアドレスでユーザーを検索する。
	Search(ctx context.Context, term string) ([]*model.User, error)
	UpdateProfile(ctx context.Context, id, actorID string, in validation.ProfileUpdate) (*model.User, error)
	// UpdatePoints はポイント残高を設定または加減算する。
	UpdatePoints(ctx context.Context, id string, action model.PointsAction) (*model.User, error)
	IsVerified(ctx context.Context, id string) (bool, error)
	// Withdraw はユーザーの退会処理を実行する。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Register は認証済みユーザーをトークンのsubjectで登録する。
// POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.UserCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = userID
	// ロールは管理者のみが付与できる
	if middleware.RoleFromContext(r.Context()) != model.RoleAdmin {
		in.Role = ""
	}

	u, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser はユーザー情報を返す。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if u == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListUsers はユーザー一覧を返す。roleで絞り込める。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.List(r.Context(), r.URL.Query().Get("role"), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SearchUsers は名前・メールアドレスでユーザーを検索する。
// GET /api/users/search?q=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": users})
}

// UpdateProfile はプロフィールを更新する。
// PUT /api/users/{id}/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.ProfileUpdate
	if !decodeJSON(w, r, &in) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdatePoints はポイント残高を更新する。管理者のみ。
// PUT /api/users/{id}/points
func (h *UserHandler) UpdatePoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var action model.PointsAction
	if !decodeJSON(w, r, &action) {
		return
	}

	u, err := h.service.UpdatePoints(r.Context(), id, action)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if u == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
