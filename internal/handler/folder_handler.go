package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// FolderServiceInterface はフォルダハンドラーが必要とするサービスインターフェース。
type FolderServiceInterface interface {
	GetIDByPath(ctx context.Context, path, owner string) (string, error)
	GetFolders(ctx context.Context, path, owner string, plotIDs []string, page model.PaginationQuery) (*model.FolderPage, error)
	Create(ctx context.Context, in validation.FolderCreate) (*model.Folder, error)
	Rename(ctx context.Context, id, owner, name string) (*model.Folder, error)
	AddSubfolder(ctx context.Context, parentID, childID, owner string) error
	// Delete はフォルダを配下ごと削除する。未登録、区画フォルダ、他人のフォルダはfalse。
	Delete(ctx context.Context, id, owner string) (bool, error)
}

// PlotLister はユーザーが所有または参加している区画を返す。
type PlotLister interface {
	Mine(ctx context.Context, userID string) ([]*model.Plot, error)
}

// FolderHandler はフォルダのHTTPハンドラー。
type FolderHandler struct {
	service FolderServiceInterface
	plots   PlotLister
}

// NewFolderHandler はFolderHandlerを生成する。
func NewFolderHandler(service FolderServiceInterface, plots PlotLister) *FolderHandler {
	return &FolderHandler{service: service, plots: plots}
}

type renameFolderRequest struct {
	Name string `json:"name"`
}

type addSubfolderRequest struct {
	ChildID string `json:"child_id"`
}

// ListFolders は指定パス直下のフォルダを返す。区画に紐付くフォルダも含む。
// GET /api/folders?path=
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	plots, err := h.plots.Mine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	plotIDs := make([]string, 0, len(plots))
	for _, p := range plots {
		plotIDs = append(plotIDs, p.ID)
	}

	result, err := h.service.GetFolders(r.Context(), r.URL.Query().Get("path"), userID, plotIDs, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetFolderID はパスからフォルダIDを返す。
// GET /api/folders/id?path=
func (h *FolderHandler) GetFolderID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	id, err := h.service.GetIDByPath(r.Context(), path, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if id == "" {
		writeNotFound(w, "フォルダ", path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// CreateFolder はフォルダを作成する。
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.FolderCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CreatedBy = userID

	f, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// RenameFolder はフォルダ名を変更する。
// PATCH /api/folders/{id}
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req renameFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.service.Rename(r.Context(), id, userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// AddSubfolder は既存フォルダを子フォルダとして付け替える。
// POST /api/folders/{id}/subfolders
func (h *FolderHandler) AddSubfolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addSubfolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.AddSubfolder(r.Context(), id, req.ChildID, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFolder はフォルダを配下ごと削除し、{success} を返す。
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	deleted, err := h.service.Delete(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": deleted})
}
