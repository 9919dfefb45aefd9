package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/taskboard"
	"github.com/newleaf/newleaf/internal/validation"
)

// TaskboardServiceInterface はタスクボード・タスクハンドラーが必要とするサービスインターフェース。
type TaskboardServiceInterface interface {
	GetByID(ctx context.Context, id string) (*model.TaskBoard, error)
	GetByPath(ctx context.Context, path, title, owner string) (*model.TaskBoard, error)
	GetMostRecent(ctx context.Context, owner string) ([]*model.TaskBoard, error)
	List(ctx context.Context, owner, path string, page model.PaginationQuery) (*model.PaginatedResult[*model.TaskBoard], error)
	// GetAllTaskFolders はパス直下のフォルダとタスクボードを1ページにまとめて返す。
	GetAllTaskFolders(ctx context.Context, path, owner string, page model.PaginationQuery) (*model.FolderContents, error)
	Create(ctx context.Context, in validation.TaskboardCreate) (*model.TaskBoard, error)
	Update(ctx context.Context, id, userID string, in validation.TaskboardUpdate) (*model.TaskBoard, error)
	Delete(ctx context.Context, id, userID string, force bool) error

	GetByBoard(ctx context.Context, boardID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Task], error)
	ListTasks(ctx context.Context, f model.TaskFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Task], error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, in validation.TaskCreate) (*model.Task, error)
	UpdateTask(ctx context.Context, id, userID string, in validation.TaskUpdate) (*model.Task, error)
	ToggleStatus(ctx context.Context, id, userID string) (*model.Task, error)
	ToggleImportance(ctx context.Context, id, userID string) (*model.Task, error)
	DeleteTask(ctx context.Context, id, userID string) error
	GetNumberOfTasks(ctx context.Context, in validation.TaskCount) (*taskboard.TaskCount, error)
}

// TaskboardHandler はタスクボードとタスクのHTTPハンドラー。
type TaskboardHandler struct {
	service TaskboardServiceInterface
}

// NewTaskboardHandler はTaskboardHandlerを生成する。
func NewTaskboardHandler(service TaskboardServiceInterface) *TaskboardHandler {
	return &TaskboardHandler{service: service}
}

// ListTaskboards は自分のタスクボード一覧を返す。
// GET /api/taskboards?path=
func (h *TaskboardHandler) ListTaskboards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.List(r.Context(), userID, r.URL.Query().Get("path"), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecentTaskboards は最近更新したタスクボードを返す。
// GET /api/taskboards/recent
func (h *TaskboardHandler) RecentTaskboards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bs, err := h.service.GetMostRecent(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": bs})
}

// GetContents はパス直下のフォルダとタスクボードを返す。
// GET /api/taskboards/contents?path=
func (h *TaskboardHandler) GetContents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetAllTaskFolders(r.Context(), r.URL.Query().Get("path"), userID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetTaskboardByPath はパスとタイトルでタスクボードを返す。
// GET /api/taskboards/by-path?path=&title=
func (h *TaskboardHandler) GetTaskboardByPath(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	b, err := h.service.GetByPath(r.Context(), q.Get("path"), q.Get("title"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if b == nil {
		writeNotFound(w, "タスクボード", q.Get("path")+q.Get("title"))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GetTaskboard はタスクボード詳細を返す。
// GET /api/taskboards/{id}
func (h *TaskboardHandler) GetTaskboard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if b == nil {
		writeNotFound(w, "タスクボード", id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateTaskboard はタスクボードを作成する。
// POST /api/taskboards
func (h *TaskboardHandler) CreateTaskboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.TaskboardCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Owner = userID

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateTaskboard はタスクボードを部分更新する。
// PATCH /api/taskboards/{id}
func (h *TaskboardHandler) UpdateTaskboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.TaskboardUpdate
	if !decodeJSON(w, r, &in) {
		return
	}

	b, err := h.service.Update(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteTaskboard はタスクボードを削除する。区画に紐付く場合は?force=trueが必要。
// DELETE /api/taskboards/{id}
func (h *TaskboardHandler) DeleteTaskboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	force, ok := boolQuery(w, r, "force")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, userID, force); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBoardTasks はタスクボード上のタスクを返す。
// GET /api/taskboards/{id}/tasks
func (h *TaskboardHandler) ListBoardTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetByBoard(r.Context(), id, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListTasks は条件に一致するタスクを返す。
// GET /api/tasks
func (h *TaskboardHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := model.TaskFilter{
		TaskBoardID: q.Get("task_board_id"),
		AssignedTo:  q.Get("assigned_to"),
		CreatedBy:   q.Get("created_by"),
		Status:      model.WorkStatus(q.Get("status")),
		Priority:    model.TaskPriority(q.Get("priority")),
	}
	if q.Get("important") != "" {
		important, ok := boolQuery(w, r, "important")
		if !ok {
			return
		}
		f.Important = &important
	}

	result, err := h.service.ListTasks(r.Context(), f, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CountTasks は担当者のタスク件数を返す。
// GET /api/tasks/count?id=&status=&overdue=&created_in_last=
func (h *TaskboardHandler) CountTasks(w http.ResponseWriter, r *http.Request) {
	overdue, ok := boolQuery(w, r, "overdue")
	if !ok {
		return
	}
	q := r.URL.Query()
	in := validation.TaskCount{
		ID:            q.Get("id"),
		Status:        q.Get("status"),
		Overdue:       overdue,
		CreatedInLast: q.Get("created_in_last"),
	}
	count, err := h.service.GetNumberOfTasks(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// GetTask はタスク詳細を返す。
// GET /api/tasks/{id}
func (h *TaskboardHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if t == nil {
		writeNotFound(w, "タスク", id)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTask はタスクを作成する。
// POST /api/tasks
func (h *TaskboardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.TaskCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CreatedBy = userID

	t, err := h.service.CreateTask(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTask はタスクを部分更新する。
// PATCH /api/tasks/{id}
func (h *TaskboardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.TaskUpdate
	if !decodeJSON(w, r, &in) {
		return
	}

	t, err := h.service.UpdateTask(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ToggleTaskStatus はタスクの完了状態を切り替える。
// POST /api/tasks/{id}/toggle-status
func (h *TaskboardHandler) ToggleTaskStatus(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleStatus)
}

// ToggleTaskImportance はタスクの重要フラグを切り替える。
// POST /api/tasks/{id}/toggle-importance
func (h *TaskboardHandler) ToggleTaskImportance(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleImportance)
}

func (h *TaskboardHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, userID string) (*model.Task, error)) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := fn(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskboardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTask(r.Context(), id, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
