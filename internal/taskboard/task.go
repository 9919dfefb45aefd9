package taskboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// TaskCount はタスク件数の応答。
type TaskCount struct {
	Total int `json:"total"`
}

// accessibleBoard はユーザーが操作できるタスクボードを返す。
func (s *Service) accessibleBoard(ctx context.Context, boardID, userID string) (*model.TaskBoard, error) {
	b, err := s.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, model.NewNotFoundError("タスクボード", boardID)
	}
	ok, err := s.canAccess(ctx, b, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewForbiddenError("このタスクボードを操作する権限がありません。")
	}
	return b, nil
}

// GetByBoard はタスクボード上のタスクを返す。
func (s *Service) GetByBoard(ctx context.Context, boardID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Task], error) {
	if err := validation.ID("task_board_id", boardID); err != nil {
		return nil, err
	}
	return s.ListTasks(ctx, model.TaskFilter{TaskBoardID: boardID}, page)
}

// ListTasks は条件に一致するタスク一覧を返す。
func (s *Service) ListTasks(ctx context.Context, f model.TaskFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Task], error) {
	ts, total, err := s.tasks.List(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(ts, total, page), nil
}

// GetTask は指定IDのタスクを返す。見つからない場合はnilを返す。
func (s *Service) GetTask(ctx context.Context, id string) (*model.Task, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return t, nil
}

// CreateTask はタスクを作成し、担当者が作成者以外の場合は通知する。
func (s *Service) CreateTask(ctx context.Context, in validation.TaskCreate) (*model.Task, error) {
	in.Title = s.sanitizer.Text(in.Title)
	in.Description = s.sanitizer.Description(in.Description)
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	b, err := s.accessibleBoard(ctx, in.TaskBoardID, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &model.Task{
		ID:          uuid.NewString(),
		TaskBoardID: b.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      model.WorkStatus(in.Status),
		Priority:    model.TaskPriority(in.Priority),
		Important:   in.Important,
		CreatedBy:   in.CreatedBy,
		AssignedTo:  in.AssignedTo,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	s.notifyAssignee(ctx, t, b)
	return t, nil
}

func (s *Service) notifyAssignee(ctx context.Context, t *model.Task, b *model.TaskBoard) {
	if s.notifier == nil || t.AssignedTo == nil || *t.AssignedTo == t.CreatedBy {
		return
	}
	s.notifier.Notify(ctx, *t.AssignedTo, model.NotificationTask,
		"新しいタスクが割り当てられました",
		fmt.Sprintf("「%s」の「%s」が割り当てられました。", b.Title, t.Title),
		"/taskboards/"+b.ID)
}

// editableTask はユーザーが変更できるタスクを返す。
func (s *Service) editableTask(ctx context.Context, id, userID string) (*model.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, model.NewNotFoundError("タスク", id)
	}
	if t.CreatedBy == userID || (t.AssignedTo != nil && *t.AssignedTo == userID) {
		return t, nil
	}
	if _, err := s.accessibleBoard(ctx, t.TaskBoardID, userID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) saveTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	t.UpdatedAt = s.now().UTC()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return t, nil
}

// UpdateTask はタスクを部分更新する。
func (s *Service) UpdateTask(ctx context.Context, id, userID string, in validation.TaskUpdate) (*model.Task, error) {
	if in.Title != nil {
		v := s.sanitizer.Text(*in.Title)
		in.Title = &v
	}
	if in.Description != nil {
		v := s.sanitizer.Description(*in.Description)
		in.Description = &v
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.editableTask(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	in.Apply(t)
	return s.saveTask(ctx, t)
}

// ToggleStatus はcompletedとopenを切り替える。
func (s *Service) ToggleStatus(ctx context.Context, id, userID string) (*model.Task, error) {
	t, err := s.editableTask(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if t.Status == model.WorkCompleted {
		t.Status = model.WorkOpen
	} else {
		t.Status = model.WorkCompleted
	}
	return s.saveTask(ctx, t)
}

// ToggleImportance は重要フラグを反転する。
func (s *Service) ToggleImportance(ctx context.Context, id, userID string) (*model.Task, error) {
	t, err := s.editableTask(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	t.Important = !t.Important
	return s.saveTask(ctx, t)
}

// DeleteTask はタスクを削除する。作成者またはタスクボードの利用者のみ。
func (s *Service) DeleteTask(ctx context.Context, id, userID string) error {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return model.NewNotFoundError("タスク", id)
	}
	if t.CreatedBy != userID {
		if _, err := s.accessibleBoard(ctx, t.TaskBoardID, userID); err != nil {
			return err
		}
	}
	if _, err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	return nil
}

// GetNumberOfTasks は担当者のタスク数を条件付きで数える。
func (s *Service) GetNumberOfTasks(ctx context.Context, in validation.TaskCount) (*TaskCount, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	n, err := s.tasks.Count(ctx, in.Filter(s.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("タスク数の取得に失敗しました: %w", err)
	}
	return &TaskCount{Total: n}, nil
}
