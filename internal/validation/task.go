package validation

import (
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

// CreatedInLast は作成日時の絞り込み期間。
type CreatedInLast string

const (
	CreatedAllTime   CreatedInLast = "All Time"
	CreatedLastMonth CreatedInLast = "1 Month"
	CreatedLastWeek  CreatedInLast = "1 Week"
	CreatedLastDay   CreatedInLast = "24 Hours"
)

// Cutoff はnowを基準にした作成日時の下限を返す。All Timeおよび空はnil。
func (c CreatedInLast) Cutoff(now time.Time) *time.Time {
	var t time.Time
	switch c {
	case CreatedLastMonth:
		t = now.AddDate(0, -1, 0)
	case CreatedLastWeek:
		t = now.AddDate(0, 0, -7)
	case CreatedLastDay:
		t = now.AddDate(0, 0, -1)
	default:
		return nil
	}
	return &t
}

// TaskCount はタスク件数取得の入力スキーマ。
type TaskCount struct {
	ID            string `json:"id"` // 担当者ID
	Status        string `json:"status,omitempty"`
	Overdue       bool   `json:"overdue,omitempty"`
	CreatedInLast string `json:"created_in_last,omitempty"`
}

// Validate はタスク件数取得の入力を検証する。
func (in *TaskCount) Validate() error {
	return First(
		ID("id", in.ID),
		OptionalOneOf("status", model.WorkStatus(in.Status), model.WorkOpen, model.WorkInProgress, model.WorkCompleted),
		OptionalOneOf("created_in_last", CreatedInLast(in.CreatedInLast),
			CreatedAllTime, CreatedLastMonth, CreatedLastWeek, CreatedLastDay),
	)
}

// Filter は件数取得用のタスクフィルタに変換する。
func (in *TaskCount) Filter(now time.Time) model.TaskFilter {
	f := model.TaskFilter{
		AssignedTo:   in.ID,
		Status:       model.WorkStatus(in.Status),
		CreatedAfter: CreatedInLast(in.CreatedInLast).Cutoff(now),
	}
	if in.Overdue {
		f.DueBefore = &now
	}
	return f
}

// TaskCreate はタスク作成の入力スキーマ。
type TaskCreate struct {
	TaskBoardID string     `json:"task_board_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority"`
	Important   bool       `json:"important,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   string     `json:"-"`
}

// Normalize はデフォルト値を適用する。
func (in *TaskCreate) Normalize() {
	if in.Status == "" {
		in.Status = string(model.WorkOpen)
	}
	if in.Priority == "" {
		in.Priority = string(model.PriorityMedium)
	}
}

// Validate はタスク作成の入力を検証する。
func (in *TaskCreate) Validate() error {
	err := First(
		ID("task_board_id", in.TaskBoardID),
		ID("created_by", in.CreatedBy),
		Required("title", in.Title),
		Length("title", in.Title, 1, 200),
		Required("category", in.Category),
		MaxLength("description", in.Description, 2000),
		OneOf("status", model.WorkStatus(in.Status), model.WorkOpen, model.WorkInProgress, model.WorkCompleted),
		OneOf("priority", model.TaskPriority(in.Priority),
			model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent),
	)
	if err != nil {
		return err
	}
	if in.AssignedTo != nil {
		return ID("assigned_to", *in.AssignedTo)
	}
	return nil
}

// TaskUpdate はタスクの部分更新スキーマ。
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Important   *bool      `json:"important,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Validate はタスクの部分更新を検証する。
func (in *TaskUpdate) Validate() error {
	if in.Title != nil {
		if err := Length("title", *in.Title, 1, 200); err != nil {
			return err
		}
	}
	if in.Category != nil {
		if err := Required("category", *in.Category); err != nil {
			return err
		}
	}
	if in.Status != nil {
		if err := OneOf("status", model.WorkStatus(*in.Status), model.WorkOpen, model.WorkInProgress, model.WorkCompleted); err != nil {
			return err
		}
	}
	if in.Priority != nil {
		if err := OneOf("priority", model.TaskPriority(*in.Priority),
			model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent); err != nil {
			return err
		}
	}
	if in.AssignedTo != nil {
		return OptionalID("assigned_to", *in.AssignedTo)
	}
	return nil
}

// Apply は部分更新をタスクに適用する。
func (in *TaskUpdate) Apply(t *model.Task) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Status != nil {
		t.Status = model.WorkStatus(*in.Status)
	}
	if in.Priority != nil {
		t.Priority = model.TaskPriority(*in.Priority)
	}
	if in.Important != nil {
		t.Important = *in.Important
	}
	if in.AssignedTo != nil {
		if *in.AssignedTo == "" {
			t.AssignedTo = nil
		} else {
			v := *in.AssignedTo
			t.AssignedTo = &v
		}
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
}

// TaskboardCreate はタスクボード作成の入力スキーマ。
type TaskboardCreate struct {
	Title       string  `json:"title"`
	Path        string  `json:"path"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	PlotID      *string `json:"plot_id,omitempty"`
	Owner       string  `json:"-"`
}

// Validate はタスクボード作成の入力を検証する。
func (in *TaskboardCreate) Validate() error {
	err := First(
		ID("owner", in.Owner),
		Required("title", in.Title),
		Length("title", in.Title, 1, 100),
		FolderPath("path", in.Path),
		MaxLength("description", in.Description, 1000),
	)
	if err != nil {
		return err
	}
	if in.PlotID != nil {
		return ID("plot_id", *in.PlotID)
	}
	return nil
}

// TaskboardUpdate はタスクボードの部分更新スキーマ。
type TaskboardUpdate struct {
	Title       *string `json:"title,omitempty"`
	Path        *string `json:"path,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Validate はタスクボードの部分更新を検証する。
func (in *TaskboardUpdate) Validate() error {
	if in.Title != nil {
		if err := Length("title", *in.Title, 1, 100); err != nil {
			return err
		}
	}
	if in.Path != nil {
		if err := FolderPath("path", *in.Path); err != nil {
			return err
		}
	}
	if in.Status != nil {
		return OneOf("status", model.WorkStatus(*in.Status), model.WorkOpen, model.WorkInProgress, model.WorkCompleted)
	}
	return nil
}

// Apply は部分更新をタスクボードに適用する。
func (in *TaskboardUpdate) Apply(b *model.TaskBoard) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Path != nil {
		b.Path = *in.Path
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Category != nil {
		b.Category = *in.Category
	}
	if in.Status != nil {
		b.Status = model.WorkStatus(*in.Status)
	}
}
