package model

import "time"

// WorkStatus はタスクボードおよびタスクの進捗状態。
type WorkStatus string

const (
	WorkOpen       WorkStatus = "open"
	WorkInProgress WorkStatus = "inProgress"
	WorkCompleted  WorkStatus = "completed"
)

// TaskPriority はタスクの優先度。
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// TaskBoard はフォルダパス配下に置かれるタスクの集合。
type TaskBoard struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Path        string     `json:"path"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Status      WorkStatus `json:"status"`
	Owner       string     `json:"owner"`
	PlotID      *string    `json:"plot_id,omitempty"`
	Listed      bool       `json:"listed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task はタスクボード上の1タスク。
type Task struct {
	ID          string       `json:"id"`
	TaskBoardID string       `json:"task_board_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category"`
	Status      WorkStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Important   bool         `json:"important"`
	CreatedBy   string       `json:"created_by"`
	AssignedTo  *string      `json:"assigned_to,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskFilter はタスク一覧・件数取得の条件。空値は条件なし。
type TaskFilter struct {
	TaskBoardID  string
	AssignedTo   string
	CreatedBy    string
	Status       WorkStatus
	Priority     TaskPriority
	Important    *bool
	DueBefore    *time.Time
	CreatedAfter *time.Time
}
