package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newleaf/newleaf/internal/model"
)

const taskColumns = `id, task_board_id, title, description, category, status, priority, important,
	created_by, assigned_to, due_date, created_at, updated_at`

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

func scanTask(row rowScanner) (*model.Task, error) {
	t := &model.Task{}
	var assignedTo sql.NullString
	var dueDate sql.NullTime
	if err := row.Scan(&t.ID, &t.TaskBoardID, &t.Title, &t.Description, &t.Category, &t.Status,
		&t.Priority, &t.Important, &t.CreatedBy, &assignedTo, &dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.AssignedTo = nullStringPtr(assignedTo)
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return t, nil
}

// FindByID は指定IDのタスクを取得する。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return t, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, t *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, task_board_id, title, description, category, status, priority, important,
		                    created_by, assigned_to, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.TaskBoardID, t.Title, t.Description, t.Category, t.Status, t.Priority, t.Important,
		t.CreatedBy, stringPtrValue(t.AssignedTo), t.DueDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はタスクを上書き更新する。
func (r *PostgresTaskRepo) Update(ctx context.Context, t *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = $2, description = $3, category = $4, status = $5, priority = $6,
		        important = $7, assigned_to = $8, due_date = $9, updated_at = $10
		 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Category, t.Status, t.Priority,
		t.Important, stringPtrValue(t.AssignedTo), t.DueDate, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	return affected(result)
}

// taskConditions はフィルタをWHERE条件に変換する。
func taskConditions(f model.TaskFilter, qa *queryArgs) []string {
	var conds []string
	if f.TaskBoardID != "" {
		conds = append(conds, "task_board_id = "+qa.add(f.TaskBoardID))
	}
	if f.AssignedTo != "" {
		conds = append(conds, "assigned_to = "+qa.add(f.AssignedTo))
	}
	if f.CreatedBy != "" {
		conds = append(conds, "created_by = "+qa.add(f.CreatedBy))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+qa.add(f.Status))
	}
	if f.Priority != "" {
		conds = append(conds, "priority = "+qa.add(f.Priority))
	}
	if f.Important != nil {
		conds = append(conds, "important = "+qa.add(*f.Important))
	}
	if f.DueBefore != nil {
		conds = append(conds, "due_date < "+qa.add(*f.DueBefore))
	}
	if f.CreatedAfter != nil {
		conds = append(conds, "created_at >= "+qa.add(*f.CreatedAfter))
	}
	return conds
}

// List は条件に一致するタスク一覧と総件数を返す。
func (r *PostgresTaskRepo) List(ctx context.Context, f model.TaskFilter, page model.PaginationQuery) ([]*model.Task, int, error) {
	var qa queryArgs
	where := whereClause(taskConditions(f, &qa))

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tasks`+where, qa.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("タスク数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM tasks%s ORDER BY created_at ASC, id LIMIT %s OFFSET %s`,
			taskColumns, where, qa.add(page.Limit), qa.add(page.Offset())),
		qa.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, total, nil
}

// Count は条件に一致するタスク数を返す。
func (r *PostgresTaskRepo) Count(ctx context.Context, f model.TaskFilter) (int, error) {
	var qa queryArgs
	where := whereClause(taskConditions(f, &qa))
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tasks`+where, qa.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("タスク数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
