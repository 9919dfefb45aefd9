package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/newleaf/newleaf/internal/model"
)

const toolColumns = `id, name, description, category, condition, availability, owner_id,
	current_borrower, borrow_history, maintenance_log, created_at, updated_at`

// PostgresToolRepo はPostgreSQLを使用した道具リポジトリ。
type PostgresToolRepo struct {
	db *sql.DB
}

// NewPostgresToolRepo はPostgresToolRepoを生成する。
func NewPostgresToolRepo(db *sql.DB) *PostgresToolRepo {
	return &PostgresToolRepo{db: db}
}

func scanTool(row rowScanner) (*model.Tool, error) {
	t := &model.Tool{}
	var borrower, history, maintenance []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Condition, &t.Availability,
		&t.OwnerID, &borrower, &history, &maintenance, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(borrower) > 0 && string(borrower) != "null" {
		t.CurrentBorrower = &model.Borrower{}
		if err := json.Unmarshal(borrower, t.CurrentBorrower); err != nil {
			return nil, fmt.Errorf("借り手の読み取りに失敗しました: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &t.BorrowHistory); err != nil {
			return nil, fmt.Errorf("貸出履歴の読み取りに失敗しました: %w", err)
		}
	}
	if len(maintenance) > 0 {
		if err := json.Unmarshal(maintenance, &t.MaintenanceLog); err != nil {
			return nil, fmt.Errorf("メンテナンス記録の読み取りに失敗しました: %w", err)
		}
	}
	if t.BorrowHistory == nil {
		t.BorrowHistory = []model.BorrowRecord{}
	}
	if t.MaintenanceLog == nil {
		t.MaintenanceLog = []model.MaintenanceRecord{}
	}
	return t, nil
}

func (r *PostgresToolRepo) findOne(ctx context.Context, query string, args ...any) (*model.Tool, error) {
	t, err := scanTool(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("道具の取得に失敗しました: %w", err)
	}
	return t, nil
}

// FindByID は指定IDの道具を取得する。
func (r *PostgresToolRepo) FindByID(ctx context.Context, id string) (*model.Tool, error) {
	return r.findOne(ctx, `SELECT `+toolColumns+` FROM tools WHERE id = $1`, id)
}

// Create は道具を作成する。
func (r *PostgresToolRepo) Create(ctx context.Context, t *model.Tool) error {
	history, err := jsonValue(t.BorrowHistory)
	if err != nil {
		return err
	}
	maintenance, err := jsonValue(t.MaintenanceLog)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tools (id, name, description, category, condition, availability, owner_id,
		                   current_borrower, borrow_history, maintenance_log, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $9, $10, $11)`,
		t.ID, t.Name, t.Description, t.Category, t.Condition, t.Availability, t.OwnerID,
		history, maintenance, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("道具の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は道具を上書き更新する。貸出状態と貸出履歴は変更しない。
// 貸出中の道具のavailabilityは書き換えない。
func (r *PostgresToolRepo) Update(ctx context.Context, t *model.Tool) error {
	maintenance, err := jsonValue(t.MaintenanceLog)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE tools SET name = $2, description = $3, category = $4, condition = $5,
		        availability = CASE WHEN availability = 'borrowed' THEN availability ELSE $6 END,
		        maintenance_log = $7, updated_at = $8
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Category, t.Condition, t.Availability, maintenance, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("道具の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は道具を削除する。
func (r *PostgresToolRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tools WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("道具の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// List は条件に一致する道具一覧と総件数を返す。
func (r *PostgresToolRepo) List(ctx context.Context, f model.ToolFilter, page model.PaginationQuery) ([]*model.Tool, int, error) {
	var qa queryArgs
	var conds []string
	if f.Category != "" {
		conds = append(conds, "category = "+qa.add(f.Category))
	}
	if f.Availability != "" {
		conds = append(conds, "availability = "+qa.add(f.Availability))
	}
	if f.OwnerID != "" {
		conds = append(conds, "owner_id = "+qa.add(f.OwnerID))
	}
	where := whereClause(conds)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tools`+where, qa.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("道具数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM tools%s ORDER BY created_at DESC, id LIMIT %s OFFSET %s`,
			toolColumns, where, qa.add(page.Limit), qa.add(page.Offset())),
		qa.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("道具一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tools []*model.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("道具行の読み取りに失敗しました: %w", err)
		}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("道具一覧の走査に失敗しました: %w", err)
	}
	return tools, total, nil
}

// Borrow はavailableの道具を貸出中にする。
func (r *PostgresToolRepo) Borrow(ctx context.Context, id string, borrower model.Borrower) (*model.Tool, error) {
	b, err := jsonValue(borrower)
	if err != nil {
		return nil, err
	}
	t, err := scanTool(r.db.QueryRowContext(ctx,
		`UPDATE tools SET availability = 'borrowed', current_borrower = $2::jsonb, updated_at = now()
		 WHERE id = $1 AND availability = 'available'
		 RETURNING `+toolColumns,
		id, b))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("道具の貸出に失敗しました: %w", err)
	}
	return t, nil
}

// Return は貸出中の道具を返却済みにし、貸出履歴に追記する。
func (r *PostgresToolRepo) Return(ctx context.Context, id string, record model.BorrowRecord) (*model.Tool, error) {
	rec, err := jsonValue([]model.BorrowRecord{record})
	if err != nil {
		return nil, err
	}
	t, err := scanTool(r.db.QueryRowContext(ctx,
		`UPDATE tools SET availability = 'available', current_borrower = NULL,
		        borrow_history = borrow_history || $2::jsonb,
		        condition = COALESCE(NULLIF($3, ''), condition),
		        updated_at = now()
		 WHERE id = $1 AND availability = 'borrowed'
		 RETURNING `+toolColumns,
		id, rec, record.Condition))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("道具の返却に失敗しました: %w", err)
	}
	return t, nil
}

// compile-time interface check
var _ ToolRepository = (*PostgresToolRepo)(nil)
