package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/newleaf/newleaf/internal/model"
)

const taskboardColumns = `id, title, path, description, category, status, owner, plot_id, listed, created_at, updated_at`

// PostgresTaskBoardRepo はPostgreSQLを使用したタスクボードリポジトリ。
type PostgresTaskBoardRepo struct {
	db *sql.DB
}

// NewPostgresTaskBoardRepo はPostgresTaskBoardRepoを生成する。
func NewPostgresTaskBoardRepo(db *sql.DB) *PostgresTaskBoardRepo {
	return &PostgresTaskBoardRepo{db: db}
}

func scanTaskBoard(row rowScanner) (*model.TaskBoard, error) {
	b := &model.TaskBoard{}
	var plotID sql.NullString
	if err := row.Scan(&b.ID, &b.Title, &b.Path, &b.Description, &b.Category, &b.Status,
		&b.Owner, &plotID, &b.Listed, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.PlotID = nullStringPtr(plotID)
	return b, nil
}

func (r *PostgresTaskBoardRepo) findOne(ctx context.Context, query string, args ...any) (*model.TaskBoard, error) {
	b, err := scanTaskBoard(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクボードの取得に失敗しました: %w", err)
	}
	return b, nil
}

func (r *PostgresTaskBoardRepo) query(ctx context.Context, query string, args ...any) ([]*model.TaskBoard, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("タスクボード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var boards []*model.TaskBoard
	for rows.Next() {
		b, err := scanTaskBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("タスクボード行の読み取りに失敗しました: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスクボード一覧の走査に失敗しました: %w", err)
	}
	return boards, nil
}

// FindByID は指定IDのタスクボードを取得する。
func (r *PostgresTaskBoardRepo) FindByID(ctx context.Context, id string) (*model.TaskBoard, error) {
	return r.findOne(ctx, `SELECT `+taskboardColumns+` FROM taskboards WHERE id = $1`, id)
}

// FindByPath はパス・タイトル・所有者でタスクボードを取得する。
func (r *PostgresTaskBoardRepo) FindByPath(ctx context.Context, path, title, owner string) (*model.TaskBoard, error) {
	return r.findOne(ctx,
		`SELECT `+taskboardColumns+` FROM taskboards
		 WHERE path = $1 AND title = $2 AND owner = $3
		 ORDER BY created_at, id LIMIT 1`, path, title, owner)
}

// ListRecent は所有者のタスクボードを更新日時の新しい順に返す。
func (r *PostgresTaskBoardRepo) ListRecent(ctx context.Context, owner string, limit int) ([]*model.TaskBoard, error) {
	return r.query(ctx,
		`SELECT `+taskboardColumns+` FROM taskboards
		 WHERE owner = $1 ORDER BY updated_at DESC, id LIMIT $2`, owner, limit)
}

// ListByOwner は所有者のタスクボード一覧と総件数を返す。
func (r *PostgresTaskBoardRepo) ListByOwner(ctx context.Context, owner, path string, page model.PaginationQuery) ([]*model.TaskBoard, int, error) {
	var qa queryArgs
	conds := []string{"owner = " + qa.add(owner)}
	if path != "" {
		conds = append(conds, "path = "+qa.add(path))
	}
	where := whereClause(conds)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM taskboards`+where, qa.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("タスクボード数の取得に失敗しました: %w", err)
	}

	boards, err := r.query(ctx,
		fmt.Sprintf(`SELECT %s FROM taskboards%s ORDER BY created_at DESC, id LIMIT %s OFFSET %s`,
			taskboardColumns, where, qa.add(page.Limit), qa.add(page.Offset())),
		qa.args...)
	if err != nil {
		return nil, 0, err
	}
	return boards, total, nil
}

// ListAtPath は指定パスにあるタスクボードを返す。
func (r *PostgresTaskBoardRepo) ListAtPath(ctx context.Context, path, owner string, plotIDs []string, offset, limit int) ([]*model.TaskBoard, error) {
	return r.query(ctx,
		`SELECT `+taskboardColumns+` FROM taskboards
		 WHERE path = $1 AND (owner = $2 OR plot_id = ANY($3::uuid[]))
		 ORDER BY title, id
		 LIMIT $4 OFFSET $5`,
		path, owner, pq.Array(nonNilStrings(plotIDs)), limit, offset)
}

// Create はタスクボードを作成する。
func (r *PostgresTaskBoardRepo) Create(ctx context.Context, b *model.TaskBoard) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO taskboards (id, title, path, description, category, status, owner, plot_id, listed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Title, b.Path, b.Description, b.Category, b.Status, b.Owner,
		stringPtrValue(b.PlotID), b.Listed, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクボードの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はタスクボードを上書き更新する。
func (r *PostgresTaskBoardRepo) Update(ctx context.Context, b *model.TaskBoard) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE taskboards SET title = $2, path = $3, description = $4, category = $5,
		        status = $6, plot_id = $7, listed = $8, updated_at = $9
		 WHERE id = $1`,
		b.ID, b.Title, b.Path, b.Description, b.Category, b.Status,
		stringPtrValue(b.PlotID), b.Listed, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクボードの更新に失敗しました: %w", err)
	}
	return nil
}

// SetListed はマーケット出品中フラグを設定する。
func (r *PostgresTaskBoardRepo) SetListed(ctx context.Context, id string, listed bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE taskboards SET listed = $2, updated_at = now() WHERE id = $1`, id, listed); err != nil {
		return fmt.Errorf("タスクボードの出品状態の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はタスクボードを削除する。
func (r *PostgresTaskBoardRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM taskboards WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("タスクボードの削除に失敗しました: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ TaskBoardRepository = (*PostgresTaskBoardRepo)(nil)
