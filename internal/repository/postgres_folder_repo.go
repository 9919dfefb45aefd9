package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/newleaf/newleaf/internal/model"
)

const folderColumns = `id, path, name, created_by, description, parent_folder_id, plot_id, created_at, updated_at`

// PostgresFolderRepo はPostgreSQLを使用したフォルダリポジトリ。
type PostgresFolderRepo struct {
	db *sql.DB
}

// NewPostgresFolderRepo はPostgresFolderRepoを生成する。
func NewPostgresFolderRepo(db *sql.DB) *PostgresFolderRepo {
	return &PostgresFolderRepo{db: db}
}

func scanFolder(row rowScanner) (*model.Folder, error) {
	f := &model.Folder{}
	var parentID, plotID sql.NullString
	if err := row.Scan(&f.ID, &f.Path, &f.Name, &f.CreatedBy, &f.Description,
		&parentID, &plotID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ParentFolderID = nullStringPtr(parentID)
	f.PlotID = nullStringPtr(plotID)
	return f, nil
}

func (r *PostgresFolderRepo) findOne(ctx context.Context, query string, args ...any) (*model.Folder, error) {
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	return f, nil
}

// FindByID は指定IDのフォルダを取得する。
func (r *PostgresFolderRepo) FindByID(ctx context.Context, id string) (*model.Folder, error) {
	return r.findOne(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = $1`, id)
}

// FindByPath は所有者とパスでフォルダを取得する。
func (r *PostgresFolderRepo) FindByPath(ctx context.Context, path, owner string) (*model.Folder, error) {
	return r.findOne(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE path = $1 AND created_by = $2
		 ORDER BY created_at, id LIMIT 1`, path, owner)
}

// Exists は同じ名前・パス・所有者のフォルダが存在するかを返す。
func (r *PostgresFolderRepo) Exists(ctx context.Context, name, path, owner string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM folders WHERE name = $1 AND path = $2 AND created_by = $3)`,
		name, path, owner,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("フォルダの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

func parentCondition(parentID *string, qa *queryArgs) string {
	if parentID == nil {
		return "parent_folder_id IS NULL"
	}
	return "parent_folder_id = " + qa.add(*parentID)
}

// ListChildren は親フォルダ直下のフォルダを返す。
func (r *PostgresFolderRepo) ListChildren(ctx context.Context, parentID *string, owner string, plotIDs []string, offset, limit int) ([]*model.Folder, error) {
	var qa queryArgs
	parent := parentCondition(parentID, &qa)
	query := fmt.Sprintf(`SELECT %s FROM folders
		WHERE %s AND (created_by = %s OR plot_id = ANY(%s::uuid[]))
		ORDER BY name, id
		LIMIT %s OFFSET %s`,
		folderColumns, parent, qa.add(owner), qa.add(pq.Array(nonNilStrings(plotIDs))), qa.add(limit), qa.add(offset))

	rows, err := r.db.QueryContext(ctx, query, qa.args...)
	if err != nil {
		return nil, fmt.Errorf("フォルダ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var folders []*model.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("フォルダ行の読み取りに失敗しました: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フォルダ一覧の走査に失敗しました: %w", err)
	}
	return folders, nil
}

// CountChildren は親フォルダ直下の所有者のフォルダ数を返す。
func (r *PostgresFolderRepo) CountChildren(ctx context.Context, parentID *string, owner string) (int, error) {
	var qa queryArgs
	parent := parentCondition(parentID, &qa)
	var count int
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM folders WHERE %s AND created_by = %s`, parent, qa.add(owner)),
		qa.args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("フォルダ数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create はフォルダを作成する。
func (r *PostgresFolderRepo) Create(ctx context.Context, f *model.Folder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO folders (id, path, name, created_by, description, parent_folder_id, plot_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.Path, f.Name, f.CreatedBy, f.Description,
		stringPtrValue(f.ParentFolderID), stringPtrValue(f.PlotID), f.CreatedAt, f.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("フォルダの作成に失敗しました: %w", err)
	}
	return nil
}

// Rename はフォルダ名を変更する。
func (r *PostgresFolderRepo) Rename(ctx context.Context, id, name string) (*model.Folder, error) {
	f, err := scanFolder(r.db.QueryRowContext(ctx,
		`UPDATE folders SET name = $2, updated_at = now() WHERE id = $1 RETURNING `+folderColumns,
		id, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("フォルダ名の変更に失敗しました: %w", err)
	}
	return f, nil
}

// SetParent はフォルダの親を設定する。
func (r *PostgresFolderRepo) SetParent(ctx context.Context, id, parentID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE folders SET parent_folder_id = $2, updated_at = now() WHERE id = $1`, id, parentID)
	if err != nil {
		return false, fmt.Errorf("親フォルダの設定に失敗しました: %w", err)
	}
	return affected(result)
}

// DeleteRecursive はフォルダと配下のすべてのフォルダを削除する。
func (r *PostgresFolderRepo) DeleteRecursive(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`WITH RECURSIVE tree AS (
		    SELECT id FROM folders WHERE id = $1
		    UNION ALL
		    SELECT f.id FROM folders f JOIN tree t ON f.parent_folder_id = t.id
		 )
		 DELETE FROM folders WHERE id IN (SELECT id FROM tree)`, id)
	if err != nil {
		return 0, fmt.Errorf("フォルダの削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ FolderRepository = (*PostgresFolderRepo)(nil)
