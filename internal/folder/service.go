// Package folder はタスクボードを整理するフォルダ階層を扱う。
package folder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/validation"
)

// RootPath は最上位フォルダのパス。
const RootPath = "/"

// Service はフォルダのサービス層。
type Service struct {
	repo repository.FolderRepository
	now  func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.FolderRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ParentPath はフォルダパスの親パスを返す。"/a/b/" なら "/a/"、"/" なら "/"。
func ParentPath(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return RootPath
	}
	return trimmed[:i+1]
}

// GetIDByPath は所有者とパスからフォルダIDを返す。
func (s *Service) GetIDByPath(ctx context.Context, path, owner string) (string, error) {
	if err := validation.FolderPath("path", path); err != nil {
		return "", err
	}
	f, err := s.repo.FindByPath(ctx, path, owner)
	if err != nil {
		return "", fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	if f == nil {
		return "", model.NewNotFoundError("フォルダ", path)
	}
	return f.ID, nil
}

// parentOf はパスに対応する親フォルダIDを返す。"/" の場合はnil。
// 見つからない場合はfound=falseを返す。
func (s *Service) parentOf(ctx context.Context, path, owner string) (parentID *string, found bool, err error) {
	if path == RootPath {
		return nil, true, nil
	}
	f, err := s.repo.FindByPath(ctx, path, owner)
	if err != nil {
		return nil, false, fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	if f == nil {
		return nil, false, nil
	}
	return &f.ID, true, nil
}

// ListAt はパス直下のフォルダをoffsetからlimit件返す。パスのフォルダが存在しない場合は空。
func (s *Service) ListAt(ctx context.Context, path, owner string, plotIDs []string, offset, limit int) ([]*model.Folder, error) {
	parentID, found, err := s.parentOf(ctx, path, owner)
	if err != nil {
		return nil, err
	}
	if !found {
		return []*model.Folder{}, nil
	}
	folders, err := s.repo.ListChildren(ctx, parentID, owner, plotIDs, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("フォルダ一覧の取得に失敗しました: %w", err)
	}
	if folders == nil {
		folders = []*model.Folder{}
	}
	return folders, nil
}

// GetFolders はパス直下のフォルダを1ページ返す。
// limit+1件を取得してHasNextPageを判定する。
func (s *Service) GetFolders(ctx context.Context, path, owner string, plotIDs []string, page model.PaginationQuery) (*model.FolderPage, error) {
	if err := validation.FolderPath("path", path); err != nil {
		return nil, err
	}
	folders, err := s.ListAt(ctx, path, owner, plotIDs, page.Offset(), page.Limit+1)
	if err != nil {
		return nil, err
	}
	result := &model.FolderPage{Folders: folders}
	if len(folders) > page.Limit {
		result.Folders = folders[:page.Limit]
		result.HasNextPage = true
	}
	return result, nil
}

// Create はフォルダを作成する。区画用パスは403、同名の重複は409。
// 親フォルダ未指定の場合は親パスのフォルダに紐付ける。
func (s *Service) Create(ctx context.Context, in validation.FolderCreate) (*model.Folder, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if validation.IsPlotsPath(in.Path) {
		return nil, model.NewForbiddenError("区画用のパスにはフォルダを作成できません。")
	}

	exists, err := s.repo.Exists(ctx, in.Name, in.Path, in.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("フォルダの重複確認に失敗しました: %w", err)
	}
	if exists {
		return nil, model.NewConflictError("同じ名前のフォルダが既に存在します。")
	}

	parentID := in.ParentFolderID
	if parentID == nil {
		parentID, _, err = s.parentOf(ctx, ParentPath(in.Path), in.CreatedBy)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	f := &model.Folder{
		ID:             uuid.NewString(),
		Path:           in.Path,
		Name:           in.Name,
		CreatedBy:      in.CreatedBy,
		Description:    in.Description,
		ParentFolderID: parentID,
		PlotID:         in.PlotID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("同じ名前のフォルダが既に存在します。")
		}
		return nil, fmt.Errorf("フォルダの作成に失敗しました: %w", err)
	}
	return f, nil
}

// owned は所有者のフォルダを返す。存在しない場合は404、他人のものは403。
func (s *Service) owned(ctx context.Context, id, owner string) (*model.Folder, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	if f == nil {
		return nil, model.NewNotFoundError("フォルダ", id)
	}
	if f.CreatedBy != owner {
		return nil, model.NewForbiddenError("このフォルダを変更する権限がありません。")
	}
	return f, nil
}

// Rename はフォルダ名を変更する。
func (s *Service) Rename(ctx context.Context, id, owner, name string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validation.First(validation.Required("name", name), validation.Length("name", name, 1, 100)); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, id, owner); err != nil {
		return nil, err
	}
	f, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("フォルダ名の変更に失敗しました: %w", err)
	}
	if f == nil {
		return nil, model.NewNotFoundError("フォルダ", id)
	}
	return f, nil
}

// AddSubfolder はchildをparentの直下に移す。
func (s *Service) AddSubfolder(ctx context.Context, parentID, childID, owner string) error {
	if parentID == childID {
		return model.NewValidationError("child_id", "自身をサブフォルダにすることはできません。")
	}
	if _, err := s.owned(ctx, parentID, owner); err != nil {
		return err
	}
	if _, err := s.owned(ctx, childID, owner); err != nil {
		return err
	}
	ok, err := s.repo.SetParent(ctx, childID, parentID)
	if err != nil {
		return fmt.Errorf("サブフォルダの追加に失敗しました: %w", err)
	}
	if !ok {
		return model.NewNotFoundError("フォルダ", childID)
	}
	return nil
}

// Delete はフォルダと配下のフォルダを削除する。
// 存在しないフォルダ、区画用フォルダ、他人のフォルダはfalseを返し、何も削除しない。
func (s *Service) Delete(ctx context.Context, id, owner string) (bool, error) {
	if err := validation.ID("id", id); err != nil {
		return false, err
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	if f == nil || validation.IsPlotsPath(f.Path) || f.CreatedBy != owner {
		return false, nil
	}
	n, err := s.repo.DeleteRecursive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("フォルダの削除に失敗しました: %w", err)
	}
	slog.Info("フォルダを削除しました", slog.String("folder_id", id), slog.String("owner", owner), slog.Int64("deleted", n))
	return true, nil
}
