// Package taskboard はタスクボードとタスクのドメインロジックを提供する。
package taskboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/validation"
)

// RecentLimit は最近更新されたタスクボードの取得件数。
const RecentLimit = 5

// FolderLister はパス直下のフォルダを返す。
type FolderLister interface {
	ListAt(ctx context.Context, path, owner string, plotIDs []string, offset, limit int) ([]*model.Folder, error)
}

// Notifier はシステム起点の通知を送る。
type Notifier interface {
	Notify(ctx context.Context, userID string, typ model.NotificationType, title, message, link string)
}

// Deps はServiceの依存。
type Deps struct {
	Boards    repository.TaskBoardRepository
	Tasks     repository.TaskRepository
	Plots     repository.PlotRepository
	Folders   FolderLister
	Notifier  Notifier
	Sanitizer security.Sanitizer
}

// Service はタスクボードとタスクのサービス層。
type Service struct {
	boards    repository.TaskBoardRepository
	tasks     repository.TaskRepository
	plots     repository.PlotRepository
	folders   FolderLister
	notifier  Notifier
	sanitizer security.Sanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(d Deps) *Service {
	if d.Sanitizer == nil {
		d.Sanitizer = security.NewContentSanitizer()
	}
	return &Service{
		boards:    d.Boards,
		tasks:     d.Tasks,
		plots:     d.Plots,
		folders:   d.Folders,
		notifier:  d.Notifier,
		sanitizer: d.Sanitizer,
		now:       time.Now,
	}
}

// plotIDs はユーザーが所有または参加している区画のIDを返す。
func (s *Service) plotIDs(ctx context.Context, userID string) ([]string, error) {
	if s.plots == nil {
		return nil, nil
	}
	plots, err := s.plots.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("区画一覧の取得に失敗しました: %w", err)
	}
	ids := make([]string, 0, len(plots))
	for _, p := range plots {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// canAccess はユーザーがタスクボードを操作できるかを返す。
// 所有者、または紐付く区画の所有者・メンバーが対象。
func (s *Service) canAccess(ctx context.Context, b *model.TaskBoard, userID string) (bool, error) {
	if b.Owner == userID {
		return true, nil
	}
	if b.PlotID == nil {
		return false, nil
	}
	ids, err := s.plotIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == *b.PlotID {
			return true, nil
		}
	}
	return false, nil
}

// GetByID は指定IDのタスクボードを返す。見つからない場合はnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.TaskBoard, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	b, err := s.boards.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("タスクボードの取得に失敗しました: %w", err)
	}
	return b, nil
}

// GetByPath はパス・タイトル・所有者でタスクボードを返す。見つからない場合はnilを返す。
func (s *Service) GetByPath(ctx context.Context, path, title, owner string) (*model.TaskBoard, error) {
	if err := validation.FolderPath("path", path); err != nil {
		return nil, err
	}
	b, err := s.boards.FindByPath(ctx, path, title, owner)
	if err != nil {
		return nil, fmt.Errorf("タスクボードの取得に失敗しました: %w", err)
	}
	return b, nil
}

// GetMostRecent は最近更新されたタスクボードを返す。
func (s *Service) GetMostRecent(ctx context.Context, owner string) ([]*model.TaskBoard, error) {
	bs, err := s.boards.ListRecent(ctx, owner, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("最近のタスクボードの取得に失敗しました: %w", err)
	}
	if bs == nil {
		bs = []*model.TaskBoard{}
	}
	return bs, nil
}

// List は所有者のタスクボード一覧を返す。pathが空の場合は全パス。
func (s *Service) List(ctx context.Context, owner, path string, page model.PaginationQuery) (*model.PaginatedResult[*model.TaskBoard], error) {
	if path != "" {
		if err := validation.FolderPath("path", path); err != nil {
			return nil, err
		}
	}
	bs, total, err := s.boards.ListByOwner(ctx, owner, path, page)
	if err != nil {
		return nil, fmt.Errorf("タスクボード一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(bs, total, page), nil
}

// GetAllTaskFolders はパス直下のフォルダとタスクボードを1ページ返す。
// フォルダを先に並べ、残りの枠をタスクボードで埋める。
func (s *Service) GetAllTaskFolders(ctx context.Context, path, owner string, page model.PaginationQuery) (*model.FolderContents, error) {
	if err := validation.FolderPath("path", path); err != nil {
		return nil, err
	}
	plotIDs, err := s.plotIDs(ctx, owner)
	if err != nil {
		return nil, err
	}

	offset, limit := page.Offset(), page.Limit
	folders, err := s.folders.ListAt(ctx, path, owner, plotIDs, offset, limit+1)
	if err != nil {
		return nil, err
	}
	result := &model.FolderContents{Folders: folders, Taskboards: []*model.TaskBoard{}}
	if len(folders) > limit {
		result.Folders = folders[:limit]
		result.HasNextPage = true
		return result, nil
	}

	// このページより前に並ぶフォルダ数を数えてタスクボードの開始位置を求める
	boardOffset := 0
	if len(folders) == 0 && offset > 0 {
		before, err := s.folders.ListAt(ctx, path, owner, plotIDs, 0, offset)
		if err != nil {
			return nil, err
		}
		boardOffset = offset - len(before)
	}

	remaining := limit - len(folders)
	boards, err := s.boards.ListAtPath(ctx, path, owner, plotIDs, boardOffset, remaining+1)
	if err != nil {
		return nil, fmt.Errorf("タスクボード一覧の取得に失敗しました: %w", err)
	}
	if len(boards) > remaining {
		boards = boards[:remaining]
		result.HasNextPage = true
	}
	if boards != nil {
		result.Taskboards = boards
	}
	return result, nil
}

// Create はタスクボードを作成する。状態はopenで始まる。
func (s *Service) Create(ctx context.Context, in validation.TaskboardCreate) (*model.TaskBoard, error) {
	in.Title = s.sanitizer.Text(in.Title)
	in.Description = s.sanitizer.Description(in.Description)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	b := &model.TaskBoard{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Path:        in.Path,
		Description: in.Description,
		Category:    in.Category,
		Status:      model.WorkOpen,
		Owner:       in.Owner,
		PlotID:      in.PlotID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.boards.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("タスクボードの作成に失敗しました: %w", err)
	}
	return b, nil
}

// ownedBoard は所有者のタスクボードを返す。存在しない場合は404、他人のものは403。
func (s *Service) ownedBoard(ctx context.Context, id, userID string) (*model.TaskBoard, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, model.NewNotFoundError("タスクボード", id)
	}
	if b.Owner != userID {
		return nil, model.NewForbiddenError("このタスクボードを変更する権限がありません。")
	}
	return b, nil
}

// Update はタスクボードを部分更新する。マーケットに出品中の場合は変更できない。
func (s *Service) Update(ctx context.Context, id, userID string, in validation.TaskboardUpdate) (*model.TaskBoard, error) {
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
	b, err := s.ownedBoard(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if b.Listed {
		return nil, model.NewTaskboardListedError(id)
	}
	in.Apply(b)
	b.UpdatedAt = s.now().UTC()
	if err := s.boards.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("タスクボードの更新に失敗しました: %w", err)
	}
	return b, nil
}

// Delete はタスクボードを削除する。出品中は常に拒否し、区画に紐付く場合はforceが必要。
func (s *Service) Delete(ctx context.Context, id, userID string, force bool) error {
	b, err := s.ownedBoard(ctx, id, userID)
	if err != nil {
		return err
	}
	if b.Listed {
		return model.NewTaskboardListedError(id)
	}
	if b.PlotID != nil && !force {
		return model.NewPlotLinkedError()
	}
	if _, err := s.boards.Delete(ctx, id); err != nil {
		return fmt.Errorf("タスクボードの削除に失敗しました: %w", err)
	}
	slog.Info("タスクボードを削除しました", slog.String("taskboard_id", id), slog.Bool("force", force))
	return nil
}
