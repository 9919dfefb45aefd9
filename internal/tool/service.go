// Package tool はコミュニティの道具の貸し借りを扱う。
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/validation"
)

// Service は道具のサービス層。
type Service struct {
	repo      repository.ToolRepository
	sanitizer security.Sanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ToolRepository, sanitizer security.Sanitizer) *Service {
	if sanitizer == nil {
		sanitizer = security.NewContentSanitizer()
	}
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// List は条件に一致する道具一覧を返す。
func (s *Service) List(ctx context.Context, f model.ToolFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Tool], error) {
	if err := validation.ToolFilter(f); err != nil {
		return nil, err
	}
	ts, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("道具一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(ts, total, page), nil
}

// GetByID は指定IDの道具を返す。見つからない場合はnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.Tool, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("道具の取得に失敗しました: %w", err)
	}
	return t, nil
}

// Create は道具を登録する。
func (s *Service) Create(ctx context.Context, in validation.ToolCreate) (*model.Tool, error) {
	in.Name = s.sanitizer.Text(in.Name)
	in.Description = s.sanitizer.Description(in.Description)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &model.Tool{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		Condition:      in.Condition,
		Availability:   model.ToolAvailable,
		OwnerID:        in.OwnerID,
		BorrowHistory:  []model.BorrowRecord{},
		MaintenanceLog: []model.MaintenanceRecord{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("道具の登録に失敗しました: %w", err)
	}
	return t, nil
}

func (s *Service) found(ctx context.Context, id string) (*model.Tool, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, model.NewNotFoundError("道具", id)
	}
	return t, nil
}

func (s *Service) owned(ctx context.Context, id, userID string) (*model.Tool, error) {
	t, err := s.found(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != userID {
		return nil, model.NewForbiddenError("この道具を変更する権限がありません。")
	}
	return t, nil
}

// Update は道具を部分更新する。所有者のみ。
// 貸出中の道具の貸出状態は返却でのみ変わる。
func (s *Service) Update(ctx context.Context, id, userID string, in validation.ToolUpdate) (*model.Tool, error) {
	if in.Name != nil {
		v := s.sanitizer.Text(*in.Name)
		in.Name = &v
	}
	if in.Description != nil {
		v := s.sanitizer.Description(*in.Description)
		in.Description = &v
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if in.Availability != nil && t.Availability == model.ToolBorrowed {
		return nil, model.NewToolUnavailableError(t.Availability)
	}

	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Condition != nil {
		t.Condition = *in.Condition
	}
	if in.Availability != nil {
		t.Availability = model.ToolAvailability(*in.Availability)
	}
	now := s.now().UTC()
	if in.Maintenance != nil {
		t.MaintenanceLog = append(t.MaintenanceLog, model.MaintenanceRecord{
			Date:        now,
			Description: *in.Maintenance,
			PerformedBy: userID,
		})
	}
	t.UpdatedAt = now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("道具の更新に失敗しました: %w", err)
	}
	return t, nil
}

// Delete は道具を削除する。所有者のみ。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("道具の削除に失敗しました: %w", err)
	}
	return nil
}

// Borrow は道具を借りる。貸出可能な他人の道具のみ。
func (s *Service) Borrow(ctx context.Context, id, userID string, in validation.ToolBorrow) (*model.Tool, error) {
	now := s.now().UTC()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	t, err := s.found(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID == userID {
		return nil, model.NewValidationError("id", "自分の道具は借りられません。")
	}
	if t.Availability != model.ToolAvailable {
		return nil, model.NewToolUnavailableError(t.Availability)
	}
	updated, err := s.repo.Borrow(ctx, id, model.Borrower{
		UserID:             userID,
		BorrowDate:         now,
		ExpectedReturnDate: in.ExpectedReturnDate,
	})
	if err != nil {
		return nil, fmt.Errorf("道具の貸出に失敗しました: %w", err)
	}
	if updated == nil {
		// 確認後に別の利用者が借りた
		return nil, model.NewToolUnavailableError(model.ToolBorrowed)
	}
	return updated, nil
}

// Return は道具を返却する。借り手または所有者のみ。
func (s *Service) Return(ctx context.Context, id, userID string, in validation.ToolReturn) (*model.Tool, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.found(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Availability != model.ToolBorrowed || t.CurrentBorrower == nil {
		return nil, model.NewConflictError("この道具は貸出中ではありません。")
	}
	if t.CurrentBorrower.UserID != userID && t.OwnerID != userID {
		return nil, model.NewForbiddenError("この道具を返却する権限がありません。")
	}
	updated, err := s.repo.Return(ctx, id, model.BorrowRecord{
		UserID:     t.CurrentBorrower.UserID,
		BorrowDate: t.CurrentBorrower.BorrowDate,
		ReturnDate: s.now().UTC(),
		Condition:  in.Condition,
	})
	if err != nil {
		return nil, fmt.Errorf("道具の返却に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewConflictError("この道具は貸出中ではありません。")
	}
	return updated, nil
}
