// Package booking は区画の利用予約を扱う。
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/validation"
)

// Service は予約のサービス層。
type Service struct {
	repo  repository.BookingRepository
	plots repository.PlotRepository
	now   func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.BookingRepository, plots repository.PlotRepository) *Service {
	return &Service{repo: repo, plots: plots, now: time.Now}
}

// Create は予約を作成する。状態はpendingで始まる。
func (s *Service) Create(ctx context.Context, in validation.BookingCreate) (*model.Booking, error) {
	now := s.now().UTC()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	if in.PlotID != nil {
		p, err := s.plots.FindByID(ctx, *in.PlotID)
		if err != nil {
			return nil, fmt.Errorf("区画の取得に失敗しました: %w", err)
		}
		if p == nil {
			return nil, model.NewNotFoundError("区画", *in.PlotID)
		}
	}
	b := &model.Booking{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		PlotID:     in.PlotID,
		StartDate:  in.StartDate.UTC(),
		EndDate:    in.EndDate.UTC(),
		Guests:     in.Guests,
		TotalPrice: in.TotalPrice,
		Status:     model.BookingPending,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return b, nil
}

// GetByID は本人の予約を返す。見つからない場合や他人の予約はnilを返す。
func (s *Service) GetByID(ctx context.Context, id, userID string) (*model.Booking, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if b == nil || b.UserID != userID {
		return nil, nil
	}
	return b, nil
}

// List はユーザーの予約一覧を返す。
func (s *Service) List(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Booking], error) {
	bs, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(bs, total, page), nil
}

func (s *Service) owned(ctx context.Context, id, userID string) (*model.Booking, error) {
	b, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, model.NewNotFoundError("予約", id)
	}
	return b, nil
}

// Update は予約を部分更新する。更新後の日付も作成時と同じ制約を満たす必要がある。
func (s *Service) Update(ctx context.Context, id, userID string, in validation.BookingUpdate) (*model.Booking, error) {
	b, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := in.Validate(b, now); err != nil {
		return nil, err
	}
	in.Apply(b)
	b.UpdatedAt = now
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	return b, nil
}

// Delete は本人の予約を削除する。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	return nil
}
