// Package notification はユーザー通知のドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/events"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/validation"
)

// Service は通知のサービス層。
type Service struct {
	repo      repository.NotificationRepository
	sanitizer security.Sanitizer
	publisher events.Publisher
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。publisherがnilの場合はイベントを発行しない。
func NewService(repo repository.NotificationRepository, sanitizer security.Sanitizer, publisher events.Publisher) *Service {
	if sanitizer == nil {
		sanitizer = security.NewContentSanitizer()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{repo: repo, sanitizer: sanitizer, publisher: publisher, now: time.Now}
}

// Create は通知を作成し、notification.createdを発行する。
func (s *Service) Create(ctx context.Context, in validation.NotificationCreate) (*model.Notification, error) {
	in.Title = s.sanitizer.Text(in.Title)
	in.Message = s.sanitizer.Text(in.Message)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Type:      model.NotificationType(in.Type),
		Title:     in.Title,
		Message:   in.Message,
		Link:      in.Link,
		Status:    model.NotificationUnread,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("通知の作成に失敗しました: %w", err)
	}

	events.PublishBestEffort(ctx, s.publisher, events.SubjectNotificationCreated, events.NotificationCreated{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           string(n.Type),
		CreatedAt:      n.CreatedAt,
	})
	return n, nil
}

// Notify はシステム起点の通知を作成する。失敗はログに残し、呼び出し元の処理は継続させる。
func (s *Service) Notify(ctx context.Context, userID string, typ model.NotificationType, title, message, link string) {
	_, err := s.Create(ctx, validation.NotificationCreate{
		UserID:  userID,
		Type:    string(typ),
		Title:   title,
		Message: message,
		Link:    link,
	})
	if err != nil {
		slog.Warn("通知の作成に失敗しました",
			slog.String("user_id", userID),
			slog.String("type", string(typ)),
			slog.String("error", err.Error()),
		)
	}
}

// List はユーザーの通知一覧を新しい順に返す。
func (s *Service) List(ctx context.Context, userID, status string, page model.PaginationQuery) (*model.PaginatedResult[*model.Notification], error) {
	if err := validation.NotificationStatus(status); err != nil {
		return nil, err
	}
	ns, total, err := s.repo.List(ctx, userID, model.NotificationStatus(status), page)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(ns, total, page), nil
}

// UnreadCount は未読通知の件数を返す。
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("未読件数の取得に失敗しました: %w", err)
	}
	return n, nil
}

// MarkAsRead は本人の通知を既読にする。
func (s *Service) MarkAsRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	n, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewNotFoundError("通知", id)
	}
	return n, nil
}

// MarkAllAsRead は本人の未読通知をすべて既読にし、件数を返す。
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("通知の一括既読化に失敗しました: %w", err)
	}
	return n, nil
}

// Delete は本人の通知を削除する。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := validation.ID("id", id); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("通知の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewNotFoundError("通知", id)
	}
	return nil
}

// DeleteExpired は期限切れの通知と、保持期間を過ぎた既読通知を削除する。
func (s *Service) DeleteExpired(ctx context.Context, readRetention time.Duration) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC(), readRetention)
	if err != nil {
		return 0, fmt.Errorf("期限切れ通知の削除に失敗しました: %w", err)
	}
	return n, nil
}
