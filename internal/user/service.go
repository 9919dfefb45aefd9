// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/validation"
)

// SearchLimit はユーザー検索で返す最大件数。
const SearchLimit = 10

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo, now: time.Now}
}

// Create はユーザーを登録する。IDは認証プロバイダのsubject。
// 初期状態は未確認（verified=false）で、初期ポイントはDefaultPoints。
func (s *Service) Create(ctx context.Context, in validation.UserCreate) (*model.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &model.User{
		ID:             in.ID,
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Role:           model.UserRole(in.Role),
		Points:         model.DefaultPoints,
		Profile:        model.Profile{Skills: []string{}, Interests: []string{}},
		FavouritePlots: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("このユーザーは既に登録されています。")
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました", slog.String("user_id", u.ID))
	return u, nil
}

// GetByID はユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.User, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// List はユーザー一覧を返す。roleが空の場合は全ユーザー。
func (s *Service) List(ctx context.Context, role string, page model.PaginationQuery) (*model.PaginatedResult[*model.User], error) {
	if err := validation.OptionalOneOf("role", model.UserRole(role), model.RoleAdmin, model.RolePlotOwner, model.RoleCommunityMember); err != nil {
		return nil, err
	}
	users, total, err := s.userRepo.List(ctx, model.UserRole(role), page)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(users, total, page), nil
}

// Search は氏名またはメールアドレスでユーザーを検索する。
// 空白のみの検索語はストレージに問い合わせず空の結果を返す。
func (s *Service) Search(ctx context.Context, term string) ([]*model.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*model.User{}, nil
	}
	if err := validation.MaxLength("q", term, 100); err != nil {
		return nil, err
	}
	users, err := s.userRepo.Search(ctx, term, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// UpdateProfile はプロフィールを更新する。本人のみ更新できる。
// 氏名と郵便番号が揃うとverifiedがtrueになる。
func (s *Service) UpdateProfile(ctx context.Context, id, actorID string, in validation.ProfileUpdate) (*model.User, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	if id != actorID {
		return nil, model.NewForbiddenError("他のユーザーのプロフィールは更新できません。")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, err := s.userRepo.UpdateProfile(ctx, id, in.ToModel())
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// UpdatePoints は管理者操作としてポイント残高を更新する。
// 結果が負になる更新は拒否し、残高は変更しない。
func (s *Service) UpdatePoints(ctx context.Context, id string, action model.PointsAction) (*model.User, error) {
	if err := validation.First(validation.ID("id", id), validation.PointsAction(action)); err != nil {
		return nil, err
	}

	u, err := s.userRepo.UpdatePoints(ctx, id, action)
	if errors.Is(err, repository.ErrNegativeBalance) {
		return nil, model.NewNegativeBalanceError(action.Value)
	}
	if errors.Is(err, repository.ErrPointsOverflow) {
		return nil, model.NewValidationError("value", fmt.Sprintf("ポイント残高は%d以下である必要があります。", model.MaxPoints))
	}
	if err != nil {
		return nil, fmt.Errorf("ポイントの更新に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("ポイントを更新しました",
		slog.String("user_id", id),
		slog.String("type", string(action.Type)),
		slog.Int("value", action.Value),
		slog.Int("balance", u.Points),
	)
	return u, nil
}

// IsVerified はユーザーがプロフィール補完済みかどうかを返す。
// 未登録ユーザーはfalse。
func (s *Service) IsVerified(ctx context.Context, id string) (bool, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u != nil && u.Verified, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 出品・区画・フォルダ・通知等はCASCADEで削除され、他者の購入履歴はpurchased_byがNULLになる。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if err := validation.ID("id", userID); err != nil {
		return err
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}
