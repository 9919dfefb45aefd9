// Package plot は庭の区画の貸し出しと参加管理を提供する。
package plot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/security"
	"github.com/newleaf/newleaf/internal/validation"
)

// 初回達成時に付与するポイント。
const (
	FirstLentPoints   = 10
	FirstJoinedPoints = 50
)

// Recommender はセグメントの重みによる区画推薦のインターフェース。
type Recommender interface {
	RecommendPlots(ctx context.Context, postcode string, f model.PlotFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Plot], error)
}

// Notifier はシステム起点の通知を送る。
type Notifier interface {
	Notify(ctx context.Context, userID string, typ model.NotificationType, title, message, link string)
}

// Deps はServiceの依存関係。
type Deps struct {
	Plots       repository.PlotRepository
	Users       repository.UserRepository
	Recommender Recommender
	Notifier    Notifier
	Sanitizer   security.Sanitizer
}

// Service は区画のサービス層。
type Service struct {
	plots       repository.PlotRepository
	users       repository.UserRepository
	recommender Recommender
	notifier    Notifier
	sanitizer   security.Sanitizer
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(d Deps) *Service {
	if d.Sanitizer == nil {
		d.Sanitizer = security.NewContentSanitizer()
	}
	return &Service{
		plots:       d.Plots,
		users:       d.Users,
		recommender: d.Recommender,
		notifier:    d.Notifier,
		sanitizer:   d.Sanitizer,
		now:         time.Now,
	}
}

func (s *Service) notify(ctx context.Context, userID string, typ model.NotificationType, title, message, link string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, typ, title, message, link)
}

func plotLink(id string) string {
	return "/plots/" + id
}

// Create は区画を作成する。所有者の初めての区画であれば実績とポイントを付与する。
func (s *Service) Create(ctx context.Context, in validation.PlotCreate) (*model.Plot, error) {
	in.Name = s.sanitizer.Text(in.Name)
	in.Description = s.sanitizer.Description(in.Description)
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError()
	}

	group := model.PlotGroupType(in.GroupType)
	now := s.now().UTC()
	p := &model.Plot{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Size:          in.Size,
		Location:      in.Location,
		OwnerID:       in.OwnerID,
		Status:        model.PlotAvailable,
		Condition:     in.Condition,
		SoilPh:        in.SoilPh,
		SoilType:      in.SoilType,
		GardenSetting: in.GardenSetting,
		GroupType:     group,
		MemberLimit:   group.MemberLimit(),
		RequiredTasks: nonNil(in.RequiredTasks),
		Plants:        nonNil(in.Plants),
		Members:       []string{},
		Requests:      []string{},
		Images:        in.Images,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.plots.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("区画の作成に失敗しました: %w", err)
	}

	granted, err := s.users.GrantMilestone(ctx, owner.ID, repository.MilestoneFirstGardenLent, FirstLentPoints)
	if err != nil {
		slog.Warn("実績の付与に失敗しました",
			slog.String("user_id", owner.ID),
			slog.String("milestone", string(repository.MilestoneFirstGardenLent)),
			slog.String("error", err.Error()),
		)
	} else if granted {
		s.notify(ctx, owner.ID, model.NotificationPoints,
			"初めての区画を貸し出しました",
			fmt.Sprintf("区画の貸し出しで%dポイントを獲得しました。", FirstLentPoints),
			plotLink(p.ID))
	}
	return p, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// GetByID は指定IDの区画を返す。見つからない場合はnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.Plot, error) {
	if err := validation.ID("id", id); err != nil {
		return nil, err
	}
	p, err := s.plots.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("区画の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Mine はユーザーが所有または参加している区画を返す。
func (s *Service) Mine(ctx context.Context, userID string) ([]*model.Plot, error) {
	ps, err := s.plots.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("区画一覧の取得に失敗しました: %w", err)
	}
	return nonNil(ps), nil
}

// List は条件に一致する区画一覧を返す。
func (s *Service) List(ctx context.Context, f model.PlotFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Plot], error) {
	if err := validation.PlotFilter(f); err != nil {
		return nil, err
	}
	ps, total, err := s.plots.List(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("区画一覧の取得に失敗しました: %w", err)
	}
	return model.NewPaginatedResult(ps, total, page), nil
}

// Recommend は郵便番号のセグメントに応じて並べた区画一覧を返す。
// postcodeが空の場合はユーザーの登録住所の郵便番号を使う。
func (s *Service) Recommend(ctx context.Context, userID, postcode string, f model.PlotFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Plot], error) {
	if err := validation.PlotFilter(f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(postcode) == "" && userID != "" {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if u != nil {
			postcode = u.Address.PostCode
		}
	}
	rec, err := s.recommender.RecommendPlots(ctx, postcode, f, page)
	if err != nil {
		return nil, fmt.Errorf("区画の推薦に失敗しました: %w", err)
	}
	return rec, nil
}

// found は区画を返す。存在しない場合は404。
func (s *Service) found(ctx context.Context, id string) (*model.Plot, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("区画", id)
	}
	return p, nil
}

// owned は所有者の区画を返す。他人の区画は403。
func (s *Service) owned(ctx context.Context, id, userID string) (*model.Plot, error) {
	p, err := s.found(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		return nil, model.NewForbiddenError("この区画を変更する権限がありません。")
	}
	return p, nil
}

// Update は区画を部分更新する。所有者のみ。
func (s *Service) Update(ctx context.Context, id, userID string, in validation.PlotUpdate) (*model.Plot, error) {
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
	p, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	in.Apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := s.plots.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("区画の更新に失敗しました: %w", err)
	}
	return p, nil
}

// Delete は区画を削除する。所有者のみ。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.plots.Delete(ctx, id); err != nil {
		return fmt.Errorf("区画の削除に失敗しました: %w", err)
	}
	return nil
}

// RequestJoin は区画への参加を申請し、所有者に通知する。
func (s *Service) RequestJoin(ctx context.Context, id, userID string) (*model.Plot, error) {
	p, err := s.found(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID == userID {
		return nil, model.NewForbiddenError("自分の区画には参加申請できません。")
	}
	if p.HasMember(userID) {
		return nil, model.NewConflictError("既にこの区画のメンバーです。")
	}
	if p.Status != model.PlotAvailable {
		return nil, model.NewPlotUnavailableError(p.Status)
	}
	added, err := s.plots.AddRequest(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("参加申請に失敗しました: %w", err)
	}
	if !added {
		return nil, model.NewConflictError("既に参加申請済みです。")
	}
	p.Requests = append(p.Requests, userID)

	s.notify(ctx, p.OwnerID, model.NotificationMembership,
		"区画への参加申請があります",
		fmt.Sprintf("「%s」への参加申請が届きました。", p.Name),
		plotLink(p.ID))
	return p, nil
}

// AcceptJoin は参加申請を承認する。満員またはメンテナンス中は409。
// ユーザーの初めての参加であれば実績とポイントを付与する。
func (s *Service) AcceptJoin(ctx context.Context, id, ownerID, userID string) (*model.Plot, error) {
	if err := validation.ID("user_id", userID); err != nil {
		return nil, err
	}
	p, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PlotAvailable {
		return nil, model.NewPlotUnavailableError(p.Status)
	}
	if !p.HasRequest(userID) {
		return nil, model.NewNotFoundError("参加申請", userID)
	}
	updated, err := s.plots.AcceptMember(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("参加申請の承認に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewPlotUnavailableError(model.PlotFull)
	}

	s.notify(ctx, userID, model.NotificationMembership,
		"参加申請が承認されました",
		fmt.Sprintf("「%s」のメンバーになりました。", updated.Name),
		plotLink(updated.ID))

	granted, err := s.users.GrantMilestone(ctx, userID, repository.MilestoneFirstGardenJoined, FirstJoinedPoints)
	if err != nil {
		slog.Warn("実績の付与に失敗しました",
			slog.String("user_id", userID),
			slog.String("milestone", string(repository.MilestoneFirstGardenJoined)),
			slog.String("error", err.Error()),
		)
	} else if granted {
		s.notify(ctx, userID, model.NotificationPoints,
			"初めて区画に参加しました",
			fmt.Sprintf("区画への参加で%dポイントを獲得しました。", FirstJoinedPoints),
			plotLink(updated.ID))
	}
	return updated, nil
}

// RejectJoin は参加申請を却下する。
func (s *Service) RejectJoin(ctx context.Context, id, ownerID, userID string) error {
	if err := validation.ID("user_id", userID); err != nil {
		return err
	}
	p, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	removed, err := s.plots.RemoveRequest(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("参加申請の却下に失敗しました: %w", err)
	}
	if !removed {
		return model.NewNotFoundError("参加申請", userID)
	}
	s.notify(ctx, userID, model.NotificationMembership,
		"参加申請が見送られました",
		fmt.Sprintf("「%s」への参加申請は承認されませんでした。", p.Name),
		plotLink(p.ID))
	return nil
}

// RemoveMember はメンバーを外す。所有者による除名と本人の退会を受け付ける。
// 満員の区画はavailableに戻る。
func (s *Service) RemoveMember(ctx context.Context, id, actorID, userID string) (*model.Plot, error) {
	if err := validation.ID("user_id", userID); err != nil {
		return nil, err
	}
	p, err := s.found(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID && actorID != userID {
		return nil, model.NewForbiddenError("このメンバーを外す権限がありません。")
	}
	updated, err := s.plots.RemoveMember(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("メンバー", userID)
	}
	return updated, nil
}
