// Package repotest はリポジトリインターフェースのテスト用モックを提供する。
// 各メソッドは対応するFnフィールドに委譲し、未設定の場合はゼロ値を返す。
package repotest

import (
	"context"
	"time"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
)

// UserRepo は repository.UserRepository のモック。
type UserRepo struct {
	FindByIDFn       func(ctx context.Context, id string) (*model.User, error)
	CreateFn         func(ctx context.Context, user *model.User) error
	ListFn           func(ctx context.Context, role model.UserRole, page model.PaginationQuery) ([]*model.User, int, error)
	SearchFn         func(ctx context.Context, term string, limit int) ([]*model.User, error)
	UpdateProfileFn  func(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
	UpdatePointsFn   func(ctx context.Context, id string, action model.PointsAction) (*model.User, error)
	GrantMilestoneFn func(ctx context.Context, id string, milestone repository.GardenMilestone, points int) (bool, error)
	DeleteByIDFn     func(ctx context.Context, id string) error
}

func (m *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *UserRepo) Create(ctx context.Context, user *model.User) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, user)
}

func (m *UserRepo) List(ctx context.Context, role model.UserRole, page model.PaginationQuery) ([]*model.User, int, error) {
	if m.ListFn == nil {
		return nil, 0, nil
	}
	return m.ListFn(ctx, role, page)
}

func (m *UserRepo) Search(ctx context.Context, term string, limit int) ([]*model.User, error) {
	if m.SearchFn == nil {
		return nil, nil
	}
	return m.SearchFn(ctx, term, limit)
}

func (m *UserRepo) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	if m.UpdateProfileFn == nil {
		return nil, nil
	}
	return m.UpdateProfileFn(ctx, id, update)
}

func (m *UserRepo) UpdatePoints(ctx context.Context, id string, action model.PointsAction) (*model.User, error) {
	if m.UpdatePointsFn == nil {
		return nil, nil
	}
	return m.UpdatePointsFn(ctx, id, action)
}

func (m *UserRepo) GrantMilestone(ctx context.Context, id string, milestone repository.GardenMilestone, points int) (bool, error) {
	if m.GrantMilestoneFn == nil {
		return false, nil
	}
	return m.GrantMilestoneFn(ctx, id, milestone, points)
}

func (m *UserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.DeleteByIDFn == nil {
		return nil
	}
	return m.DeleteByIDFn(ctx, id)
}

// ListingRepo は repository.ListingRepository のモック。
type ListingRepo struct {
	FindByIDFn   func(ctx context.Context, id string) (*model.Listing, error)
	CreateFn     func(ctx context.Context, listing *model.Listing) error
	UpdateFn     func(ctx context.Context, listing *model.Listing) error
	DeleteFn     func(ctx context.Context, id string) (bool, error)
	ListFn       func(ctx context.Context, q model.ListingQuery, page model.PaginationQuery) ([]*model.Listing, int, error)
	ListRankedFn func(ctx context.Context, q model.ListingQuery, ranking model.ListingRanking, page model.PaginationQuery) ([]*model.Listing, int, error)
	PurchaseFn   func(ctx context.Context, id, buyerID string, cost int, notifications ...*model.Notification) (*model.Listing, error)
}

func (m *ListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *ListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, listing)
}

func (m *ListingRepo) Update(ctx context.Context, listing *model.Listing) error {
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(ctx, listing)
}

func (m *ListingRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id)
}

func (m *ListingRepo) List(ctx context.Context, q model.ListingQuery, page model.PaginationQuery) ([]*model.Listing, int, error) {
	if m.ListFn == nil {
		return nil, 0, nil
	}
	return m.ListFn(ctx, q, page)
}

func (m *ListingRepo) ListRanked(ctx context.Context, q model.ListingQuery, ranking model.ListingRanking, page model.PaginationQuery) ([]*model.Listing, int, error) {
	if m.ListRankedFn == nil {
		return nil, 0, nil
	}
	return m.ListRankedFn(ctx, q, ranking, page)
}

func (m *ListingRepo) Purchase(ctx context.Context, id, buyerID string, cost int, notifications ...*model.Notification) (*model.Listing, error) {
	if m.PurchaseFn == nil {
		return nil, nil
	}
	return m.PurchaseFn(ctx, id, buyerID, cost, notifications...)
}

// PreferenceRepo は repository.PreferenceRepository のモック。
type PreferenceRepo struct {
	FindByGroupTypeFn func(ctx context.Context, groupType model.SegmentCode) (*model.PreferenceMatrix, error)
	UpsertFn          func(ctx context.Context, matrix *model.PreferenceMatrix) error
	ListExpiredFn     func(ctx context.Context, now time.Time) ([]*model.PreferenceMatrix, error)
}

func (m *PreferenceRepo) FindByGroupType(ctx context.Context, groupType model.SegmentCode) (*model.PreferenceMatrix, error) {
	if m.FindByGroupTypeFn == nil {
		return nil, nil
	}
	return m.FindByGroupTypeFn(ctx, groupType)
}

func (m *PreferenceRepo) Upsert(ctx context.Context, matrix *model.PreferenceMatrix) error {
	if m.UpsertFn == nil {
		return nil
	}
	return m.UpsertFn(ctx, matrix)
}

func (m *PreferenceRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.PreferenceMatrix, error) {
	if m.ListExpiredFn == nil {
		return nil, nil
	}
	return m.ListExpiredFn(ctx, now)
}

// NotificationRepo は repository.NotificationRepository のモック。
type NotificationRepo struct {
	CreateFn        func(ctx context.Context, n *model.Notification) error
	ListFn          func(ctx context.Context, userID string, status model.NotificationStatus, page model.PaginationQuery) ([]*model.Notification, int, error)
	CountUnreadFn   func(ctx context.Context, userID string) (int, error)
	MarkAsReadFn    func(ctx context.Context, id, userID string) (*model.Notification, error)
	MarkAllAsReadFn func(ctx context.Context, userID string) (int64, error)
	DeleteFn        func(ctx context.Context, id, userID string) (bool, error)
	DeleteExpiredFn func(ctx context.Context, now time.Time, readRetention time.Duration) (int64, error)
}

func (m *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, n)
}

func (m *NotificationRepo) List(ctx context.Context, userID string, status model.NotificationStatus, page model.PaginationQuery) ([]*model.Notification, int, error) {
	if m.ListFn == nil {
		return nil, 0, nil
	}
	return m.ListFn(ctx, userID, status, page)
}

func (m *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	if m.CountUnreadFn == nil {
		return 0, nil
	}
	return m.CountUnreadFn(ctx, userID)
}

func (m *NotificationRepo) MarkAsRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	if m.MarkAsReadFn == nil {
		return nil, nil
	}
	return m.MarkAsReadFn(ctx, id, userID)
}

func (m *NotificationRepo) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	if m.MarkAllAsReadFn == nil {
		return 0, nil
	}
	return m.MarkAllAsReadFn(ctx, userID)
}

func (m *NotificationRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id, userID)
}

func (m *NotificationRepo) DeleteExpired(ctx context.Context, now time.Time, readRetention time.Duration) (int64, error) {
	if m.DeleteExpiredFn == nil {
		return 0, nil
	}
	return m.DeleteExpiredFn(ctx, now, readRetention)
}

// FolderRepo は repository.FolderRepository のモック。
type FolderRepo struct {
	FindByIDFn        func(ctx context.Context, id string) (*model.Folder, error)
	FindByPathFn      func(ctx context.Context, path, owner string) (*model.Folder, error)
	ExistsFn          func(ctx context.Context, name, path, owner string) (bool, error)
	ListChildrenFn    func(ctx context.Context, parentID *string, owner string, plotIDs []string, offset, limit int) ([]*model.Folder, error)
	CountChildrenFn   func(ctx context.Context, parentID *string, owner string) (int, error)
	CreateFn          func(ctx context.Context, folder *model.Folder) error
	RenameFn          func(ctx context.Context, id, name string) (*model.Folder, error)
	SetParentFn       func(ctx context.Context, id, parentID string) (bool, error)
	DeleteRecursiveFn func(ctx context.Context, id string) (int64, error)
}

func (m *FolderRepo) FindByID(ctx context.Context, id string) (*model.Folder, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *FolderRepo) FindByPath(ctx context.Context, path, owner string) (*model.Folder, error) {
	if m.FindByPathFn == nil {
		return nil, nil
	}
	return m.FindByPathFn(ctx, path, owner)
}

func (m *FolderRepo) Exists(ctx context.Context, name, path, owner string) (bool, error) {
	if m.ExistsFn == nil {
		return false, nil
	}
	return m.ExistsFn(ctx, name, path, owner)
}

func (m *FolderRepo) ListChildren(ctx context.Context, parentID *string, owner string, plotIDs []string, offset, limit int) ([]*model.Folder, error) {
	if m.ListChildrenFn == nil {
		return nil, nil
	}
	return m.ListChildrenFn(ctx, parentID, owner, plotIDs, offset, limit)
}

func (m *FolderRepo) CountChildren(ctx context.Context, parentID *string, owner string) (int, error) {
	if m.CountChildrenFn == nil {
		return 0, nil
	}
	return m.CountChildrenFn(ctx, parentID, owner)
}

func (m *FolderRepo) Create(ctx context.Context, folder *model.Folder) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, folder)
}

func (m *FolderRepo) Rename(ctx context.Context, id, name string) (*model.Folder, error) {
	if m.RenameFn == nil {
		return nil, nil
	}
	return m.RenameFn(ctx, id, name)
}

func (m *FolderRepo) SetParent(ctx context.Context, id, parentID string) (bool, error) {
	if m.SetParentFn == nil {
		return false, nil
	}
	return m.SetParentFn(ctx, id, parentID)
}

func (m *FolderRepo) DeleteRecursive(ctx context.Context, id string) (int64, error) {
	if m.DeleteRecursiveFn == nil {
		return 0, nil
	}
	return m.DeleteRecursiveFn(ctx, id)
}

// TaskBoardRepo は repository.TaskBoardRepository のモック。
type TaskBoardRepo struct {
	FindByIDFn    func(ctx context.Context, id string) (*model.TaskBoard, error)
	FindByPathFn  func(ctx context.Context, path, title, owner string) (*model.TaskBoard, error)
	ListRecentFn  func(ctx context.Context, owner string, limit int) ([]*model.TaskBoard, error)
	ListByOwnerFn func(ctx context.Context, owner, path string, page model.PaginationQuery) ([]*model.TaskBoard, int, error)
	ListAtPathFn  func(ctx context.Context, path, owner string, plotIDs []string, offset, limit int) ([]*model.TaskBoard, error)
	CreateFn      func(ctx context.Context, board *model.TaskBoard) error
	UpdateFn      func(ctx context.Context, board *model.TaskBoard) error
	SetListedFn   func(ctx context.Context, id string, listed bool) error
	DeleteFn      func(ctx context.Context, id string) (bool, error)
}

func (m *TaskBoardRepo) FindByID(ctx context.Context, id string) (*model.TaskBoard, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *TaskBoardRepo) FindByPath(ctx context.Context, path, title, owner string) (*model.TaskBoard, error) {
	if m.FindByPathFn == nil {
		return nil, nil
	}
	return m.FindByPathFn(ctx, path, title, owner)
}

func (m *TaskBoardRepo) ListRecent(ctx context.Context, owner string, limit int) ([]*model.TaskBoard, error) {
	if m.ListRecentFn == nil {
		return nil, nil
	}
	return m.ListRecentFn(ctx, owner, limit)
}

func (m *TaskBoardRepo) ListByOwner(ctx context.Context, owner, path string, page model.PaginationQuery) ([]*model.TaskBoard, int, error) {
	if m.ListByOwnerFn == nil {
		return nil, 0, nil
	}
	return m.ListByOwnerFn(ctx, owner, path, page)
}

func (m *TaskBoardRepo) ListAtPath(ctx context.Context, path, owner string, plotIDs []string, offset, limit int) ([]*model.TaskBoard, error) {
	if m.ListAtPathFn == nil {
		return nil, nil
	}
	return m.ListAtPathFn(ctx, path, owner, plotIDs, offset, limit)
}

func (m *TaskBoardRepo) Create(ctx context.Context, board *model.TaskBoard) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, board)
}

func (m *TaskBoardRepo) Update(ctx context.Context, board *model.TaskBoard) error {
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(ctx, board)
}

func (m *TaskBoardRepo) SetListed(ctx context.Context, id string, listed bool) error {
	if m.SetListedFn == nil {
		return nil
	}
	return m.SetListedFn(ctx, id, listed)
}

func (m *TaskBoardRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id)
}

// TaskRepo は repository.TaskRepository のモック。
type TaskRepo struct {
	FindByIDFn func(ctx context.Context, id string) (*model.Task, error)
	CreateFn   func(ctx context.Context, task *model.Task) error
	UpdateFn   func(ctx context.Context, task *model.Task) error
	DeleteFn   func(ctx context.Context, id string) (bool, error)
	ListFn     func(ctx context.Context, filter model.TaskFilter, page model.PaginationQuery) ([]*model.Task, int, error)
	CountFn    func(ctx context.Context, filter model.TaskFilter) (int, error)
}

func (m *TaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, task)
}

func (m *TaskRepo) Update(ctx context.Context, task *model.Task) error {
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(ctx, task)
}

func (m *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id)
}

func (m *TaskRepo) List(ctx context.Context, filter model.TaskFilter, page model.PaginationQuery) ([]*model.Task, int, error) {
	if m.ListFn == nil {
		return nil, 0, nil
	}
	return m.ListFn(ctx, filter, page)
}

func (m *TaskRepo) Count(ctx context.Context, filter model.TaskFilter) (int, error) {
	if m.CountFn == nil {
		return 0, nil
	}
	return m.CountFn(ctx, filter)
}

// PlotRepo は repository.PlotRepository のモック。
type PlotRepo struct {
	FindByIDFn      func(ctx context.Context, id string) (*model.Plot, error)
	CreateFn        func(ctx context.Context, plot *model.Plot) error
	UpdateFn        func(ctx context.Context, plot *model.Plot) error
	DeleteFn        func(ctx context.Context, id string) (bool, error)
	ListFn          func(ctx context.Context, filter model.PlotFilter, page model.PaginationQuery) ([]*model.Plot, int, error)
	ListRankedFn    func(ctx context.Context, filter model.PlotFilter, ranking model.PlotRanking, page model.PaginationQuery) ([]*model.Plot, int, error)
	ListByUserFn    func(ctx context.Context, userID string) ([]*model.Plot, error)
	CountByOwnerFn  func(ctx context.Context, ownerID string) (int, error)
	AddRequestFn    func(ctx context.Context, id, userID string) (bool, error)
	RemoveRequestFn func(ctx context.Context, id, userID string) (bool, error)
	AcceptMemberFn  func(ctx context.Context, id, userID string) (*model.Plot, error)
	RemoveMemberFn  func(ctx context.Context, id, userID string) (*model.Plot, error)
}

func (m *PlotRepo) FindByID(ctx context.Context, id string) (*model.Plot, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *PlotRepo) Create(ctx context.Context, plot *model.Plot) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, plot)
}

func (m *PlotRepo) Update(ctx context.Context, plot *model.Plot) error {
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(ctx, plot)
}

func (m *PlotRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id)
}

func (m *PlotRepo) List(ctx context.Context, filter model.PlotFilter, page model.PaginationQuery) ([]*model.Plot, int, error) {
	if m.ListFn == nil {
		return nil, 0, nil
	}
	return m.ListFn(ctx, filter, page)
}

func (m *PlotRepo) ListRanked(ctx context.Context, filter model.PlotFilter, ranking model.PlotRanking, page model.PaginationQuery) ([]*model.Plot, int, error) {
	if m.ListRankedFn == nil {
		return nil, 0, nil
	}
	return m.ListRankedFn(ctx, filter, ranking, page)
}

func (m *PlotRepo) ListByUser(ctx context.Context, userID string) ([]*model.Plot, error) {
	if m.ListByUserFn == nil {
		return nil, nil
	}
	return m.ListByUserFn(ctx, userID)
}

func (m *PlotRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if m.CountByOwnerFn == nil {
		return 0, nil
	}
	return m.CountByOwnerFn(ctx, ownerID)
}

func (m *PlotRepo) AddRequest(ctx context.Context, id, userID string) (bool, error) {
	if m.AddRequestFn == nil {
		return false, nil
	}
	return m.AddRequestFn(ctx, id, userID)
}

func (m *PlotRepo) RemoveRequest(ctx context.Context, id, userID string) (bool, error) {
	if m.RemoveRequestFn == nil {
		return false, nil
	}
	return m.RemoveRequestFn(ctx, id, userID)
}

func (m *PlotRepo) AcceptMember(ctx context.Context, id, userID string) (*model.Plot, error) {
	if m.AcceptMemberFn == nil {
		return nil, nil
	}
	return m.AcceptMemberFn(ctx, id, userID)
}

func (m *PlotRepo) RemoveMember(ctx context.Context, id, userID string) (*model.Plot, error) {
	if m.RemoveMemberFn == nil {
		return nil, nil
	}
	return m.RemoveMemberFn(ctx, id, userID)
}

// ToolRepo は repository.ToolRepository のモック。
type ToolRepo struct {
	FindByIDFn func(ctx context.Context, id string) (*model.Tool, error)
	CreateFn   func(ctx context.Context, tool *model.Tool) error
	UpdateFn   func(ctx context.Context, tool *model.Tool) error
	DeleteFn   func(ctx context.Context, id string) (bool, error)
	ListFn     func(ctx context.Context, filter model.ToolFilter, page model.PaginationQuery) ([]*model.Tool, int, error)
	BorrowFn   func(ctx context.Context, id string, borrower model.Borrower) (*model.Tool, error)
	ReturnFn   func(ctx context.Context, id string, record model.BorrowRecord) (*model.Tool, error)
}

func (m *ToolRepo) FindByID(ctx context.Context, id string) (*model.Tool, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *ToolRepo) Create(ctx context.Context, tool *model.Tool) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, tool)
}

func (m *ToolRepo) Update(ctx context.Context, tool *model.Tool) error {
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(ctx, tool)
}

func (m *ToolRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id)
}

func (m *ToolRepo) List(ctx context.Context, filter model.ToolFilter, page model.PaginationQuery) ([]*model.Tool, int, error) {
	if m.ListFn == nil {
		return nil, 0, nil
	}
	return m.ListFn(ctx, filter, page)
}

func (m *ToolRepo) Borrow(ctx context.Context, id string, borrower model.Borrower) (*model.Tool, error) {
	if m.BorrowFn == nil {
		return nil, nil
	}
	return m.BorrowFn(ctx, id, borrower)
}

func (m *ToolRepo) Return(ctx context.Context, id string, record model.BorrowRecord) (*model.Tool, error) {
	if m.ReturnFn == nil {
		return nil, nil
	}
	return m.ReturnFn(ctx, id, record)
}

// BookingRepo は repository.BookingRepository のモック。
type BookingRepo struct {
	FindByIDFn   func(ctx context.Context, id string) (*model.Booking, error)
	CreateFn     func(ctx context.Context, booking *model.Booking) error
	UpdateFn     func(ctx context.Context, booking *model.Booking) error
	DeleteFn     func(ctx context.Context, id string) (bool, error)
	ListByUserFn func(ctx context.Context, userID string, page model.PaginationQuery) ([]*model.Booking, int, error)
}

func (m *BookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.FindByIDFn == nil {
		return nil, nil
	}
	return m.FindByIDFn(ctx, id)
}

func (m *BookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, booking)
}

func (m *BookingRepo) Update(ctx context.Context, booking *model.Booking) error {
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(ctx, booking)
}

func (m *BookingRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn == nil {
		return false, nil
	}
	return m.DeleteFn(ctx, id)
}

func (m *BookingRepo) ListByUser(ctx context.Context, userID string, page model.PaginationQuery) ([]*model.Booking, int, error) {
	if m.ListByUserFn == nil {
		return nil, 0, nil
	}
	return m.ListByUserFn(ctx, userID, page)
}

var (
	_ repository.UserRepository         = (*UserRepo)(nil)
	_ repository.ListingRepository      = (*ListingRepo)(nil)
	_ repository.PreferenceRepository   = (*PreferenceRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
	_ repository.FolderRepository       = (*FolderRepo)(nil)
	_ repository.TaskBoardRepository    = (*TaskBoardRepo)(nil)
	_ repository.TaskRepository         = (*TaskRepo)(nil)
	_ repository.PlotRepository         = (*PlotRepo)(nil)
	_ repository.ToolRepository         = (*ToolRepo)(nil)
	_ repository.BookingRepository      = (*BookingRepo)(nil)
)
