package handler

import (
	"context"

	"github.com/newleaf/newleaf/internal/image"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/taskboard"
	"github.com/newleaf/newleaf/internal/validation"
)

// --- モック定義 ---
// 未設定の関数はゼロ値を返す。

type mockUserService struct {
	createFn        func(ctx context.Context, in validation.UserCreate) (*model.User, error)
	getByIDFn       func(ctx context.Context, id string) (*model.User, error)
	listFn          func(ctx context.Context, role string, page model.PaginationQuery) (*model.PaginatedResult[*model.User], error)
	searchFn        func(ctx context.Context, term string) ([]*model.User, error)
	updateProfileFn func(ctx context.Context, id, actorID string, in validation.ProfileUpdate) (*model.User, error)
	updatePointsFn  func(ctx context.Context, id string, action model.PointsAction) (*model.User, error)
	isVerifiedFn    func(ctx context.Context, id string) (bool, error)
	withdrawFn      func(ctx context.Context, userID string) error
}

func (m *mockUserService) Create(ctx context.Context, in validation.UserCreate) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) List(ctx context.Context, role string, page model.PaginationQuery) (*model.PaginatedResult[*model.User], error) {
	if m.listFn != nil {
		return m.listFn(ctx, role, page)
	}
	return model.EmptyPaginatedResult[*model.User](page), nil
}

func (m *mockUserService) Search(ctx context.Context, term string) ([]*model.User, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, term)
	}
	return []*model.User{}, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id, actorID string, in validation.ProfileUpdate) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, actorID, in)
	}
	return nil, nil
}

func (m *mockUserService) UpdatePoints(ctx context.Context, id string, action model.PointsAction) (*model.User, error) {
	if m.updatePointsFn != nil {
		return m.updatePointsFn(ctx, id, action)
	}
	return nil, nil
}

func (m *mockUserService) IsVerified(ctx context.Context, id string) (bool, error) {
	if m.isVerifiedFn != nil {
		return m.isVerifiedFn(ctx, id)
	}
	return true, nil
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

type mockListingService struct {
	listFn       func(ctx context.Context, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error)
	searchFn     func(ctx context.Context, term string, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error)
	getByIDFn    func(ctx context.Context, id string) (*model.Listing, error)
	recommendFn  func(ctx context.Context, userID, postcode string, f model.ListingFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error)
	listByUserFn func(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error)
	latestFn     func(ctx context.Context) ([]*model.Listing, error)
	createFn     func(ctx context.Context, in validation.ListingCreate) (*model.Listing, error)
	updateFn     func(ctx context.Context, id, userID string, in validation.ListingUpdate) (*model.Listing, error)
	deleteFn     func(ctx context.Context, id string) error
	purchaseFn   func(ctx context.Context, id, buyerID string) (*model.Listing, error)
}

func (m *mockListingService) List(ctx context.Context, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
	if m.listFn != nil {
		return m.listFn(ctx, f, page)
	}
	return model.EmptyPaginatedResult[*model.Listing](page), nil
}

func (m *mockListingService) Search(ctx context.Context, term string, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, term, f, page)
	}
	return model.EmptyPaginatedResult[*model.Listing](page), nil
}

func (m *mockListingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockListingService) Recommend(ctx context.Context, userID, postcode string, f model.ListingFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, userID, postcode, f, page)
	}
	return &mosaic.Recommendation[*model.Listing]{PaginatedResult: model.EmptyPaginatedResult[*model.Listing](page)}, nil
}

func (m *mockListingService) ListByUser(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, page)
	}
	return model.EmptyPaginatedResult[*model.Listing](page), nil
}

func (m *mockListingService) Latest(ctx context.Context) ([]*model.Listing, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return nil, nil
}

func (m *mockListingService) Create(ctx context.Context, in validation.ListingCreate) (*model.Listing, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockListingService) Update(ctx context.Context, id, userID string, in validation.ListingUpdate) (*model.Listing, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, userID, in)
	}
	return nil, nil
}

func (m *mockListingService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockListingService) Purchase(ctx context.Context, id, buyerID string) (*model.Listing, error) {
	if m.purchaseFn != nil {
		return m.purchaseFn(ctx, id, buyerID)
	}
	return nil, nil
}

type mockFeedBuilder struct {
	buildFn func(listings []*model.Listing) ([]byte, error)
}

func (m *mockFeedBuilder) Build(listings []*model.Listing) ([]byte, error) {
	if m.buildFn != nil {
		return m.buildFn(listings)
	}
	return []byte("<rss/>"), nil
}

// noopNotificationService は全メソッドが空結果を返すNotificationServiceInterface。
type noopNotificationService struct{}

func (noopNotificationService) Create(ctx context.Context, in validation.NotificationCreate) (*model.Notification, error) {
	return &model.Notification{}, nil
}

func (noopNotificationService) List(ctx context.Context, userID, status string, page model.PaginationQuery) (*model.PaginatedResult[*model.Notification], error) {
	return model.EmptyPaginatedResult[*model.Notification](page), nil
}

func (noopNotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (noopNotificationService) MarkAsRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	return &model.Notification{}, nil
}

func (noopNotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (noopNotificationService) Delete(ctx context.Context, id, userID string) error { return nil }

type mockFolderService struct {
	getFoldersFn func(ctx context.Context, path, owner string, plotIDs []string, page model.PaginationQuery) (*model.FolderPage, error)
	deleteFn     func(ctx context.Context, id, owner string) (bool, error)
}

func (m *mockFolderService) GetIDByPath(ctx context.Context, path, owner string) (string, error) {
	return "", nil
}

func (m *mockFolderService) GetFolders(ctx context.Context, path, owner string, plotIDs []string, page model.PaginationQuery) (*model.FolderPage, error) {
	if m.getFoldersFn != nil {
		return m.getFoldersFn(ctx, path, owner, plotIDs, page)
	}
	return &model.FolderPage{Folders: []*model.Folder{}}, nil
}

func (m *mockFolderService) Create(ctx context.Context, in validation.FolderCreate) (*model.Folder, error) {
	return &model.Folder{}, nil
}

func (m *mockFolderService) Rename(ctx context.Context, id, owner, name string) (*model.Folder, error) {
	return &model.Folder{}, nil
}

func (m *mockFolderService) AddSubfolder(ctx context.Context, parentID, childID, owner string) error {
	return nil
}

func (m *mockFolderService) Delete(ctx context.Context, id, owner string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, owner)
	}
	return false, nil
}

type mockTaskboardService struct {
	getAllTaskFoldersFn func(ctx context.Context, path, owner string, page model.PaginationQuery) (*model.FolderContents, error)
	deleteFn            func(ctx context.Context, id, userID string, force bool) error
	getNumberOfTasksFn  func(ctx context.Context, in validation.TaskCount) (*taskboard.TaskCount, error)
	toggleStatusFn      func(ctx context.Context, id, userID string) (*model.Task, error)
}

func (m *mockTaskboardService) GetByID(ctx context.Context, id string) (*model.TaskBoard, error) {
	return nil, nil
}

func (m *mockTaskboardService) GetByPath(ctx context.Context, path, title, owner string) (*model.TaskBoard, error) {
	return nil, nil
}

func (m *mockTaskboardService) GetMostRecent(ctx context.Context, owner string) ([]*model.TaskBoard, error) {
	return []*model.TaskBoard{}, nil
}

func (m *mockTaskboardService) List(ctx context.Context, owner, path string, page model.PaginationQuery) (*model.PaginatedResult[*model.TaskBoard], error) {
	return model.EmptyPaginatedResult[*model.TaskBoard](page), nil
}

func (m *mockTaskboardService) GetAllTaskFolders(ctx context.Context, path, owner string, page model.PaginationQuery) (*model.FolderContents, error) {
	if m.getAllTaskFoldersFn != nil {
		return m.getAllTaskFoldersFn(ctx, path, owner, page)
	}
	return &model.FolderContents{}, nil
}

func (m *mockTaskboardService) Create(ctx context.Context, in validation.TaskboardCreate) (*model.TaskBoard, error) {
	return &model.TaskBoard{}, nil
}

func (m *mockTaskboardService) Update(ctx context.Context, id, userID string, in validation.TaskboardUpdate) (*model.TaskBoard, error) {
	return &model.TaskBoard{}, nil
}

func (m *mockTaskboardService) Delete(ctx context.Context, id, userID string, force bool) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, userID, force)
	}
	return nil
}

func (m *mockTaskboardService) GetByBoard(ctx context.Context, boardID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Task], error) {
	return model.EmptyPaginatedResult[*model.Task](page), nil
}

func (m *mockTaskboardService) ListTasks(ctx context.Context, f model.TaskFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Task], error) {
	return model.EmptyPaginatedResult[*model.Task](page), nil
}

func (m *mockTaskboardService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return nil, nil
}

func (m *mockTaskboardService) CreateTask(ctx context.Context, in validation.TaskCreate) (*model.Task, error) {
	return &model.Task{}, nil
}

func (m *mockTaskboardService) UpdateTask(ctx context.Context, id, userID string, in validation.TaskUpdate) (*model.Task, error) {
	return &model.Task{}, nil
}

func (m *mockTaskboardService) ToggleStatus(ctx context.Context, id, userID string) (*model.Task, error) {
	if m.toggleStatusFn != nil {
		return m.toggleStatusFn(ctx, id, userID)
	}
	return &model.Task{}, nil
}

func (m *mockTaskboardService) ToggleImportance(ctx context.Context, id, userID string) (*model.Task, error) {
	return &model.Task{}, nil
}

func (m *mockTaskboardService) DeleteTask(ctx context.Context, id, userID string) error { return nil }

func (m *mockTaskboardService) GetNumberOfTasks(ctx context.Context, in validation.TaskCount) (*taskboard.TaskCount, error) {
	if m.getNumberOfTasksFn != nil {
		return m.getNumberOfTasksFn(ctx, in)
	}
	return &taskboard.TaskCount{}, nil
}

type mockPlotService struct {
	mineFn       func(ctx context.Context, userID string) ([]*model.Plot, error)
	acceptJoinFn func(ctx context.Context, id, ownerID, userID string) (*model.Plot, error)
}

func (m *mockPlotService) Create(ctx context.Context, in validation.PlotCreate) (*model.Plot, error) {
	return &model.Plot{}, nil
}

func (m *mockPlotService) GetByID(ctx context.Context, id string) (*model.Plot, error) {
	return nil, nil
}

func (m *mockPlotService) Mine(ctx context.Context, userID string) ([]*model.Plot, error) {
	if m.mineFn != nil {
		return m.mineFn(ctx, userID)
	}
	return []*model.Plot{}, nil
}

func (m *mockPlotService) List(ctx context.Context, f model.PlotFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Plot], error) {
	return model.EmptyPaginatedResult[*model.Plot](page), nil
}

func (m *mockPlotService) Recommend(ctx context.Context, userID, postcode string, f model.PlotFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Plot], error) {
	return &mosaic.Recommendation[*model.Plot]{PaginatedResult: model.EmptyPaginatedResult[*model.Plot](page)}, nil
}

func (m *mockPlotService) Update(ctx context.Context, id, userID string, in validation.PlotUpdate) (*model.Plot, error) {
	return &model.Plot{}, nil
}

func (m *mockPlotService) Delete(ctx context.Context, id, userID string) error { return nil }

func (m *mockPlotService) RequestJoin(ctx context.Context, id, userID string) (*model.Plot, error) {
	return &model.Plot{}, nil
}

func (m *mockPlotService) AcceptJoin(ctx context.Context, id, ownerID, userID string) (*model.Plot, error) {
	if m.acceptJoinFn != nil {
		return m.acceptJoinFn(ctx, id, ownerID, userID)
	}
	return &model.Plot{}, nil
}

func (m *mockPlotService) RejectJoin(ctx context.Context, id, ownerID, userID string) error {
	return nil
}

func (m *mockPlotService) RemoveMember(ctx context.Context, id, actorID, userID string) (*model.Plot, error) {
	return &model.Plot{}, nil
}

// noopToolService は全メソッドが空結果を返すToolServiceInterface。
type noopToolService struct{}

func (noopToolService) List(ctx context.Context, f model.ToolFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Tool], error) {
	return model.EmptyPaginatedResult[*model.Tool](page), nil
}

func (noopToolService) GetByID(ctx context.Context, id string) (*model.Tool, error) { return nil, nil }

func (noopToolService) Create(ctx context.Context, in validation.ToolCreate) (*model.Tool, error) {
	return &model.Tool{}, nil
}

func (noopToolService) Update(ctx context.Context, id, userID string, in validation.ToolUpdate) (*model.Tool, error) {
	return &model.Tool{}, nil
}

func (noopToolService) Delete(ctx context.Context, id, userID string) error { return nil }

func (noopToolService) Borrow(ctx context.Context, id, userID string, in validation.ToolBorrow) (*model.Tool, error) {
	return &model.Tool{}, nil
}

func (noopToolService) Return(ctx context.Context, id, userID string, in validation.ToolReturn) (*model.Tool, error) {
	return &model.Tool{}, nil
}

type mockBookingService struct {
	getByIDFn func(ctx context.Context, id, userID string) (*model.Booking, error)
	createFn  func(ctx context.Context, in validation.BookingCreate) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, in validation.BookingCreate) (*model.Booking, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id, userID string) (*model.Booking, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, userID)
	}
	return nil, nil
}

func (m *mockBookingService) List(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Booking], error) {
	return model.EmptyPaginatedResult[*model.Booking](page), nil
}

func (m *mockBookingService) Update(ctx context.Context, id, userID string, in validation.BookingUpdate) (*model.Booking, error) {
	return &model.Booking{}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id, userID string) error { return nil }

type mockImageStorage struct {
	generateFn func(ctx context.Context, fileName, mimeType string) (*image.SignedUpload, error)
	validateFn func(ctx context.Context, rawURL string) bool
}

func (m *mockImageStorage) GenerateSignedURL(ctx context.Context, fileName, mimeType string) (*image.SignedUpload, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, fileName, mimeType)
	}
	return &image.SignedUpload{}, nil
}

func (m *mockImageStorage) ValidateImageURL(ctx context.Context, rawURL string) bool {
	if m.validateFn != nil {
		return m.validateFn(ctx, rawURL)
	}
	return false
}

var (
	_ UserServiceInterface         = (*mockUserService)(nil)
	_ ListingServiceInterface      = (*mockListingService)(nil)
	_ NotificationServiceInterface = noopNotificationService{}
	_ FolderServiceInterface       = (*mockFolderService)(nil)
	_ TaskboardServiceInterface    = (*mockTaskboardService)(nil)
	_ PlotServiceInterface         = (*mockPlotService)(nil)
	_ ToolServiceInterface         = noopToolService{}
	_ BookingServiceInterface      = (*mockBookingService)(nil)
	_ ImageStorage                 = (*mockImageStorage)(nil)
)
