package taskboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository/repotest"
	"github.com/newleaf/newleaf/internal/validation"
)

const (
	ownerID  = "11111111-1111-1111-1111-111111111111"
	memberID = "22222222-2222-2222-2222-222222222222"
	boardID  = "33333333-3333-3333-3333-333333333333"
	taskID   = "44444444-4444-4444-4444-444444444444"
	plotID   = "55555555-5555-5555-5555-555555555555"
)

func apiCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// sliceFolders はn件のフォルダを持つFolderListerのテスト用実装。
type sliceFolders struct {
	n int
}

func (f sliceFolders) ListAt(_ context.Context, _, _ string, _ []string, offset, limit int) ([]*model.Folder, error) {
	var out []*model.Folder
	for i := offset; i < f.n && len(out) < limit; i++ {
		out = append(out, &model.Folder{ID: fmt.Sprintf("folder-%d", i)})
	}
	return out, nil
}

type recordingNotifier struct {
	userIDs []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, _ model.NotificationType, _, _, _ string) {
	n.userIDs = append(n.userIDs, userID)
}

func boardsAt(n int) func(context.Context, string, string, []string, int, int) ([]*model.TaskBoard, error) {
	return func(_ context.Context, _, _ string, _ []string, offset, limit int) ([]*model.TaskBoard, error) {
		var out []*model.TaskBoard
		for i := offset; i < n && len(out) < limit; i++ {
			out = append(out, &model.TaskBoard{ID: fmt.Sprintf("board-%d", i)})
		}
		return out, nil
	}
}

func TestService_GetAllTaskFolders(t *testing.T) {
	tests := []struct {
		name        string
		folders     int
		boards      int
		page        model.PaginationQuery
		wantFolders int
		wantBoards  int
		wantFirst   string
		wantNext    bool
	}{
		{"フォルダのみで満杯", 12, 3, model.PaginationQuery{Page: 1, Limit: 10}, 10, 0, "", true},
		{"フォルダの残りをボードで埋める", 4, 10, model.PaginationQuery{Page: 1, Limit: 5}, 4, 1, "board-0", true},
		{"2ページ目はボードの続き", 4, 10, model.PaginationQuery{Page: 2, Limit: 5}, 0, 5, "board-1", true},
		{"最終ページ", 4, 3, model.PaginationQuery{Page: 2, Limit: 5}, 0, 2, "board-1", false},
		{"空", 0, 0, model.PaginationQuery{Page: 1, Limit: 5}, 0, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(Deps{
				Boards:  &repotest.TaskBoardRepo{ListAtPathFn: boardsAt(tt.boards)},
				Plots:   &repotest.PlotRepo{},
				Folders: sliceFolders{n: tt.folders},
			})
			got, err := svc.GetAllTaskFolders(context.Background(), "/", ownerID, tt.page)
			if err != nil {
				t.Fatalf("GetAllTaskFolders() error = %v", err)
			}
			if len(got.Folders) != tt.wantFolders || len(got.Taskboards) != tt.wantBoards {
				t.Errorf("folders=%d boards=%d, want %d/%d", len(got.Folders), len(got.Taskboards), tt.wantFolders, tt.wantBoards)
			}
			if tt.wantFirst != "" && got.Taskboards[0].ID != tt.wantFirst {
				t.Errorf("first board = %s, want %s", got.Taskboards[0].ID, tt.wantFirst)
			}
			if got.HasNextPage != tt.wantNext {
				t.Errorf("HasNextPage = %v, want %v", got.HasNextPage, tt.wantNext)
			}
		})
	}
}

func TestService_GetAllTaskFolders_PassesPlotIDs(t *testing.T) {
	var gotIDs []string
	svc := NewService(Deps{
		Boards: &repotest.TaskBoardRepo{
			ListAtPathFn: func(_ context.Context, _, _ string, plotIDs []string, _, _ int) ([]*model.TaskBoard, error) {
				gotIDs = plotIDs
				return nil, nil
			},
		},
		Plots: &repotest.PlotRepo{ListByUserFn: func(context.Context, string) ([]*model.Plot, error) {
			return []*model.Plot{{ID: plotID}}, nil
		}},
		Folders: sliceFolders{},
	})
	if _, err := svc.GetAllTaskFolders(context.Background(), "/plots/", ownerID, model.PaginationQuery{Page: 1, Limit: 5}); err != nil {
		t.Fatalf("GetAllTaskFolders() error = %v", err)
	}
	if len(gotIDs) != 1 || gotIDs[0] != plotID {
		t.Errorf("plotIDs = %v, want [%s]", gotIDs, plotID)
	}
}

func TestService_GetMostRecent_Limit(t *testing.T) {
	var gotLimit int
	svc := NewService(Deps{Boards: &repotest.TaskBoardRepo{
		ListRecentFn: func(_ context.Context, _ string, limit int) ([]*model.TaskBoard, error) {
			gotLimit = limit
			return nil, nil
		},
	}})
	bs, err := svc.GetMostRecent(context.Background(), ownerID)
	if err != nil || bs == nil {
		t.Fatalf("GetMostRecent() = (%v, %v)", bs, err)
	}
	if gotLimit != 5 {
		t.Errorf("limit = %d, want 5", gotLimit)
	}
}

func TestService_Create_StartsOpen(t *testing.T) {
	svc := NewService(Deps{Boards: &repotest.TaskBoardRepo{}})
	b, err := svc.Create(context.Background(), validation.TaskboardCreate{
		Title: "Spring beds", Path: "/garden/", Owner: ownerID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Status != model.WorkOpen || b.Listed {
		t.Errorf("board = %+v", b)
	}
}

func TestService_UpdateAndDelete_Rules(t *testing.T) {
	plot := plotID
	tests := []struct {
		name   string
		board  model.TaskBoard
		actor  string
		force  bool
		update string
		remove string
	}{
		{"出品中", model.TaskBoard{ID: boardID, Owner: ownerID, Listed: true}, ownerID, true, model.ErrCodeTaskboardListed, model.ErrCodeTaskboardListed},
		{"区画紐付き", model.TaskBoard{ID: boardID, Owner: ownerID, PlotID: &plot}, ownerID, false, "", model.ErrCodePlotLinked},
		{"区画紐付きforce", model.TaskBoard{ID: boardID, Owner: ownerID, PlotID: &plot}, ownerID, true, "", ""},
		{"他人", model.TaskBoard{ID: boardID, Owner: ownerID}, memberID, false, model.ErrCodeForbidden, model.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := tt.board
			svc := NewService(Deps{Boards: &repotest.TaskBoardRepo{
				FindByIDFn: func(context.Context, string) (*model.TaskBoard, error) {
					b := board
					return &b, nil
				},
			}})
			title := "Renamed"
			_, err := svc.Update(context.Background(), boardID, tt.actor, validation.TaskboardUpdate{Title: &title})
			if got := apiCode(err); got != tt.update {
				t.Errorf("Update() error = %v, want code %q", err, tt.update)
			}
			err = svc.Delete(context.Background(), boardID, tt.actor, tt.force)
			if got := apiCode(err); got != tt.remove {
				t.Errorf("Delete() error = %v, want code %q", err, tt.remove)
			}
		})
	}
}

func TestService_CreateTask_NotifiesAssignee(t *testing.T) {
	assignee := memberID
	notifier := &recordingNotifier{}
	svc := NewService(Deps{
		Boards: &repotest.TaskBoardRepo{FindByIDFn: func(_ context.Context, id string) (*model.TaskBoard, error) {
			return &model.TaskBoard{ID: id, Owner: ownerID, Title: "Beds"}, nil
		}},
		Tasks:    &repotest.TaskRepo{},
		Notifier: notifier,
	})
	task, err := svc.CreateTask(context.Background(), validation.TaskCreate{
		TaskBoardID: boardID, Title: "Weed", Category: "Garden", AssignedTo: &assignee, CreatedBy: ownerID,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Status != model.WorkOpen || task.Priority != model.PriorityMedium {
		t.Errorf("defaults not applied: %+v", task)
	}
	if len(notifier.userIDs) != 1 || notifier.userIDs[0] != memberID {
		t.Errorf("notified = %v", notifier.userIDs)
	}
}

func TestService_CreateTask_PlotMemberAllowed(t *testing.T) {
	plot := plotID
	svc := NewService(Deps{
		Boards: &repotest.TaskBoardRepo{FindByIDFn: func(_ context.Context, id string) (*model.TaskBoard, error) {
			return &model.TaskBoard{ID: id, Owner: ownerID, PlotID: &plot}, nil
		}},
		Tasks: &repotest.TaskRepo{},
		Plots: &repotest.PlotRepo{ListByUserFn: func(context.Context, string) ([]*model.Plot, error) {
			return []*model.Plot{{ID: plotID}}, nil
		}},
	})
	_, err := svc.CreateTask(context.Background(), validation.TaskCreate{
		TaskBoardID: boardID, Title: "Water", Category: "Garden", CreatedBy: memberID,
	})
	if err != nil {
		t.Errorf("CreateTask() error = %v", err)
	}
}

func TestService_ToggleStatusAndImportance(t *testing.T) {
	stored := &model.Task{ID: taskID, TaskBoardID: boardID, CreatedBy: ownerID, Status: model.WorkInProgress}
	svc := NewService(Deps{Tasks: &repotest.TaskRepo{
		FindByIDFn: func(context.Context, string) (*model.Task, error) { return stored, nil },
	}})
	ctx := context.Background()

	got, err := svc.ToggleStatus(ctx, taskID, ownerID)
	if err != nil || got.Status != model.WorkCompleted {
		t.Fatalf("ToggleStatus() = (%v, %v), want completed", got, err)
	}
	got, _ = svc.ToggleStatus(ctx, taskID, ownerID)
	if got.Status != model.WorkOpen {
		t.Errorf("second toggle = %s, want open", got.Status)
	}
	got, _ = svc.ToggleImportance(ctx, taskID, ownerID)
	if !got.Important {
		t.Error("Important should be true")
	}
}

func TestService_GetNumberOfTasks(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	var got model.TaskFilter
	svc := NewService(Deps{Tasks: &repotest.TaskRepo{
		CountFn: func(_ context.Context, f model.TaskFilter) (int, error) {
			got = f
			return 7, nil
		},
	}})
	svc.now = func() time.Time { return now }

	res, err := svc.GetNumberOfTasks(context.Background(), validation.TaskCount{
		ID: memberID, Status: "open", Overdue: true, CreatedInLast: "1 Week",
	})
	if err != nil || res.Total != 7 {
		t.Fatalf("GetNumberOfTasks() = (%v, %v)", res, err)
	}
	if got.AssignedTo != memberID || got.Status != model.WorkOpen {
		t.Errorf("filter = %+v", got)
	}
	if got.DueBefore == nil || !got.DueBefore.Equal(now) {
		t.Errorf("DueBefore = %v, want %v", got.DueBefore, now)
	}
	if got.CreatedAfter == nil || !got.CreatedAfter.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("CreatedAfter = %v", got.CreatedAfter)
	}

	if _, err := svc.GetNumberOfTasks(context.Background(), validation.TaskCount{ID: memberID, CreatedInLast: "1 Year"}); apiCode(err) != model.ErrCodeValidation {
		t.Errorf("invalid created_in_last error = %v", err)
	}
}
