package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository/repotest"
	"github.com/newleaf/newleaf/internal/validation"
)

const (
	ownerID    = "11111111-1111-1111-1111-111111111111"
	borrowerID = "22222222-2222-2222-2222-222222222222"
	otherID    = "33333333-3333-3333-3333-333333333333"
	toolID     = "44444444-4444-4444-4444-444444444444"
)

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func apiCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func newService(repo *repotest.ToolRepo) *Service {
	s := NewService(repo, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func storedTool(tool model.Tool) *repotest.ToolRepo {
	return &repotest.ToolRepo{FindByIDFn: func(context.Context, string) (*model.Tool, error) {
		cp := tool
		return &cp, nil
	}}
}

func TestService_Create_StartsAvailable(t *testing.T) {
	tl, err := newService(&repotest.ToolRepo{}).Create(context.Background(), validation.ToolCreate{
		Name: "Spade", Category: "Digging", Condition: "good", OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tl.Availability != model.ToolAvailable || tl.BorrowHistory == nil || tl.MaintenanceLog == nil {
		t.Errorf("tool = %+v", tl)
	}
}

func TestService_Borrow(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	tests := []struct {
		name string
		tool model.Tool
		user string
		in   validation.ToolBorrow
		want string
	}{
		{"成功", model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolAvailable}, borrowerID, validation.ToolBorrow{}, ""},
		{"自分の道具", model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolAvailable}, ownerID, validation.ToolBorrow{}, model.ErrCodeValidation},
		{"貸出中", model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolBorrowed}, borrowerID, validation.ToolBorrow{}, model.ErrCodeToolUnavailable},
		{"メンテナンス中", model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolMaintenance}, borrowerID, validation.ToolBorrow{}, model.ErrCodeToolUnavailable},
		{"返却予定が過去", model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolAvailable}, borrowerID, validation.ToolBorrow{ExpectedReturnDate: &past}, model.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storedTool(tt.tool)
			var got model.Borrower
			repo.BorrowFn = func(_ context.Context, id string, b model.Borrower) (*model.Tool, error) {
				got = b
				return &model.Tool{ID: id, Availability: model.ToolBorrowed, CurrentBorrower: &b}, nil
			}
			_, err := newService(repo).Borrow(context.Background(), toolID, tt.user, tt.in)
			if code := apiCode(err); code != tt.want {
				t.Fatalf("Borrow() error = %v, want %q", err, tt.want)
			}
			if tt.want == "" && (got.UserID != borrowerID || !got.BorrowDate.Equal(fixedNow)) {
				t.Errorf("borrower = %+v", got)
			}
		})
	}
}

func TestService_Borrow_LostRace(t *testing.T) {
	repo := storedTool(model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolAvailable})
	_, err := newService(repo).Borrow(context.Background(), toolID, borrowerID, validation.ToolBorrow{})
	if apiCode(err) != model.ErrCodeToolUnavailable {
		t.Errorf("error = %v, want TOOL_UNAVAILABLE", err)
	}
}

func TestService_Return(t *testing.T) {
	borrowed := model.Tool{
		ID: toolID, OwnerID: ownerID, Availability: model.ToolBorrowed,
		CurrentBorrower: &model.Borrower{UserID: borrowerID, BorrowDate: fixedNow.Add(-48 * time.Hour)},
	}
	tests := []struct {
		name string
		tool model.Tool
		user string
		want string
	}{
		{"借り手", borrowed, borrowerID, ""},
		{"所有者", borrowed, ownerID, ""},
		{"第三者", borrowed, otherID, model.ErrCodeForbidden},
		{"貸出中でない", model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolAvailable}, ownerID, model.ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storedTool(tt.tool)
			var rec model.BorrowRecord
			repo.ReturnFn = func(_ context.Context, id string, r model.BorrowRecord) (*model.Tool, error) {
				rec = r
				return &model.Tool{ID: id, Availability: model.ToolAvailable, BorrowHistory: []model.BorrowRecord{r}}, nil
			}
			got, err := newService(repo).Return(context.Background(), toolID, tt.user, validation.ToolReturn{Condition: "fair"})
			if code := apiCode(err); code != tt.want {
				t.Fatalf("Return() error = %v, want %q", err, tt.want)
			}
			if tt.want != "" {
				return
			}
			if got.Availability != model.ToolAvailable {
				t.Errorf("Availability = %s", got.Availability)
			}
			if rec.UserID != borrowerID || !rec.ReturnDate.Equal(fixedNow) || rec.Condition != "fair" {
				t.Errorf("record = %+v", rec)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	repo := storedTool(model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolAvailable})
	note := "Sharpened blade"
	maint := string(model.ToolMaintenance)
	got, err := newService(repo).Update(context.Background(), toolID, ownerID, validation.ToolUpdate{
		Availability: &maint, Maintenance: &note,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Availability != model.ToolMaintenance || len(got.MaintenanceLog) != 1 || got.MaintenanceLog[0].PerformedBy != ownerID {
		t.Errorf("tool = %+v", got)
	}

	if _, err := newService(repo).Update(context.Background(), toolID, otherID, validation.ToolUpdate{Maintenance: &note}); apiCode(err) != model.ErrCodeForbidden {
		t.Errorf("other user error = %v", err)
	}

	borrowed := storedTool(model.Tool{ID: toolID, OwnerID: ownerID, Availability: model.ToolBorrowed})
	avail := string(model.ToolAvailable)
	if _, err := newService(borrowed).Update(context.Background(), toolID, ownerID, validation.ToolUpdate{Availability: &avail}); apiCode(err) != model.ErrCodeToolUnavailable {
		t.Errorf("borrowed availability change error = %v", err)
	}
}
