package plot

import (
	"context"
	"errors"
	"testing"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/repository/repotest"
	"github.com/newleaf/newleaf/internal/validation"
)

const (
	ownerID  = "11111111-1111-1111-1111-111111111111"
	memberID = "22222222-2222-2222-2222-222222222222"
	otherID  = "33333333-3333-3333-3333-333333333333"
	plotID   = "44444444-4444-4444-4444-444444444444"
)

func apiCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

type notice struct {
	userID string
	typ    model.NotificationType
}

type recordingNotifier struct {
	sent []notice
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, typ model.NotificationType, _, _, _ string) {
	n.sent = append(n.sent, notice{userID, typ})
}

type milestoneCall struct {
	userID    string
	milestone repository.GardenMilestone
	points    int
}

func usersWithMilestone(granted bool, calls *[]milestoneCall) *repotest.UserRepo {
	return &repotest.UserRepo{
		FindByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Address: model.Address{PostCode: "AB1 2CD"}}, nil
		},
		GrantMilestoneFn: func(_ context.Context, id string, m repository.GardenMilestone, points int) (bool, error) {
			*calls = append(*calls, milestoneCall{id, m, points})
			return granted, nil
		},
	}
}

func storedPlot(p model.Plot) *repotest.PlotRepo {
	return &repotest.PlotRepo{FindByIDFn: func(context.Context, string) (*model.Plot, error) {
		cp := p
		return &cp, nil
	}}
}

func TestService_Create_FirstPlotGrantsPoints(t *testing.T) {
	tests := []struct {
		name        string
		granted     bool
		wantNotices int
	}{
		{"初回", true, 1},
		{"2回目以降", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []milestoneCall
			notifier := &recordingNotifier{}
			svc := NewService(Deps{
				Plots:    &repotest.PlotRepo{},
				Users:    usersWithMilestone(tt.granted, &calls),
				Notifier: notifier,
			})
			p, err := svc.Create(context.Background(), validation.PlotCreate{
				Name: "Sunny corner", Size: 12, GroupType: "Private", OwnerID: ownerID,
			})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if p.Status != model.PlotAvailable || p.MemberLimit != 1 {
				t.Errorf("plot = status %s limit %d", p.Status, p.MemberLimit)
			}
			if len(p.Images) != 1 || p.Images[0] != model.DefaultPlotImage {
				t.Errorf("Images = %v", p.Images)
			}
			if len(calls) != 1 || calls[0].milestone != repository.MilestoneFirstGardenLent || calls[0].points != FirstLentPoints {
				t.Errorf("milestone calls = %+v", calls)
			}
			if len(notifier.sent) != tt.wantNotices {
				t.Errorf("notices = %+v, want %d", notifier.sent, tt.wantNotices)
			}
		})
	}
}

func TestService_Create_DefaultsToCommunal(t *testing.T) {
	var calls []milestoneCall
	svc := NewService(Deps{Plots: &repotest.PlotRepo{}, Users: usersWithMilestone(false, &calls)})
	p, err := svc.Create(context.Background(), validation.PlotCreate{Name: "Shared beds", OwnerID: ownerID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.GroupType != model.PlotCommunal || p.MemberLimit != 30 {
		t.Errorf("GroupType=%s MemberLimit=%d", p.GroupType, p.MemberLimit)
	}
}

func TestService_RequestJoin(t *testing.T) {
	tests := []struct {
		name  string
		plot  model.Plot
		user  string
		added bool
		want  string
	}{
		{"成功", model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotAvailable}, memberID, true, ""},
		{"所有者", model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotAvailable}, ownerID, true, model.ErrCodeForbidden},
		{"メンバー", model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotAvailable, Members: []string{memberID}}, memberID, true, model.ErrCodeConflict},
		{"満員", model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotFull}, memberID, true, model.ErrCodePlotUnavailable},
		{"申請済み", model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotAvailable}, memberID, false, model.ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storedPlot(tt.plot)
			repo.AddRequestFn = func(context.Context, string, string) (bool, error) { return tt.added, nil }
			notifier := &recordingNotifier{}
			svc := NewService(Deps{Plots: repo, Notifier: notifier})

			_, err := svc.RequestJoin(context.Background(), plotID, tt.user)
			if got := apiCode(err); got != tt.want {
				t.Fatalf("RequestJoin() error = %v, want code %q", err, tt.want)
			}
			if tt.want == "" && (len(notifier.sent) != 1 || notifier.sent[0].userID != ownerID) {
				t.Errorf("owner should be notified, got %+v", notifier.sent)
			}
		})
	}
}

func TestService_AcceptJoin_FirstJoinGrantsPoints(t *testing.T) {
	var calls []milestoneCall
	repo := storedPlot(model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotAvailable, Requests: []string{memberID}})
	repo.AcceptMemberFn = func(_ context.Context, id, userID string) (*model.Plot, error) {
		return &model.Plot{ID: id, OwnerID: ownerID, Status: model.PlotFull, Members: []string{userID}}, nil
	}
	notifier := &recordingNotifier{}
	svc := NewService(Deps{Plots: repo, Users: usersWithMilestone(true, &calls), Notifier: notifier})

	p, err := svc.AcceptJoin(context.Background(), plotID, ownerID, memberID)
	if err != nil {
		t.Fatalf("AcceptJoin() error = %v", err)
	}
	if !p.HasMember(memberID) || p.Status != model.PlotFull {
		t.Errorf("plot = %+v", p)
	}
	if len(calls) != 1 || calls[0].userID != memberID || calls[0].points != FirstJoinedPoints {
		t.Errorf("milestone calls = %+v", calls)
	}
	if len(notifier.sent) != 2 || notifier.sent[1].typ != model.NotificationPoints {
		t.Errorf("notices = %+v", notifier.sent)
	}
}

func TestService_AcceptJoin_Errors(t *testing.T) {
	tests := []struct {
		name  string
		plot  model.Plot
		actor string
		want  string
	}{
		{"満員", model.Plot{OwnerID: ownerID, Status: model.PlotFull, Requests: []string{memberID}}, ownerID, model.ErrCodePlotUnavailable},
		{"メンテナンス中", model.Plot{OwnerID: ownerID, Status: model.PlotMaintenance, Requests: []string{memberID}}, ownerID, model.ErrCodePlotUnavailable},
		{"所有者以外", model.Plot{OwnerID: ownerID, Status: model.PlotAvailable, Requests: []string{memberID}}, otherID, model.ErrCodeForbidden},
		{"申請なし", model.Plot{OwnerID: ownerID, Status: model.PlotAvailable}, ownerID, model.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storedPlot(tt.plot)
			repo.AcceptMemberFn = func(context.Context, string, string) (*model.Plot, error) {
				t.Error("AcceptMember must not be called")
				return nil, nil
			}
			_, err := NewService(Deps{Plots: repo}).AcceptJoin(context.Background(), plotID, tt.actor, memberID)
			if got := apiCode(err); got != tt.want {
				t.Errorf("AcceptJoin() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestService_RejectJoin(t *testing.T) {
	repo := storedPlot(model.Plot{ID: plotID, OwnerID: ownerID, Requests: []string{memberID}})
	repo.RemoveRequestFn = func(context.Context, string, string) (bool, error) { return true, nil }
	notifier := &recordingNotifier{}
	if err := NewService(Deps{Plots: repo, Notifier: notifier}).RejectJoin(context.Background(), plotID, ownerID, memberID); err != nil {
		t.Fatalf("RejectJoin() error = %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].userID != memberID {
		t.Errorf("notices = %+v", notifier.sent)
	}

	repo.RemoveRequestFn = func(context.Context, string, string) (bool, error) { return false, nil }
	err := NewService(Deps{Plots: repo}).RejectJoin(context.Background(), plotID, ownerID, memberID)
	if apiCode(err) != model.ErrCodeNotFound {
		t.Errorf("missing request error = %v", err)
	}
}

func TestService_RemoveMember(t *testing.T) {
	plot := model.Plot{ID: plotID, OwnerID: ownerID, Status: model.PlotFull, Members: []string{memberID}}
	tests := []struct {
		name  string
		actor string
		want  string
	}{
		{"所有者による除名", ownerID, ""},
		{"本人の退会", memberID, ""},
		{"第三者", otherID, model.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storedPlot(plot)
			repo.RemoveMemberFn = func(_ context.Context, id, _ string) (*model.Plot, error) {
				return &model.Plot{ID: id, OwnerID: ownerID, Status: model.PlotAvailable, Members: []string{}}, nil
			}
			p, err := NewService(Deps{Plots: repo}).RemoveMember(context.Background(), plotID, tt.actor, memberID)
			if got := apiCode(err); got != tt.want {
				t.Fatalf("RemoveMember() error = %v, want %q", err, tt.want)
			}
			if tt.want == "" && p.Status != model.PlotAvailable {
				t.Errorf("Status = %s, want available", p.Status)
			}
		})
	}
}

func TestService_UpdateAndDelete_OwnerOnly(t *testing.T) {
	repo := storedPlot(model.Plot{ID: plotID, OwnerID: ownerID})
	svc := NewService(Deps{Plots: repo})
	name := "Renamed"
	if _, err := svc.Update(context.Background(), plotID, otherID, validation.PlotUpdate{Name: &name}); apiCode(err) != model.ErrCodeForbidden {
		t.Errorf("Update() error = %v, want FORBIDDEN", err)
	}
	if err := svc.Delete(context.Background(), plotID, otherID); apiCode(err) != model.ErrCodeForbidden {
		t.Errorf("Delete() error = %v, want FORBIDDEN", err)
	}
	p, err := svc.Update(context.Background(), plotID, ownerID, validation.PlotUpdate{Name: &name})
	if err != nil || p.Name != "Renamed" {
		t.Errorf("Update() = (%v, %v)", p, err)
	}
}

type stubRecommender struct {
	postcode string
}

func (r *stubRecommender) RecommendPlots(_ context.Context, postcode string, _ model.PlotFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Plot], error) {
	r.postcode = postcode
	return &mosaic.Recommendation[*model.Plot]{PaginatedResult: model.EmptyPaginatedResult[*model.Plot](page)}, nil
}

func TestService_Recommend_UsesAddressPostcode(t *testing.T) {
	var calls []milestoneCall
	rec := &stubRecommender{}
	svc := NewService(Deps{Users: usersWithMilestone(false, &calls), Recommender: rec})
	if _, err := svc.Recommend(context.Background(), memberID, "", model.PlotFilter{}, model.PaginationQuery{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.postcode != "AB1 2CD" {
		t.Errorf("postcode = %q, want AB1 2CD", rec.postcode)
	}
	if _, err := svc.Recommend(context.Background(), memberID, "", model.PlotFilter{Sort: "owner:asc"}, model.PaginationQuery{Page: 1, Limit: 10}); apiCode(err) != model.ErrCodeValidation {
		t.Errorf("invalid sort error = %v", err)
	}
}
