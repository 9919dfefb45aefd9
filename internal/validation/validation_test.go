package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

const testUserID = "6f1c2a7e-4b1d-4c3a-9a53-2d8e3f0b9c11"

func requireAPIError(t *testing.T, err error, code, field string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
	if apiErr.Field != field {
		t.Errorf("Field = %q, want %q", apiErr.Field, field)
	}
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		code string
	}{
		{"valid uuid", testUserID, ""},
		{"empty", "", model.ErrCodeValidation},
		{"malformed", "not-a-uuid", model.ErrCodeInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ID("id", tt.id)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			requireAPIError(t, err, tt.code, "id")
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        model.PaginationQuery
		wantField   string
	}{
		{"defaults", 0, 0, model.PaginationQuery{Page: 1, Limit: 10}, ""},
		{"explicit", 3, 25, model.PaginationQuery{Page: 3, Limit: 25}, ""},
		{"negative page", -1, 10, model.PaginationQuery{}, "page"},
		{"negative limit", 1, -5, model.PaginationQuery{}, "limit"},
		{"limit too large", 1, model.MaxLimit + 1, model.PaginationQuery{}, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pagination(tt.page, tt.limit)
			if tt.wantField != "" {
				requireAPIError(t, err, model.ErrCodeValidation, tt.wantField)
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestListingCreate_DefaultsAndRequiredFields は出品作成のデフォルト値と必須項目を検証する。
func TestListingCreate_DefaultsAndRequiredFields(t *testing.T) {
	in := &ListingCreate{
		Name:        "  Tomato seeds ",
		Price:       floatPtr(0),
		Category:    "seeds",
		Description: "heirloom",
		Postcode:    "AB1 2CD",
		CreatedBy:   testUserID,
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.Type != string(model.ListingTypeItem) {
		t.Errorf("Type = %q, want item", in.Type)
	}
	if in.Quantity == nil || *in.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", in.Quantity)
	}
	if in.Name != "Tomato seeds" {
		t.Errorf("Name = %q, want trimmed", in.Name)
	}
}

func TestListingCreate_Invalid(t *testing.T) {
	base := func() *ListingCreate {
		return &ListingCreate{
			Name: "Spade", Price: floatPtr(5), Category: "tools",
			Description: "sturdy", Postcode: "AB1 2CD", CreatedBy: testUserID,
		}
	}
	tests := []struct {
		name   string
		mutate func(*ListingCreate)
		field  string
	}{
		{"missing price", func(in *ListingCreate) { in.Price = nil }, "price"},
		{"negative price", func(in *ListingCreate) { in.Price = floatPtr(-1) }, "price"},
		{"short name", func(in *ListingCreate) { in.Name = "a" }, "name"},
		{"missing category", func(in *ListingCreate) { in.Category = " " }, "category"},
		{"missing description", func(in *ListingCreate) { in.Description = "" }, "description"},
		{"short postcode", func(in *ListingCreate) { in.Postcode = "AB" }, "postcode"},
		{"unknown type", func(in *ListingCreate) { in.Type = "auction" }, "type"},
		{"service without path", func(in *ListingCreate) { in.Type = "service" }, "path"},
		{"bad pickup", func(in *ListingCreate) { in.PickupMethod = "drone" }, "pickup_method"},
		{"price out of column range", func(in *ListingCreate) { in.Price = floatPtr(1e12) }, "price"},
		{"category too long", func(in *ListingCreate) { in.Category = strings.Repeat("c", 101) }, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(in)
			in.Normalize()
			requireAPIError(t, in.Validate(), model.ErrCodeValidation, tt.field)
		})
	}
}

func TestListingUpdate_RejectsCreatedByChange(t *testing.T) {
	in := &ListingUpdate{CreatedBy: strPtr(testUserID)}
	requireAPIError(t, in.Validate(), model.ErrCodeValidation, "created_by")
}

func TestListingUpdate_Ranges(t *testing.T) {
	tests := []struct {
		name  string
		in    ListingUpdate
		field string
	}{
		{"price at upper bound", ListingUpdate{Price: floatPtr(model.MaxPrice)}, "price"},
		{"category too long", ListingUpdate{Category: strPtr(strings.Repeat("c", 101))}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireAPIError(t, tt.in.Validate(), model.ErrCodeValidation, tt.field)
		})
	}

	ok := ListingUpdate{Price: floatPtr(9999999999.99), Category: strPtr(strings.Repeat("c", 100))}
	if err := ok.Validate(); err != nil {
		t.Errorf("values at the column limits should be accepted, got %v", err)
	}
}

func TestListingUpdate_AllowsClosingWithoutPurchaser(t *testing.T) {
	in := &ListingUpdate{Status: strPtr("closed")}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.Empty() {
		t.Error("Empty() = true, want false")
	}
}

// TestPointsAction_NegativeSetRejected はset:-1が拒否されることを検証する。
func TestPointsAction_NegativeSetRejected(t *testing.T) {
	err := PointsAction(model.PointsAction{Type: model.PointsActionSet, Value: -1})
	requireAPIError(t, err, model.ErrCodeNegativeBalance, "value")

	if err := PointsAction(model.PointsAction{Type: model.PointsActionOffset, Value: -50}); err != nil {
		t.Errorf("offset with negative value should be accepted at validation time, got %v", err)
	}
	requireAPIError(t, PointsAction(model.PointsAction{Type: "multiply", Value: 2}), model.ErrCodeValidation, "type")
}

func TestPointsAction_Range(t *testing.T) {
	tests := []struct {
		name    string
		action  model.PointsAction
		wantErr bool
	}{
		{"set at max", model.PointsAction{Type: model.PointsActionSet, Value: model.MaxPoints}, false},
		{"set above max", model.PointsAction{Type: model.PointsActionSet, Value: 3000000000}, true},
		{"offset above max", model.PointsAction{Type: model.PointsActionOffset, Value: model.MaxPoints + 1}, true},
		{"offset below min", model.PointsAction{Type: model.PointsActionOffset, Value: -model.MaxPoints - 1}, true},
		{"offset large but in range", model.PointsAction{Type: model.PointsActionOffset, Value: -model.MaxPoints}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PointsAction(tt.action)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			requireAPIError(t, err, model.ErrCodeValidation, "value")
		})
	}
}

func TestUserCreate_Validate(t *testing.T) {
	in := &UserCreate{ID: testUserID, Email: " Alice@Example.com "}
	in.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.Role != string(model.RoleCommunityMember) {
		t.Errorf("Role = %q, want communityMember", in.Role)
	}
	if in.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lower-cased", in.Email)
	}

	bad := &UserCreate{ID: testUserID, Email: "not an email"}
	bad.Normalize()
	requireAPIError(t, bad.Validate(), model.ErrCodeValidation, "email")
}

func TestIsPlotsPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/plots/", true},
		{"/plots/abc/", true},
		{"/plots/abc/inner/", true},
		{"/garden/", false},
		{"/plotsx/", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := IsPlotsPath(tt.path); got != tt.want {
			t.Errorf("IsPlotsPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFolderCreate_PathMustBeSlashDelimited(t *testing.T) {
	in := &FolderCreate{Path: "garden", Name: "Veg", CreatedBy: testUserID}
	requireAPIError(t, in.Validate(), model.ErrCodeValidation, "path")

	in.Path = "/garden/"
	if err := in.Validate(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCreatedInLast_Cutoff(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   CreatedInLast
		want *time.Time
	}{
		{CreatedAllTime, nil},
		{"", nil},
		{CreatedLastDay, timePtr(now.Add(-24 * time.Hour))},
		{CreatedLastWeek, timePtr(now.AddDate(0, 0, -7))},
		{CreatedLastMonth, timePtr(time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC))},
	}
	for _, tt := range tests {
		got := tt.in.Cutoff(now)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%q: got %v, want nil", tt.in, got)
		case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskCount_Filter(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	in := &TaskCount{ID: testUserID, Status: "open", Overdue: true, CreatedInLast: "1 Week"}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	f := in.Filter(now)
	if f.AssignedTo != testUserID || f.Status != model.WorkOpen {
		t.Errorf("unexpected filter: %+v", f)
	}
	if f.DueBefore == nil || !f.DueBefore.Equal(now) {
		t.Errorf("DueBefore = %v, want %v", f.DueBefore, now)
	}
	if f.CreatedAfter == nil || !f.CreatedAfter.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("CreatedAfter = %v", f.CreatedAfter)
	}

	bad := &TaskCount{ID: testUserID, CreatedInLast: "1 Year"}
	requireAPIError(t, bad.Validate(), model.ErrCodeValidation, "created_in_last")
}

func TestTaskCreate_Defaults(t *testing.T) {
	in := &TaskCreate{
		TaskBoardID: testUserID, Title: "Water beds", Category: "watering", CreatedBy: testUserID,
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.Status != "open" || in.Priority != "medium" {
		t.Errorf("defaults = %q/%q, want open/medium", in.Status, in.Priority)
	}
}

func TestPlotCreate_Validate(t *testing.T) {
	in := &PlotCreate{Name: "Sunny corner", Size: 12, OwnerID: testUserID, Condition: "Full Sun"}
	in.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.GroupType != "Communal" {
		t.Errorf("GroupType = %q, want Communal", in.GroupType)
	}
	if len(in.Images) != 1 || in.Images[0] != model.DefaultPlotImage {
		t.Errorf("Images = %v, want default image", in.Images)
	}

	in.SoilType = "Gravel"
	requireAPIError(t, in.Validate(), model.ErrCodeValidation, "soil_type")
}

func TestToolUpdate_BorrowedNotSettable(t *testing.T) {
	in := &ToolUpdate{Availability: strPtr("borrowed")}
	requireAPIError(t, in.Validate(), model.ErrCodeValidation, "availability")
}

func TestBookingCreate_Dates(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		start, end time.Time
		field      string
	}{
		{"valid", now.Add(time.Hour), now.Add(2 * time.Hour), ""},
		{"start in past", now.Add(-time.Hour), now.Add(time.Hour), "start_date"},
		{"end before start", now.Add(2 * time.Hour), now.Add(time.Hour), "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &BookingCreate{StartDate: tt.start, EndDate: tt.end, Guests: 1, UserID: testUserID}
			err := in.Validate(now)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			requireAPIError(t, err, model.ErrCodeValidation, tt.field)
		})
	}
}

func TestBookingUpdate_ChecksMergedDates(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	current := &model.Booking{StartDate: now.Add(24 * time.Hour), EndDate: now.Add(48 * time.Hour)}
	end := now.Add(12 * time.Hour)
	in := &BookingUpdate{EndDate: &end}
	requireAPIError(t, in.Validate(current, now), model.ErrCodeValidation, "end_date")
}
