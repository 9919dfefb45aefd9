package folder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/repository"
	"github.com/newleaf/newleaf/internal/repository/repotest"
	"github.com/newleaf/newleaf/internal/validation"
)

const (
	ownerID  = "11111111-1111-1111-1111-111111111111"
	otherID  = "22222222-2222-2222-2222-222222222222"
	folderID = "33333333-3333-3333-3333-333333333333"
	childID  = "44444444-4444-4444-4444-444444444444"
)

func apiCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func TestParentPath(t *testing.T) {
	tests := []struct{ path, want string }{
		{"/", "/"},
		{"/garden/", "/"},
		{"/garden/beds/", "/garden/"},
		{"/a/b/c/", "/a/b/"},
	}
	for _, tt := range tests {
		if got := ParentPath(tt.path); got != tt.want {
			t.Errorf("ParentPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestService_GetFolders_HasNextPage(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &repotest.FolderRepo{
		ListChildrenFn: func(_ context.Context, parentID *string, owner string, _ []string, offset, limit int) ([]*model.Folder, error) {
			if parentID != nil {
				t.Errorf("parentID = %v, want nil for root", *parentID)
			}
			gotOffset, gotLimit = offset, limit
			var fs []*model.Folder
			for i := 0; i < limit; i++ {
				fs = append(fs, &model.Folder{ID: fmt.Sprintf("f%d", i)})
			}
			return fs, nil
		},
	}
	svc := NewService(repo)

	page, err := svc.GetFolders(context.Background(), "/", ownerID, nil, model.PaginationQuery{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("GetFolders() error = %v", err)
	}
	if gotLimit != 4 || gotOffset != 3 {
		t.Errorf("ListChildren(offset=%d, limit=%d), want (3, 4)", gotOffset, gotLimit)
	}
	if len(page.Folders) != 3 || !page.HasNextPage {
		t.Errorf("page = %d folders, hasNext=%v", len(page.Folders), page.HasNextPage)
	}
}

func TestService_GetFolders_UnknownPathIsEmpty(t *testing.T) {
	repo := &repotest.FolderRepo{
		ListChildrenFn: func(context.Context, *string, string, []string, int, int) ([]*model.Folder, error) {
			t.Error("ListChildren must not be called")
			return nil, nil
		},
	}
	page, err := NewService(repo).GetFolders(context.Background(), "/missing/", ownerID, nil, model.PaginationQuery{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("GetFolders() error = %v", err)
	}
	if page.Folders == nil || len(page.Folders) != 0 || page.HasNextPage {
		t.Errorf("page = %+v, want empty", page)
	}
}

func TestService_Create(t *testing.T) {
	var saved *model.Folder
	repo := &repotest.FolderRepo{
		FindByPathFn: func(_ context.Context, path, owner string) (*model.Folder, error) {
			if path == "/garden/" {
				return &model.Folder{ID: folderID, Path: path, CreatedBy: owner}, nil
			}
			return nil, nil
		},
		CreateFn: func(_ context.Context, f *model.Folder) error {
			saved = f
			return nil
		},
	}
	f, err := NewService(repo).Create(context.Background(), validation.FolderCreate{
		Path: "/garden/beds/", Name: " Beds ", CreatedBy: ownerID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if saved != f || f.Name != "Beds" {
		t.Errorf("folder = %+v", f)
	}
	if f.ParentFolderID == nil || *f.ParentFolderID != folderID {
		t.Errorf("ParentFolderID = %v, want %s", f.ParentFolderID, folderID)
	}
}

func TestService_Create_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		exists bool
		create error
		want   string
	}{
		{"区画ルート", "/plots/", false, nil, model.ErrCodeForbidden},
		{"区画配下", "/plots/abc/beds/", false, nil, model.ErrCodeForbidden},
		{"重複", "/garden/", true, nil, model.ErrCodeConflict},
		{"一意制約違反", "/garden/", false, repository.ErrDuplicate, model.ErrCodeConflict},
		{"パス不正", "garden", false, nil, model.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &repotest.FolderRepo{
				ExistsFn: func(context.Context, string, string, string) (bool, error) { return tt.exists, nil },
				CreateFn: func(context.Context, *model.Folder) error { return tt.create },
			}
			_, err := NewService(repo).Create(context.Background(), validation.FolderCreate{
				Path: tt.path, Name: "Garden", CreatedBy: ownerID,
			})
			if got := apiCode(err); got != tt.want {
				t.Errorf("error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestService_Rename_Forbidden(t *testing.T) {
	repo := &repotest.FolderRepo{
		FindByIDFn: func(_ context.Context, id string) (*model.Folder, error) {
			return &model.Folder{ID: id, CreatedBy: otherID}, nil
		},
		RenameFn: func(context.Context, string, string) (*model.Folder, error) {
			t.Error("Rename must not be called")
			return nil, nil
		},
	}
	_, err := NewService(repo).Rename(context.Background(), folderID, ownerID, "New")
	if apiCode(err) != model.ErrCodeForbidden {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
}

func TestService_AddSubfolder(t *testing.T) {
	var gotChild, gotParent string
	repo := &repotest.FolderRepo{
		FindByIDFn: func(_ context.Context, id string) (*model.Folder, error) {
			return &model.Folder{ID: id, CreatedBy: ownerID}, nil
		},
		SetParentFn: func(_ context.Context, id, parentID string) (bool, error) {
			gotChild, gotParent = id, parentID
			return true, nil
		},
	}
	svc := NewService(repo)
	if err := svc.AddSubfolder(context.Background(), folderID, childID, ownerID); err != nil {
		t.Fatalf("AddSubfolder() error = %v", err)
	}
	if gotChild != childID || gotParent != folderID {
		t.Errorf("SetParent(%s, %s)", gotChild, gotParent)
	}
	if err := svc.AddSubfolder(context.Background(), folderID, folderID, ownerID); apiCode(err) != model.ErrCodeValidation {
		t.Errorf("self parent error = %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		folder  *model.Folder
		want    bool
		deletes bool
	}{
		{"存在しない", nil, false, false},
		{"区画ルート", &model.Folder{ID: folderID, Path: "/plots/", CreatedBy: ownerID}, false, false},
		{"区画配下", &model.Folder{ID: folderID, Path: "/plots/p1/", CreatedBy: ownerID}, false, false},
		{"他人のフォルダ", &model.Folder{ID: folderID, Path: "/garden/", CreatedBy: otherID}, false, false},
		{"通常フォルダ", &model.Folder{ID: folderID, Path: "/garden/", CreatedBy: ownerID}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			repo := &repotest.FolderRepo{
				FindByIDFn: func(context.Context, string) (*model.Folder, error) { return tt.folder, nil },
				DeleteRecursiveFn: func(context.Context, string) (int64, error) {
					deleted = true
					return 3, nil
				},
			}
			got, err := NewService(repo).Delete(context.Background(), folderID, ownerID)
			if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if got != tt.want || deleted != tt.deletes {
				t.Errorf("Delete() = %v (deleted=%v), want %v (deleted=%v)", got, deleted, tt.want, tt.deletes)
			}
		})
	}
}
