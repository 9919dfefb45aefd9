package validation

import (
	"regexp"
	"strings"

	"github.com/newleaf/newleaf/internal/model"
)

// plotsSubPathPattern は /plots/<区画>/ 配下のパスにマッチする。
var plotsSubPathPattern = regexp.MustCompile(`^/plots/[^/]+/`)

// IsPlotsPath は区画用に予約されたパスかどうかを返す。
func IsPlotsPath(path string) bool {
	return path == model.PlotsRootPath || plotsSubPathPattern.MatchString(path)
}

// FolderPath はフォルダパスが "/" で始まり "/" で終わることを検証する。
func FolderPath(field, path string) error {
	if !strings.HasPrefix(path, "/") || !strings.HasSuffix(path, "/") {
		return model.NewValidationError(field, "パスは / で始まり / で終わる必要があります。")
	}
	return nil
}

// FolderCreate はフォルダ作成の入力スキーマ。
type FolderCreate struct {
	Path           string  `json:"path"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
	PlotID         *string `json:"plot_id,omitempty"`
	CreatedBy      string  `json:"-"`
}

// Validate はフォルダ作成の入力を検証する。
func (in *FolderCreate) Validate() error {
	err := First(
		ID("created_by", in.CreatedBy),
		Required("name", in.Name),
		Length("name", in.Name, 1, 100),
		FolderPath("path", in.Path),
		MaxLength("description", in.Description, 500),
	)
	if err != nil {
		return err
	}
	if in.ParentFolderID != nil {
		if err := ID("parent_folder_id", *in.ParentFolderID); err != nil {
			return err
		}
	}
	if in.PlotID != nil {
		if err := ID("plot_id", *in.PlotID); err != nil {
			return err
		}
	}
	return nil
}
