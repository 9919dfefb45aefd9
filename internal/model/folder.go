package model

import "time"

// PlotsRootPath は区画用に予約されたフォルダパス。
const PlotsRootPath = "/plots/"

// Folder はタスクボードを整理するフォルダ。
// Pathはフォルダ自身のパスで、子フォルダはParentFolderIDで辿る。
type Folder struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	Name           string    `json:"name"`
	CreatedBy      string    `json:"created_by"`
	Description    string    `json:"description,omitempty"`
	ParentFolderID *string   `json:"parent_folder_id,omitempty"`
	PlotID         *string   `json:"plot_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FolderPage はフォルダ一覧の1ページ。
type FolderPage struct {
	Folders     []*Folder `json:"folders"`
	HasNextPage bool      `json:"has_next_page"`
}

// FolderContents はパス配下のフォルダとタスクボードを合わせた1ページ。
type FolderContents struct {
	Folders     []*Folder    `json:"folders"`
	Taskboards  []*TaskBoard `json:"taskboards"`
	HasNextPage bool         `json:"has_next_page"`
}
