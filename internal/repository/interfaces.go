// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

// 永続化層で検出される状態競合。サービス層でAPIErrorに変換する。
var (
	// ErrNegativeBalance はポイント更新の結果が負になる場合に返される。
	ErrNegativeBalance = errors.New("ポイント残高が負になるため更新できません")
	// ErrPointsOverflow はポイント更新の結果が上限を超える場合に返される。
	ErrPointsOverflow = errors.New("ポイント残高が上限を超えるため更新できません")
	// ErrListingClosed は購入時に出品が既にクローズされていた場合に返される。
	ErrListingClosed = errors.New("出品は既に終了しています")
	// ErrInsufficientPoints は購入者のポイントが価格に満たない場合に返される。
	ErrInsufficientPoints = errors.New("ポイントが不足しています")
	// ErrDuplicate は一意制約違反の場合に返される。
	ErrDuplicate = errors.New("同じ値のレコードが既に存在します")
)

// GardenMilestone は初回達成で報酬が付与される区画関連の実績。
type GardenMilestone string

const (
	MilestoneFirstGardenJoined GardenMilestone = "first_garden_joined"
	MilestoneFirstGardenLent   GardenMilestone = "first_garden_lent"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// List はユーザー一覧と総件数を返す。roleが空の場合は全件。
	List(ctx context.Context, role model.UserRole, page model.PaginationQuery) ([]*model.User, int, error)

	// Search は氏名またはメールアドレスの部分一致でユーザーを検索する。
	Search(ctx context.Context, term string, limit int) ([]*model.User, error)

	// UpdateProfile はプロフィールを部分更新する。
	// 氏名と郵便番号が揃った時点でverifiedをtrueにする。見つからない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)

	// UpdatePoints はポイント残高を原子的に更新する。
	// 結果が負になる場合はErrNegativeBalanceを返し、残高は変更しない。見つからない場合はnilを返す。
	UpdatePoints(ctx context.Context, id string, action model.PointsAction) (*model.User, error)

	// GrantMilestone は未達成の実績を達成済みにし、pointsを加算する。
	// 既に達成済みの場合はfalseを返し何も変更しない。
	GrantMilestone(ctx context.Context, id string, milestone GardenMilestone, points int) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ListingRepository は出品データの永続化インターフェース。
type ListingRepository interface {
	// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Listing, error)

	// Create は出品を作成する。
	Create(ctx context.Context, listing *model.Listing) error

	// Update は出品を上書き更新する。作成者は変更しない。
	Update(ctx context.Context, listing *model.Listing) error

	// Delete は出品を削除する。削除された場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// List は検索プランに従って出品一覧と総件数を返す。
	List(ctx context.Context, q model.ListingQuery, page model.PaginationQuery) ([]*model.Listing, int, error)

	// ListRanked は新しさの区間と種別の重みで並べた出品一覧と総件数を返す。
	// 対象集合はListと同一で、並び順のみが異なる。
	ListRanked(ctx context.Context, q model.ListingQuery, ranking model.ListingRanking, page model.PaginationQuery) ([]*model.Listing, int, error)

	// Purchase は1トランザクションで出品のクローズ、購入者の減算、出品者の加算、通知の作成を行う。
	// 出品がopenでない場合はErrListingClosed、残高不足の場合はErrInsufficientPointsを返す。
	Purchase(ctx context.Context, id, buyerID string, cost int, notifications ...*model.Notification) (*model.Listing, error)
}

// PreferenceRepository はセグメントごとの推薦重みの永続化インターフェース。
type PreferenceRepository interface {
	// FindByGroupType はセグメントの重みを取得する。見つからない場合はnilを返す。
	FindByGroupType(ctx context.Context, groupType model.SegmentCode) (*model.PreferenceMatrix, error)

	// Upsert は重みを作成または上書きする。
	Upsert(ctx context.Context, matrix *model.PreferenceMatrix) error

	// ListExpired はnow時点で有効期限切れの重みを返す。
	ListExpired(ctx context.Context, now time.Time) ([]*model.PreferenceMatrix, error)
}

// NotificationRepository は通知の永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成する。
	Create(ctx context.Context, n *model.Notification) error

	// List はユーザーの通知一覧と総件数を新しい順に返す。statusが空の場合は全件。
	List(ctx context.Context, userID string, status model.NotificationStatus, page model.PaginationQuery) ([]*model.Notification, int, error)

	// CountUnread は未読通知の件数を返す。
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkAsRead は本人の通知を既読にする。見つからない場合はnilを返す。
	MarkAsRead(ctx context.Context, id, userID string) (*model.Notification, error)

	// MarkAllAsRead は本人の未読通知をすべて既読にし、更新件数を返す。
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)

	// Delete は本人の通知を削除する。削除された場合はtrueを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)

	// DeleteExpired は期限切れの通知と、保持期間を過ぎた既読通知を削除する。
	DeleteExpired(ctx context.Context, now time.Time, readRetention time.Duration) (int64, error)
}

// FolderRepository はフォルダの永続化インターフェース。
type FolderRepository interface {
	// FindByID は指定IDのフォルダを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Folder, error)

	// FindByPath は所有者とパスでフォルダを取得する。見つからない場合はnilを返す。
	FindByPath(ctx context.Context, path, owner string) (*model.Folder, error)

	// Exists は同じ名前・パス・所有者のフォルダが存在するかを返す。
	Exists(ctx context.Context, name, path, owner string) (bool, error)

	// ListChildren は親フォルダ直下のフォルダのうち、所有者のもの、
	// またはplotIDsの区画に紐付くものを返す。parentIDがnilの場合は最上位。
	ListChildren(ctx context.Context, parentID *string, owner string, plotIDs []string, offset, limit int) ([]*model.Folder, error)

	// CountChildren は親フォルダ直下の所有者のフォルダ数を返す。
	CountChildren(ctx context.Context, parentID *string, owner string) (int, error)

	// Create はフォルダを作成する。重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, folder *model.Folder) error

	// Rename はフォルダ名を変更する。見つからない場合はnilを返す。
	Rename(ctx context.Context, id, name string) (*model.Folder, error)

	// SetParent はフォルダの親を設定する。対象が見つからない場合はfalseを返す。
	SetParent(ctx context.Context, id, parentID string) (bool, error)

	// DeleteRecursive はフォルダと配下のすべてのフォルダを削除し、削除件数を返す。
	DeleteRecursive(ctx context.Context, id string) (int64, error)
}

// TaskBoardRepository はタスクボードの永続化インターフェース。
type TaskBoardRepository interface {
	// FindByID は指定IDのタスクボードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.TaskBoard, error)

	// FindByPath はパス・タイトル・所有者でタスクボードを取得する。見つからない場合はnilを返す。
	FindByPath(ctx context.Context, path, title, owner string) (*model.TaskBoard, error)

	// ListRecent は所有者のタスクボードを更新日時の新しい順にlimit件返す。
	ListRecent(ctx context.Context, owner string, limit int) ([]*model.TaskBoard, error)

	// ListByOwner は所有者のタスクボード一覧と総件数を返す。pathが空の場合は全パス。
	ListByOwner(ctx context.Context, owner, path string, page model.PaginationQuery) ([]*model.TaskBoard, int, error)

	// ListAtPath は指定パスにある、所有者のもの、またはplotIDsの区画に紐付くタスクボードを返す。
	ListAtPath(ctx context.Context, path, owner string, plotIDs []string, offset, limit int) ([]*model.TaskBoard, error)

	// Create はタスクボードを作成する。
	Create(ctx context.Context, board *model.TaskBoard) error

	// Update はタスクボードを上書き更新する。
	Update(ctx context.Context, board *model.TaskBoard) error

	// SetListed はマーケット出品中フラグを設定する。
	SetListed(ctx context.Context, id string, listed bool) error

	// Delete はタスクボードを削除する。配下のタスクはCASCADE削除される。
	Delete(ctx context.Context, id string) (bool, error)
}

// TaskRepository はタスクの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクを上書き更新する。
	Update(ctx context.Context, task *model.Task) error

	// Delete はタスクを削除する。
	Delete(ctx context.Context, id string) (bool, error)

	// List は条件に一致するタスク一覧と総件数を返す。
	List(ctx context.Context, filter model.TaskFilter, page model.PaginationQuery) ([]*model.Task, int, error)

	// Count は条件に一致するタスク数を返す。
	Count(ctx context.Context, filter model.TaskFilter) (int, error)
}

// PlotRepository は区画の永続化インターフェース。
type PlotRepository interface {
	// FindByID は指定IDの区画を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Plot, error)

	// Create は区画を作成する。
	Create(ctx context.Context, plot *model.Plot) error

	// Update は区画を上書き更新する。メンバーと申請は変更しない。
	Update(ctx context.Context, plot *model.Plot) error

	// Delete は区画を削除する。
	Delete(ctx context.Context, id string) (bool, error)

	// List は条件に一致する区画一覧と総件数を返す。
	List(ctx context.Context, filter model.PlotFilter, page model.PaginationQuery) ([]*model.Plot, int, error)

	// ListRanked は共有形態の重みで並べた区画一覧と総件数を返す。
	ListRanked(ctx context.Context, filter model.PlotFilter, ranking model.PlotRanking, page model.PaginationQuery) ([]*model.Plot, int, error)

	// ListByUser はユーザーが所有または参加している区画を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Plot, error)

	// CountByOwner は所有する区画数を返す。
	CountByOwner(ctx context.Context, ownerID string) (int, error)

	// AddRequest は参加申請を追加する。既に申請中または参加済みの場合はfalseを返す。
	AddRequest(ctx context.Context, id, userID string) (bool, error)

	// RemoveRequest は参加申請を取り消す。申請がなかった場合はfalseを返す。
	RemoveRequest(ctx context.Context, id, userID string) (bool, error)

	// AcceptMember は申請者をメンバーに移し、上限に達した場合はfullにする。
	// 区画がavailableでない、または申請がない場合はnilを返す。
	AcceptMember(ctx context.Context, id, userID string) (*model.Plot, error)

	// RemoveMember はメンバーを外し、fullの場合はavailableに戻す。
	// メンバーでない場合はnilを返す。
	RemoveMember(ctx context.Context, id, userID string) (*model.Plot, error)
}

// ToolRepository は道具の永続化インターフェース。
type ToolRepository interface {
	// FindByID は指定IDの道具を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tool, error)

	// Create は道具を作成する。
	Create(ctx context.Context, tool *model.Tool) error

	// Update は道具を上書き更新する。貸出状態と履歴は変更しない。
	Update(ctx context.Context, tool *model.Tool) error

	// Delete は道具を削除する。
	Delete(ctx context.Context, id string) (bool, error)

	// List は条件に一致する道具一覧と総件数を返す。
	List(ctx context.Context, filter model.ToolFilter, page model.PaginationQuery) ([]*model.Tool, int, error)

	// Borrow はavailableの道具を貸出中にする。貸出できない場合はnilを返す。
	Borrow(ctx context.Context, id string, borrower model.Borrower) (*model.Tool, error)

	// Return は貸出中の道具を返却済みにし、履歴に追記する。貸出中でない場合はnilを返す。
	Return(ctx context.Context, id string, record model.BorrowRecord) (*model.Tool, error)
}

// BookingRepository は予約の永続化インターフェース。
type BookingRepository interface {
	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// Create は予約を作成する。
	Create(ctx context.Context, booking *model.Booking) error

	// Update は予約を上書き更新する。
	Update(ctx context.Context, booking *model.Booking) error

	// Delete は予約を削除する。
	Delete(ctx context.Context, id string) (bool, error)

	// ListByUser はユーザーの予約一覧と総件数を開始日時の新しい順に返す。
	ListByUser(ctx context.Context, userID string, page model.PaginationQuery) ([]*model.Booking, int, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
