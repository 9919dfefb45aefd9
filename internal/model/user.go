package model

import (
	"math"
	"time"
)

// UserRole はユーザーの役割を表す。
type UserRole string

const (
	RoleAdmin           UserRole = "admin"
	RolePlotOwner       UserRole = "plotOwner"
	RoleCommunityMember UserRole = "communityMember"
)

// DefaultPoints は新規ユーザーの初期ポイント。
const DefaultPoints = 100

// MaxPoints はポイント残高の上限（INTEGER列の最大値）。
const MaxPoints = math.MaxInt32

// Profile はユーザーの公開プロフィール。
type Profile struct {
	Bio       string   `json:"bio"`
	Avatar    string   `json:"avatar"`
	Skills    []string `json:"skills"`
	Interests []string `json:"interests"`
}

// Address はユーザーの住所。PostCodeは出品位置と推薦に使われる。
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Region   string `json:"region"`
	PostCode string `json:"post_code"`
}

// HasAddress は郵便番号が登録済みかどうかを返す。
func (a Address) HasAddress() bool {
	return a.PostCode != ""
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Role              UserRole  `json:"role"`
	Verified          bool      `json:"verified"`
	Points            int       `json:"points"`
	Profile           Profile   `json:"profile"`
	Address           Address   `json:"address"`
	FavouritePlots    []string  `json:"favourite_plots"`
	FirstGardenJoined bool      `json:"first_garden_joined"`
	FirstGardenLent   bool      `json:"first_garden_lent"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PointsActionType はポイント更新アクションの種別。
type PointsActionType string

const (
	PointsActionSet    PointsActionType = "set"
	PointsActionOffset PointsActionType = "offset"
)

// PointsAction は管理者によるポイント残高の更新指示。
type PointsAction struct {
	Type  PointsActionType `json:"type"`
	Value int              `json:"value"`
}

// ProfileUpdate はプロフィール補完時の部分更新内容。nilは変更なし。
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Profile   *Profile
	Address   *Address
}
