package model

import "time"

// PlotStatus は区画の募集状態。
type PlotStatus string

const (
	PlotAvailable   PlotStatus = "available"
	PlotFull        PlotStatus = "full"
	PlotMaintenance PlotStatus = "maintenance"
)

// PlotGroupType は区画の共有形態。
type PlotGroupType string

const (
	PlotCommunal PlotGroupType = "Communal"
	PlotPrivate  PlotGroupType = "Private"
)

// MemberLimit は共有形態ごとの参加上限を返す。
func (g PlotGroupType) MemberLimit() int {
	if g == PlotPrivate {
		return 1
	}
	return 30
}

// DefaultPlotImage は画像未登録の区画に使う画像。
const DefaultPlotImage = "/images/plot-default.jpg"

// RequiredTask は区画の維持に必要な作業。
type RequiredTask struct {
	Type      string `json:"t_type"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Plot は貸し出される庭の区画。
type Plot struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Size          float64        `json:"size"`
	Location      string         `json:"location,omitempty"`
	OwnerID       string         `json:"owner_id"`
	Status        PlotStatus     `json:"status"`
	Condition     string         `json:"condition,omitempty"`
	SoilPh        string         `json:"soil_ph,omitempty"`
	SoilType      string         `json:"soil_type,omitempty"`
	GardenSetting string         `json:"garden_setting,omitempty"`
	GroupType     PlotGroupType  `json:"group_type"`
	MemberLimit   int            `json:"member_limit"`
	RequiredTasks []RequiredTask `json:"required_tasks"`
	Plants        []string       `json:"plants"`
	Members       []string       `json:"members"`
	Requests      []string       `json:"requests"`
	Images        []string       `json:"images"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HasMember は指定ユーザーが参加済みかどうかを返す。
func (p *Plot) HasMember(userID string) bool {
	return contains(p.Members, userID)
}

// HasRequest は指定ユーザーが参加申請中かどうかを返す。
func (p *Plot) HasRequest(userID string) bool {
	return contains(p.Requests, userID)
}

// PlotFilter は区画一覧の条件。
type PlotFilter struct {
	Status    PlotStatus
	GroupType PlotGroupType
	SoilType  string
	Condition string
	OwnerID   string
	Sort      string // name:asc, size:desc, createdAt:desc 等
}

// PlotRanking は区画推薦時の共有形態ごとの重み。
type PlotRanking struct {
	Weights map[PlotGroupType]float64
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
