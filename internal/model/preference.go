package model

import "time"

// SegmentCode は郵便番号から導出される人口統計セグメント（Mosaicタイプ）。
type SegmentCode string

const (
	SegmentBoomerangBoarders SegmentCode = "22"
	SegmentFamilyTies        SegmentCode = "23"
	SegmentFledglingFree     SegmentCode = "24"
	SegmentDependableMe      SegmentCode = "25"
)

// Valid は推薦対象のセグメントコードかどうかを返す。
func (c SegmentCode) Valid() bool {
	switch c {
	case SegmentBoomerangBoarders, SegmentFamilyTies, SegmentFledglingFree, SegmentDependableMe:
		return true
	}
	return false
}

// PostcodeSegment は郵便番号の解決結果。
type PostcodeSegment struct {
	Postcode  string      `json:"postcode"`
	Type      SegmentCode `json:"type"`
	Eastings  float64     `json:"eastings"`
	Northings float64     `json:"northings"`
}

// Location は出品位置 [lng, lat] を返す。
func (s *PostcodeSegment) Location() [2]float64 {
	return [2]float64{s.Eastings / 10000, s.Northings / 10000}
}

// ListingWeights は出品種別ごとの重み。保存時は正規化しない。
type ListingWeights struct {
	Item    float64 `json:"item" yaml:"item"`
	Service float64 `json:"service" yaml:"service"`
	Share   float64 `json:"share" yaml:"share"`
}

// PlotWeights は区画のグループ種別ごとの重み。
type PlotWeights struct {
	Shared  float64 `json:"shared" yaml:"shared"`
	Private float64 `json:"private" yaml:"private"`
}

// PreferenceMatrix はセグメントごとの推薦重み。
// 管理者が帯域外で投入し、推薦経路からは読み取り専用。
type PreferenceMatrix struct {
	GroupType  SegmentCode    `json:"group_type"`
	Listing    ListingWeights `json:"listing"`
	Plot       PlotWeights    `json:"plot"`
	RecordedAt *time.Time     `json:"recorded_at,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Expired はnow時点で有効期限切れかどうかを返す。
func (m *PreferenceMatrix) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}
