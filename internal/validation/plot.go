package validation

import (
	"github.com/newleaf/newleaf/internal/model"
)

var (
	plotConditions     = []string{"Full Sun", "Partial Sun", "No sun"}
	plotSoilPh         = []string{"Neutral: 6.5 - 7.5", "Acidic: < 6.5", "Alkaline: > 7.5"}
	plotSoilTypes      = []string{"Sand", "Clay", "Silt", "Peat", "Chalk", "Loam"}
	plotGardenSettings = []string{"Back garden", "Front garden", "Other"}
	plotTaskTypes      = []string{"Watering", "Weeding", "Harvesting", "Planting", "Pruning", "Mowing", "Other"}
	plotFrequencies    = []string{"Daily", "Weekly", "Monthly"}
	plotDurations      = []string{"15-30 minutes", "30-60 minutes", "1-2 hours", "2-4 hours", "4+ hours"}
)

// PlotSorts は区画一覧で指定可能な並び順。
var PlotSorts = []string{"name:asc", "name:desc", "size:asc", "size:desc", "createdAt:asc", "createdAt:desc"}

// PlotCreate は区画作成の入力スキーマ。
type PlotCreate struct {
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Size          float64              `json:"size"`
	Location      string               `json:"location,omitempty"`
	Condition     string               `json:"condition,omitempty"`
	SoilPh        string               `json:"soil_ph,omitempty"`
	SoilType      string               `json:"soil_type,omitempty"`
	GardenSetting string               `json:"garden_setting,omitempty"`
	GroupType     string               `json:"group_type,omitempty"`
	RequiredTasks []model.RequiredTask `json:"required_tasks,omitempty"`
	Plants        []string             `json:"plants,omitempty"`
	Images        []string             `json:"images,omitempty"`
	OwnerID       string               `json:"-"`
}

// Normalize はデフォルト値を適用する。
func (in *PlotCreate) Normalize() {
	if in.GroupType == "" {
		in.GroupType = string(model.PlotCommunal)
	}
	if len(in.Images) == 0 {
		in.Images = []string{model.DefaultPlotImage}
	}
}

// Validate は区画作成の入力を検証する。
func (in *PlotCreate) Validate() error {
	err := First(
		ID("owner_id", in.OwnerID),
		Required("name", in.Name),
		Length("name", in.Name, 1, 100),
		MaxLength("description", in.Description, 1000),
		NonNegative("size", in.Size),
		OptionalOneOf("condition", in.Condition, plotConditions...),
		OptionalOneOf("soil_ph", in.SoilPh, plotSoilPh...),
		OptionalOneOf("soil_type", in.SoilType, plotSoilTypes...),
		OptionalOneOf("garden_setting", in.GardenSetting, plotGardenSettings...),
		OneOf("group_type", model.PlotGroupType(in.GroupType), model.PlotCommunal, model.PlotPrivate),
	)
	if err != nil {
		return err
	}
	return requiredTasks(in.RequiredTasks)
}

func requiredTasks(tasks []model.RequiredTask) error {
	for _, t := range tasks {
		if err := First(
			OneOf("required_tasks.t_type", t.Type, plotTaskTypes...),
			OneOf("required_tasks.frequency", t.Frequency, plotFrequencies...),
			OneOf("required_tasks.duration", t.Duration, plotDurations...),
		); err != nil {
			return err
		}
	}
	return nil
}

// PlotUpdate は区画の部分更新スキーマ。
type PlotUpdate struct {
	Name          *string               `json:"name,omitempty"`
	Description   *string               `json:"description,omitempty"`
	Size          *float64              `json:"size,omitempty"`
	Location      *string               `json:"location,omitempty"`
	Status        *string               `json:"status,omitempty"`
	Condition     *string               `json:"condition,omitempty"`
	SoilPh        *string               `json:"soil_ph,omitempty"`
	SoilType      *string               `json:"soil_type,omitempty"`
	GardenSetting *string               `json:"garden_setting,omitempty"`
	RequiredTasks *[]model.RequiredTask `json:"required_tasks,omitempty"`
	Plants        *[]string             `json:"plants,omitempty"`
	Images        *[]string             `json:"images,omitempty"`
}

// Validate は区画の部分更新を検証する。
func (in *PlotUpdate) Validate() error {
	if in.Name != nil {
		if err := Length("name", *in.Name, 1, 100); err != nil {
			return err
		}
	}
	if in.Size != nil {
		if err := NonNegative("size", *in.Size); err != nil {
			return err
		}
	}
	if in.Status != nil {
		if err := OneOf("status", model.PlotStatus(*in.Status), model.PlotAvailable, model.PlotFull, model.PlotMaintenance); err != nil {
			return err
		}
	}
	if in.Condition != nil {
		if err := OneOf("condition", *in.Condition, plotConditions...); err != nil {
			return err
		}
	}
	if in.SoilPh != nil {
		if err := OneOf("soil_ph", *in.SoilPh, plotSoilPh...); err != nil {
			return err
		}
	}
	if in.SoilType != nil {
		if err := OneOf("soil_type", *in.SoilType, plotSoilTypes...); err != nil {
			return err
		}
	}
	if in.GardenSetting != nil {
		if err := OneOf("garden_setting", *in.GardenSetting, plotGardenSettings...); err != nil {
			return err
		}
	}
	if in.RequiredTasks != nil {
		return requiredTasks(*in.RequiredTasks)
	}
	return nil
}

// Apply は部分更新を区画に適用する。
func (in *PlotUpdate) Apply(p *model.Plot) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Size != nil {
		p.Size = *in.Size
	}
	if in.Location != nil {
		p.Location = *in.Location
	}
	if in.Status != nil {
		p.Status = model.PlotStatus(*in.Status)
	}
	if in.Condition != nil {
		p.Condition = *in.Condition
	}
	if in.SoilPh != nil {
		p.SoilPh = *in.SoilPh
	}
	if in.SoilType != nil {
		p.SoilType = *in.SoilType
	}
	if in.GardenSetting != nil {
		p.GardenSetting = *in.GardenSetting
	}
	if in.RequiredTasks != nil {
		p.RequiredTasks = *in.RequiredTasks
	}
	if in.Plants != nil {
		p.Plants = *in.Plants
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
}

// PlotFilter は区画一覧の条件を検証する。
func PlotFilter(f model.PlotFilter) error {
	return First(
		OptionalOneOf("status", f.Status, model.PlotAvailable, model.PlotFull, model.PlotMaintenance),
		OptionalOneOf("group_type", f.GroupType, model.PlotCommunal, model.PlotPrivate),
		OptionalOneOf("soil_type", f.SoilType, plotSoilTypes...),
		OptionalOneOf("condition", f.Condition, plotConditions...),
		OptionalID("owner_id", f.OwnerID),
		OptionalOneOf("sort", f.Sort, PlotSorts...),
	)
}
