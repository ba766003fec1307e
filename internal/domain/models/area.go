package models

// Area 城区
type Area struct {
	BaseModel
	Name string `gorm:"type:varchar(32);not null" json:"name"`
}

func (Area) TableName() string {
	return "ih_area_info"
}

func (a *Area) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"aid":   a.ID,
		"aname": a.Name,
	}
}

// Facility 房屋设施
type Facility struct {
	BaseModel
	Name string `gorm:"type:varchar(32);not null" json:"name"`
}

func (Facility) TableName() string {
	return "ih_facility_info"
}
