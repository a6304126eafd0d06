package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Opportunity struct {
	BaseModel
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	PlaceName   string     `json:"place_name,omitempty"`
	StartDate   time.Time  `gorm:"not null;index" json:"start_date"`
	EndDate     *time.Time `gorm:"index" json:"end_date"`

	NGOID string `gorm:"column:ngo_id;type:uuid;not null;index" json:"ngo_id"`
	NGO   *User  `gorm:"foreignKey:NGOID" json:"ngo,omitempty"`

	Images     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Categories pq.StringArray              `gorm:"type:text[]" json:"categories"`

	Applications []Application `gorm:"foreignKey:OpportunityID;constraint:OnDelete:CASCADE" json:"-"`
}

func (o *Opportunity) HasLocation() bool {
	return o.Latitude != nil && o.Longitude != nil
}

// NGOName безопасен при не загруженной связи
func (o *Opportunity) NGOName() string {
	if o.NGO == nil {
		return ""
	}
	return o.NGO.Name
}
