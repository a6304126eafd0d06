package models

// Application - заявка волонтера. Физически не удаляется (кроме каскада при удалении возможности).
type Application struct {
	BaseModel
	VolunteerID   string            `gorm:"type:uuid;not null;uniqueIndex:idx_applications_volunteer_opportunity" json:"volunteer_id"`
	OpportunityID string            `gorm:"type:uuid;not null;index;uniqueIndex:idx_applications_volunteer_opportunity" json:"opportunity_id"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Message       *string           `gorm:"type:text" json:"message,omitempty"`

	// Version - оптимистическая блокировка, каждый UPDATE статуса сверяет и увеличивает
	Version int `gorm:"not null;default:1" json:"version"`

	Volunteer   *User        `gorm:"foreignKey:VolunteerID" json:"volunteer,omitempty"`
	Opportunity *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
}
