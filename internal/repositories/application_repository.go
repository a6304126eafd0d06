package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"volunteer_backend/internal/models"
)

//go:generate mockgen -source=application_repository.go -destination=mocks/mock_application_repository.go -package=mocks

type ApplicationRepository interface {
	Create(db *gorm.DB, app *models.Application) error
	Exists(db *gorm.DB, volunteerID, opportunityID string) (bool, error)
	// FindByID загружает заявку вместе с волонтером и возможностью (и ее НКО)
	FindByID(db *gorm.DB, id string) (*models.Application, error)
	// UpdateStatus - запись с проверкой версии; ErrVersionConflict, если версия устарела
	UpdateStatus(db *gorm.DB, id string, expectedVersion int, status models.ApplicationStatus) error
	ListByVolunteer(db *gorm.DB, volunteerID string) ([]models.Application, error)
	ListByOpportunity(db *gorm.DB, opportunityID string) ([]models.Application, error)
	// FindAcceptedOfEndedOpportunities - кандидаты для автоматического завершения
	FindAcceptedOfEndedOpportunities(db *gorm.DB, now time.Time, limit int) ([]models.Application, error)
}

type ApplicationRepositoryImpl struct{}

func NewApplicationRepository() ApplicationRepository {
	return &ApplicationRepositoryImpl{}
}

func (r *ApplicationRepositoryImpl) Create(db *gorm.DB, app *models.Application) error {
	if app.Version == 0 {
		app.Version = 1
	}
	if err := db.Omit("Volunteer", "Opportunity").Create(app).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrApplicationExists
		}
		return err
	}
	return nil
}

func (r *ApplicationRepositoryImpl) Exists(db *gorm.DB, volunteerID, opportunityID string) (bool, error) {
	var count int64
	err := db.Model(&models.Application{}).
		Where("volunteer_id = ? AND opportunity_id = ?", volunteerID, opportunityID).
		Count(&count).Error
	return count > 0, err
}

func (r *ApplicationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Application, error) {
	var app models.Application
	err := db.Preload("Volunteer").Preload("Opportunity.NGO").First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepositoryImpl) UpdateStatus(db *gorm.DB, id string, expectedVersion int, status models.ApplicationStatus) error {
	result := db.Model(&models.Application{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *ApplicationRepositoryImpl) ListByVolunteer(db *gorm.DB, volunteerID string) ([]models.Application, error) {
	var apps []models.Application
	err := db.Preload("Opportunity.NGO").
		Where("volunteer_id = ?", volunteerID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepositoryImpl) ListByOpportunity(db *gorm.DB, opportunityID string) ([]models.Application, error) {
	var apps []models.Application
	err := db.Preload("Volunteer").
		Where("opportunity_id = ?", opportunityID).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepositoryImpl) FindAcceptedOfEndedOpportunities(db *gorm.DB, now time.Time, limit int) ([]models.Application, error) {
	var apps []models.Application
	err := db.Model(&models.Application{}).
		Select("applications.*").
		Joins("JOIN opportunities ON opportunities.id = applications.opportunity_id").
		Where("applications.status = ?", models.ApplicationStatusAccepted).
		Where("opportunities.end_date IS NOT NULL AND opportunities.end_date < ?", now).
		Order("opportunities.end_date ASC").
		Limit(limit).
		Find(&apps).Error
	return apps, err
}
