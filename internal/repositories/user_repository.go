package repositories

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"volunteer_backend/internal/algorithms"
	"volunteer_backend/internal/models"
)

//go:generate mockgen -source=user_repository.go -destination=mocks/mock_user_repository.go -package=mocks

type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, userID string, fields map[string]interface{}) error
	// SetRole задает роль только если она еще не задана
	SetRole(db *gorm.DB, userID string, role models.UserRole) error
	// FindVolunteersForMatching - грубый SQL-отбор кандидатов для opportunity.created
	FindVolunteersForMatching(db *gorm.DB, categories []string, box *algorithms.BoundingBox) ([]models.User, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) Update(db *gorm.DB, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ErrUserAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SetRole(db *gorm.DB, userID string, role models.UserRole) error {
	result := db.Model(&models.User{}).
		Where("id = ? AND role IS NULL", userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// 0 строк: пользователя нет или роль уже задана
	if _, err := r.FindByID(db, userID); err != nil {
		return err
	}
	return ErrRoleAlreadySet
}

func (r *UserRepositoryImpl) FindVolunteersForMatching(db *gorm.DB, categories []string, box *algorithms.BoundingBox) ([]models.User, error) {
	q := db.Model(&models.User{}).Where("role = ?", models.UserRoleVolunteer)

	// волонтер без категорий подходит под любые
	if len(categories) > 0 {
		q = q.Where("(categories && ? OR categories IS NULL OR cardinality(categories) = 0)", pq.StringArray(categories))
	}

	// без координат у волонтера гео-критерий пропускается
	if box != nil {
		geo := db.Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
		if box.LonOK {
			geo = geo.Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)
		}
		q = q.Where(db.Where("latitude IS NULL OR longitude IS NULL").Or(geo))
	}

	var users []models.User
	if err := q.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
