package repositories

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"volunteer_backend/internal/algorithms"
	"volunteer_backend/internal/models"
)

//go:generate mockgen -source=opportunity_repository.go -destination=mocks/mock_opportunity_repository.go -package=mocks

type OpportunityRepository interface {
	Create(db *gorm.DB, opp *models.Opportunity) error
	FindByID(db *gorm.DB, id string) (*models.Opportunity, error)
	Update(db *gorm.DB, opp *models.Opportunity, fields map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
	FindRecent(db *gorm.DB, limit int) ([]models.Opportunity, error)
	Search(db *gorm.DB, plan algorithms.SearchPlan) (*algorithms.SearchResult, error)
	// FindApplicants - волонтеры, подавшие заявку (в любом статусе)
	FindApplicants(db *gorm.DB, opportunityID string) ([]models.User, error)
}

type OpportunityRepositoryImpl struct{}

func NewOpportunityRepository() OpportunityRepository {
	return &OpportunityRepositoryImpl{}
}

func (r *OpportunityRepositoryImpl) Create(db *gorm.DB, opp *models.Opportunity) error {
	return db.Omit("NGO", "Applications").Create(opp).Error
}

func (r *OpportunityRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := db.Preload("NGO").First(&opp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, err
	}
	return &opp, nil
}

func (r *OpportunityRepositoryImpl) Update(db *gorm.DB, opp *models.Opportunity, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.Model(opp).Omit("NGO", "Applications").Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOpportunityNotFound
	}
	return nil
}

// Delete удаляет возможность вместе с заявками в одной транзакции.
// FK ON DELETE CASCADE дублирует это на уровне схемы.
func (r *OpportunityRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Opportunity{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOpportunityNotFound
		}
		return nil
	})
}

func (r *OpportunityRepositoryImpl) FindRecent(db *gorm.DB, limit int) ([]models.Opportunity, error) {
	var opps []models.Opportunity
	err := db.Preload("NGO").
		Order("created_at DESC").Order("id ASC").
		Limit(limit).
		Find(&opps).Error
	return opps, err
}

// ============================================================================
// Search
// ============================================================================

// Search: без гео-фильтра сортировка и пагинация выполняются в SQL;
// с гео-фильтром SQL отбирает кандидатов по bounding box, а точное
// расстояние, сортировка и пагинация считаются в SearchPlan.Apply.
func (r *OpportunityRepositoryImpl) Search(db *gorm.DB, plan algorithms.SearchPlan) (*algorithms.SearchResult, error) {
	if plan.HasLocation() {
		return r.searchNearby(db, plan)
	}

	var total int64
	if err := r.filtered(db, plan).Count(&total).Error; err != nil {
		return nil, err
	}

	q := r.filtered(db, plan).Select("opportunities.*").Preload("NGO")
	for _, clause := range plan.OrderClauses() {
		q = q.Order(clause)
	}

	var opps []models.Opportunity
	if err := q.Offset(plan.Offset()).Limit(plan.Limit).Find(&opps).Error; err != nil {
		return nil, err
	}

	items := make([]algorithms.RankedOpportunity, 0, len(opps))
	for _, o := range opps {
		items = append(items, algorithms.RankedOpportunity{Opportunity: o})
	}
	return &algorithms.SearchResult{Items: items, Total: total}, nil
}

func (r *OpportunityRepositoryImpl) searchNearby(db *gorm.DB, plan algorithms.SearchPlan) (*algorithms.SearchResult, error) {
	box := algorithms.BoundingBoxAround(plan.Location.Origin, plan.Location.RadiusKm)

	q := r.filtered(db, plan).
		Where("opportunities.latitude IS NOT NULL AND opportunities.longitude IS NOT NULL").
		Where("opportunities.latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if box.LonOK {
		q = q.Where("opportunities.longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)
	}

	var candidates []models.Opportunity
	if err := q.Select("opportunities.*").Preload("NGO").Find(&candidates).Error; err != nil {
		return nil, err
	}

	result := plan.Apply(candidates)
	return &result, nil
}

// filtered - все предикаты кроме расстояния, объединены через AND
func (r *OpportunityRepositoryImpl) filtered(db *gorm.DB, plan algorithms.SearchPlan) *gorm.DB {
	q := db.Model(&models.Opportunity{}).
		Joins("LEFT JOIN users AS ngo ON ngo.id = opportunities.ngo_id")

	if len(plan.Categories) > 0 {
		q = q.Where("opportunities.categories && ?", pq.StringArray(plan.Categories))
	}

	if plan.Search != "" {
		like := escapeLike(plan.Search)
		q = q.Where("(opportunities.title ILIKE ? OR opportunities.description ILIKE ?)", like, like)
	}

	q = applyDateRange(q, plan.StartDate, plan.EndDate)

	if plan.NGOName != "" {
		q = q.Where("ngo.name ILIKE ?", escapeLike(plan.NGOName))
	}
	return q
}

func applyDateRange(q *gorm.DB, start, end *time.Time) *gorm.DB {
	switch {
	case start != nil && end != nil:
		return q.Where("opportunities.start_date BETWEEN ? AND ?", *start, *end)
	case start != nil:
		return q.Where("opportunities.start_date >= ?", *start)
	case end != nil:
		return q.Where("opportunities.end_date <= ?", *end)
	}
	return q
}

func (r *OpportunityRepositoryImpl) FindApplicants(db *gorm.DB, opportunityID string) ([]models.User, error) {
	var users []models.User
	err := db.Model(&models.User{}).
		Select("users.*").
		Joins("JOIN applications ON applications.volunteer_id = users.id").
		Where("applications.opportunity_id = ?", opportunityID).
		Order("applications.created_at ASC").
		Find(&users).Error
	return users, err
}
