package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"volunteer_backend/internal/algorithms"
	"volunteer_backend/internal/cache"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/repositories"
	"volunteer_backend/internal/services/dto"
	"volunteer_backend/pkg/apperrors"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

type OpportunityService interface {
	CreateOpportunity(ctx context.Context, db *gorm.DB, ngoID string, req *dto.CreateOpportunityRequest) (*dto.OpportunityResponse, error)
	// SearchOpportunities - requesterID пустой для анонимного запроса (без fallback на профиль)
	SearchOpportunities(ctx context.Context, db *gorm.DB, requesterID string, query *dto.SearchOpportunitiesQuery) (*dto.OpportunityListResponse, error)
	GetRecentOpportunities(ctx context.Context, db *gorm.DB, limit int) ([]*dto.OpportunityResponse, error)
	GetOpportunity(ctx context.Context, db *gorm.DB, opportunityID string) (*dto.OpportunityResponse, error)
	UpdateOpportunity(ctx context.Context, db *gorm.DB, ngoID, opportunityID string, req *dto.UpdateOpportunityRequest) (*dto.OpportunityResponse, error)
	DeleteOpportunity(ctx context.Context, db *gorm.DB, ngoID, opportunityID, reason string) error
	ListApplicants(ctx context.Context, db *gorm.DB, requesterID string, role models.UserRole, opportunityID string) ([]*dto.UserResponse, error)
}

type opportunityService struct {
	opportunityRepo repositories.OpportunityRepository
	userRepo        repositories.UserRepository
	notifier        *notifications.Notifier
	events          *notifications.EventBuilder
	recent          *cache.RecentOpportunities
	metrics         *metrics.Metrics
	resolver        *algorithms.CriteriaResolver
	settings        Settings
}

func NewOpportunityService(
	opportunityRepo repositories.OpportunityRepository,
	userRepo repositories.UserRepository,
	notifier *notifications.Notifier,
	recent *cache.RecentOpportunities,
	m *metrics.Metrics,
	settings Settings,
) OpportunityService {
	return &opportunityService{
		opportunityRepo: opportunityRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		events:          notifications.NewEventBuilder(),
		recent:          recent,
		metrics:         m,
		resolver:        algorithms.NewCriteriaResolver(settings.DefaultRadiusKm),
		settings:        settings,
	}
}

// =========================================================================
// Create
// =========================================================================

func (s *opportunityService) CreateOpportunity(ctx context.Context, db *gorm.DB, ngoID string, req *dto.CreateOpportunityRequest) (*dto.OpportunityResponse, error) {
	if err := checkCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	if err := checkDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	opp := &models.Opportunity{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PlaceName:   req.PlaceName,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		NGOID:       ngoID,
		Images:      datatypes.JSONSlice[string](req.Images),
		Categories:  pq.StringArray(req.Categories),
	}

	timeout := s.settings.queryTimeout()
	if err := storeExec(ctx, db, timeout, func(tx *gorm.DB) error {
		return s.opportunityRepo.Create(tx, opp)
	}); err != nil {
		return nil, storageError(err)
	}

	// Перечитываем вместе с НКО; запись уже закоммичена, поэтому ошибка чтения не фатальна
	if created, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) (*models.Opportunity, error) {
		return s.opportunityRepo.FindByID(tx, opp.ID)
	}); err == nil {
		opp = created
	} else {
		logger.CtxWithError(ctx, "failed to reload created opportunity", err, "opportunity_id", opp.ID)
	}

	s.recent.Invalidate(ctx)
	s.notifyMatchedVolunteers(ctx, db, opp)

	return dto.NewOpportunityResponse(opp, nil), nil
}

// notifyMatchedVolunteers - SQL сужает кандидатов (роль, категории, bbox), точный отбор в MatchVolunteers
func (s *opportunityService) notifyMatchedVolunteers(ctx context.Context, db *gorm.DB, opp *models.Opportunity) {
	radius := s.settings.DefaultRadiusKm
	if radius <= 0 {
		radius = algorithms.DefaultRadiusKm
	}

	var box *algorithms.BoundingBox
	if origin, ok := algorithms.PointFrom(opp.Latitude, opp.Longitude); ok {
		b := algorithms.BoundingBoxAround(origin, radius)
		box = &b
	}

	candidates, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) ([]models.User, error) {
		return s.userRepo.FindVolunteersForMatching(tx, opp.Categories, box)
	})
	if err != nil {
		notifications.Dropped(ctx, notifications.RoutingOpportunityCreated, err)
		return
	}

	matched := algorithms.MatchVolunteers(opp, candidates, radius)
	publish(ctx, s.notifier, notifications.RoutingOpportunityCreated, func() (notifications.Event, error) {
		return s.events.OpportunityCreated(opp, matched)
	})
}

// =========================================================================
// Search / Read
// =========================================================================

func (s *opportunityService) SearchOpportunities(ctx context.Context, db *gorm.DB, requesterID string, query *dto.SearchOpportunitiesQuery) (*dto.OpportunityListResponse, error) {
	categories := query.CategoryList()
	for _, c := range categories {
		if !models.OpportunityCategory(c).IsValid() {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("Unknown category '%s'", c))
		}
	}

	startDate, err := parseQueryDate("startDate", query.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseQueryDate("endDate", query.EndDate)
	if err != nil {
		return nil, err
	}

	explicit := algorithms.ExplicitCriteria{
		Categories: categories,
		Latitude:   query.Latitude,
		Longitude:  query.Longitude,
		RadiusKm:   query.RadiusKm,
	}

	var profile *algorithms.StoredProfile
	if requesterID != "" && needsProfile(explicit) {
		profile, err = s.storedProfile(ctx, db, requesterID)
		if err != nil {
			return nil, err
		}
	}

	criteria, err := s.resolver.Resolve(explicit, profile)
	if err != nil {
		if errors.Is(err, algorithms.ErrNegativeRadius) {
			return nil, apperrors.ErrNegativeRadius()
		}
		return nil, apperrors.InternalError(err)
	}

	limit := query.Limit
	if s.settings.MaxPageSize > 0 && limit > s.settings.MaxPageSize {
		limit = s.settings.MaxPageSize
	}

	plan := algorithms.NewSearchPlan(criteria, algorithms.SearchQuery{
		Search:    query.SearchTerm(),
		StartDate: startDate,
		EndDate:   endDate,
		NGOName:   query.NGOName,
		SortBy:    algorithms.SortField(query.SortBy),
		SortOrder: algorithms.SortOrder(query.SortOrder),
		Page:      query.Page,
		Limit:     limit,
	})

	started := time.Now()
	result, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) (*algorithms.SearchResult, error) {
		return s.opportunityRepo.Search(tx, plan)
	})
	s.metrics.ObserveSearch(plan.HasLocation(), time.Since(started))
	if err != nil {
		return nil, storageError(err)
	}

	return dto.NewOpportunityListResponse(result, plan), nil
}

// needsProfile - профиль нужен только если явно не заданы категории или полная локация
func needsProfile(explicit algorithms.ExplicitCriteria) bool {
	_, hasPoint := algorithms.PointFrom(explicit.Latitude, explicit.Longitude)
	return len(explicit.Categories) == 0 || !hasPoint || explicit.RadiusKm == nil
}

func (s *opportunityService) storedProfile(ctx context.Context, db *gorm.DB, userID string) (*algorithms.StoredProfile, error) {
	user, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) (*models.User, error) {
		return s.userRepo.FindByID(tx, userID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, storageError(err)
	}
	return &algorithms.StoredProfile{
		Categories: user.Categories,
		Latitude:   user.Latitude,
		Longitude:  user.Longitude,
	}, nil
}

func (s *opportunityService) GetRecentOpportunities(ctx context.Context, db *gorm.DB, limit int) ([]*dto.OpportunityResponse, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}

	opps, slot, ok := s.recent.Get(ctx, limit)
	if !ok {
		var err error
		opps, err = storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) ([]models.Opportunity, error) {
			return s.opportunityRepo.FindRecent(tx, limit)
		})
		if err != nil {
			return nil, storageError(err)
		}
		s.recent.Set(ctx, slot, opps)
	}

	out := make([]*dto.OpportunityResponse, 0, len(opps))
	for i := range opps {
		out = append(out, dto.NewOpportunityResponse(&opps[i], nil))
	}
	return out, nil
}

func (s *opportunityService) GetOpportunity(ctx context.Context, db *gorm.DB, opportunityID string) (*dto.OpportunityResponse, error) {
	opp, err := s.find(ctx, db, opportunityID)
	if err != nil {
		return nil, err
	}
	return dto.NewOpportunityResponse(opp, nil), nil
}

// =========================================================================
// Update / Delete
// =========================================================================

func (s *opportunityService) UpdateOpportunity(ctx context.Context, db *gorm.DB, ngoID, opportunityID string, req *dto.UpdateOpportunityRequest) (*dto.OpportunityResponse, error) {
	opp, err := s.find(ctx, db, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp.NGOID != ngoID {
		return nil, apperrors.ErrNotOpportunityOwner()
	}

	fields, err := updateFields(opp, req)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return dto.NewOpportunityResponse(opp, nil), nil
	}

	timeout := s.settings.queryTimeout()
	if err := storeExec(ctx, db, timeout, func(tx *gorm.DB) error {
		return s.opportunityRepo.Update(tx, opp, fields)
	}); err != nil {
		return nil, storageError(err)
	}

	updated, err := s.find(ctx, db, opportunityID)
	if err != nil {
		return nil, err
	}

	s.recent.Invalidate(ctx)

	applicants, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) ([]models.User, error) {
		return s.opportunityRepo.FindApplicants(tx, opportunityID)
	})
	if err != nil {
		notifications.Dropped(ctx, notifications.RoutingOpportunityUpdated, err)
	} else {
		publish(ctx, s.notifier, notifications.RoutingOpportunityUpdated, func() (notifications.Event, error) {
			return s.events.OpportunityUpdated(updated, applicants)
		})
	}

	return dto.NewOpportunityResponse(updated, nil), nil
}

// updateFields собирает частичный UPDATE и проверяет итоговое состояние (даты, пара координат)
func updateFields(opp *models.Opportunity, req *dto.UpdateOpportunityRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.PlaceName != nil {
		fields["place_name"] = *req.PlaceName
	}
	if req.Images != nil {
		fields["images"] = datatypes.JSONSlice[string](req.Images)
	}
	if req.Categories != nil {
		fields["categories"] = pq.StringArray(req.Categories)
	}

	lat, lon := opp.Latitude, opp.Longitude
	if req.Latitude != nil {
		lat = req.Latitude
		fields["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		lon = req.Longitude
		fields["longitude"] = *req.Longitude
	}
	if err := checkCoordinates(lat, lon); err != nil {
		return nil, err
	}

	start, end := opp.StartDate, opp.EndDate
	if req.StartDate != nil {
		start = *req.StartDate
		fields["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		end = req.EndDate
		fields["end_date"] = *req.EndDate
	}
	if err := checkDateRange(start, end); err != nil {
		return nil, err
	}

	return fields, nil
}

func (s *opportunityService) DeleteOpportunity(ctx context.Context, db *gorm.DB, ngoID, opportunityID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.ErrDeleteReasonRequired()
	}

	opp, err := s.find(ctx, db, opportunityID)
	if err != nil {
		return err
	}
	if opp.NGOID != ngoID {
		return apperrors.ErrNotOpportunityOwner()
	}

	// Получатели фиксируются до удаления: заявки уходят каскадом вместе с возможностью
	timeout := s.settings.queryTimeout()
	applicants, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) ([]models.User, error) {
		return s.opportunityRepo.FindApplicants(tx, opportunityID)
	})
	if err != nil {
		return storageError(err)
	}

	if err := storeExec(ctx, db, timeout, func(tx *gorm.DB) error {
		return s.opportunityRepo.Delete(tx, opportunityID)
	}); err != nil {
		return storageError(err)
	}

	s.recent.Invalidate(ctx)

	publish(ctx, s.notifier, notifications.RoutingOpportunityDeleted, func() (notifications.Event, error) {
		return s.events.OpportunityDeleted(opp, applicants, reason)
	})
	return nil
}

// ListApplicants - владельцу и админу; чужой НКО получает 404, чтобы не раскрывать ресурс
func (s *opportunityService) ListApplicants(ctx context.Context, db *gorm.DB, requesterID string, role models.UserRole, opportunityID string) ([]*dto.UserResponse, error) {
	opp, err := s.find(ctx, db, opportunityID)
	if err != nil {
		return nil, err
	}
	if role != models.UserRoleAdmin && opp.NGOID != requesterID {
		return nil, apperrors.ErrOpportunityNotFound()
	}

	users, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) ([]models.User, error) {
		return s.opportunityRepo.FindApplicants(tx, opportunityID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	return dto.NewUserListResponse(users), nil
}

func (s *opportunityService) find(ctx context.Context, db *gorm.DB, opportunityID string) (*models.Opportunity, error) {
	opp, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) (*models.Opportunity, error) {
		return s.opportunityRepo.FindByID(tx, opportunityID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	return opp, nil
}

// =========================================================================
// Проверки входных данных
// =========================================================================

func checkCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return apperrors.NewBadRequestError("latitude and longitude must be provided together")
	}
	return nil
}

func checkDateRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperrors.NewBadRequestError("end_date must not be before start_date")
	}
	return nil
}

var queryDateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseQueryDate принимает RFC3339 или YYYY-MM-DD
func parseQueryDate(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range queryDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewBadRequestError(fmt.Sprintf("%s must be an ISO 8601 date", name))
}
