package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/repositories"
	"volunteer_backend/internal/services/dto"
	"volunteer_backend/pkg/apperrors"
)

type ApplicationService interface {
	CreateApplication(ctx context.Context, db *gorm.DB, volunteerID string, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error)
	// UpdateApplicationStatus - смена статуса владельцем возможности (НКО)
	UpdateApplicationStatus(ctx context.Context, db *gorm.DB, ngoID, applicationID, status string) (*dto.ApplicationResponse, error)
	WithdrawApplication(ctx context.Context, db *gorm.DB, volunteerID, applicationID string) (*dto.ApplicationResponse, error)
	ListMyApplications(ctx context.Context, db *gorm.DB, volunteerID string) ([]*dto.ApplicationResponse, error)
	ListOpportunityApplications(ctx context.Context, db *gorm.DB, ngoID, opportunityID string) ([]*dto.ApplicationResponse, error)
	// CompleteExpired переводит ACCEPTED заявки завершившихся возможностей в COMPLETED
	CompleteExpired(ctx context.Context, db *gorm.DB, now time.Time, batchSize int) (int, error)
}

type applicationService struct {
	applicationRepo repositories.ApplicationRepository
	opportunityRepo repositories.OpportunityRepository
	userRepo        repositories.UserRepository
	notifier        *notifications.Notifier
	events          *notifications.EventBuilder
	metrics         *metrics.Metrics
	settings        Settings
}

func NewApplicationService(
	applicationRepo repositories.ApplicationRepository,
	opportunityRepo repositories.OpportunityRepository,
	userRepo repositories.UserRepository,
	notifier *notifications.Notifier,
	m *metrics.Metrics,
	settings Settings,
) ApplicationService {
	return &applicationService{
		applicationRepo: applicationRepo,
		opportunityRepo: opportunityRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		events:          notifications.NewEventBuilder(),
		metrics:         m,
		settings:        settings,
	}
}

// =========================================================================
// Create
// =========================================================================

func (s *applicationService) CreateApplication(ctx context.Context, db *gorm.DB, volunteerID string, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	timeout := s.settings.queryTimeout()

	// NotFound -> Forbidden -> Conflict
	opp, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) (*models.Opportunity, error) {
		return s.opportunityRepo.FindByID(tx, req.OpportunityID)
	})
	if err != nil {
		return nil, storageError(err)
	}

	volunteer, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) (*models.User, error) {
		return s.userRepo.FindByID(tx, volunteerID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	if !volunteer.HasRole(models.UserRoleVolunteer) {
		return nil, apperrors.ErrOnlyVolunteersApply()
	}

	exists, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) (bool, error) {
		return s.applicationRepo.Exists(tx, volunteerID, opp.ID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	if exists {
		return nil, apperrors.ErrApplicationExists()
	}

	app := &models.Application{
		VolunteerID:   volunteerID,
		OpportunityID: opp.ID,
		Status:        models.ApplicationStatusPending,
		Message:       req.Message,
	}
	// параллельный дубликат ловит уникальный индекс -> ErrApplicationExists
	if err := storeExec(ctx, db, timeout, func(tx *gorm.DB) error {
		return s.applicationRepo.Create(tx, app)
	}); err != nil {
		return nil, storageError(err)
	}

	app.Volunteer = volunteer
	app.Opportunity = opp

	publish(ctx, s.notifier, notifications.RoutingApplicationNew, func() (notifications.Event, error) {
		return s.events.ApplicationCreated(app, volunteer, opp)
	})

	return dto.NewApplicationResponse(app), nil
}

// =========================================================================
// Status transitions
// =========================================================================

func (s *applicationService) UpdateApplicationStatus(ctx context.Context, db *gorm.DB, ngoID, applicationID, status string) (*dto.ApplicationResponse, error) {
	// неизвестный статус отклоняет таблица переходов, уже после поиска заявки и проверки владельца
	to := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(status)))

	app, err := s.transition(ctx, db, transitionRequest{
		applicationID: applicationID,
		to:            to,
		authorize: func(app *models.Application) error {
			if app.Opportunity == nil || app.Opportunity.NGOID != ngoID {
				return apperrors.ErrNotOpportunityOwner()
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return dto.NewApplicationResponse(app), nil
}

func (s *applicationService) WithdrawApplication(ctx context.Context, db *gorm.DB, volunteerID, applicationID string) (*dto.ApplicationResponse, error) {
	app, err := s.transition(ctx, db, transitionRequest{
		applicationID: applicationID,
		to:            models.ApplicationStatusWithdrawn,
		authorize: func(app *models.Application) error {
			if app.VolunteerID != volunteerID {
				return apperrors.ErrNotApplicationOwner()
			}
			return nil
		},
		rejected: func(from models.ApplicationStatus, _ models.TransitionCheck) error {
			return apperrors.ErrCannotWithdraw(string(from))
		},
	})
	if err != nil {
		return nil, err
	}
	return dto.NewApplicationResponse(app), nil
}

type transitionRequest struct {
	applicationID string
	to            models.ApplicationStatus
	// authorize вызывается на каждом чтении заявки; nil - без проверки (фоновые задачи)
	authorize func(app *models.Application) error
	// rejected переопределяет ошибку для запрещенного перехода
	rejected func(from models.ApplicationStatus, check models.TransitionCheck) error
}

// transition: чтение -> проверка по таблице переходов -> запись с проверкой версии.
// При конфликте версии заявка перечитывается и проверяется заново один раз, затем 409.
func (s *applicationService) transition(ctx context.Context, db *gorm.DB, req transitionRequest) (*models.Application, error) {
	timeout := s.settings.queryTimeout()

	for attempt := 0; ; attempt++ {
		app, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) (*models.Application, error) {
			return s.applicationRepo.FindByID(tx, req.applicationID)
		})
		if err != nil {
			return nil, storageError(err)
		}

		if req.authorize != nil {
			if err := req.authorize(app); err != nil {
				return nil, err
			}
		}

		from := app.Status
		switch check := models.CheckTransition(from, req.to); check {
		case models.TransitionNoop:
			return app, nil
		case models.TransitionAllowed:
		default:
			if req.rejected != nil {
				return nil, req.rejected(from, check)
			}
			return nil, transitionError(from, req.to, check)
		}

		err = storeExec(ctx, db, timeout, func(tx *gorm.DB) error {
			return s.applicationRepo.UpdateStatus(tx, app.ID, app.Version, req.to)
		})
		if errors.Is(err, repositories.ErrVersionConflict) {
			if attempt == 0 {
				logger.CtxDebug(ctx, "application version conflict, re-reading", "application_id", app.ID)
				continue
			}
			return nil, apperrors.ErrConcurrentUpdate()
		}
		if err != nil {
			return nil, storageError(err)
		}

		app.Status = req.to
		app.Version++
		app.UpdatedAt = time.Now()
		s.metrics.Transition(string(from), string(req.to))

		publish(ctx, s.notifier, notifications.RoutingApplicationStatusChanged, func() (notifications.Event, error) {
			return s.events.ApplicationStatusChanged(app, from, req.to, app.Volunteer, app.Opportunity)
		})
		return app, nil
	}
}

func transitionError(from, to models.ApplicationStatus, check models.TransitionCheck) error {
	switch check {
	case models.TransitionUnknownStatus:
		return apperrors.ErrUnknownStatus(string(to))
	case models.TransitionFromTerminal:
		return apperrors.ErrTerminalStatus(string(from))
	default:
		return apperrors.ErrTransitionNotAllowed(string(from), string(to))
	}
}

// =========================================================================
// Lists
// =========================================================================

func (s *applicationService) ListMyApplications(ctx context.Context, db *gorm.DB, volunteerID string) ([]*dto.ApplicationResponse, error) {
	apps, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) ([]models.Application, error) {
		return s.applicationRepo.ListByVolunteer(tx, volunteerID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	return dto.NewApplicationListResponse(apps), nil
}

func (s *applicationService) ListOpportunityApplications(ctx context.Context, db *gorm.DB, ngoID, opportunityID string) ([]*dto.ApplicationResponse, error) {
	timeout := s.settings.queryTimeout()

	opp, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) (*models.Opportunity, error) {
		return s.opportunityRepo.FindByID(tx, opportunityID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	if opp.NGOID != ngoID {
		return nil, apperrors.ErrNotOpportunityOwner()
	}

	apps, err := storeValue(ctx, db, timeout, func(tx *gorm.DB) ([]models.Application, error) {
		return s.applicationRepo.ListByOpportunity(tx, opportunityID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	return dto.NewApplicationListResponse(apps), nil
}

// =========================================================================
// Background completion
// =========================================================================

func (s *applicationService) CompleteExpired(ctx context.Context, db *gorm.DB, now time.Time, batchSize int) (int, error) {
	apps, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) ([]models.Application, error) {
		return s.applicationRepo.FindAcceptedOfEndedOpportunities(tx, now, batchSize)
	})
	if err != nil {
		return 0, storageError(err)
	}

	completed := 0
	for i := range apps {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		_, err := s.transition(ctx, db, transitionRequest{
			applicationID: apps[i].ID,
			to:            models.ApplicationStatusCompleted,
		})
		if err != nil {
			// одна неудачная заявка не останавливает пакет
			logger.CtxWithError(ctx, "failed to complete application", err, "application_id", apps[i].ID)
			continue
		}
		completed++
	}
	return completed, nil
}
