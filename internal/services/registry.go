package services

import (
	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/cache"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	UserService        UserService
	OpportunityService OpportunityService
	ApplicationService ApplicationService
}

// RepositoryContainer - stateless репозитории, общие для всех сервисов
type RepositoryContainer struct {
	Users         repositories.UserRepository
	Opportunities repositories.OpportunityRepository
	Applications  repositories.ApplicationRepository
}

func NewRepositoryContainer() *RepositoryContainer {
	return &RepositoryContainer{
		Users:         repositories.NewUserRepository(),
		Opportunities: repositories.NewOpportunityRepository(),
		Applications:  repositories.NewApplicationRepository(),
	}
}

// NewServiceContainer собирает сервисы. recent и m могут быть nil.
func NewServiceContainer(
	repos *RepositoryContainer,
	notifier *notifications.Notifier,
	tokens *auth.Manager,
	recent *cache.RecentOpportunities,
	m *metrics.Metrics,
	settings Settings,
) *ServiceContainer {
	return &ServiceContainer{
		UserService: NewUserService(repos.Users, tokens, settings),
		OpportunityService: NewOpportunityService(
			repos.Opportunities, repos.Users, notifier, recent, m, settings,
		),
		ApplicationService: NewApplicationService(
			repos.Applications, repos.Opportunities, repos.Users, notifier, m, settings,
		),
	}
}
