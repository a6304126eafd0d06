package handlers

import (
	"github.com/gin-gonic/gin"

	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	UserHandler        *UserHandler
	OpportunityHandler *OpportunityHandler
	ApplicationHandler *ApplicationHandler
}

func NewAppHandlers(svc *services.ServiceContainer, v *validator.Validator, tokens *auth.Manager) *AppHandlers {
	base := NewBaseHandler(v, tokens)
	return &AppHandlers{
		UserHandler:        NewUserHandler(base, svc.UserService),
		OpportunityHandler: NewOpportunityHandler(base, svc.OpportunityService),
		ApplicationHandler: NewApplicationHandler(base, svc.ApplicationService),
	}
}

func (h *AppHandlers) RegisterRoutes(r *gin.RouterGroup) {
	h.UserHandler.RegisterRoutes(r)
	h.OpportunityHandler.RegisterRoutes(r)
	h.ApplicationHandler.RegisterRoutes(r)
}
