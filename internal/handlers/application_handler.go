package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"volunteer_backend/internal/models"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/services/dto"
)

type ApplicationHandler struct {
	*BaseHandler
	applicationService services.ApplicationService
}

func NewApplicationHandler(base *BaseHandler, applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        base,
		applicationService: applicationService,
	}
}

func (h *ApplicationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Volunteer only
	volunteer := r.Group("", h.Auth(models.UserRoleVolunteer)...)
	{
		volunteer.POST("/applications", h.CreateApplication)
		volunteer.PATCH("/applications/:id/withdraw", h.WithdrawApplication)
		volunteer.GET("/users/me/applications", h.GetMyApplications)
	}

	// NGO (владелец возможности)
	ngo := r.Group("", h.Auth(models.UserRoleNGO)...)
	{
		ngo.PATCH("/applications/:id/status", h.UpdateApplicationStatus)
		ngo.GET("/opportunities/:id/applications", h.GetOpportunityApplications)
	}
}

// --- Volunteer handlers ---

func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	volunteerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateApplicationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	app, err := h.applicationService.CreateApplication(c.Request.Context(), h.GetDB(c), volunteerID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) WithdrawApplication(c *gin.Context) {
	volunteerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	applicationID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	app, err := h.applicationService.WithdrawApplication(c.Request.Context(), h.GetDB(c), volunteerID, applicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) GetMyApplications(c *gin.Context) {
	volunteerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	apps, err := h.applicationService.ListMyApplications(c.Request.Context(), h.GetDB(c), volunteerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

// --- NGO handlers ---

func (h *ApplicationHandler) UpdateApplicationStatus(c *gin.Context) {
	ngoID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	applicationID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	app, err := h.applicationService.UpdateApplicationStatus(c.Request.Context(), h.GetDB(c), ngoID, applicationID, req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) GetOpportunityApplications(c *gin.Context) {
	ngoID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	opportunityID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	apps, err := h.applicationService.ListOpportunityApplications(c.Request.Context(), h.GetDB(c), ngoID, opportunityID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}
