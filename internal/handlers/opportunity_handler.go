package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"volunteer_backend/internal/middleware"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/services/dto"
)

type OpportunityHandler struct {
	*BaseHandler
	opportunityService services.OpportunityService
}

func NewOpportunityHandler(base *BaseHandler, opportunityService services.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{
		BaseHandler:        base,
		opportunityService: opportunityService,
	}
}

func (h *OpportunityHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes (токен необязателен: включает fallback на профиль в поиске)
	public := r.Group("/opportunities", h.OptionalAuth())
	{
		public.GET("", h.SearchOpportunities)
		public.GET("/recent", h.GetRecentOpportunities)
		public.GET("/:id", h.GetOpportunity)
	}

	// NGO only
	ngo := r.Group("/opportunities", h.Auth(models.UserRoleNGO)...)
	{
		ngo.POST("", h.CreateOpportunity)
		ngo.PATCH("/:id", h.UpdateOpportunity)
		ngo.DELETE("/:id", h.DeleteOpportunity)
	}

	applicants := r.Group("/opportunities", h.Auth(models.UserRoleNGO, models.UserRoleAdmin)...)
	{
		applicants.GET("/:id/applicants", h.ListApplicants)
	}
}

// --- Public handlers ---

func (h *OpportunityHandler) SearchOpportunities(c *gin.Context) {
	var query dto.SearchOpportunitiesQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	// пусто для анонимного запроса
	requesterID := middleware.GetUserID(c)

	resp, err := h.opportunityService.SearchOpportunities(c.Request.Context(), h.GetDB(c), requesterID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OpportunityHandler) GetRecentOpportunities(c *gin.Context) {
	limit := ParseQueryInt(c, "limit", 10)

	opps, err := h.opportunityService.GetRecentOpportunities(c.Request.Context(), h.GetDB(c), limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, opps)
}

func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	opportunityID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opportunityService.GetOpportunity(c.Request.Context(), h.GetDB(c), opportunityID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, opp)
}

// --- NGO handlers ---

func (h *OpportunityHandler) CreateOpportunity(c *gin.Context) {
	ngoID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOpportunityRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	opp, err := h.opportunityService.CreateOpportunity(c.Request.Context(), h.GetDB(c), ngoID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, opp)
}

func (h *OpportunityHandler) UpdateOpportunity(c *gin.Context) {
	ngoID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	opportunityID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOpportunityRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	opp, err := h.opportunityService.UpdateOpportunity(c.Request.Context(), h.GetDB(c), ngoID, opportunityID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, opp)
}

// DeleteOpportunity - причина в JSON теле или в ?reason=
func (h *OpportunityHandler) DeleteOpportunity(c *gin.Context) {
	ngoID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	opportunityID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	req := dto.DeleteOpportunityRequest{Reason: c.Query("reason")}
	if strings.TrimSpace(req.Reason) == "" && c.Request.ContentLength != 0 {
		if !h.BindAndValidate_JSON(c, &req) {
			return
		}
	}

	if err := h.opportunityService.DeleteOpportunity(c.Request.Context(), h.GetDB(c), ngoID, opportunityID, req.Reason); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Opportunity deleted successfully"})
}

func (h *OpportunityHandler) ListApplicants(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	opportunityID, ok := ParamUUID(c, "id")
	if !ok {
		return
	}
	role, _ := middleware.GetRole(c)

	users, err := h.opportunityService.ListApplicants(c.Request.Context(), h.GetDB(c), userID, role, opportunityID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
