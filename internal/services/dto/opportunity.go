package dto

import (
	"strings"
	"time"

	"volunteer_backend/internal/algorithms"
	"volunteer_backend/internal/models"
)

// --- Opportunity Requests ---

type CreateOpportunityRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description string     `json:"description" validate:"required,max=10000"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	PlaceName   string     `json:"place_name" validate:"omitempty,max=255"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date"`
	Images      []string   `json:"images" validate:"omitempty,max=20,dive,url"`
	Categories  []string   `json:"categories" validate:"omitempty,dive,is-category"`
}

// UpdateOpportunityRequest - частичное обновление: nil означает "не менять".
// Пустой массив categories/images очищает поле.
type UpdateOpportunityRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Latitude    *float64   `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PlaceName   *string    `json:"place_name,omitempty" validate:"omitempty,max=255"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Images      []string   `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
	Categories  []string   `json:"categories,omitempty" validate:"omitempty,dive,is-category"`
}

type DeleteOpportunityRequest struct {
	Reason string `json:"reason" form:"reason" validate:"omitempty,max=1000"`
}

// SearchOpportunitiesQuery - query string GET /opportunities
type SearchOpportunitiesQuery struct {
	Categories []string `form:"categories"`
	Search     string   `form:"search" validate:"omitempty,max=200"`
	Keyword    string   `form:"keyword" validate:"omitempty,max=200"`
	StartDate  string   `form:"startDate"`
	EndDate    string   `form:"endDate"`
	Latitude   *float64 `form:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `form:"longitude" validate:"omitempty,gte=-180,lte=180"`
	RadiusKm   *float64 `form:"radiusKm" validate:"omitempty,gte=0"`
	NGOName    string   `form:"ngoName" validate:"omitempty,max=200"`
	Page       int      `form:"page"`
	Limit      int      `form:"limit"`
	SortBy     string   `form:"sortBy" validate:"omitempty,is-sort-field"`
	SortOrder  string   `form:"sortOrder" validate:"omitempty,is-sort-order"`
}

// CategoryList - поддерживает и categories=a,b и categories=a&categories=b
func (q *SearchOpportunitiesQuery) CategoryList() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range q.Categories {
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// SearchTerm - search имеет приоритет над keyword
func (q *SearchOpportunitiesQuery) SearchTerm() string {
	if s := strings.TrimSpace(q.Search); s != "" {
		return s
	}
	return strings.TrimSpace(q.Keyword)
}

// --- Opportunity Responses ---

type NGOSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

type OpportunityResponse struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	PlaceName   string      `json:"place_name,omitempty"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Images      []string    `json:"images"`
	Categories  []string    `json:"categories"`
	NGOID       string      `json:"ngo_id"`
	NGO         *NGOSummary `json:"ngo,omitempty"`
	DistanceKm  *float64    `json:"distance_km,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OpportunityListResponse struct {
	Data  []*OpportunityResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

func NewOpportunityResponse(o *models.Opportunity, distanceKm *float64) *OpportunityResponse {
	resp := &OpportunityResponse{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Latitude:    o.Latitude,
		Longitude:   o.Longitude,
		PlaceName:   o.PlaceName,
		StartDate:   o.StartDate,
		EndDate:     o.EndDate,
		Images:      nonNil(o.Images),
		Categories:  nonNil(o.Categories),
		NGOID:       o.NGOID,
		DistanceKm:  distanceKm,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.NGO != nil {
		resp.NGO = &NGOSummary{ID: o.NGO.ID, Name: o.NGO.Name, Email: o.NGO.Email, Picture: o.NGO.Picture}
	}
	return resp
}

func NewOpportunityListResponse(res *algorithms.SearchResult, plan algorithms.SearchPlan) *OpportunityListResponse {
	out := &OpportunityListResponse{
		Data:  make([]*OpportunityResponse, 0, len(res.Items)),
		Total: res.Total,
		Page:  plan.Page,
		Limit: plan.Limit,
	}
	for i := range res.Items {
		out.Data = append(out.Data, NewOpportunityResponse(&res.Items[i].Opportunity, res.Items[i].DistanceKm))
	}
	return out
}

func nonNil[S ~[]string](s S) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
