package algorithms

import (
	"sort"
	"strings"
	"time"

	"volunteer_backend/internal/models"
)

type SortField string
type SortOrder string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByStartDate SortField = "startDate"
	SortByEndDate   SortField = "endDate"
	SortByTitle     SortField = "title"
	SortByNGOName   SortField = "ngoName"

	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"

	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByStartDate, SortByEndDate, SortByTitle, SortByNGOName:
		return true
	}
	return false
}

// SearchQuery - параметры поиска, не зависящие от профиля
type SearchQuery struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	NGOName   string
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// SearchPlan - нормализованный план: все предикаты объединяются через AND
type SearchPlan struct {
	EffectiveCriteria
	SearchQuery
}

type RankedOpportunity struct {
	models.Opportunity
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type SearchResult struct {
	Items []RankedOpportunity
	Total int64
}

func NewSearchPlan(criteria EffectiveCriteria, q SearchQuery) SearchPlan {
	q.Search = strings.TrimSpace(q.Search)
	q.NGOName = strings.TrimSpace(q.NGOName)

	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultPageSize
	case q.Limit > MaxPageSize:
		q.Limit = MaxPageSize
	}

	if !q.SortBy.IsValid() {
		q.SortBy = SortByCreatedAt
	}
	q.SortOrder = SortOrder(strings.ToUpper(string(q.SortOrder)))
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}

	return SearchPlan{EffectiveCriteria: criteria, SearchQuery: q}
}

func (p SearchPlan) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p SearchPlan) HasLocation() bool {
	return p.Location != nil
}

// OrderClauses - эквивалент Less для SQL (используется, когда гео-фильтра нет).
// NULL в Postgres больше любого значения, так же как в compareTime.
func (p SearchPlan) OrderClauses() []string {
	dir := string(p.SortOrder)
	var primary string
	switch p.SortBy {
	case SortByStartDate:
		primary = "opportunities.start_date " + dir
	case SortByEndDate:
		primary = "opportunities.end_date " + dir
	case SortByTitle:
		primary = "LOWER(opportunities.title) " + dir
	case SortByNGOName:
		primary = "LOWER(ngo.name) " + dir
	default:
		primary = "opportunities.created_at " + dir
	}

	clauses := []string{primary}
	if p.SortBy != SortByCreatedAt {
		clauses = append(clauses, "opportunities.created_at DESC")
	}
	return append(clauses, "opportunities.id ASC")
}

// Match проверяет все предикаты. Для гео-поиска возвращает расстояние.
func (p SearchPlan) Match(o *models.Opportunity) (*float64, bool) {
	if len(p.Categories) > 0 && !categoriesOverlap(p.Categories, o.Categories) {
		return nil, false
	}

	var distance *float64
	if p.Location != nil {
		point, ok := PointFrom(o.Latitude, o.Longitude)
		if !ok {
			return nil, false
		}
		d := DistanceKm(p.Location.Origin, point)
		if d > p.Location.RadiusKm {
			return nil, false
		}
		distance = &d
	}

	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		if !strings.Contains(strings.ToLower(o.Title), needle) &&
			!strings.Contains(strings.ToLower(o.Description), needle) {
			return nil, false
		}
	}

	if !p.matchesDates(o) {
		return nil, false
	}

	if p.NGOName != "" && !strings.Contains(strings.ToLower(o.NGOName()), strings.ToLower(p.NGOName)) {
		return nil, false
	}

	return distance, true
}

// Apply - фильтр, сортировка и пагинация в памяти.
// Total считается по всему отфильтрованному набору до offset/limit.
func (p SearchPlan) Apply(candidates []models.Opportunity) SearchResult {
	matched := make([]RankedOpportunity, 0, len(candidates))
	for i := range candidates {
		distance, ok := p.Match(&candidates[i])
		if !ok {
			continue
		}
		matched = append(matched, RankedOpportunity{Opportunity: candidates[i], DistanceKm: distance})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return p.Less(&matched[i], &matched[j])
	})

	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return SearchResult{Items: matched[start:end], Total: total}
}

// Less: с локацией - расстояние ASC, затем created_at DESC; иначе - запрошенное поле.
func (p SearchPlan) Less(a, b *RankedOpportunity) bool {
	if p.Location != nil {
		if c := compareDistance(a.DistanceKm, b.DistanceKm); c != 0 {
			return c < 0
		}
		if c := compareTime(&a.CreatedAt, &b.CreatedAt); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	}

	var c int
	switch p.SortBy {
	case SortByStartDate:
		c = compareTime(&a.StartDate, &b.StartDate)
	case SortByEndDate:
		c = compareTime(a.EndDate, b.EndDate)
	case SortByTitle:
		c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortByNGOName:
		c = strings.Compare(strings.ToLower(a.NGOName()), strings.ToLower(b.NGOName()))
	default:
		c = compareTime(&a.CreatedAt, &b.CreatedAt)
	}
	if c != 0 {
		if p.SortOrder == SortAsc {
			return c < 0
		}
		return c > 0
	}

	if p.SortBy != SortByCreatedAt {
		if c := compareTime(&a.CreatedAt, &b.CreatedAt); c != 0 {
			return c > 0
		}
	}
	return a.ID < b.ID
}

// matchesDates: оба края - start_date в [start, end]; только start - start_date >= start;
// только end - end_date <= end (без end_date не подходит).
func (p SearchPlan) matchesDates(o *models.Opportunity) bool {
	switch {
	case p.StartDate != nil && p.EndDate != nil:
		return !o.StartDate.Before(*p.StartDate) && !o.StartDate.After(*p.EndDate)
	case p.StartDate != nil:
		return !o.StartDate.Before(*p.StartDate)
	case p.EndDate != nil:
		return o.EndDate != nil && !o.EndDate.After(*p.EndDate)
	}
	return true
}

func categoriesOverlap(wanted, have []string) bool {
	if len(wanted) == 0 || len(have) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(wanted))
	for _, c := range wanted {
		set[c] = struct{}{}
	}
	for _, c := range have {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}

func compareDistance(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
