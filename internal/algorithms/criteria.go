package algorithms

import (
	"errors"
	"math"
)

// DefaultRadiusKm применяется только к сохраненной локации профиля
const DefaultRadiusKm = 20.0

var ErrNegativeRadius = errors.New("radius must be a non-negative number")

// ExplicitCriteria - то, что пришло в запросе. nil = параметр не передан.
type ExplicitCriteria struct {
	Categories []string
	Latitude   *float64
	Longitude  *float64
	RadiusKm   *float64
}

// StoredProfile - сохраненные предпочтения запрашивающего (может отсутствовать)
type StoredProfile struct {
	Categories []string
	Latitude   *float64
	Longitude  *float64
}

type LocationFilter struct {
	Origin   Point
	RadiusKm float64
}

// EffectiveCriteria - фильтр, который реально применяется к поиску.
// Пустые Categories = без фильтра по категориям, nil Location = без гео-фильтра.
type EffectiveCriteria struct {
	Categories []string
	Location   *LocationFilter
}

type CriteriaResolver struct {
	defaultRadiusKm float64
}

func NewCriteriaResolver(defaultRadiusKm float64) *CriteriaResolver {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultRadiusKm
	}
	return &CriteriaResolver{defaultRadiusKm: defaultRadiusKm}
}

// Resolve: явные параметры всегда важнее профиля. Fallback на профиль
// решается отдельно для категорий и для локации.
// Локация из запроса учитывается лишь если заданы все три (lat, lon, radius).
func (r *CriteriaResolver) Resolve(explicit ExplicitCriteria, profile *StoredProfile) (EffectiveCriteria, error) {
	if explicit.RadiusKm != nil && (*explicit.RadiusKm < 0 || math.IsNaN(*explicit.RadiusKm)) {
		return EffectiveCriteria{}, ErrNegativeRadius
	}

	var effective EffectiveCriteria

	switch {
	case len(explicit.Categories) > 0:
		effective.Categories = explicit.Categories
	case profile != nil && len(profile.Categories) > 0:
		effective.Categories = profile.Categories
	}

	if origin, ok := PointFrom(explicit.Latitude, explicit.Longitude); ok && explicit.RadiusKm != nil {
		effective.Location = &LocationFilter{Origin: origin, RadiusKm: *explicit.RadiusKm}
	} else if profile != nil {
		if origin, ok := PointFrom(profile.Latitude, profile.Longitude); ok {
			effective.Location = &LocationFilter{Origin: origin, RadiusKm: r.defaultRadiusKm}
		}
	}

	return effective, nil
}
