package algorithms

import (
	"volunteer_backend/internal/models"
)

// MatchVolunteer решает, стоит ли сообщать волонтеру о новой возможности.
//   - категории: пересечение; волонтер без категорий подходит под любые,
//     возможность без категорий подходит любому волонтеру
//   - локация: проверяется, только если координаты есть у обоих
func MatchVolunteer(o *models.Opportunity, v *models.User, radiusKm float64) bool {
	if !v.HasRole(models.UserRoleVolunteer) {
		return false
	}

	if len(v.Categories) > 0 && len(o.Categories) > 0 && !categoriesOverlap(v.Categories, o.Categories) {
		return false
	}

	oppPoint, oppOK := PointFrom(o.Latitude, o.Longitude)
	volPoint, volOK := PointFrom(v.Latitude, v.Longitude)
	if oppOK && volOK && DistanceKm(oppPoint, volPoint) > radiusKm {
		return false
	}

	return true
}

// MatchVolunteers - отбор получателей события opportunity.created
func MatchVolunteers(o *models.Opportunity, candidates []models.User, radiusKm float64) []models.User {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	matched := make([]models.User, 0, len(candidates))
	for i := range candidates {
		if MatchVolunteer(o, &candidates[i], radiusKm) {
			matched = append(matched, candidates[i])
		}
	}
	return matched
}
