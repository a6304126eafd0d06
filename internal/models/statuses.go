package models

type UserRole string
type ApplicationStatus string
type OpportunityCategory string

const (
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleNGO       UserRole = "ngo"
	UserRoleAdmin     UserRole = "admin"

	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
	ApplicationStatusCompleted ApplicationStatus = "completed"

	CategoryEducation      OpportunityCategory = "education"
	CategoryEnvironment    OpportunityCategory = "environment"
	CategoryHealth         OpportunityCategory = "health"
	CategoryAnimals        OpportunityCategory = "animals"
	CategoryCommunity      OpportunityCategory = "community"
	CategoryDisasterRelief OpportunityCategory = "disaster_relief"
	CategoryArtsCulture    OpportunityCategory = "arts_culture"
	CategoryTechnology     OpportunityCategory = "technology"
	CategoryElderlyCare    OpportunityCategory = "elderly_care"
	CategoryChildrenYouth  OpportunityCategory = "children_youth"
)

// AllCategories - закрытый список категорий, принимаемых на границе API
var AllCategories = []OpportunityCategory{
	CategoryEducation,
	CategoryEnvironment,
	CategoryHealth,
	CategoryAnimals,
	CategoryCommunity,
	CategoryDisasterRelief,
	CategoryArtsCulture,
	CategoryTechnology,
	CategoryElderlyCare,
	CategoryChildrenYouth,
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleVolunteer, UserRoleNGO, UserRoleAdmin:
		return true
	}
	return false
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected,
		ApplicationStatusWithdrawn, ApplicationStatusCompleted:
		return true
	}
	return false
}

// IsTerminal: из терминального статуса разрешен только переход в COMPLETED
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case ApplicationStatusRejected, ApplicationStatusWithdrawn, ApplicationStatusCompleted:
		return true
	}
	return false
}

func (c OpportunityCategory) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ============================================
// Таблица переходов заявки
// ============================================

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:  {ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusWithdrawn},
	ApplicationStatusAccepted: {ApplicationStatusCompleted, ApplicationStatusWithdrawn},
}

// TransitionCheck - результат проверки перехода, сервис переводит его в AppError
type TransitionCheck int

const (
	TransitionAllowed TransitionCheck = iota
	TransitionNoop
	TransitionUnknownStatus
	TransitionFromTerminal
	TransitionNotAllowed
)

// CheckTransition проверяет переход from -> to.
// COMPLETED достижим из любого статуса; повтор текущего статуса - no-op
// (кроме терминальных, где действует запрет на всё, кроме COMPLETED).
func CheckTransition(from, to ApplicationStatus) TransitionCheck {
	if !to.IsValid() {
		return TransitionUnknownStatus
	}
	if to == ApplicationStatusCompleted {
		if from == to {
			return TransitionNoop
		}
		return TransitionAllowed
	}
	if from.IsTerminal() {
		return TransitionFromTerminal
	}
	if from == to {
		return TransitionNoop
	}
	for _, next := range applicationTransitions[from] {
		if next == to {
			return TransitionAllowed
		}
	}
	return TransitionNotAllowed
}
