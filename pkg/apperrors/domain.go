package apperrors

import (
	"fmt"
	"net/http"
)

/*
Фабрики доменных ошибок. Возвращают новый *AppError на каждый вызов,
чтобы WithDetails/WithError не меняли общий экземпляр.
*/

const (
	domainOpportunity = "opportunity"
	domainApplication = "application"
	domainUser        = "user"
	domainSearch      = "search"
)

// =========================================================================
// Общие фабрики
// =========================================================================

// ErrNotFound - ошибка репозитория (gorm.ErrRecordNotFound и т.п.) -> 404
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Opportunities
// =========================================================================

func ErrOpportunityNotFound() *AppError {
	return New(CodeNotFound, domainOpportunity, "Opportunity not found", http.StatusNotFound)
}

func ErrNotOpportunityOwner() *AppError {
	return New(CodeForbidden, domainOpportunity, "You are not the owner of this opportunity", http.StatusForbidden)
}

func ErrDeleteReasonRequired() *AppError {
	return New(CodeValidationFailed, domainOpportunity, "A reason is required to delete an opportunity", http.StatusBadRequest)
}

func ErrNegativeRadius() *AppError {
	return New(CodeValidationFailed, domainSearch, "radiusKm must be greater than or equal to 0", http.StatusBadRequest)
}

// =========================================================================
// Applications
// =========================================================================

func ErrApplicationNotFound() *AppError {
	return New(CodeNotFound, domainApplication, "Application not found", http.StatusNotFound)
}

func ErrNotApplicationOwner() *AppError {
	return New(CodeForbidden, domainApplication, "You are not the owner of this application", http.StatusForbidden)
}

func ErrOnlyVolunteersApply() *AppError {
	return New(CodeForbidden, domainApplication, "Only volunteers can apply to opportunities", http.StatusForbidden)
}

func ErrApplicationExists() *AppError {
	return New(CodeAlreadyExists, domainApplication, "You have already applied to this opportunity", http.StatusConflict)
}

// ErrTerminalStatus - из терминального статуса разрешен только COMPLETED
func ErrTerminalStatus(from string) *AppError {
	return New(CodeInvalidStatus, domainApplication,
		fmt.Sprintf("Application is already %s and can only be marked as completed", from),
		http.StatusConflict).WithDetails(map[string]string{"current_status": from})
}

// ErrTransitionNotAllowed - переход отсутствует в таблице (например ACCEPTED -> PENDING)
func ErrTransitionNotAllowed(from, to string) *AppError {
	return New(CodeInvalidStatus, domainApplication,
		fmt.Sprintf("Cannot change application status from %s to %s", from, to),
		http.StatusConflict).WithDetails(map[string]string{"current_status": from, "requested_status": to})
}

func ErrCannotWithdraw(from string) *AppError {
	return New(CodeInvalidStatus, domainApplication,
		fmt.Sprintf("Cannot withdraw an application that is already %s", from),
		http.StatusConflict).WithDetails(map[string]string{"current_status": from})
}

func ErrUnknownStatus(status string) *AppError {
	return New(CodeValidationFailed, domainApplication,
		fmt.Sprintf("Unknown application status %q", status),
		http.StatusBadRequest)
}

// ErrConcurrentUpdate - версия строки изменилась между чтением и записью
func ErrConcurrentUpdate() *AppError {
	return New(CodeConflict, domainApplication, "Application was modified concurrently, retry the request", http.StatusConflict)
}

// =========================================================================
// Users
// =========================================================================

func ErrUserNotFound() *AppError {
	return New(CodeNotFound, domainUser, "User not found", http.StatusNotFound)
}

func ErrRoleAlreadySet() *AppError {
	return New(CodeForbidden, domainUser, "Role has already been set and cannot be changed", http.StatusForbidden)
}

func ErrInvalidUserRole() *AppError {
	return New(CodeForbidden, "auth", "Invalid user role for this operation", http.StatusForbidden)
}
