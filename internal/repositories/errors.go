package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrRoleAlreadySet      = errors.New("user role already set")
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationExists   = errors.New("application already exists for this volunteer and opportunity")

	// ErrVersionConflict - строка изменилась между чтением и записью
	ErrVersionConflict = errors.New("application version conflict")
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgAdminShutdown        = "57P01"
)

// IsUniqueViolation - нарушение уникального индекса
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsTransient - имеет ли смысл один повтор операции хранилища.
// Доменные ошибки и ошибки данных/ограничений не повторяются.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, permanent := range []error{
		ErrUserNotFound, ErrUserAlreadyExists, ErrRoleAlreadySet,
		ErrOpportunityNotFound, ErrApplicationNotFound, ErrApplicationExists,
		ErrVersionConflict, gorm.ErrRecordNotFound, gorm.ErrDuplicatedKey,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgAdminShutdown:
			return true
		}
		// 08 - ошибки соединения
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return true
}

// escapeLike экранирует спецсимволы ILIKE: подстрока ищется буквально
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
