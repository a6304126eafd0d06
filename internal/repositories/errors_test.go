package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(ErrApplicationNotFound))
	assert.False(t, IsTransient(fmt.Errorf("wrap: %w", ErrVersionConflict)))
	assert.False(t, IsTransient(gorm.ErrRecordNotFound))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "22P02"}))

	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(errors.New("connection reset by peer")))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "%beach%", escapeLike("beach"))
	assert.Equal(t, `%100\%%`, escapeLike("100%"))
	assert.Equal(t, `%a\_b%`, escapeLike("a_b"))
	assert.Equal(t, `%c:\\dir%`, escapeLike(`c:\dir`))
}
