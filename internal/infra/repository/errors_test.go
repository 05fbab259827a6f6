package repository

import (
	"errors"
	"fmt"
	"testing"

	repo "lumina/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("boom")

	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), repo.ErrNotFound)
	assert.ErrorIs(t, translateError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})), repo.ErrConflict)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), repo.ErrConflict)

	fk := &pgconn.PgError{Code: "23503"}
	assert.Same(t, fk, translateError(fk))
	assert.Equal(t, other, translateError(other))
}
