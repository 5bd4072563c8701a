package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/secdesk/backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateKeepsConstraintDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", Message: "duplicate key value"}
	err := translate("create user", fmt.Errorf("insert: %w", pgErr))

	var se *apperr.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "create user", se.Op)
	assert.Equal(t, "23505", se.Code)
	assert.Equal(t, "users_email_key", se.Constraint)
	assert.True(t, se.IsConstraintViolation())
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.ErrorIs(t, err, pgErr)
}

func TestTranslatePlainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := translate("list incidents", cause)

	var se *apperr.StorageError
	require.True(t, errors.As(err, &se))
	assert.Empty(t, se.Code)
	assert.False(t, se.IsConstraintViolation())
	assert.ErrorIs(t, err, cause)

	assert.NoError(t, translate("noop", nil))
}
