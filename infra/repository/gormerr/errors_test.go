package gormerr

import (
	"errors"
	"testing"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("some other error")
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "nil error returns nil", input: nil, expected: nil},
		{name: "duplicate key error maps to ErrAlreadyExists", input: gorm.ErrDuplicatedKey, expected: domain.ErrAlreadyExists},
		{name: "record not found error maps to ErrNotFound", input: gorm.ErrRecordNotFound, expected: domain.ErrNotFound},
		{name: "non-GORM error returns original", input: other, expected: other},
		{name: "wrapped duplicate key error maps correctly", input: errors.Join(errors.New("outer error"), gorm.ErrDuplicatedKey), expected: domain.ErrAlreadyExists},
		{name: "wrapped record not found error maps correctly", input: errors.Join(errors.New("outer error"), gorm.ErrRecordNotFound), expected: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				assert.NoError(t, result)
				return
			}
			assert.ErrorIs(t, result, tt.expected)
		})
	}
}

func TestForeignKeyViolationIsConflict(t *testing.T) {
	t.Parallel()
	err := MapGormErrorToDomain(gorm.ErrForeignKeyViolated)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := NotFound(gorm.ErrRecordNotFound, account.ErrAccountNotFound)
	require.ErrorIs(t, err, account.ErrAccountNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = NotFound(gorm.ErrDuplicatedKey, account.ErrAccountNotFound)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	assert.NoError(t, NotFound(nil, account.ErrAccountNotFound))
}

func TestDuplicate(t *testing.T) {
	t.Parallel()
	err := Duplicate(gorm.ErrDuplicatedKey, account.ErrNameTaken)
	require.ErrorIs(t, err, account.ErrNameTaken)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, WrapError(func() error { return nil }))
}
