package tag

import (
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/google/uuid"
)

// MaxNameLength is the longest accepted tag name.
const MaxNameLength = 50

var (
	// ErrTagNotFound is returned when a tag cannot be found.
	ErrTagNotFound = domain.NewError(domain.ErrNotFound, "tag not found")
	// ErrInvalidName is returned for empty or oversized tag names.
	ErrInvalidName = domain.NewError(domain.ErrValidation, "tag name must be between 1 and 50 characters")
	// ErrNameTaken is returned when another tag already has the name.
	ErrNameTaken = domain.NewError(domain.ErrConflict, "a tag with that name already exists")
	// ErrTagInUse is returned when renaming or deleting a tag that accounts reference.
	ErrTagInUse = domain.NewError(domain.ErrConflict, "tag is in use by one or more accounts")
)

// Tag is a global label accounts may reference.
type Tag struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// New validates name and returns a new tag.
func New(name string) (*Tag, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return &Tag{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}, nil
}

// NormalizeName trims and validates a tag name.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := len([]rune(name))
	if n == 0 || n > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
