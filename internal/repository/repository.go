package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Common errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrInUse             = errors.New("record is referenced by other records")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DefaultPageSize applies when a list request does not set a limit
const DefaultPageSize = 50

// MaxPageSize caps list requests
const MaxPageSize = 500

// Page is a limit/offset window
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// translate maps gorm errors onto repository errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	default:
		return err
	}
}

// likePattern escapes LIKE wildcards in user input
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}
