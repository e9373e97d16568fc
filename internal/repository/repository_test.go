package repository

import (
	"path"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: MaxPageSize, Offset: 10}, Page{Limit: 10000, Offset: 10}.Normalize())
	assert.Equal(t, Page{Limit: 5}, Page{Limit: 5, Offset: -3}.Normalize())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), ErrInUse)
	assert.ErrorIs(t, translate(ErrInvalidTransition), ErrInvalidTransition)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%acme%", likePattern(" acme "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestInvoiceCachePatternCoversShopOnly(t *testing.T) {
	shop, other := uuid.New(), uuid.New()
	pattern := invoiceCachePattern(shop)

	ok, err := path.Match(pattern, invoiceCacheKey(shop, uuid.New()))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = path.Match(pattern, invoiceCacheKey(other, uuid.New()))
	assert.NoError(t, err)
	assert.False(t, ok)
}
