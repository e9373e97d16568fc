package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestDisabledCacheNeverHits(t *testing.T) {
	c := New(nil, time.Minute, logrus.New())
	ctx := context.Background()

	assert.False(t, c.Enabled())

	c.SetJSON(ctx, "k", map[string]int{"a": 1})
	var out map[string]int
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &out), ErrMiss)
	assert.Nil(t, out)

	c.Delete(ctx, "k")
	c.DeletePattern(ctx, "k*")
	assert.NoError(t, c.Ping(ctx))
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())
}
