package pricing

import (
	"testing"

	"tonnenheld/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPriceCents(t *testing.T) {
	assert.Equal(t, int64(100), PriceCents(models.ScopeOut, false))
	assert.Equal(t, int64(100), PriceCents(models.ScopeIn, false))
	assert.Equal(t, int64(150), PriceCents(models.ScopeInOut, false))
	assert.Equal(t, int64(500), PriceCents(models.ScopeOut, true))
	assert.Equal(t, int64(500), PriceCents(models.ScopeIn, true))
	assert.Equal(t, int64(900), PriceCents(models.ScopeInOut, true))
}
