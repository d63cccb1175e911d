package app

import (
	"context"
	"testing"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/idempotency"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryBackend(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := config.Parse([]byte(`
server:
  port: 8080
storage:
  type: memory
jwt:
  secret: "0123456789abcdef0123456789abcdef"
`))
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.IsType(t, idempotency.Noop{}, a.Idempotency)
	require.NoError(t, a.Migrate(context.Background()))
	require.NoError(t, a.Store.Ping(context.Background()))

	e := &domain.Equipment{StoreID: 1, Title: "Saw", QuantityTotal: 2, PricePerDay: decimal.NewFromInt(3)}
	require.NoError(t, a.Equipment.AddEquipment(context.Background(), e))
	got, err := a.Equipment.GetEquipment(context.Background(), e.ID, domain.StoreScope(1))
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityAvailable)
}
