package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/repository/memory"
)

func TestAtomic_RollbackRestoresState(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	product := &model.Product{Code: "P-01", Name: "Produk", Stock: 10, IsActive: true}
	require.NoError(t, store.Products().Create(ctx, product))

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Products().UpdateStock(ctx, product.ID, 3, "tester"))
		require.NoError(t, tx.StockMovements().Append(ctx, &model.StockMovement{
			ProductID: product.ID,
			Kind:      model.MovementOut,
			Quantity:  7,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Stock, "aborted unit leaves no partial state")

	movements, total, err := store.StockMovements().FindAll(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, movements)
}

func TestAtomic_CommitKeepsWrites(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	product := &model.Product{Code: "P-01", Name: "Produk", Stock: 10, IsActive: true}
	require.NoError(t, store.Products().Create(ctx, product))

	err := store.Atomic(ctx, func(tx repository.Store) error {
		return tx.Products().UpdateStock(ctx, product.ID, 4, "tester")
	})
	require.NoError(t, err)

	after, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, after.Stock)
}

func TestNextCode_SequencePerDay(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	today := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	first, err := store.Transactions().NextCode(ctx, today)
	require.NoError(t, err)
	second, err := store.Transactions().NextCode(ctx, today)
	require.NoError(t, err)
	nextDay, err := store.Transactions().NextCode(ctx, tomorrow)
	require.NoError(t, err)

	assert.Equal(t, "TRX-20250310-0001", first)
	assert.Equal(t, "TRX-20250310-0002", second)
	assert.Equal(t, "TRX-20250311-0001", nextDay, "sequence resets per day")
}

func TestAtomic_CancelledContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Atomic(ctx, func(tx repository.Store) error {
		t.Fatal("unit must not run with a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
