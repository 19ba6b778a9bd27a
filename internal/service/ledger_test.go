package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-api/internal/model"
	"go-pos-api/internal/service"
)

// The ledger must always reconcile with the stock counter: starting stock plus
// all 'in' quantities minus all 'out' quantities equals current stock, and
// every entry's before/after pair is internally consistent.
func TestLedger_ConservationOverMixedOperations(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	products := service.NewProductService(store, nil)
	ctx := context.Background()

	const initialStock = 50
	product := seedProduct(t, store, "P-01", "Produk", 1000, initialStock)

	// restock, two sales, a failed oversell, a cancellation, a shrinkage write-off
	_, err := products.AdjustStock(ctx, product.ID, &service.AdjustStockRequest{Delta: 30, Note: "restock"}, actor)
	require.NoError(t, err)

	first, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 12)},
		CashReceived: 12000,
	}, actor)
	require.NoError(t, err)

	_, err = sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 7)},
		CashReceived: 7000,
	}, actor)
	require.NoError(t, err)

	_, err = sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 1000)},
		CashReceived: 1000000,
	}, actor)
	require.Error(t, err, "oversell must fail and leave no ledger trace")

	require.NoError(t, sales.Cancel(ctx, first.ID, &service.CancelSaleRequest{Reason: "refund"}, actor))

	_, err = products.AdjustStock(ctx, product.ID, &service.AdjustStockRequest{Delta: -3, Note: "rusak"}, actor)
	require.NoError(t, err)

	current, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)

	movements := movementsFor(t, store, product.ID)
	net := 0
	for _, mv := range movements {
		require.Positive(t, mv.Quantity, "quantities are stored positive")
		switch mv.Kind {
		case model.MovementIn:
			require.Equal(t, mv.StockBefore+mv.Quantity, mv.StockAfter)
			net += mv.Quantity
		case model.MovementOut:
			require.Equal(t, mv.StockBefore-mv.Quantity, mv.StockAfter)
			net -= mv.Quantity
		default:
			t.Fatalf("unexpected movement kind %q", mv.Kind)
		}
	}

	assert.Equal(t, initialStock+net, current.Stock, "ledger reconciles with the stock counter")
	// restock + sale + sale + cancel restock + write-off
	assert.Len(t, movements, 5)
}
