package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/repository/memory"
	"go-pos-api/internal/service"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEnv(t *testing.T) (*memory.Store, service.SaleService, service.Actor) {
	t.Helper()
	store := memory.NewStore()
	sales := service.NewSaleService(store, nil)
	actor := service.Actor{
		ID:    uuid.New(),
		Name:  "Test Cashier",
		Email: "cashier@example.com",
		Role:  model.RoleCashier,
	}
	return store, sales, actor
}

func seedProduct(t *testing.T, store *memory.Store, code, name string, price int64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Code:     code,
		Name:     name,
		Price:    price,
		Stock:    stock,
		MinStock: 5,
		Unit:     "pcs",
		IsActive: true,
	}
	require.NoError(t, store.Products().Create(context.Background(), product))
	return product
}

func saleLine(product *model.Product, quantity int) service.SaleItemRequest {
	return service.SaleItemRequest{
		ProductID: product.ID,
		UnitPrice: product.Price,
		Quantity:  quantity,
		Subtotal:  product.Price * int64(quantity),
	}
}

func movementsFor(t *testing.T, store *memory.Store, productID uuid.UUID) []model.StockMovement {
	t.Helper()
	movements, _, err := store.StockMovements().FindAll(context.Background(), repository.MovementFilter{
		ProductID: &productID,
		Limit:     100,
	})
	require.NoError(t, err)
	return movements
}

// =============================================================================
// SALE CREATION
// =============================================================================

func TestSale_Create_ComputesChange(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()

	coffee := seedProduct(t, store, "KOPI-01", "Kopi Susu", 15000, 10)
	bread := seedProduct(t, store, "ROTI-01", "Roti Bakar", 8000, 5)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(coffee, 2), saleLine(bread, 1)},
		CashReceived: 50000,
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, int64(38000), trx.Subtotal)
	assert.Equal(t, int64(38000), trx.TotalDue)
	assert.Equal(t, int64(12000), trx.ChangeDue)
	assert.Equal(t, 3, trx.TotalItems)
	assert.Equal(t, model.StatusCompleted, trx.Status)
	assert.Equal(t, "cash", trx.PaymentMethod)
	assert.Equal(t, actor.ID, trx.CashierID, "cashier defaults to acting user")

	coffeeAfter, err := store.Products().FindByID(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, coffeeAfter.Stock)

	breadAfter, err := store.Products().FindByID(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, breadAfter.Stock)
}

func TestSale_Create_ExactPayment_ZeroChange(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	product := seedProduct(t, store, "P-01", "Produk", 10000, 3)

	trx, err := sales.Create(context.Background(), &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 2)},
		CashReceived: 20000,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), trx.ChangeDue)
}

func TestSale_Create_InsufficientPayment(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 10000, 5)

	_, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 3)},
		CashReceived: 25000,
	}, actor)

	require.Error(t, err)
	var payErr *apperr.InsufficientPaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, int64(5000), payErr.Shortfall)

	// Rejected before any write: stock untouched, no ledger entries
	after, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock)
	assert.Empty(t, movementsFor(t, store, product.ID))
}

func TestSale_Create_UnknownProduct_RollsBack(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	known := seedProduct(t, store, "P-01", "Produk", 10000, 5)

	_, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items: []service.SaleItemRequest{
			saleLine(known, 2),
			{ProductID: uuid.New(), UnitPrice: 5000, Quantity: 1, Subtotal: 5000},
		},
		CashReceived: 100000,
	}, actor)

	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	// First line already decremented inside the unit; rollback must undo it
	after, err := store.Products().FindByID(ctx, known.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock)
	assert.Empty(t, movementsFor(t, store, known.ID))

	transactions, total, err := store.Transactions().FindAll(ctx, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, transactions)
}

func TestSale_Create_InsufficientStock_MidList_RollsBack(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	plenty := seedProduct(t, store, "P-01", "Banyak", 1000, 100)
	scarce := seedProduct(t, store, "P-02", "Langka", 2000, 2)

	_, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items: []service.SaleItemRequest{
			saleLine(plenty, 10),
			saleLine(scarce, 3), // only 2 available
		},
		CashReceived: 1000000,
	}, actor)

	require.Error(t, err)
	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	plentyAfter, err := store.Products().FindByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, plentyAfter.Stock, "earlier lines must be rolled back")

	scarceAfter, err := store.Products().FindByID(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, scarceAfter.Stock)
}

func TestSale_Create_WritesLedgerEntries(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 10000, 8)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 3)},
		CashReceived: 30000,
	}, actor)
	require.NoError(t, err)

	movements := movementsFor(t, store, product.ID)
	require.Len(t, movements, 1)
	mv := movements[0]
	assert.Equal(t, model.MovementOut, mv.Kind)
	assert.Equal(t, 3, mv.Quantity)
	assert.Equal(t, 8, mv.StockBefore)
	assert.Equal(t, 5, mv.StockAfter)
	assert.Equal(t, trx.Code, mv.Reference)
	assert.Equal(t, actor.ID, mv.UserID)
}

func TestSale_Create_SnapshotsProductFields(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-OLD", "Nama Lama", 10000, 5)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 1)},
		CashReceived: 10000,
	}, actor)
	require.NoError(t, err)

	// Rename the product after the sale
	stored, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	stored.Code = "P-NEW"
	stored.Name = "Nama Baru"
	require.NoError(t, store.Products().Update(ctx, stored))

	reloaded, err := sales.GetByID(ctx, trx.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "P-OLD", reloaded.Items[0].ProductCode, "line keeps the snapshot")
	assert.Equal(t, "Nama Lama", reloaded.Items[0].ProductName)
	assert.Equal(t, int64(10000), reloaded.Items[0].UnitPrice)
}

func TestSale_Create_CodeSequencePerDay(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 1000, 100)

	day := time.Now().Format("20060102")
	first, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 1)},
		CashReceived: 1000,
	}, actor)
	require.NoError(t, err)
	second, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 1)},
		CashReceived: 1000,
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, repository.FormatTransactionCode(day, 1), first.Code)
	assert.Equal(t, repository.FormatTransactionCode(day, 2), second.Code)
}

func TestSale_Create_EmptyItems_Rejected(t *testing.T) {
	_, sales, actor := newTestEnv(t)

	_, err := sales.Create(context.Background(), &service.CreateSaleRequest{
		Items:        nil,
		CashReceived: 1000,
	}, actor)

	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestSale_Create_ConcurrentLastUnit(t *testing.T) {
	// Two cashiers race for the last unit; exactly one sale may win.
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Terakhir", 5000, 1)

	req := func() *service.CreateSaleRequest {
		return &service.CreateSaleRequest{
			Items:        []service.SaleItemRequest{saleLine(product, 1)},
			CashReceived: 5000,
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sales.Create(ctx, req(), actor)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperr.IsInsufficientStock(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	after, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Stock)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestSale_Cancel_RestoresStock(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	coffee := seedProduct(t, store, "KOPI-01", "Kopi", 15000, 10)
	bread := seedProduct(t, store, "ROTI-01", "Roti", 8000, 6)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(coffee, 4), saleLine(bread, 2)},
		CashReceived: 100000,
	}, actor)
	require.NoError(t, err)

	err = sales.Cancel(ctx, trx.ID, &service.CancelSaleRequest{Reason: "customer walked out"}, actor)
	require.NoError(t, err)

	coffeeAfter, err := store.Products().FindByID(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, coffeeAfter.Stock)

	breadAfter, err := store.Products().FindByID(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, breadAfter.Stock)

	cancelled, err := sales.GetByID(ctx, trx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// The ledger records both directions; it is never rewritten
	movements := movementsFor(t, store, coffee.ID)
	require.Len(t, movements, 2)
	net := 0
	for _, mv := range movements {
		if mv.Kind == model.MovementIn {
			net += mv.Quantity
		} else {
			net -= mv.Quantity
		}
		assert.Equal(t, trx.Code, mv.Reference)
	}
	assert.Zero(t, net, "in and out entries cancel out")
}

func TestSale_Cancel_Twice_InvalidState(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 1000, 10)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 2)},
		CashReceived: 2000,
	}, actor)
	require.NoError(t, err)

	require.NoError(t, sales.Cancel(ctx, trx.ID, &service.CancelSaleRequest{Reason: "first"}, actor))

	err = sales.Cancel(ctx, trx.ID, &service.CancelSaleRequest{Reason: "second"}, actor)
	require.Error(t, err)
	var stateErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, string(model.StatusCancelled), stateErr.Current)

	// No double restock
	after, err := store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Stock)
}

func TestSale_Cancel_UnknownTransaction(t *testing.T) {
	_, sales, actor := newTestEnv(t)

	err := sales.Cancel(context.Background(), uuid.New(), &service.CancelSaleRequest{Reason: "typo"}, actor)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSale_Cancel_DeletedProductSkipped(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	kept := seedProduct(t, store, "P-01", "Masih Ada", 1000, 10)
	doomed := seedProduct(t, store, "P-02", "Sudah Dihapus", 2000, 10)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(kept, 2), saleLine(doomed, 3)},
		CashReceived: 10000,
	}, actor)
	require.NoError(t, err)

	// Soft-delete the second product between sale and cancellation
	stored, err := store.Products().FindByID(ctx, doomed.ID)
	require.NoError(t, err)
	stored.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	require.NoError(t, store.Products().Update(ctx, stored))

	err = sales.Cancel(ctx, trx.ID, &service.CancelSaleRequest{Reason: "refund"}, actor)
	require.NoError(t, err, "missing product must not abort the cancellation")

	keptAfter, err := store.Products().FindByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, keptAfter.Stock, "surviving product is restocked")

	cancelled, err := sales.GetByID(ctx, trx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// No restock ledger entry for the deleted product
	for _, mv := range movementsFor(t, store, doomed.ID) {
		assert.Equal(t, model.MovementOut, mv.Kind)
	}
}

func TestSale_Cancel_MissingReason_Rejected(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 1000, 5)

	trx, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 1)},
		CashReceived: 1000,
	}, actor)
	require.NoError(t, err)

	err = sales.Cancel(ctx, trx.ID, &service.CancelSaleRequest{}, actor)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	unchanged, err := sales.GetByID(ctx, trx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, unchanged.Status)
}
