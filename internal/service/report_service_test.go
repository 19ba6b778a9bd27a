package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-api/internal/service"
)

func TestReport_DailySales_ExcludesCancelled(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	reports := service.NewReportService(store)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 10000, 100)

	_, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 2)},
		CashReceived: 20000,
	}, actor)
	require.NoError(t, err)

	doomed, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 5)},
		CashReceived: 50000,
	}, actor)
	require.NoError(t, err)
	require.NoError(t, sales.Cancel(ctx, doomed.ID, &service.CancelSaleRequest{Reason: "void"}, actor))

	report, err := reports.DailySales(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.TotalTransactions)
	assert.Equal(t, int64(2), report.TotalItems)
	assert.Equal(t, int64(20000), report.TotalRevenue)
}

func TestReport_DashboardStats(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	reports := service.NewReportService(store)
	ctx := context.Background()

	seedProduct(t, store, "P-01", "Menipis", 1000, 2) // below min_stock 5
	rich := seedProduct(t, store, "P-02", "Mahal", 50000, 10)

	_, err := sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(rich, 1)},
		CashReceived: 50000,
	}, actor)
	require.NoError(t, err)

	stats, err := reports.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	// 2*1000 + 9*50000 after the sale
	assert.Equal(t, int64(452000), stats.TotalValuation)
	assert.Equal(t, int64(1), stats.TodayTransactions)
	assert.Equal(t, int64(50000), stats.TodayRevenue)
}

func TestReport_StockFlow(t *testing.T) {
	store, sales, actor := newTestEnv(t)
	reports := service.NewReportService(store)
	products := service.NewProductService(store, nil)
	ctx := context.Background()
	product := seedProduct(t, store, "P-01", "Produk", 1000, 10)

	_, err := products.AdjustStock(ctx, product.ID, &service.AdjustStockRequest{Delta: 20, Note: "restock"}, actor)
	require.NoError(t, err)

	_, err = sales.Create(ctx, &service.CreateSaleRequest{
		Items:        []service.SaleItemRequest{saleLine(product, 3)},
		CashReceived: 3000,
	}, actor)
	require.NoError(t, err)

	flow, err := reports.StockFlow(ctx, 7)
	require.NoError(t, err)
	require.Len(t, flow, 1)
	assert.Equal(t, 20, flow[0].Inbound)
	assert.Equal(t, 3, flow[0].Outbound)
}
