package service

import (
	"context"
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
)

type ReportService interface {
	DailySales(ctx context.Context, date time.Time) (*repository.DailySales, error)
	SalesByRange(ctx context.Context, start, end time.Time) ([]repository.DailySales, error)
	DashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	StockFlow(ctx context.Context, days int) ([]repository.StockFlowData, error)
	Movements(ctx context.Context, filter repository.MovementFilter) ([]model.StockMovement, int64, error)
}

type reportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) ReportService {
	return &reportService{store: store}
}

func (s *reportService) DailySales(ctx context.Context, date time.Time) (*repository.DailySales, error) {
	return s.store.Transactions().DailySales(ctx, date)
}

func (s *reportService) SalesByRange(ctx context.Context, start, end time.Time) ([]repository.DailySales, error) {
	return s.store.Transactions().SalesByRange(ctx, start, end)
}

func (s *reportService) DashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.store.Transactions().DashboardStats(ctx)
}

func (s *reportService) StockFlow(ctx context.Context, days int) ([]repository.StockFlowData, error) {
	if days < 1 {
		days = 7
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return s.store.StockMovements().DailyFlow(ctx, start, end)
}

func (s *reportService) Movements(ctx context.Context, filter repository.MovementFilter) ([]model.StockMovement, int64, error) {
	return s.store.StockMovements().FindAll(ctx, filter)
}
