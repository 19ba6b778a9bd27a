package repository

import (
	"context"
	"time"

	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	ProductID *uuid.UUID
	Kind      model.MovementKind
	Reference string
	Page      int
	Limit     int
}

// StockFlowData is one day's aggregate in/out quantities, for chart data.
type StockFlowData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// StockMovementRepository is append-only: entries are never updated or
// deleted once written.
type StockMovementRepository interface {
	Append(ctx context.Context, movement *model.StockMovement) error
	FindAll(ctx context.Context, filter MovementFilter) ([]model.StockMovement, int64, error)
	DailyFlow(ctx context.Context, start, end time.Time) ([]StockFlowData, error)
}

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) Append(ctx context.Context, movement *model.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *stockMovementRepo) FindAll(ctx context.Context, filter MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})

	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Reference != "" {
		q = q.Where("reference = ?", filter.Reference)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var movements []model.StockMovement
	err := q.Preload("Product").Preload("User").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) DailyFlow(ctx context.Context, start, end time.Time) ([]StockFlowData, error) {
	var results []StockFlowData

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN kind = 'in' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN kind = 'out' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", start, end).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockFlowData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
