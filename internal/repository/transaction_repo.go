package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	CashierID *uuid.UUID
	Status    model.TransactionStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// DailySales aggregates completed sales for one day.
type DailySales struct {
	Date              string `json:"date"`
	TotalTransactions int64  `json:"total_transactions"`
	TotalItems        int64  `json:"total_items"`
	TotalRevenue      int64  `json:"total_revenue"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts     int64 `json:"total_products"`
	LowStockCount     int64 `json:"low_stock_count"`
	TotalValuation    int64 `json:"total_valuation"`
	TodayTransactions int64 `json:"today_transactions"`
	TodayRevenue      int64 `json:"today_revenue"`
}

type TransactionRepository interface {
	// NextCode reserves the next sale code for the given time's day.
	// Must be called inside an atomic unit; the returned code is unique
	// across concurrent callers.
	NextCode(ctx context.Context, at time.Time) (string, error)
	Create(ctx context.Context, trx *model.Transaction) error
	CreateItem(ctx context.Context, item *model.TransactionItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// FindByIDForUpdate reads the header only, under an exclusive row lock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindItems(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, note, updatedBy string) error
	FindAll(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)

	DailySales(ctx context.Context, date time.Time) (*DailySales, error)
	SalesByRange(ctx context.Context, start, end time.Time) ([]DailySales, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) NextCode(ctx context.Context, at time.Time) (string, error) {
	day := at.Format("20060102")

	// Upsert bumps the per-day counter atomically; RETURNING hands back the
	// reserved sequence without a separate read.
	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO transaction_counters (day, value) VALUES (?, 1)
		ON CONFLICT (day) DO UPDATE SET value = transaction_counters.value + 1
		RETURNING value
	`, day).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return FormatTransactionCode(day, seq), nil
}

// FormatTransactionCode builds a sale code like TRX-20250131-0042.
func FormatTransactionCode(day string, seq int64) string {
	return fmt.Sprintf("TRX-%s-%04d", day, seq)
}

func (r *transactionRepo) Create(ctx context.Context, trx *model.Transaction) error {
	// Items are inserted per line by the engine; avoid gorm cascading them here.
	return r.db.WithContext(ctx).Omit("Items").Create(trx).Error
}

func (r *transactionRepo) CreateItem(ctx context.Context, item *model.TransactionItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var trx model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Cashier").
		First(&trx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("transaction", id)
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (r *transactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var trx model.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&trx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("transaction", id)
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (r *transactionRepo) FindItems(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error) {
	var items []model.TransactionItem
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, note, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"note":       note,
			"updated_by": updatedBy,
		}).Error
}

func (r *transactionRepo) FindAll(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{})

	if filter.CashierID != nil {
		q = q.Where("cashier_id = ?", *filter.CashierID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at < ?", filter.EndDate.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var transactions []model.Transaction
	err := q.Preload("Items").Preload("Cashier").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepo) DailySales(ctx context.Context, date time.Time) (*DailySales, error) {
	sales := DailySales{Date: date.Format("2006-01-02")}

	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			COUNT(id) as total_transactions,
			COALESCE(SUM(total_items), 0) as total_items,
			COALESCE(SUM(total_due), 0) as total_revenue
		`).
		Where("status = ? AND DATE(created_at) = ?", model.StatusCompleted, sales.Date).
		Scan(&sales).Error
	if err != nil {
		return nil, err
	}
	return &sales, nil
}

func (r *transactionRepo) SalesByRange(ctx context.Context, start, end time.Time) ([]DailySales, error) {
	var results []DailySales

	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			DATE(created_at) as date,
			COUNT(id) as total_transactions,
			COALESCE(SUM(total_items), 0) as total_items,
			COALESCE(SUM(total_due), 0) as total_revenue
		`).
		Where("status = ? AND created_at BETWEEN ? AND ?", model.StatusCompleted, start, end).
		Group("DATE(created_at)").
		Order("date DESC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day DailySales
		if err := rows.Scan(&day.Date, &day.TotalTransactions, &day.TotalItems, &day.TotalRevenue); err != nil {
			return nil, err
		}
		results = append(results, day)
	}
	return results, rows.Err()
}

func (r *transactionRepo) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Where("is_active = ?", true).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("stock <= min_stock AND is_active = ?", true).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(stock * price), 0)").
		Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	if err := db.Model(&model.Transaction{}).
		Where("status = ? AND DATE(created_at) = ?", model.StatusCompleted, today).
		Count(&stats.TodayTransactions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Transaction{}).
		Where("status = ? AND DATE(created_at) = ?", model.StatusCompleted, today).
		Select("COALESCE(SUM(total_due), 0)").
		Scan(&stats.TodayRevenue).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
