package service

import (
	"context"
	"fmt"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/ws"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StockAdjustment reports the stock counter around a manual correction.
type StockAdjustment struct {
	PreviousStock int `json:"previous_stock"`
	NewStock      int `json:"new_stock"`
}

type ProductService interface {
	Create(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*model.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor Actor) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, req *AdjustStockRequest, actor Actor) (*StockAdjustment, error)
}

type productService struct {
	store repository.Store
	hub   *ws.Hub
}

func NewProductService(store repository.Store, hub *ws.Hub) ProductService {
	return &productService{store: store, hub: hub}
}

func (s *productService) Create(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Cek duplikasi kode barang
	if existing, _ := s.store.Products().FindByCode(ctx, req.Code); existing != nil {
		return nil, &apperr.ConflictError{Message: "product code already exists"}
	}

	if req.CategoryID != nil {
		if _, err := s.store.Categories().FindByID(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	minStock := req.MinStock
	if minStock == 0 {
		minStock = 5
	}

	product := &model.Product{
		Code:       req.Code,
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Price:      req.Price,
		Stock:      req.Stock,
		MinStock:   minStock,
		Unit:       unit,
		IsActive:   true,
	}
	product.CreatedBy = actor.ID.String()
	product.UpdatedBy = actor.ID.String()

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*model.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Kode baru harus tetap unik
	if req.Code != nil && *req.Code != product.Code {
		if other, _ := s.store.Products().FindByCode(ctx, *req.Code); other != nil && other.ID != product.ID {
			return nil, &apperr.ConflictError{Message: "product code already used by another product"}
		}
		product.Code = *req.Code
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.CategoryID != nil {
		if _, err := s.store.Categories().FindByID(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = req.CategoryID
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.MinStock != nil {
		product.MinStock = *req.MinStock
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedBy = actor.ID.String()
	product.Category = nil

	if err := s.store.Products().Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID, actor Actor) error {
	return s.store.Products().Deactivate(ctx, id, actor.ID.String())
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.store.Products().FindByID(ctx, id)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.store.Products().FindAll(ctx, filter)
}

func (s *productService) LowStock(ctx context.Context) ([]model.Product, error) {
	return s.store.Products().FindLowStock(ctx)
}

// AdjustStock applies a manual correction: lock the row, move the counter,
// append one ledger entry. Both writes share one atomic unit.
func (s *productService) AdjustStock(ctx context.Context, productID uuid.UUID, req *AdjustStockRequest, actor Actor) (*StockAdjustment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var result *StockAdjustment
	var event ws.StockUpdateEvent

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		product, err := tx.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		newStock := product.Stock + req.Delta
		if newStock < 0 {
			return &apperr.NegativeStockError{
				ProductID: product.ID,
				Current:   product.Stock,
				Delta:     req.Delta,
			}
		}

		if err := tx.Products().UpdateStock(ctx, product.ID, newStock, actor.ID.String()); err != nil {
			return err
		}

		kind := model.MovementIn
		quantity := req.Delta
		if req.Delta < 0 {
			kind = model.MovementOut
			quantity = -req.Delta
		}

		movement := &model.StockMovement{
			ProductID:   product.ID,
			Kind:        kind,
			Quantity:    quantity,
			StockBefore: product.Stock,
			StockAfter:  newStock,
			Note:        req.Note,
			UserID:      actor.ID,
		}
		if err := tx.StockMovements().Append(ctx, movement); err != nil {
			return err
		}

		result = &StockAdjustment{PreviousStock: product.Stock, NewStock: newStock}
		event = ws.StockUpdateEvent{
			Action:      "adjustment",
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			OldStock:    product.Stock,
			NewStock:    newStock,
			ActorName:   actor.Name,
			Message:     fmt.Sprintf("%s adjusted stock of %s by %+d", actor.Name, product.Name, req.Delta),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastStockUpdate(event)
	}

	log.Info().
		Str("product_id", productID.String()).
		Int("delta", req.Delta).
		Int("new_stock", result.NewStock).
		Msg("stock adjusted")
	return result, nil
}
