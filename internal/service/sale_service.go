package service

import (
	"context"
	"fmt"
	"time"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/ws"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SaleService is the transaction engine: checkout creation and cancellation.
// Both operations run inside a single atomic unit with every touched product
// row locked, so a failure at any point leaves no partial state.
type SaleService interface {
	Create(ctx context.Context, req *CreateSaleRequest, actor Actor) (*model.Transaction, error)
	Cancel(ctx context.Context, transactionID uuid.UUID, req *CancelSaleRequest, actor Actor) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error)
}

type saleService struct {
	store repository.Store
	hub   *ws.Hub
}

func NewSaleService(store repository.Store, hub *ws.Hub) SaleService {
	return &saleService{store: store, hub: hub}
}

func (s *saleService) Create(ctx context.Context, req *CreateSaleRequest, actor Actor) (*model.Transaction, error) {
	// 1. Validasi input
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cashierID := req.CashierID
	if cashierID == uuid.Nil {
		cashierID = actor.ID
	}

	// 2. Hitung total dari item yang dikirim kasir.
	// Harga satuan dan subtotal dipercaya dari caller (price override).
	totalItems := 0
	var subtotal int64
	for _, item := range req.Items {
		totalItems += item.Quantity
		subtotal += item.Subtotal
	}

	change := req.CashReceived - subtotal
	if change < 0 {
		return nil, &apperr.InsufficientPaymentError{Shortfall: -change}
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	var created *model.Transaction
	var events []ws.StockUpdateEvent

	// 3. Gunakan Transaction Block (Atomic Operation)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		code, err := tx.Transactions().NextCode(ctx, time.Now())
		if err != nil {
			return err
		}

		trx := &model.Transaction{
			Code:          code,
			CashierID:     cashierID,
			TotalItems:    totalItems,
			Subtotal:      subtotal,
			TotalDue:      subtotal,
			CashReceived:  req.CashReceived,
			ChangeDue:     change,
			PaymentMethod: method,
			Status:        model.StatusCompleted,
			Note:          req.Note,
		}
		trx.CreatedBy = actor.ID.String()
		trx.UpdatedBy = actor.ID.String()
		if err := tx.Transactions().Create(ctx, trx); err != nil {
			return err
		}

		// 4. Proses setiap item sesuai urutan input
		for _, line := range req.Items {
			// Lock product row (Pessimistic Locking)
			product, err := tx.Products().FindByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}

			if product.Stock < line.Quantity {
				return &apperr.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   product.Stock,
				}
			}

			// Snapshot kode/nama/harga agar item tetap utuh walau produk berubah
			item := &model.TransactionItem{
				TransactionID: trx.ID,
				ProductID:     product.ID,
				ProductCode:   product.Code,
				ProductName:   product.Name,
				UnitPrice:     line.UnitPrice,
				Quantity:      line.Quantity,
				Subtotal:      line.Subtotal,
			}
			if err := tx.Transactions().CreateItem(ctx, item); err != nil {
				return err
			}

			newStock := product.Stock - line.Quantity
			if err := tx.Products().UpdateStock(ctx, product.ID, newStock, actor.ID.String()); err != nil {
				return err
			}

			movement := &model.StockMovement{
				ProductID:   product.ID,
				Kind:        model.MovementOut,
				Quantity:    line.Quantity,
				StockBefore: product.Stock,
				StockAfter:  newStock,
				Reference:   code,
				Note:        "sale",
				UserID:      cashierID,
			}
			if err := tx.StockMovements().Append(ctx, movement); err != nil {
				return err
			}

			events = append(events, ws.StockUpdateEvent{
				Action:      "sale",
				ProductID:   product.ID,
				ProductCode: product.Code,
				ProductName: product.Name,
				OldStock:    product.Stock,
				NewStock:    newStock,
				Reference:   code,
				ActorName:   actor.Name,
				Message:     fmt.Sprintf("%s sold %d x %s", actor.Name, line.Quantity, product.Name),
			})
		}

		created = trx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events)

	log.Info().
		Str("code", created.Code).
		Int("items", totalItems).
		Int64("total", subtotal).
		Int64("change", change).
		Msg("sale completed")

	// 5. Baca ulang transaksi lengkap dengan item + kasir
	return s.store.Transactions().FindByID(ctx, created.ID)
}

func (s *saleService) Cancel(ctx context.Context, transactionID uuid.UUID, req *CancelSaleRequest, actor Actor) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	var code string
	var events []ws.StockUpdateEvent

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		// Lock transaction row dulu supaya dua pembatalan tidak saling balapan
		trx, err := tx.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		if trx.Status != model.StatusCompleted {
			return &apperr.InvalidStateError{
				Current:  string(trx.Status),
				Expected: string(model.StatusCompleted),
			}
		}
		code = trx.Code

		items, err := tx.Transactions().FindItems(ctx, trx.ID)
		if err != nil {
			return err
		}

		note := "cancelled: " + req.Reason
		for _, item := range items {
			product, err := tx.Products().FindByIDForUpdate(ctx, item.ProductID)
			if err != nil {
				// Produk sudah dihapus sejak penjualan: lewati restock
				if apperr.IsNotFound(err) {
					continue
				}
				return err
			}

			newStock := product.Stock + item.Quantity
			if err := tx.Products().UpdateStock(ctx, product.ID, newStock, actor.ID.String()); err != nil {
				return err
			}

			movement := &model.StockMovement{
				ProductID:   product.ID,
				Kind:        model.MovementIn,
				Quantity:    item.Quantity,
				StockBefore: product.Stock,
				StockAfter:  newStock,
				Reference:   trx.Code,
				Note:        note,
				UserID:      actor.ID,
			}
			if err := tx.StockMovements().Append(ctx, movement); err != nil {
				return err
			}

			events = append(events, ws.StockUpdateEvent{
				Action:      "cancellation",
				ProductID:   product.ID,
				ProductCode: product.Code,
				ProductName: product.Name,
				OldStock:    product.Stock,
				NewStock:    newStock,
				Reference:   trx.Code,
				ActorName:   actor.Name,
				Message:     fmt.Sprintf("%s cancelled sale %s, restocked %d x %s", actor.Name, trx.Code, item.Quantity, product.Name),
			})
		}

		return tx.Transactions().UpdateStatus(ctx, trx.ID, model.StatusCancelled, req.Reason, actor.ID.String())
	})
	if err != nil {
		return err
	}

	s.publish(events)

	log.Info().
		Str("code", code).
		Str("reason", req.Reason).
		Msg("sale cancelled")
	return nil
}

func (s *saleService) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return s.store.Transactions().FindByID(ctx, id)
}

func (s *saleService) List(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error) {
	return s.store.Transactions().FindAll(ctx, filter)
}

func (s *saleService) publish(events []ws.StockUpdateEvent) {
	if s.hub == nil {
		return
	}
	for _, event := range events {
		s.hub.BroadcastStockUpdate(event)
	}
}
