package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories behind a single injectable handle and owns
// the atomic unit. Atomic runs fn inside one database transaction: every
// repository obtained from the Store passed to fn operates on that
// transaction, and all writes commit or roll back together. The context
// bounds the whole unit; cancellation rolls it back.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	Products() ProductRepository
	Categories() CategoryRepository
	Transactions() TransactionRepository
	StockMovements() StockMovementRepository
	Users() UserRepository
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Products() ProductRepository           { return &productRepo{db: s.db} }
func (s *gormStore) Categories() CategoryRepository        { return &categoryRepo{db: s.db} }
func (s *gormStore) Transactions() TransactionRepository   { return &transactionRepo{db: s.db} }
func (s *gormStore) StockMovements() StockMovementRepository { return &stockMovementRepo{db: s.db} }
func (s *gormStore) Users() UserRepository                 { return &userRepo{db: s.db} }
