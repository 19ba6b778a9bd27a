// Package memory provides an in-memory Store implementation (for testing/dev).
// A single mutex serializes atomic units; rollback is a snapshot restore, so
// an aborted unit leaves no partial state, matching the Postgres store's
// transaction semantics.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	products     map[uuid.UUID]model.Product
	categories   map[uuid.UUID]model.Category
	users        map[uuid.UUID]model.User
	transactions map[uuid.UUID]model.Transaction
	items        []model.TransactionItem
	movements    []model.StockMovement
	counters     map[string]int64
}

func newState() *state {
	return &state{
		products:     make(map[uuid.UUID]model.Product),
		categories:   make(map[uuid.UUID]model.Category),
		users:        make(map[uuid.UUID]model.User),
		transactions: make(map[uuid.UUID]model.Transaction),
		counters:     make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	c.items = append([]model.TransactionItem(nil), s.items...)
	c.movements = append([]model.StockMovement(nil), s.movements...)
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

// Atomic takes the store lock for the whole unit. On error the pre-unit
// snapshot is restored, discarding every write fn made.
func (m *Store) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := m.st.clone()
	tx := &Store{mu: m.mu, st: m.st, inTx: true}
	if err := fn(tx); err != nil {
		*m.st = *snapshot
		return err
	}
	return nil
}

func (m *Store) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Store) Products() repository.ProductRepository           { return &productRepo{m} }
func (m *Store) Categories() repository.CategoryRepository        { return &categoryRepo{m} }
func (m *Store) Transactions() repository.TransactionRepository   { return &transactionRepo{m} }
func (m *Store) StockMovements() repository.StockMovementRepository { return &movementRepo{m} }
func (m *Store) Users() repository.UserRepository                 { return &userRepo{m} }

func paginate(page, limit, length int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > length {
		start = length
	}
	end := start + limit
	if end > length {
		end = length
	}
	return start, end
}

// ---------------------------------------------------------------------------
// Products

type productRepo struct{ m *Store }

func (r *productRepo) Create(_ context.Context, product *model.Product) error {
	defer r.m.lock()()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.m.st.products[product.ID] = *product
	return nil
}

func (r *productRepo) Update(_ context.Context, product *model.Product) error {
	defer r.m.lock()()
	product.UpdatedAt = time.Now()
	r.m.st.products[product.ID] = *product
	return nil
}

func (r *productRepo) UpdateStock(_ context.Context, id uuid.UUID, newStock int, updatedBy string) error {
	defer r.m.lock()()
	p, ok := r.m.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return apperr.NewNotFound("product", id)
	}
	p.Stock = newStock
	p.UpdatedBy = updatedBy
	p.UpdatedAt = time.Now()
	r.m.st.products[id] = p
	return nil
}

func (r *productRepo) Deactivate(_ context.Context, id uuid.UUID, updatedBy string) error {
	defer r.m.lock()()
	p, ok := r.m.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return apperr.NewNotFound("product", id)
	}
	p.IsActive = false
	p.UpdatedBy = updatedBy
	p.UpdatedAt = time.Now()
	r.m.st.products[id] = p
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	defer r.m.lock()()
	return r.find(id)
}

func (r *productRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Product, error) {
	// The store mutex already serializes mutation; a row lock is implicit.
	defer r.m.lock()()
	return r.find(id)
}

func (r *productRepo) find(id uuid.UUID) (*model.Product, error) {
	p, ok := r.m.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, apperr.NewNotFound("product", id)
	}
	return &p, nil
}

func (r *productRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	defer r.m.lock()()
	for _, p := range r.m.st.products {
		if p.Code == code && !p.DeletedAt.Valid {
			prod := p
			return &prod, nil
		}
	}
	return nil, &apperr.NotFoundError{Resource: "product", ID: code}
}

func (r *productRepo) FindAll(_ context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	defer r.m.lock()()
	var matched []model.Product
	for _, p := range r.m.st.products {
		if p.DeletedAt.Valid {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !containsFold(p.Name, filter.Search) && !containsFold(p.Code, filter.Search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start, end := paginate(filter.Page, filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *productRepo) FindLowStock(_ context.Context) ([]model.Product, error) {
	defer r.m.lock()()
	var matched []model.Product
	for _, p := range r.m.st.products {
		if p.DeletedAt.Valid || !p.IsActive {
			continue
		}
		if p.Stock <= p.MinStock {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Stock < matched[j].Stock })
	return matched, nil
}

// ---------------------------------------------------------------------------
// Categories

type categoryRepo struct{ m *Store }

func (r *categoryRepo) Create(_ context.Context, category *model.Category) error {
	defer r.m.lock()()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	r.m.st.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Update(_ context.Context, category *model.Category) error {
	defer r.m.lock()()
	category.UpdatedAt = time.Now()
	r.m.st.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.m.lock()()
	c, ok := r.m.st.categories[id]
	if !ok || c.DeletedAt.Valid {
		return apperr.NewNotFound("category", id)
	}
	c.DeletedAt.Time = time.Now()
	c.DeletedAt.Valid = true
	r.m.st.categories[id] = c
	return nil
}

func (r *categoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	defer r.m.lock()()
	c, ok := r.m.st.categories[id]
	if !ok || c.DeletedAt.Valid {
		return nil, apperr.NewNotFound("category", id)
	}
	return &c, nil
}

func (r *categoryRepo) FindByName(_ context.Context, name string) (*model.Category, error) {
	defer r.m.lock()()
	for _, c := range r.m.st.categories {
		if c.Name == name && !c.DeletedAt.Valid {
			cat := c
			return &cat, nil
		}
	}
	return nil, &apperr.NotFoundError{Resource: "category", ID: name}
}

func (r *categoryRepo) FindAll(_ context.Context) ([]model.Category, error) {
	defer r.m.lock()()
	var all []model.Category
	for _, c := range r.m.st.categories {
		if !c.DeletedAt.Valid {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// ---------------------------------------------------------------------------
// Transactions

type transactionRepo struct{ m *Store }

func (r *transactionRepo) NextCode(_ context.Context, at time.Time) (string, error) {
	defer r.m.lock()()
	day := at.Format("20060102")
	r.m.st.counters[day]++
	return repository.FormatTransactionCode(day, r.m.st.counters[day]), nil
}

func (r *transactionRepo) Create(_ context.Context, trx *model.Transaction) error {
	defer r.m.lock()()
	if trx.ID == uuid.Nil {
		trx.ID = uuid.New()
	}
	now := time.Now()
	trx.CreatedAt = now
	trx.UpdatedAt = now
	stored := *trx
	stored.Items = nil
	r.m.st.transactions[trx.ID] = stored
	return nil
}

func (r *transactionRepo) CreateItem(_ context.Context, item *model.TransactionItem) error {
	defer r.m.lock()()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	r.m.st.items = append(r.m.st.items, *item)
	return nil
}

func (r *transactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	defer r.m.lock()()
	trx, ok := r.m.st.transactions[id]
	if !ok {
		return nil, apperr.NewNotFound("transaction", id)
	}
	trx.Items = r.itemsOf(id)
	if cashier, ok := r.m.st.users[trx.CashierID]; ok {
		trx.Cashier = &cashier
	}
	return &trx, nil
}

func (r *transactionRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	defer r.m.lock()()
	trx, ok := r.m.st.transactions[id]
	if !ok {
		return nil, apperr.NewNotFound("transaction", id)
	}
	return &trx, nil
}

func (r *transactionRepo) FindItems(_ context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error) {
	defer r.m.lock()()
	return r.itemsOf(transactionID), nil
}

func (r *transactionRepo) itemsOf(transactionID uuid.UUID) []model.TransactionItem {
	var items []model.TransactionItem
	for _, item := range r.m.st.items {
		if item.TransactionID == transactionID {
			items = append(items, item)
		}
	}
	return items
}

func (r *transactionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.TransactionStatus, note, updatedBy string) error {
	defer r.m.lock()()
	trx, ok := r.m.st.transactions[id]
	if !ok {
		return apperr.NewNotFound("transaction", id)
	}
	trx.Status = status
	trx.Note = note
	trx.UpdatedBy = updatedBy
	trx.UpdatedAt = time.Now()
	r.m.st.transactions[id] = trx
	return nil
}

func (r *transactionRepo) FindAll(_ context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error) {
	defer r.m.lock()()
	var matched []model.Transaction
	for _, trx := range r.m.st.transactions {
		if filter.CashierID != nil && trx.CashierID != *filter.CashierID {
			continue
		}
		if filter.Status != "" && trx.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && trx.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !trx.CreatedAt.Before(filter.EndDate.AddDate(0, 0, 1)) {
			continue
		}
		trx.Items = r.itemsOf(trx.ID)
		matched = append(matched, trx)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start, end := paginate(filter.Page, filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *transactionRepo) DailySales(_ context.Context, date time.Time) (*repository.DailySales, error) {
	defer r.m.lock()()
	day := date.Format("2006-01-02")
	sales := repository.DailySales{Date: day}
	for _, trx := range r.m.st.transactions {
		if trx.Status != model.StatusCompleted || trx.CreatedAt.Format("2006-01-02") != day {
			continue
		}
		sales.TotalTransactions++
		sales.TotalItems += int64(trx.TotalItems)
		sales.TotalRevenue += trx.TotalDue
	}
	return &sales, nil
}

func (r *transactionRepo) SalesByRange(_ context.Context, start, end time.Time) ([]repository.DailySales, error) {
	defer r.m.lock()()
	byDay := make(map[string]*repository.DailySales)
	for _, trx := range r.m.st.transactions {
		if trx.Status != model.StatusCompleted || trx.CreatedAt.Before(start) || trx.CreatedAt.After(end) {
			continue
		}
		day := trx.CreatedAt.Format("2006-01-02")
		sales, ok := byDay[day]
		if !ok {
			sales = &repository.DailySales{Date: day}
			byDay[day] = sales
		}
		sales.TotalTransactions++
		sales.TotalItems += int64(trx.TotalItems)
		sales.TotalRevenue += trx.TotalDue
	}
	var results []repository.DailySales
	for _, sales := range byDay {
		results = append(results, *sales)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date > results[j].Date })
	return results, nil
}

func (r *transactionRepo) DashboardStats(_ context.Context) (*repository.DashboardStats, error) {
	defer r.m.lock()()
	var stats repository.DashboardStats
	for _, p := range r.m.st.products {
		if p.DeletedAt.Valid || !p.IsActive {
			continue
		}
		stats.TotalProducts++
		stats.TotalValuation += int64(p.Stock) * p.Price
		if p.Stock <= p.MinStock {
			stats.LowStockCount++
		}
	}
	today := time.Now().Format("2006-01-02")
	for _, trx := range r.m.st.transactions {
		if trx.Status == model.StatusCompleted && trx.CreatedAt.Format("2006-01-02") == today {
			stats.TodayTransactions++
			stats.TodayRevenue += trx.TotalDue
		}
	}
	return &stats, nil
}

// ---------------------------------------------------------------------------
// Stock movements (append-only)

type movementRepo struct{ m *Store }

func (r *movementRepo) Append(_ context.Context, movement *model.StockMovement) error {
	defer r.m.lock()()
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = time.Now()
	r.m.st.movements = append(r.m.st.movements, *movement)
	return nil
}

func (r *movementRepo) FindAll(_ context.Context, filter repository.MovementFilter) ([]model.StockMovement, int64, error) {
	defer r.m.lock()()
	var matched []model.StockMovement
	for _, mv := range r.m.st.movements {
		if filter.ProductID != nil && mv.ProductID != *filter.ProductID {
			continue
		}
		if filter.Kind != "" && mv.Kind != filter.Kind {
			continue
		}
		if filter.Reference != "" && mv.Reference != filter.Reference {
			continue
		}
		matched = append(matched, mv)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start, end := paginate(filter.Page, filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *movementRepo) DailyFlow(_ context.Context, start, end time.Time) ([]repository.StockFlowData, error) {
	defer r.m.lock()()
	byDay := make(map[string]*repository.StockFlowData)
	for _, mv := range r.m.st.movements {
		if mv.CreatedAt.Before(start) || mv.CreatedAt.After(end) {
			continue
		}
		day := mv.CreatedAt.Format("2006-01-02")
		flow, ok := byDay[day]
		if !ok {
			flow = &repository.StockFlowData{Date: day}
			byDay[day] = flow
		}
		if mv.Kind == model.MovementIn {
			flow.Inbound += mv.Quantity
		} else {
			flow.Outbound += mv.Quantity
		}
	}
	var results []repository.StockFlowData
	for _, flow := range byDay {
		results = append(results, *flow)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results, nil
}

// ---------------------------------------------------------------------------
// Users

type userRepo struct{ m *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	defer r.m.lock()()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.m.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) Update(_ context.Context, user *model.User) error {
	defer r.m.lock()()
	user.UpdatedAt = time.Now()
	r.m.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.m.lock()()
	u, ok := r.m.st.users[id]
	if !ok || u.DeletedAt.Valid {
		return apperr.NewNotFound("user", id)
	}
	u.DeletedAt.Time = time.Now()
	u.DeletedAt.Valid = true
	r.m.st.users[id] = u
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	defer r.m.lock()()
	u, ok := r.m.st.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, apperr.NewNotFound("user", id)
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	defer r.m.lock()()
	for _, u := range r.m.st.users {
		if u.Email == email && !u.DeletedAt.Valid {
			user := u
			return &user, nil
		}
	}
	return nil, &apperr.NotFoundError{Resource: "user", ID: email}
}

func (r *userRepo) FindAll(_ context.Context) ([]model.User, error) {
	defer r.m.lock()()
	var all []model.User
	for _, u := range r.m.st.users {
		if !u.DeletedAt.Valid {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func (r *userRepo) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	defer r.m.lock()()
	u, ok := r.m.st.users[id]
	if !ok || u.DeletedAt.Valid {
		return apperr.NewNotFound("user", id)
	}
	now := time.Now()
	u.LastSeenAt = &now
	r.m.st.users[id] = u
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
