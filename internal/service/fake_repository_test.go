package service

import (
	"context"
	"sort"
	"sync"

	"github.com/Mythsoul/Eshop/internal/domain"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRepository is an in-memory store. Transactions are serialized and roll back by
// restoring the state captured when they began.
type fakeRepository struct {
	mu    sync.Mutex
	trxMu sync.Mutex

	products     map[string]domain.Product
	users        map[string]domain.User
	orders       map[primitive.ObjectID]domain.Order
	failedEvents map[string]domain.FailedEvent

	calls  map[string]int
	errors map[string]error
}

type fakeState struct {
	products     map[string]domain.Product
	users        map[string]domain.User
	orders       map[primitive.ObjectID]domain.Order
	failedEvents map[string]domain.FailedEvent
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		products:     map[string]domain.Product{},
		users:        map[string]domain.User{},
		orders:       map[primitive.ObjectID]domain.Order{},
		failedEvents: map[string]domain.FailedEvent{},
		calls:        map[string]int{},
		errors:       map[string]error{},
	}
}

func (f *fakeRepository) addProduct(p domain.Product) domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.products[p.ID.Hex()] = p

	return p
}

func (f *fakeRepository) addUser(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[u.ID] = u
}

func (f *fakeRepository) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errors[method] = err
}

func (f *fakeRepository) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method]
}

func (f *fakeRepository) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}

	return total
}

func (f *fakeRepository) stock(id primitive.ObjectID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.products[id.Hex()].Stock
}

func (f *fakeRepository) cart(userID string) map[string]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.users[userID].CartItems
}

func (f *fakeRepository) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.orders)
}

func (f *fakeRepository) failedEventList() []domain.FailedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]domain.FailedEvent, 0, len(f.failedEvents))
	for _, e := range f.failedEvents {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })

	return events
}

// enter records the call and returns the injected error, if any. Callers hold f.mu.
func (f *fakeRepository) enter(method string) error {
	f.calls[method]++
	return f.errors[method]
}

func (f *fakeRepository) snapshot() fakeState {
	state := fakeState{
		products:     make(map[string]domain.Product, len(f.products)),
		users:        make(map[string]domain.User, len(f.users)),
		orders:       make(map[primitive.ObjectID]domain.Order, len(f.orders)),
		failedEvents: make(map[string]domain.FailedEvent, len(f.failedEvents)),
	}
	for k, v := range f.products {
		state.products[k] = v
	}
	for k, v := range f.users {
		cart := make(map[string]int64, len(v.CartItems))
		for id, q := range v.CartItems {
			cart[id] = q
		}
		v.CartItems = cart
		state.users[k] = v
	}
	for k, v := range f.orders {
		state.orders[k] = v
	}
	for k, v := range f.failedEvents {
		state.failedEvents[k] = v
	}

	return state
}

func (f *fakeRepository) HandleTrx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.trxMu.Lock()
	defer f.trxMu.Unlock()

	f.mu.Lock()
	f.calls["HandleTrx"]++
	before := f.snapshot()
	f.mu.Unlock()

	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		f.mu.Lock()
		f.products = before.products
		f.users = before.users
		f.orders = before.orders
		f.failedEvents = before.failedEvents
		f.mu.Unlock()
	}

	return err
}

func (f *fakeRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetProductsByIDs"); err != nil {
		return nil, err
	}

	data := []domain.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			data = append(data, p)
		}
	}

	return data, nil
}

func (f *fakeRepository) GetProducts(ctx context.Context, filter pkgdto.Filter) ([]domain.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetProducts"); err != nil {
		return nil, 0, err
	}

	all := []domain.Product{}
	for _, p := range f.products {
		if filter.Category == "" || p.Category == filter.Category {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })

	start := (filter.Page - 1) * filter.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], int64(len(all)), nil
}

func (f *fakeRepository) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetProductByID"); err != nil {
		return domain.Product{}, err
	}

	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, errs.ErrProductNotFound
	}

	return p, nil
}

func (f *fakeRepository) GetProductIDsBySeller(ctx context.Context, sellerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetProductIDsBySeller"); err != nil {
		return nil, err
	}

	ids := []string{}
	for id, p := range f.products {
		if p.Seller() == sellerID {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (f *fakeRepository) DecrementProductStock(ctx context.Context, id string, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("DecrementProductStock"); err != nil {
		return err
	}

	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return errs.ErrStockConflict
	}
	p.Stock -= quantity
	f.products[id] = p

	return nil
}

func (f *fakeRepository) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetUserByID"); err != nil {
		return domain.User{}, err
	}

	u, ok := f.users[id]
	if !ok {
		return domain.User{}, errs.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeRepository) ClearCart(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ClearCart"); err != nil {
		return err
	}

	u, ok := f.users[userID]
	if !ok {
		return errs.ErrUserNotFound
	}
	u.CartItems = map[string]int64{}
	f.users[userID] = u

	return nil
}

func (f *fakeRepository) AddOrder(ctx context.Context, data domain.Order) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("AddOrder"); err != nil {
		return primitive.NilObjectID, err
	}

	if data.ID.IsZero() {
		data.ID = primitive.NewObjectID()
	}
	f.orders[data.ID] = data

	return data.ID, nil
}

func (f *fakeRepository) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("UpdateOrderStatus"); err != nil {
		return err
	}

	o, ok := f.orders[id]
	if !ok {
		return errs.ErrOrderNotFound
	}
	o.Status = status
	f.orders[id] = o

	return nil
}

func (f *fakeRepository) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetOrderByID"); err != nil {
		return domain.Order{}, err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Order{}, errs.ErrOrderNotFound
	}

	o, ok := f.orders[objectID]
	if !ok {
		return domain.Order{}, errs.ErrOrderNotFound
	}

	return o, nil
}

func (f *fakeRepository) GetOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetOrdersByUser"); err != nil {
		return nil, err
	}

	data := []domain.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			data = append(data, o)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Date.After(data[j].Date) })

	return data, nil
}

func (f *fakeRepository) GetOrdersByProducts(ctx context.Context, productIDs []string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetOrdersByProducts"); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	data := []domain.Order{}
	for _, o := range f.orders {
		if o.HasProductFrom(wanted) {
			data = append(data, o)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Date.After(data[j].Date) })

	return data, nil
}

func (f *fakeRepository) AddFailedEvent(ctx context.Context, data domain.FailedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("AddFailedEvent"); err != nil {
		return err
	}
	f.failedEvents[data.ID] = data

	return nil
}

func (f *fakeRepository) GetFailedEvents(ctx context.Context, limit int64) ([]domain.FailedEvent, error) {
	f.mu.Lock()
	if err := f.enter("GetFailedEvents"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	events := f.failedEventList()
	if int64(len(events)) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (f *fakeRepository) MarkFailedEventAttempt(ctx context.Context, id string, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("MarkFailedEventAttempt"); err != nil {
		return err
	}

	e := f.failedEvents[id]
	e.Attempts++
	e.LastError = lastError
	f.failedEvents[id] = e

	return nil
}

func (f *fakeRepository) DeleteFailedEvent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("DeleteFailedEvent"); err != nil {
		return err
	}
	delete(f.failedEvents, id)

	return nil
}
