package salesforce

import (
	"context"
	"fmt"
	"sync"

	"crmsync-service/internal/domain/catalog"
	"crmsync-service/internal/domain/customer"
	"crmsync-service/internal/domain/order"
	sf "crmsync-service/internal/domain/salesforce"
	xerrors "crmsync-service/internal/pkg/errors"
	"crmsync-service/internal/pkg/lock"
)

type fakeCustomers struct {
	byID        map[int64]*customer.Customer
	err         error
	namesSet    map[int64][2]string
	attrUpdates map[int64]string
}

func newFakeCustomers(cs ...*customer.Customer) *fakeCustomers {
	f := &fakeCustomers{
		byID:        map[int64]*customer.Customer{},
		namesSet:    map[int64][2]string{},
		attrUpdates: map[int64]string{},
	}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCustomers) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, xerrors.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) UpdateNames(ctx context.Context, id int64, firstName, lastName string) error {
	f.namesSet[id] = [2]string{firstName, lastName}
	return nil
}

func (f *fakeCustomers) UpdateCustomAttributes(ctx context.Context, id int64, xml string) error {
	f.attrUpdates[id] = xml
	if c, ok := f.byID[id]; ok {
		c.CustomAttributesXML.String, c.CustomAttributesXML.Valid = xml, true
	}
	return nil
}

type fakeAddresses struct {
	byID  map[int64]*customer.Address
	links map[int64][]int64
}

func newFakeAddresses() *fakeAddresses {
	return &fakeAddresses{byID: map[int64]*customer.Address{}, links: map[int64][]int64{}}
}

func (f *fakeAddresses) add(customerID int64, a *customer.Address) {
	f.byID[a.ID] = a
	f.links[customerID] = append(f.links[customerID], a.ID)
}

func (f *fakeAddresses) FindByID(ctx context.Context, id int64) (*customer.Address, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("address %d: %w", id, xerrors.ErrNotFound)
	}
	return a, nil
}

func (f *fakeAddresses) FindForCustomer(ctx context.Context, customerID, addressID int64) (*customer.Address, error) {
	for _, id := range f.links[customerID] {
		if id == addressID {
			return f.FindByID(ctx, id)
		}
	}
	return nil, fmt.Errorf("address %d: %w", addressID, xerrors.ErrNotFound)
}

func (f *fakeAddresses) FindFirstByCustomer(ctx context.Context, customerID int64) (*customer.Address, error) {
	ids := f.links[customerID]
	if len(ids) == 0 {
		return nil, fmt.Errorf("address for customer %d: %w", customerID, xerrors.ErrNotFound)
	}
	return f.FindByID(ctx, ids[0])
}

type fakeOrders struct {
	byID  map[int64]*order.Order
	items map[int64][]order.OrderItem
	codes map[int64]string
	err   error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		byID:  map[int64]*order.Order{},
		items: map[int64][]order.OrderItem{},
		codes: map[int64]string{},
	}
}

func (f *fakeOrders) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, xerrors.ErrNotFound)
	}
	return o, nil
}

func (f *fakeOrders) FindItems(ctx context.Context, orderID int64) ([]order.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrders) UpdateAuthorizationTransactionCode(ctx context.Context, id int64, code string) error {
	f.codes[id] = code
	return nil
}

type fakeProducts map[int64]*catalog.Product

func (f fakeProducts) FindByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error) {
	out := map[int64]*catalog.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeExternalIDs struct {
	byKey map[string]sf.ExternalID
}

func newFakeExternalIDs() *fakeExternalIDs {
	return &fakeExternalIDs{byKey: map[string]sf.ExternalID{}}
}

func extKey(t sf.EntityType, id int64) string { return fmt.Sprintf("%s:%d", t, id) }

func (f *fakeExternalIDs) Get(ctx context.Context, entityType sf.EntityType, entityID int64) (*sf.ExternalID, error) {
	e, ok := f.byKey[extKey(entityType, entityID)]
	if !ok {
		return nil, fmt.Errorf("external id: %w", xerrors.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeExternalIDs) Upsert(ctx context.Context, e *sf.ExternalID) error {
	f.byKey[extKey(e.EntityType, e.EntityID)] = *e
	return nil
}

type fakeSyncLog struct {
	entries []sf.SyncLogEntry
}

func (f *fakeSyncLog) Create(ctx context.Context, e *sf.SyncLogEntry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeSyncLog) List(ctx context.Context, filters *sf.SyncLogFilters) ([]sf.SyncLogEntry, int64, error) {
	var matched []sf.SyncLogEntry
	for _, e := range f.entries {
		if filters.EntityType != "" && e.EntityType != filters.EntityType {
			continue
		}
		matched = append(matched, e)
	}
	start := (filters.Page - 1) * filters.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filters.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

type gatewayCall struct {
	endpoint string
	payload  []byte
}

type fakeGateway struct {
	mu        sync.Mutex
	responses map[string]string
	callErr   error
	tokenErr  error
	calls     []gatewayCall
}

func (f *fakeGateway) GetToken(ctx context.Context) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "token", nil
}

func (f *fakeGateway) Call(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, gatewayCall{endpoint: endpoint, payload: payload})
	if f.callErr != nil {
		return nil, f.callErr
	}
	return []byte(f.responses[endpoint]), nil
}

type fakeLocker struct {
	held     map[string]bool
	released []string
}

func (f *fakeLocker) Acquire(ctx context.Context, key string) (lock.ReleaseFunc, bool, error) {
	if f.held[key] {
		return nil, false, nil
	}
	return func(context.Context) error {
		f.released = append(f.released, key)
		return nil
	}, true, nil
}

type fakePublisher struct {
	events []*sf.SyncResult
}

func (f *fakePublisher) PublishSyncEvent(result *sf.SyncResult) {
	f.events = append(f.events, result)
}
