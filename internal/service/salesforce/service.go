// internal/service/salesforce/service.go
package salesforce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"crmsync-service/internal/domain/catalog"
	"crmsync-service/internal/domain/customer"
	"crmsync-service/internal/domain/order"
	sf "crmsync-service/internal/domain/salesforce"
	"crmsync-service/internal/metrics"
	"crmsync-service/internal/pkg/attributes"
	xerrors "crmsync-service/internal/pkg/errors"
	"crmsync-service/internal/pkg/lock"
	gateway "crmsync-service/internal/salesforce"
)

type CustomerStore interface {
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
	UpdateNames(ctx context.Context, id int64, firstName, lastName string) error
	UpdateCustomAttributes(ctx context.Context, id int64, xml string) error
}

type AddressStore interface {
	FindByID(ctx context.Context, id int64) (*customer.Address, error)
	FindForCustomer(ctx context.Context, customerID, addressID int64) (*customer.Address, error)
	FindFirstByCustomer(ctx context.Context, customerID int64) (*customer.Address, error)
}

type OrderStore interface {
	FindByID(ctx context.Context, id int64) (*order.Order, error)
	FindItems(ctx context.Context, orderID int64) ([]order.OrderItem, error)
	UpdateAuthorizationTransactionCode(ctx context.Context, id int64, code string) error
}

type ProductStore interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error)
}

type ExternalIDStore interface {
	Get(ctx context.Context, entityType sf.EntityType, entityID int64) (*sf.ExternalID, error)
	Upsert(ctx context.Context, e *sf.ExternalID) error
}

type SyncLogStore interface {
	Create(ctx context.Context, e *sf.SyncLogEntry) error
	List(ctx context.Context, filters *sf.SyncLogFilters) ([]sf.SyncLogEntry, int64, error)
}

// Gateway is the authenticated CRM client.
type Gateway interface {
	GetToken(ctx context.Context) (string, error)
	Call(ctx context.Context, endpoint string, payload []byte) ([]byte, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string) (lock.ReleaseFunc, bool, error)
}

// EventPublisher receives every finished sync result.
type EventPublisher interface {
	PublishSyncEvent(result *sf.SyncResult)
}

type Options struct {
	OAuthProvider string
	// LegacyWriteback also stores CRM ids in the customer attribute XML and
	// the order authorization transaction code.
	LegacyWriteback bool
	// OrderUpsertsContact upserts the order's customer first when it has no CRM contact yet.
	OrderUpsertsContact bool
	// ContactAttributeID is the customer attribute that holds the contact number.
	ContactAttributeID int
}

type Deps struct {
	Customers   CustomerStore
	Addresses   AddressStore
	Orders      OrderStore
	Products    ProductStore
	ExternalIDs ExternalIDStore
	SyncLog     SyncLogStore
	Gateway     Gateway
	Locker      Locker
	Publisher   EventPublisher
	Metrics     *metrics.Registry
	Logger      *zap.Logger
}

// SyncService pushes customers and orders to the CRM and records the outcome.
type SyncService struct {
	deps Deps
	opts Options
	log  *zap.Logger
}

func NewSyncService(deps Deps, opts Options) *SyncService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.ContactAttributeID <= 0 {
		opts.ContactAttributeID = 1
	}
	return &SyncService{deps: deps, opts: opts, log: deps.Logger}
}

// UpsertContact creates or updates the CRM contact for a customer. addressID
// selects the address sent with the contact; nil picks billing, then shipping,
// then the customer's first address.
func (s *SyncService) UpsertContact(ctx context.Context, customerID int64, addressID *int64) (*sf.SyncResult, error) {
	res := sf.NewSyncResult(sf.EntityContact, customerID)

	release, ok, err := s.acquire(ctx, sf.EntityContact, customerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.finish(ctx, res.Fail(sf.StatusBusy, "contact sync already in progress")), nil
	}
	defer s.release(ctx, release)

	if err := s.upsertContact(ctx, res, customerID, addressID); err != nil {
		return nil, err
	}
	return s.finish(ctx, res), nil
}

func (s *SyncService) upsertContact(ctx context.Context, res *sf.SyncResult, customerID int64, addressID *int64) error {
	c, err := s.deps.Customers.FindByID(ctx, customerID)
	if errors.Is(err, xerrors.ErrNotFound) {
		res.Fail(sf.StatusNotFound, fmt.Sprintf("customer %d not found", customerID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}

	address, err := s.contactAddress(ctx, c, addressID)
	if errors.Is(err, xerrors.ErrNotFound) {
		res.Fail(sf.StatusNotFound, fmt.Sprintf("address %d not found for customer %d", *addressID, customerID))
		return nil
	}
	if err != nil {
		return err
	}

	if !c.HasFullName() && address != nil {
		if err := s.fillNames(ctx, c, address); err != nil {
			return err
		}
	}

	contactNumber, err := s.contactNumber(ctx, c)
	if errors.Is(err, attributes.ErrMalformedXML) {
		res.Fail(sf.StatusMalformedInput, err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(sf.ContactUpsertRequest{
		Contacts: []sf.Contact{BuildContact(c, address, contactNumber, s.opts.OAuthProvider)},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal contact payload: %w", err)
	}

	result, ok := s.callout(ctx, res, gateway.ContactUpsertEndpoint, payload)
	if !ok {
		return nil
	}

	if number := result.Number(); number != "" {
		if err := s.storeContactNumber(ctx, c, number, res.SFDCRecordID); err != nil {
			return err
		}
	}
	return nil
}

// contactAddress returns nil without error when the customer has no address.
func (s *SyncService) contactAddress(ctx context.Context, c *customer.Customer, addressID *int64) (*customer.Address, error) {
	if addressID != nil {
		return s.deps.Addresses.FindForCustomer(ctx, c.ID, *addressID)
	}

	if id, ok := c.PreferredAddressID(); ok {
		a, err := s.deps.Addresses.FindByID(ctx, id)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to load address: %w", err)
		}
	}

	a, err := s.deps.Addresses.FindFirstByCustomer(ctx, c.ID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer addresses: %w", err)
	}
	return a, nil
}

// fillNames copies missing names from the address and persists them.
func (s *SyncService) fillNames(ctx context.Context, c *customer.Customer, a *customer.Address) error {
	if !c.FirstName.Valid || c.FirstName.String == "" {
		c.FirstName.String, c.FirstName.Valid = a.FirstName, true
	}
	if !c.LastName.Valid || c.LastName.String == "" {
		c.LastName.String, c.LastName.Valid = a.LastName, true
	}
	if err := s.deps.Customers.UpdateNames(ctx, c.ID, c.FirstName.String, c.LastName.String); err != nil {
		return fmt.Errorf("failed to update customer names: %w", err)
	}
	return nil
}

// contactNumber resolves the stored CRM contact number: side table first,
// then the legacy attribute XML.
func (s *SyncService) contactNumber(ctx context.Context, c *customer.Customer) (string, error) {
	ext, err := s.deps.ExternalIDs.Get(ctx, sf.EntityContact, c.ID)
	if err == nil && ext.ExternalID != "" {
		return ext.ExternalID, nil
	}
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return "", fmt.Errorf("failed to load contact external id: %w", err)
	}

	number, _, err := attributes.ContactNumber(c.CustomAttributesXML.String)
	if err != nil {
		return "", fmt.Errorf("customer %d: %w", c.ID, err)
	}
	return number, nil
}

func (s *SyncService) storeContactNumber(ctx context.Context, c *customer.Customer, number, recordID string) error {
	if err := s.deps.ExternalIDs.Upsert(ctx, &sf.ExternalID{
		EntityType: sf.EntityContact,
		EntityID:   c.ID,
		ExternalID: number,
		RecordID:   recordID,
	}); err != nil {
		return fmt.Errorf("failed to store contact external id: %w", err)
	}

	if !s.opts.LegacyWriteback {
		return nil
	}

	blob, err := attributes.SetContactNumber(c.CustomAttributesXML.String, s.opts.ContactAttributeID, number)
	if err != nil {
		s.log.Warn("skipping legacy contact number writeback",
			zap.Int64("customer_id", c.ID),
			zap.Error(err),
		)
		return nil
	}
	if err := s.deps.Customers.UpdateCustomAttributes(ctx, c.ID, blob); err != nil {
		return fmt.Errorf("failed to update customer attributes: %w", err)
	}
	c.CustomAttributesXML.String, c.CustomAttributesXML.Valid = blob, true
	return nil
}

// SyncOrder sends an order with its addresses and lines to the CRM.
func (s *SyncService) SyncOrder(ctx context.Context, orderID int64) (*sf.SyncResult, error) {
	res := sf.NewSyncResult(sf.EntityOrder, orderID)

	release, ok, err := s.acquire(ctx, sf.EntityOrder, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.finish(ctx, res.Fail(sf.StatusBusy, "order sync already in progress")), nil
	}
	defer s.release(ctx, release)

	if err := s.syncOrder(ctx, res, orderID); err != nil {
		return nil, err
	}
	return s.finish(ctx, res), nil
}

func (s *SyncService) syncOrder(ctx context.Context, res *sf.SyncResult, orderID int64) error {
	o, err := s.deps.Orders.FindByID(ctx, orderID)
	if errors.Is(err, xerrors.ErrNotFound) {
		res.Fail(sf.StatusNotFound, fmt.Sprintf("order %d not found", orderID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	c, err := s.deps.Customers.FindByID(ctx, o.CustomerID)
	if errors.Is(err, xerrors.ErrNotFound) {
		res.Fail(sf.StatusNotFound, fmt.Sprintf("customer %d of order %d not found", o.CustomerID, orderID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}

	userID, err := s.contactNumber(ctx, c)
	if errors.Is(err, attributes.ErrMalformedXML) {
		res.Fail(sf.StatusMalformedInput, err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	if userID == "" {
		userID, err = s.ensureContact(ctx, res, c.ID)
		if err != nil || userID == "" {
			return err
		}
	}

	components, err := s.orderComponents(ctx, o, userID)
	if isMalformed(err) {
		res.Fail(sf.StatusMalformedInput, err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(sf.OrderRequest{OrderWrapper: components})
	if err != nil {
		return fmt.Errorf("failed to marshal order payload: %w", err)
	}

	result, ok := s.callout(ctx, res, gateway.OrderEndpoint, payload)
	if !ok {
		return nil
	}

	number := result.Number()
	if number == "" {
		return nil
	}
	if err := s.deps.ExternalIDs.Upsert(ctx, &sf.ExternalID{
		EntityType: sf.EntityOrder,
		EntityID:   o.ID,
		ExternalID: number,
		RecordID:   res.SFDCRecordID,
	}); err != nil {
		return fmt.Errorf("failed to store order external id: %w", err)
	}
	if s.opts.LegacyWriteback {
		if err := s.deps.Orders.UpdateAuthorizationTransactionCode(ctx, o.ID, number); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
	}
	return nil
}

// ensureContact returns the CRM contact number for an order's customer,
// upserting the contact when allowed. An empty number means res was marked skipped.
func (s *SyncService) ensureContact(ctx context.Context, res *sf.SyncResult, customerID int64) (string, error) {
	if !s.opts.OrderUpsertsContact {
		res.Fail(sf.StatusSkipped, fmt.Sprintf("customer %d has no CRM contact", customerID))
		return "", nil
	}

	contact, err := s.UpsertContact(ctx, customerID, nil)
	if err != nil {
		return "", err
	}
	if contact.Status != sf.StatusSuccess || contact.SFDCNumber == "" {
		res.Fail(sf.StatusSkipped, fmt.Sprintf("customer %d has no CRM contact (contact sync: %s)", customerID, contact.Status))
		return "", nil
	}
	return contact.SFDCNumber, nil
}

func (s *SyncService) orderComponents(ctx context.Context, o *order.Order, userID string) (*sf.OrderComponents, error) {
	billing, err := s.deps.Addresses.FindByID(ctx, o.BillingAddressID)
	if err != nil {
		return nil, fmt.Errorf("billing address: %w", err)
	}
	shipping := billing
	if id := o.ShippingOrBillingAddressID(); id != billing.ID {
		if shipping, err = s.deps.Addresses.FindByID(ctx, id); err != nil {
			return nil, fmt.Errorf("shipping address: %w", err)
		}
	}

	billingOut, err := MapAddress(billing)
	if err != nil {
		return nil, err
	}
	shippingOut, err := MapAddress(shipping)
	if err != nil {
		return nil, err
	}

	items, err := s.deps.Orders.FindItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ProductID]; !dup {
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}
	products, err := s.deps.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	lines, err := MapOrderLines(o, items, products, s.log)
	if err != nil {
		return nil, err
	}

	return &sf.OrderComponents{
		BillingAddress:  billingOut,
		ShippingAddress: shippingOut,
		Ord:             MapOrder(o, userID),
		OrdLine:         lines,
	}, nil
}

// isMalformed reports data errors that make an order unsendable.
func isMalformed(err error) bool {
	return errors.Is(err, attributes.ErrMalformedSaveAs) ||
		errors.Is(err, xerrors.ErrMalformedInput) ||
		errors.Is(err, xerrors.ErrNotFound)
}

// callout posts payload and applies the CRM answer to res. It returns false
// when res already carries a failure status.
func (s *SyncService) callout(ctx context.Context, res *sf.SyncResult, endpoint string, payload []byte) (sf.CalloutResult, bool) {
	body, err := s.deps.Gateway.Call(ctx, endpoint, payload)
	if err != nil {
		s.log.Warn("salesforce call failed",
			zap.String("endpoint", endpoint),
			zap.String("entity_type", string(res.EntityType)),
			zap.Int64("entity_id", res.EntityID),
			zap.Error(err),
		)
		res.Fail(sf.StatusUpstreamUnavailable, err.Error())
		return sf.CalloutResult{}, false
	}

	results, err := sf.ParseCalloutResponse(body)
	if err != nil {
		res.Fail(sf.StatusUpstreamUnavailable, err.Error())
		return sf.CalloutResult{}, false
	}
	if len(results) == 0 {
		res.Status = sf.StatusSuccess
		res.Message = "empty response"
		return sf.CalloutResult{}, true
	}

	// the last element wins when the CRM answers with several results
	result := results[len(results)-1]
	res.Apply(result)
	if res.CalloutErrorResult {
		res.Status = sf.StatusRejected
		res.Message = res.ResultMsg
	} else {
		res.Status = sf.StatusSuccess
	}
	return result, true
}

// CheckToken verifies that a CRM token can be obtained. The token itself is never returned.
func (s *SyncService) CheckToken(ctx context.Context) error {
	_, err := s.deps.Gateway.GetToken(ctx)
	return err
}

func (s *SyncService) ListSyncLog(ctx context.Context, filters *sf.SyncLogFilters) (*sf.SyncLogListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	entries, total, err := s.deps.SyncLog.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync log: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &sf.SyncLogListResponse{
		Entries:    entries,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *SyncService) acquire(ctx context.Context, entityType sf.EntityType, id int64) (lock.ReleaseFunc, bool, error) {
	if s.deps.Locker == nil {
		return func(context.Context) error { return nil }, true, nil
	}
	release, ok, err := s.deps.Locker.Acquire(ctx, lock.SyncKey(string(entityType), id))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.deps.Metrics.ObserveLockContended(string(entityType))
	}
	return release, ok, nil
}

func (s *SyncService) release(ctx context.Context, release lock.ReleaseFunc) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("failed to release sync lock", zap.Error(err))
	}
}

// finish stamps the result, records it and notifies subscribers.
func (s *SyncService) finish(ctx context.Context, res *sf.SyncResult) *sf.SyncResult {
	res.SyncID = ulid.Make().String()
	res.FinishedAt = time.Now().UTC()

	if s.deps.SyncLog != nil {
		if err := s.deps.SyncLog.Create(context.WithoutCancel(ctx), sf.NewSyncLogEntry(res)); err != nil {
			s.log.Error("failed to write sync log", zap.String("sync_id", res.SyncID), zap.Error(err))
		}
	}

	s.deps.Metrics.ObserveSync(string(res.EntityType), string(res.Status))
	if s.deps.Publisher != nil {
		s.deps.Publisher.PublishSyncEvent(res)
	}

	s.log.Info("salesforce sync finished",
		zap.String("sync_id", res.SyncID),
		zap.String("entity_type", string(res.EntityType)),
		zap.Int64("entity_id", res.EntityID),
		zap.String("status", string(res.Status)),
		zap.String("sfdc_number", res.SFDCNumber),
	)
	return res
}
