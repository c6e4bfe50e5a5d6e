package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"sosstock/internal/config"
	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/infra"
	"sosstock/internal/metrics"
	"sosstock/internal/model"
	"sosstock/internal/repository"
	"sosstock/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// referenceAttempts bounds how often creation regenerates a colliding
// reference number.
const referenceAttempts = 5

type OrderService interface {
	Create(ctx context.Context, actor *model.Profile, req dto.CreateOrderRequest) (*dto.OrderDetailResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderSummary, error)
	Active(ctx context.Context) ([]dto.OrderSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderDetailResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderDetailResponse, error)
	AddItem(ctx context.Context, id uuid.UUID, req dto.OrderItemRequest) (*dto.OrderDetailResponse, error)
	RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*dto.OrderDetailResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.OrderDetailResponse, error)
	Receive(ctx context.Context, actor *model.Profile, id uuid.UUID, req dto.ReceiveOrderRequest) (*dto.OrderDetailResponse, error)
	// PDF renders the purchase order and returns it with its reference.
	PDF(ctx context.Context, id uuid.UUID) (*bytes.Buffer, string, error)
	Send(ctx context.Context, id uuid.UUID, req dto.SendOrderRequest) error
	PriceLookup(ctx context.Context, supplierID, productID uuid.UUID) (*dto.PriceLookupResponse, error)
}

type orderService struct {
	repo      repository.OrderRepository
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	inventory repository.InventoryRepository
	emails    EmailQueue
	cache     DashboardInvalidator
	cfg       *config.Config
	metrics   *metrics.Metrics
	refs      domain.ReferenceGenerator
	now       func() time.Time
}

func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	inventory repository.InventoryRepository,
	emails EmailQueue,
	cache DashboardInvalidator,
	cfg *config.Config,
	m *metrics.Metrics,
) OrderService {
	return &orderService{
		repo:      repo,
		products:  products,
		suppliers: suppliers,
		inventory: inventory,
		emails:    emails,
		cache:     cache,
		cfg:       cfg,
		metrics:   m,
		refs:      domain.DefaultReferences,
		now:       time.Now,
	}
}

func (s *orderService) findSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	sup, err := s.suppliers.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fieldError("supplier_id", "Supplier does not exist")
	}
	return sup, err
}

// buildItem converts a line request. A missing unit price is filled from
// the supplier's product link when one exists.
func (s *orderService) buildItem(ctx context.Context, supplierID uuid.UUID, req dto.OrderItemRequest) (*model.OrderItem, error) {
	productID, err := parseID("product_id", req.ProductID)
	if err != nil {
		return nil, err
	}
	destID, err := parseID("destination_location_id", req.DestinationLocationID)
	if err != nil {
		return nil, err
	}
	variantID, err := parseOptionalID("variant_id", req.VariantID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fieldError("quantity", "Quantity must be greater than 0")
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, fieldError("unit_price", "Unit price must be 0 or more")
	}
	item := &model.OrderItem{
		ProductID:             productID,
		VariantID:             variantID,
		Quantity:              req.Quantity,
		UnitPrice:             req.UnitPrice,
		DestinationLocationID: destID,
		Notes:                 req.Notes,
	}
	if item.UnitPrice == nil {
		link, err := s.products.FindSupplierLink(ctx, supplierID, productID)
		switch {
		case err == nil:
			item.UnitPrice = link.UnitPrice
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return item, nil
}

// itemWriteError turns a dangling product or location reference into a
// validation error.
func itemWriteError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fieldError("items", "Unknown product or destination location")
	}
	return err
}

// Create writes the header and all lines in one transaction. A reference
// collision rolls the transaction back and is retried with a fresh number.
func (s *orderService) Create(ctx context.Context, actor *model.Profile, req dto.CreateOrderRequest) (*dto.OrderDetailResponse, error) {
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil || !domain.ValidCreationStatus(status) {
		return nil, fieldError("status", "Status must be draft or ordered")
	}
	if len(req.Items) == 0 {
		return nil, fieldError("items", "Add at least one line")
	}
	supplierID, err := parseID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	expected, err := parseDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		return nil, err
	}
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, r := range req.Items {
		it, err := s.buildItem(ctx, supplierID, r)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}

	o := &model.Order{
		Status:               status,
		SupplierID:           supplierID,
		OrderedBy:            actor.ID,
		OrderedDate:          domain.OrderedDateFor(status, s.now()),
		ExpectedDeliveryDate: expected,
		Notes:                req.Notes,
	}
	for attempt := 1; ; attempt++ {
		o.ID = uuid.Nil
		o.ReferenceNumber = s.refs.Next()
		o.Items = append([]model.OrderItem(nil), items...)
		err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.repo.CreateTx(tx, o)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == referenceAttempts {
			break
		}
		log.Warn().Str("reference", o.ReferenceNumber).Int("attempt", attempt).Msg("orders: reference collision, retrying")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflict("could not allocate a unique reference number")
	}
	if err != nil {
		return nil, itemWriteError(err)
	}

	s.metrics.OrderStatus(string(o.Status))
	s.cache.InvalidateDashboard(ctx)
	log.Info().Str("order_id", o.ID.String()).Str("reference", o.ReferenceNumber).Str("status", string(o.Status)).Msg("orders: created")
	return s.Get(ctx, o.ID)
}

func orderFilter(f dto.OrderFilter) (repository.OrderFilter, error) {
	var out repository.OrderFilter
	var err error
	if f.Status != "" {
		st, err := domain.ParseOrderStatus(f.Status)
		if err != nil {
			return out, fieldError("status", "Unknown status")
		}
		out.Status = &st
	}
	if out.SupplierID, err = parseOptionalID("supplier_id", &f.SupplierID); err != nil {
		return out, err
	}
	if out.From, err = parseDate("from", &f.From); err != nil {
		return out, err
	}
	if out.To, err = parseDate("to", &f.To); err != nil {
		return out, err
	}
	if out.To != nil {
		next := out.To.AddDate(0, 0, 1)
		out.To = &next
	}
	return out, nil
}

func (s *orderService) list(ctx context.Context, f repository.OrderFilter) ([]dto.OrderSummary, error) {
	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderSummary, len(orders))
	for i := range orders {
		out[i] = orderSummary(&orders[i])
	}
	return out, nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderSummary, error) {
	f, err := orderFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, f)
}

func (s *orderService) Active(ctx context.Context) ([]dto.OrderSummary, error) {
	return s.list(ctx, repository.OrderFilter{Statuses: domain.ActiveOrderStatuses})
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderDetailResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("order", err)
	}
	return orderDetail(o), nil
}

// mutate locks the order, runs fn against it and returns the refreshed
// detail. Errors from fn roll the transaction back.
func (s *orderService) mutate(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, o *model.Order) error) (*dto.OrderDetailResponse, error) {
	var before, after domain.OrderStatus
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return notFound("order", err)
		}
		before = o.Status
		if err := fn(tx, o); err != nil {
			return err
		}
		after = o.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	if after != before {
		s.metrics.OrderStatus(string(after))
		log.Info().Str("order_id", id.String()).Str("from", string(before)).Str("to", string(after)).Msg("orders: status changed")
	}
	s.cache.InvalidateDashboard(ctx)
	return s.Get(ctx, id)
}

func editable(o *model.Order) error {
	if !o.Status.CanEdit() {
		return conflict("order %s is %s and can no longer be edited", o.ReferenceNumber, o.Status)
	}
	return nil
}

// Update edits header fields of a draft. Setting status to ordered places
// the order and stamps the ordered date.
func (s *orderService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderDetailResponse, error) {
	supplierID, err := parseOptionalID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplierID != nil {
		if _, err := s.findSupplier(ctx, *supplierID); err != nil {
			return nil, err
		}
	}
	expected, err := parseDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		return nil, err
	}
	var target *domain.OrderStatus
	if req.Status != nil {
		st, err := domain.ParseOrderStatus(*req.Status)
		if err != nil || st != domain.OrderOrdered {
			return nil, fieldError("status", "Status can only be set to ordered")
		}
		target = &st
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, o *model.Order) error {
		if err := editable(o); err != nil {
			return err
		}
		if supplierID != nil {
			o.SupplierID = *supplierID
		}
		if req.ExpectedDeliveryDate != nil {
			o.ExpectedDeliveryDate = expected
		}
		if req.Notes != nil {
			o.Notes = req.Notes
		}
		if target != nil {
			if len(o.Items) == 0 {
				return conflict("order %s has no lines to order", o.ReferenceNumber)
			}
			if !domain.CanTransition(o.Status, *target) {
				return conflict("order %s cannot move from %s to %s", o.ReferenceNumber, o.Status, *target)
			}
			o.Status = *target
			o.OrderedDate = domain.OrderedDateFor(*target, s.now())
		}
		return s.repo.UpdateHeaderTx(tx, o)
	})
}

func (s *orderService) AddItem(ctx context.Context, id uuid.UUID, req dto.OrderItemRequest) (*dto.OrderDetailResponse, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, o *model.Order) error {
		if err := editable(o); err != nil {
			return err
		}
		item, err := s.buildItem(ctx, o.SupplierID, req)
		if err != nil {
			return err
		}
		item.OrderID = o.ID
		return itemWriteError(s.repo.AddItemTx(tx, item))
	})
}

// RemoveItem deletes a line from an editable order. The last line cannot be
// removed.
func (s *orderService) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*dto.OrderDetailResponse, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, o *model.Order) error {
		if err := editable(o); err != nil {
			return err
		}
		if len(o.Items) == 1 && o.Items[0].ID == itemID {
			return conflict("order %s needs at least one line", o.ReferenceNumber)
		}
		return notFound("order item", s.repo.DeleteItemTx(tx, o.ID, itemID))
	})
}

// Cancel moves the order to cancelled. Quantities already received stay
// in stock.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) (*dto.OrderDetailResponse, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, o *model.Order) error {
		if !domain.CanTransition(o.Status, domain.OrderCancelled) {
			return conflict("order %s is %s and cannot be cancelled", o.ReferenceNumber, o.Status)
		}
		o.Status = domain.OrderCancelled
		return s.repo.UpdateHeaderTx(tx, o)
	})
}

// Receive books incoming goods. Each quantity is capped at what is still
// outstanding on its line, recorded as an in movement to the line's
// destination and added to inventory. The order becomes received once every
// line is complete.
func (s *orderService) Receive(ctx context.Context, actor *model.Profile, id uuid.UUID, req dto.ReceiveOrderRequest) (*dto.OrderDetailResponse, error) {
	incoming := make(map[uuid.UUID]int, len(req.Items))
	for _, l := range req.Items {
		itemID, err := parseID("items", l.ItemID)
		if err != nil {
			return nil, err
		}
		if l.Quantity < 0 {
			return nil, fieldError("items", "Quantities must be 0 or more")
		}
		incoming[itemID] += l.Quantity
	}

	var booked int
	resp, err := s.mutate(ctx, id, func(tx *gorm.DB, o *model.Order) error {
		if !o.Status.CanReceive() {
			return conflict("order %s is %s and cannot be received", o.ReferenceNumber, o.Status)
		}
		known := make(map[uuid.UUID]bool, len(o.Items))
		for _, it := range o.Items {
			known[it.ID] = true
		}
		for itemID := range incoming {
			if !known[itemID] {
				return fieldError("items", "Item does not belong to this order")
			}
		}

		lines := make([]domain.LineProgress, len(o.Items))
		for i := range o.Items {
			it := &o.Items[i]
			accepted := it.Progress().CapReceipt(incoming[it.ID])
			if accepted > 0 {
				if err := s.receiveLine(tx, actor, o, it, accepted, req.Notes); err != nil {
					return err
				}
				booked += accepted
			}
			lines[i] = it.Progress()
		}

		next := domain.StatusAfterReception(o.Status, lines)
		if next == o.Status {
			return nil
		}
		o.Status = next
		if next == domain.OrderReceived {
			now := s.now()
			o.ReceivedDate = &now
		}
		return s.repo.UpdateHeaderTx(tx, o)
	})
	if err != nil {
		return nil, stockConflict(err)
	}
	if booked > 0 {
		s.metrics.MovementRecorded(string(domain.MovementIn))
	}
	return resp, nil
}

func (s *orderService) receiveLine(tx *gorm.DB, actor *model.Profile, o *model.Order, it *model.OrderItem, qty int, notes *string) error {
	it.ReceivedQuantity += qty
	if err := s.repo.SetReceivedTx(tx, it.ID, it.ReceivedQuantity); err != nil {
		return err
	}
	slot := repository.Slot{LocationID: it.DestinationLocationID, ProductID: it.ProductID, VariantID: it.VariantID}
	if err := s.inventory.ApplyDeltaTx(tx, slot, qty); err != nil {
		return err
	}
	ref := o.ReferenceNumber
	dest := it.DestinationLocationID
	return s.inventory.CreateMovementTx(tx, &model.InventoryMovement{
		MovementType:          domain.MovementIn,
		ProductID:             it.ProductID,
		VariantID:             it.VariantID,
		DestinationLocationID: &dest,
		Quantity:              qty,
		MovedBy:               actor.ID,
		ReferenceNumber:       &ref,
		Notes:                 notes,
	})
}

func (s *orderService) PDF(ctx context.Context, id uuid.UUID) (*bytes.Buffer, string, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", notFound("order", err)
	}
	var buf bytes.Buffer
	if err := infra.RenderPurchaseOrder(&buf, o, s.cfg.CompanyName); err != nil {
		return nil, "", fmt.Errorf("render purchase order: %w", err)
	}
	return &buf, o.ReferenceNumber, nil
}

// Send emails the purchase order PDF to the given address or, without one,
// to the supplier's address.
func (s *orderService) Send(ctx context.Context, id uuid.UUID, req dto.SendOrderRequest) error {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound("order", err)
	}
	if o.Status == domain.OrderCancelled {
		return conflict("order %s is cancelled", o.ReferenceNumber)
	}
	to := ""
	switch {
	case req.To != nil && *req.To != "":
		to = *req.To
	case o.Supplier != nil && o.Supplier.Email != nil && *o.Supplier.Email != "":
		to = *o.Supplier.Email
	default:
		return fieldError("to", "The supplier has no email address; enter a recipient")
	}

	path, err := infra.WritePurchaseOrderFile(o, s.cfg.CompanyName, s.cfg.PDFStoragePath)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Please find attached purchase order %s.\n", o.ReferenceNumber)
	if req.Message != nil && *req.Message != "" {
		body = *req.Message + "\n\n" + body
	}
	job := worker.EmailJob{
		To:          to,
		Subject:     fmt.Sprintf("%s purchase order %s", s.cfg.CompanyName, o.ReferenceNumber),
		Text:        body,
		Attachments: []string{path},
	}
	if err := s.emails.EnqueueEmail(ctx, job); err != nil {
		return fmt.Errorf("enqueue purchase order email: %w", err)
	}
	log.Info().Str("order_id", o.ID.String()).Str("to", to).Msg("orders: purchase order queued for email")
	return nil
}

func (s *orderService) PriceLookup(ctx context.Context, supplierID, productID uuid.UUID) (*dto.PriceLookupResponse, error) {
	link, err := s.products.FindSupplierLink(ctx, supplierID, productID)
	if err != nil {
		return nil, notFound("supplier price", err)
	}
	return &dto.PriceLookupResponse{
		SupplierID:        supplierID.String(),
		ProductID:         productID.String(),
		UnitPrice:         link.UnitPrice,
		SupplierReference: link.SupplierReference,
		LeadTimeDays:      link.LeadTimeDays,
	}, nil
}
