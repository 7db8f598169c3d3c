package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/repositories"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/auth"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
)

const (
	MsgOrderNotFound    = "Order not found."
	MsgNotYourOrder     = "You do not have permission to update this order."
	MsgEmptyCart        = "Your cart is empty."
	MsgNoProductsListed = "You do not have any products listed."
)

// FarmerOrders is the farmer's order list. HasProducts is false when the
// farmer lists nothing at all.
type FarmerOrders struct {
	Orders      []models.Order `json:"orders"`
	HasProducts bool           `json:"has_products"`
}

// VendorDashboard lists a vendor's orders.
type VendorDashboard struct {
	Vendor *models.Vendor `json:"vendor"`
	Orders []models.Order `json:"orders"`
}

// OrderService places, lists and moves orders along their lifecycle.
type OrderService struct {
	db      *gorm.DB
	events  Events
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewOrderService returns an OrderService. m may be nil.
func NewOrderService(db *gorm.DB, events Events, m *metrics.Metrics) *OrderService {
	return &OrderService{db: db, events: eventsOrNop(events), metrics: m, now: time.Now}
}

func (s *OrderService) repos() *repositories.Set { return repositories.NewSet(s.db) }

func stockMessage(p *models.Product) string {
	return fmt.Sprintf("Only %d of %s left in stock.", p.QuantityAvailable, p.Name)
}

// PlaceOrder buys qty units of one product. Stock is re-read and taken in
// the same transaction that writes the order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, productID uint, qty int) (*models.Order, error) {
	if qty < 1 {
		return nil, apperr.Field("quantity", "The quantity must be at least 1.")
	}
	vendor, err := vendorFor(ctx, s.repos().Profiles, userID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewSet(tx)
		p, err := takeStock(ctx, repos, productID, qty, "quantity")
		if err != nil {
			return err
		}
		item := models.OrderItem{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price}
		order = &models.Order{
			Reference:       auth.NewOrderReference(s.now()),
			VendorID:        vendor.ID,
			Status:          models.StatusPending,
			TotalPrice:      item.LineTotal(),
			ShippingAddress: vendor.ShippingAddress,
			Items:           []models.OrderItem{item},
		}
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, classify("place order", err)
	}

	s.placed(ctx, order)
	return order, nil
}

// Checkout turns the cart into one order. Either every line is in stock
// and taken, or nothing changes.
func (s *OrderService) Checkout(ctx context.Context, userID uint, cart Cart, req requests.CheckoutRequest) (*models.Order, error) {
	vendor, err := vendorFor(ctx, s.repos().Profiles, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, apperr.Field("cart", MsgEmptyCart)
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewSet(tx)
		order = &models.Order{
			Reference:       auth.NewOrderReference(s.now()),
			VendorID:        vendor.ID,
			Status:          models.StatusPending,
			TotalPrice:      decimal.Zero,
			ShippingAddress: req.Address,
			PaymentMethod:   req.PaymentMethod,
		}
		for _, line := range cart {
			if line.Quantity < 1 {
				continue
			}
			p, err := takeStock(ctx, repos, line.ProductID, line.Quantity, "cart")
			if err != nil {
				return err
			}
			item := models.OrderItem{ProductID: p.ID, Quantity: line.Quantity, UnitPrice: p.Price}
			order.Items = append(order.Items, item)
			order.TotalPrice = order.TotalPrice.Add(item.LineTotal())
		}
		if len(order.Items) == 0 {
			return apperr.Field("cart", MsgEmptyCart)
		}
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, classify("checkout", err)
	}

	s.placed(ctx, order)
	return order, nil
}

func (s *OrderService) placed(ctx context.Context, order *models.Order) {
	if s.metrics != nil {
		s.metrics.OrdersPlaced.Inc()
	}
	logger.WithCtx(ctx).Info("order placed", "reference", order.Reference, "vendor_id", order.VendorID, "total", order.TotalPrice.StringFixed(2))
	s.events.Fire(ctx, EventOrderPlaced, order)
}

// FarmerOrders returns the orders holding any of the farmer's products.
func (s *OrderService) FarmerOrders(ctx context.Context, userID uint) (*FarmerOrders, error) {
	repos := s.repos()
	farmer, err := farmerFor(ctx, repos.Profiles, userID)
	if err != nil {
		return nil, err
	}
	n, err := repos.Products.CountByFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, classify("count farmer products", err)
	}
	if n == 0 {
		return &FarmerOrders{Orders: []models.Order{}}, nil
	}
	orders, err := repos.Orders.ListForFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, classify("list farmer orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &FarmerOrders{Orders: orders, HasProducts: true}, nil
}

// AdvanceOrder lets a farmer with a product in the order move it forward.
func (s *OrderService) AdvanceOrder(ctx context.Context, userID, orderID uint, req requests.OrderStatusRequest) (*models.Order, error) {
	next, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, apperr.Field("status", "The selected status is invalid.")
	}
	if next == models.StatusCancelled {
		return nil, apperr.Field("status", "Only the vendor can cancel an order.")
	}

	repos := s.repos()
	farmer, err := farmerFor(ctx, repos.Profiles, userID)
	if err != nil {
		return nil, err
	}
	order, err := repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound("find order", err, apperr.NotFound(MsgOrderNotFound))
	}
	mine, err := repos.Orders.HasFarmerItem(ctx, order.ID, farmer.ID)
	if err != nil {
		return nil, classify("check order items", err)
	}
	if !mine {
		return nil, apperr.Forbidden(MsgNotYourOrder)
	}

	if err := transition(ctx, repos.Orders, order, next); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("order status changed", "reference", order.Reference, "status", next)
	return order, nil
}

// CancelOrder lets the owning vendor cancel a pending order; the stock of
// every item is returned.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	vendor, err := vendorFor(ctx, s.repos().Profiles, userID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewSet(tx)
		o, err := repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return notFound("find order", err, apperr.NotFound(MsgOrderNotFound))
		}
		if o.VendorID != vendor.ID {
			return apperr.Forbidden(MsgNotYourOrder)
		}
		if err := transition(ctx, repos.Orders, o, models.StatusCancelled); err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := repos.Products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, classify("cancel order", err)
	}
	logger.WithCtx(ctx).Info("order cancelled", "reference", order.Reference)
	return order, nil
}

// transition applies one status-machine step to o.
func transition(ctx context.Context, orders *repositories.OrderRepository, o *models.Order, next models.OrderStatus) error {
	illegal := apperr.Field("status", fmt.Sprintf("An order that is %s cannot become %s.", o.Status, next))
	if !o.Status.CanTransition(next) {
		return illegal
	}
	ok, err := orders.Transition(ctx, o.ID, o.Status, next)
	if err != nil {
		return err
	}
	if !ok {
		return illegal
	}
	o.Status = next
	return nil
}

// VendorDashboard returns the vendor's orders with their items.
func (s *OrderService) VendorDashboard(ctx context.Context, userID uint) (*VendorDashboard, error) {
	repos := s.repos()
	vendor, err := vendorFor(ctx, repos.Profiles, userID)
	if err != nil {
		return nil, err
	}
	orders, err := repos.Orders.ListByVendor(ctx, vendor.ID)
	if err != nil {
		return nil, classify("list vendor orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &VendorDashboard{Vendor: vendor, Orders: orders}, nil
}
