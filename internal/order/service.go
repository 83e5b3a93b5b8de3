// Package order owns the order ledger and its lifecycle transitions.
// Transitions are enforced here, not in the UI: confirm only from
// pending, deliver only from confirmed, cancel only by the owner while
// the order is neither delivered nor cancelled.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shophub/backend/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrConflict   = errors.New("conflict")   // 409
)

// DeliveryDayChoices is the fixed set an admin can pick an ETA from.
var DeliveryDayChoices = []int{1, 2, 3, 5, 7, 10, 14}

type ItemInput struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  uint    `json:"quantity"`
}

type CreateRequest struct {
	Items           []ItemInput            `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

type Service struct {
	DB *gorm.DB

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create persists a new order owned by userID with every lifecycle flag
// false. The insert is a single transaction, so no partial order exists.
func (s *Service) Create(ctx context.Context, userID uint, req CreateRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no order items", ErrValidation)
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = "upi"
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if it.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      req.ItemsPrice,
		TaxPrice:        req.TaxPrice,
		ShippingPrice:   req.ShippingPrice,
		TotalPrice:      req.TotalPrice,
		CreatedAt:       s.now().Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Confirm moves a pending order to confirmed and stamps the ETA:
// estimatedDelivery = now + days.
func (s *Service) Confirm(ctx context.Context, orderID uint, days int) (*models.Order, error) {
	if !validDeliveryDays(days) {
		return nil, fmt.Errorf("%w: delivery days must be one of %v", ErrValidation, DeliveryDayChoices)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status() {
	case models.OrderStatusCancelled:
		return nil, fmt.Errorf("%w: order is cancelled", ErrConflict)
	case models.OrderStatusDelivered:
		return nil, fmt.Errorf("%w: order is already delivered", ErrConflict)
	case models.OrderStatusConfirmed:
		return nil, fmt.Errorf("%w: order is already confirmed", ErrConflict)
	}

	now := s.now()
	order.IsConfirmed = true
	order.ConfirmedAt = now.Unix()
	order.DeliveryDays = days
	order.EstimatedDelivery = now.Add(time.Duration(days) * 24 * time.Hour).Unix()

	if err := s.DB.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Deliver marks a confirmed order delivered. Re-delivering re-stamps the
// same flags; unconfirmed or cancelled orders are rejected.
func (s *Service) Deliver(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.IsCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", ErrConflict)
	}
	if !order.IsConfirmed {
		return nil, fmt.Errorf("%w: order is not confirmed yet", ErrConflict)
	}

	order.IsDelivered = true
	order.DeliveredAt = s.now().Unix()

	if err := s.DB.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel is owner-only and requires a non-empty reason. Delivered and
// already-cancelled orders are terminal.
func (s *Service) Cancel(ctx context.Context, orderID, userID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason required", ErrValidation)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if order.IsDelivered {
		return nil, fmt.Errorf("%w: order is already delivered", ErrConflict)
	}
	if order.IsCancelled {
		return nil, fmt.Errorf("%w: order is already cancelled", ErrConflict)
	}

	order.IsCancelled = true
	order.CancelledAt = s.now().Unix()
	order.CancelReason = reason

	if err := s.DB.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetFor returns the order only to its owner or an admin.
func (s *Service) GetFor(ctx context.Context, orderID, userID uint, role string) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func validDeliveryDays(days int) bool {
	for _, d := range DeliveryDayChoices {
		if d == days {
			return true
		}
	}
	return false
}
