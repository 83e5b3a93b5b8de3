package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/shophub/backend/internal/logging"
	"github.com/shophub/backend/internal/models"
	"github.com/shophub/backend/internal/mykafka"
	ordersvc "github.com/shophub/backend/internal/order"
)

func publish(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// httpError maps service sentinels onto the error taxonomy: validation
// 400, not-found 404, wrong owner 403, invalid transition 409, rest 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, ordersvc.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ordersvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, ordersvc.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ordersvc.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// orderResponse adds the derived lifecycle status to the order document.
type orderResponse struct {
	*models.Order
	Status string `json:"status"`
}

func wrap(o *models.Order) orderResponse {
	return orderResponse{Order: o, Status: o.Status()}
}

func wrapAll(orders []models.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = wrap(&orders[i])
	}
	return out
}

// saveAddressBestEffort appends the shipping address to the owner's saved
// list after a successful order. Failure is logged and swallowed; it must
// never fail the order.
func saveAddressBestEffort(ctx context.Context, db *gorm.DB, userID uint, addr models.ShippingAddress) {
	l := logging.FromContext(ctx)
	row := models.Address{
		UserID:      userID,
		FullName:    addr.FullName,
		AddressLine: addr.AddressLine,
		City:        addr.City,
		State:       addr.State,
		Pincode:     addr.Pincode,
		Country:     addr.Country,
		Phone:       addr.Phone,
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		l.Warn("save_address_failed", "user_id", userID, "error", err)
	}
}
