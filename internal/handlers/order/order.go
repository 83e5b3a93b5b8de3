package order

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/shophub/backend/internal/logging"
	authmw "github.com/shophub/backend/internal/middleware/auth"
	"github.com/shophub/backend/internal/mykafka"
	ordersvc "github.com/shophub/backend/internal/order"
)

type OrderHandler struct {
	DB       *gorm.DB
	Svc      *ordersvc.Service
	Producer *mykafka.Producer
}

func orderID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req ordersvc.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		l.Warn("create_order_error", "error", err)
		return httpError(err)
	}

	// Best-effort secondary write; order success is already committed.
	saveAddressBestEffort(ctx, h.DB, userID, order.ShippingAddress)

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  userID,
		"total":   order.TotalPrice,
	})

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "order": wrap(order)})
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": wrapAll(orders)})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.GetFor(c.Request().Context(), id, userID, authmw.Role(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": wrap(order)})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": wrapAll(orders)})
}

func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirm")

	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req struct {
		DeliveryDays int `json:"deliveryDays"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Confirm(ctx, id, req.DeliveryDays)
	if err != nil {
		l.Warn("confirm_order_error", "order_id", id, "error", err)
		return httpError(err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":         "order_confirmed",
		"orderID":      order.ID,
		"deliveryDays": order.DeliveryDays,
	})

	l.Info("confirm_order_success", "order_id", order.ID, "delivery_days", order.DeliveryDays)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": wrap(order)})
}

func (h *OrderHandler) DeliverOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.deliver")

	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Deliver(ctx, id)
	if err != nil {
		l.Warn("deliver_order_error", "order_id", id, "error", err)
		return httpError(err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_delivered",
		"orderID": order.ID,
	})

	l.Info("deliver_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": wrap(order)})
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req struct {
		CancelReason string `json:"cancelReason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Cancel(ctx, id, userID, req.CancelReason)
	if err != nil {
		l.Warn("cancel_order_error", "order_id", id, "error", err)
		return httpError(err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_cancelled",
		"orderID": order.ID,
		"reason":  order.CancelReason,
	})

	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": wrap(order)})
}
