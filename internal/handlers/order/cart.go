package order

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/shophub/backend/internal/cart"
	"github.com/shophub/backend/internal/logging"
	authmw "github.com/shophub/backend/internal/middleware/auth"
	"github.com/shophub/backend/internal/models"
	"github.com/shophub/backend/internal/mykafka"
	ordersvc "github.com/shophub/backend/internal/order"
)

// CartHandler exposes the cart aggregator over HTTP. Every request loads
// the owner's persisted snapshot and every mutation saves it back.
type CartHandler struct {
	DB       *gorm.DB
	Svc      *ordersvc.Service
	Producer *mykafka.Producer
}

func (h *CartHandler) load(c echo.Context) (*cart.Cart, uint, error) {
	userID, err := authmw.UserID(c)
	if err != nil {
		return nil, 0, err
	}
	crt, err := cart.Load(c.Request().Context(), &cart.GormStore{DB: h.DB, UserID: userID})
	if err != nil {
		return nil, 0, echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}
	return crt, userID, nil
}

func cartProductID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("productId"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return uint(id), nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	crt, _, err := h.load(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   crt.Items(),
		"count":   crt.Count(),
		"totals":  crt.Totals(),
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()

	crt, userID, err := h.load(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read product")
	}

	merged, err := crt.Add(ctx, cart.Item{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}

	message := fmt.Sprintf("%s added to cart", product.Name)
	if merged {
		message = fmt.Sprintf("updated %s quantity in cart", product.Name)
	}

	item, _ := crt.Item(product.ID)
	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": product.ID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": message, "item": item})
}

func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()

	crt, userID, err := h.load(c)
	if err != nil {
		return err
	}

	productID, err := cartProductID(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if !crt.IsInCart(productID) {
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	}

	if err := crt.UpdateQuantity(ctx, productID, req.Quantity); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "cart_quantity_updated",
		"userID":    userID,
		"productID": productID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   crt.Items(),
		"totals":  crt.Totals(),
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()

	crt, userID, err := h.load(c)
	if err != nil {
		return err
	}

	productID, err := cartProductID(c)
	if err != nil {
		return err
	}

	removed, err := crt.Remove(ctx, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "item removed from cart",
		"items":   crt.Items(),
	})
}

// Checkout snapshots the cart into a new order and clears the cart only
// after the order insert succeeded.
func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	crt, userID, err := h.load(c)
	if err != nil {
		return err
	}

	var req struct {
		ShippingAddress models.ShippingAddress `json:"shippingAddress"`
		PaymentMethod   string                 `json:"paymentMethod"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	items := crt.Items()
	lineItems := make([]ordersvc.ItemInput, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, ordersvc.ItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}

	totals := crt.Totals()
	order, err := h.Svc.Create(ctx, userID, ordersvc.CreateRequest{
		Items:           lineItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
	})
	if err != nil {
		l.Warn("checkout_error", "error", err)
		return httpError(err)
	}

	saveAddressBestEffort(ctx, h.DB, userID, order.ShippingAddress)

	if err := crt.Clear(ctx); err != nil {
		// The order exists; an uncleared cart is recoverable on the
		// next mutation.
		l.Warn("cart_clear_failed", "order_id", order.ID, "error", err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  userID,
		"total":   order.TotalPrice,
	})

	l.Info("checkout_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "order": wrap(order)})
}
