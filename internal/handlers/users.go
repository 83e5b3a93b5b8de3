package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/shophub/backend/internal/middleware/auth"
	"github.com/shophub/backend/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

// SaveAddress appends one shipping address to the caller's saved list.
func (h *UserHandler) SaveAddress(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req models.Address
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "error saving address")
	}

	req.ID = 0
	req.UserID = userID
	if err := h.DB.Create(&req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error saving address")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "address saved successfully"})
}

func (h *UserHandler) ListAddresses(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var addresses []models.Address
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&addresses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error fetching addresses")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "addresses": addresses})
}

// ListUsers is the admin user listing.
func (h *UserHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error fetching users")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}
