package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var Categories = []string{"Audio", "Wearables", "Fashion", "Footwear", "Home"}

var PaymentMethods = []string{"card", "upi", "cod"}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	Addresses    []Address `gorm:"foreignKey:UserID"        json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Address struct {
	ID          uint   `gorm:"primaryKey"     json:"id"`
	UserID      uint   `gorm:"index;not null" json:"-"`
	FullName    string `gorm:"not null"       json:"fullName"`
	AddressLine string `gorm:"not null"       json:"addressLine"`
	City        string `gorm:"not null"       json:"city"`
	State       string `gorm:"not null"       json:"state"`
	Pincode     string `gorm:"not null"       json:"pincode"`
	Country     string `gorm:"not null"       json:"country"`
	Phone       string `gorm:"not null"       json:"phone"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `gorm:"not null"                 json:"description"`
	Price       float64   `gorm:"not null"                 json:"price"`
	Category    string    `gorm:"not null;index"           json:"category"`
	Image       string    `json:"image"`
	Stock       uint      `json:"stock"`
	Rating      float64   `json:"rating"`
	Reviews     uint      `json:"reviews"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
}

// CartItem is the persisted snapshot of one aggregator entry.
// At most one row per (user, product).
type CartItem struct {
	ID        uint    `gorm:"primaryKey"                                       json:"id"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_cart_user_product"       json:"user_id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_cart_user_product"       json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"                       json:"quantity"`
}

// OrderItem is a line-item snapshot taken at submission time, so later
// catalog edits never change historical orders.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                json:"id"`
	OrderID   uint    `gorm:"index;not null"            json:"-"`
	ProductID uint    `gorm:"not null"                  json:"product_id"`
	Name      string  `gorm:"not null"                  json:"name"`
	Price     float64 `gorm:"not null"                  json:"price"`
	Image     string  `json:"image"`
	Quantity  uint    `gorm:"not null;check:quantity>0" json:"quantity"`
}

type ShippingAddress struct {
	FullName    string `json:"fullName"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	UserID          uint            `gorm:"index;not null"                    json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                json:"orderItems"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod   string          `gorm:"not null;default:upi"              json:"paymentMethod"`

	ItemsPrice    float64 `json:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice"`

	IsPaid bool `gorm:"default:false" json:"isPaid"`

	IsConfirmed       bool  `gorm:"default:false" json:"isConfirmed"`
	ConfirmedAt       int64 `json:"confirmedAt,omitempty"`
	DeliveryDays      int   `json:"deliveryDays,omitempty"`
	EstimatedDelivery int64 `json:"estimatedDelivery,omitempty"`

	IsDelivered bool  `gorm:"default:false" json:"isDelivered"`
	DeliveredAt int64 `json:"deliveredAt,omitempty"`

	IsCancelled  bool   `gorm:"default:false" json:"isCancelled"`
	CancelledAt  int64  `json:"cancelledAt,omitempty"`
	CancelReason string `json:"cancelReason,omitempty"`

	CreatedAt int64 `gorm:"not null" json:"created_at"`
}

// Status derives the lifecycle state from the flag set. Cancellation wins
// over everything, delivery over confirmation.
func (o *Order) Status() string {
	switch {
	case o.IsCancelled:
		return OrderStatusCancelled
	case o.IsDelivered:
		return OrderStatusDelivered
	case o.IsConfirmed:
		return OrderStatusConfirmed
	default:
		return OrderStatusPending
	}
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}
