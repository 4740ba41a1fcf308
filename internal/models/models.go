package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"unique;not null"          json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	ParentID    *uint     `gorm:"index"                    json:"parent_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Money is a decimal that always serializes with exactly two fraction
// digits, the shape every monetary field takes on the wire.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// ImageList is stored as a JSON array so the column survives both the
// postgres and sqlite drivers.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *ImageList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("imagelist: cannot scan %T", src)
	}
}

// First returns the primary image, the one copied onto order snapshots.
func (l ImageList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

type Product struct {
	ID              uint             `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name            string           `gorm:"not null"                    json:"name"`
	Description     string           `gorm:"not null"                    json:"description"`
	Price           Money     `gorm:"type:numeric(10,2);not null" json:"price"`
	DiscountedPrice *Money    `gorm:"type:numeric(10,2)"          json:"discounted_price,omitempty"`
	Stock           int       `gorm:"not null;default:0"          json:"stock"`
	Sold            int       `gorm:"not null;default:0"          json:"sold"`
	CategoryID      uint      `gorm:"index;not null"              json:"category_id"`
	Images          ImageList `gorm:"type:text"                   json:"images"`
	Featured        bool      `gorm:"default:false"               json:"featured"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UnitPrice is what the order engine charges: the discounted price when one
// is set, otherwise the list price.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.DiscountedPrice != nil && p.DiscountedPrice.IsPositive() {
		return p.DiscountedPrice.Decimal
	}
	return p.Price.Decimal
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity>0"                  json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey"                        json:"id"`
	OrderNumber     string          `gorm:"unique;not null"                   json:"order_number"`
	UserID          uint            `gorm:"index;not null"                    json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"not null"                          json:"payment_method"`
	ItemsPrice      Money           `gorm:"type:numeric(10,2);not null"       json:"items_price"`
	TaxPrice        Money           `gorm:"type:numeric(10,2);not null"       json:"tax_price"`
	ShippingPrice   Money           `gorm:"type:numeric(10,2);not null"       json:"shipping_price"`
	TotalPrice      Money           `gorm:"type:numeric(10,2);not null"       json:"total_price"`
	Status          OrderStatus     `gorm:"not null;default:processing"       json:"status"`
	IsPaid          bool            `gorm:"default:false"                     json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	IsDelivered     bool            `gorm:"default:false"                     json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderItem is a snapshot of a product line taken at order creation. Later
// product edits never alter it.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey"                  json:"id"`
	OrderID   uint   `gorm:"index;not null"              json:"order_id"`
	ProductID uint   `gorm:"not null"                    json:"product_id"`
	Name      string `gorm:"not null"                    json:"name"`
	UnitPrice Money  `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Quantity  int    `gorm:"not null;check:quantity>0"   json:"quantity"`
	Image     string `json:"image"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"-"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	JTI       string `gorm:"index"           json:"jti"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
