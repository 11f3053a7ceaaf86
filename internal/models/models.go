package models

import "time"

// Product represents a jewellery item in the catalog
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category" validate:"omitempty,oneof=Rings Earrings Necklaces Bangles Bracelets Pendants"`
	Price       int64     `json:"price" validate:"gte=0"`
	Discount    int       `json:"discount" validate:"gte=0,lte=100"`
	Weight      string    `json:"weight"`
	Material    string    `json:"material"`
	Size        string    `json:"size"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Rating      float64   `json:"rating" validate:"gte=0,lte=5"`
	Stock       int       `json:"stock" validate:"gte=0"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrderStatus is the fulfilment label of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusPacked         OrderStatus = "Packed"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// Payment methods and statuses
const (
	PaymentOnline = "online"
	PaymentCOD    = "cod"

	PaymentStatusPaid    = "Paid"
	PaymentStatusPending = "Pending"
)

// LineItem is a product snapshot captured when the order is placed.
// Price is the discounted unit price.
type LineItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name"`
	Price     float64 `json:"price" validate:"gte=0"`
	Discount  int     `json:"discount" validate:"gte=0,lte=100"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	Image     string  `json:"image,omitempty"`
	Weight    string  `json:"weight,omitempty"`
}

// Address is the shipping address of an order
type Address struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
}

// Order represents a placed order
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Items         []LineItem  `json:"items"`
	Address       Address     `json:"address"`
	Subtotal      float64     `json:"subtotal"`
	Shipping      float64     `json:"shipping"`
	Tax           float64     `json:"tax"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"paymentMethod"`
	PaymentStatus string      `json:"paymentStatus"`
	Status        OrderStatus `json:"status"`
	Tracking      string      `json:"tracking"`
	CourierName   string      `json:"courierName"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// User is a stored account. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DiscountType selects how a coupon value is applied
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Discount is an admin-managed coupon
type Discount struct {
	ID          string       `json:"id"`
	Code        string       `json:"code" validate:"required"`
	Type        DiscountType `json:"type" validate:"required,oneof=percentage flat"`
	Value       float64      `json:"value" validate:"gt=0"`
	MinOrder    float64      `json:"minOrder" validate:"gte=0"`
	MaxDiscount float64      `json:"maxDiscount" validate:"gte=0"`
	ExpiryDate  string       `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	Enabled     bool         `json:"enabled"`
	UsageLimit  int          `json:"usageLimit" validate:"gte=0"`
	UsedCount   int          `json:"usedCount" validate:"gte=0"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Payment is the admin view of the payment attached to an order
type Payment struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	PaymentID     string    `json:"paymentId"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"` // success, pending, failed
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Date          time.Time `json:"date"`
}

// PaymentSummary aggregates the payments page header
type PaymentSummary struct {
	Successful     int     `json:"successful"`
	Pending        int     `json:"pending"`
	Failed         int     `json:"failed"`
	TotalCollected float64 `json:"totalCollected"`
}

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	Items         []LineItem `json:"items" validate:"required,min=1,dive"`
	Address       Address    `json:"address"`
	Subtotal      float64    `json:"subtotal" validate:"gte=0"`
	Shipping      float64    `json:"shipping" validate:"gte=0"`
	Tax           float64    `json:"tax" validate:"gte=0"`
	Total         float64    `json:"total" validate:"gte=0"`
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
}

// UpdateOrderStatusRequest represents an admin status change
type UpdateOrderStatusRequest struct {
	Status      string `json:"status"`
	Tracking    string `json:"tracking"`
	CourierName string `json:"courierName"`
}

// QuoteItem is one cart line sent for pricing
type QuoteItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// QuoteRequest represents a server-side cart pricing request
type QuoteRequest struct {
	Items      []QuoteItem `json:"items" validate:"required,min=1,dive"`
	CouponCode string      `json:"couponCode"`
}

// Quote is the priced cart
type Quote struct {
	Items      []LineItem `json:"items"`
	Subtotal   float64    `json:"subtotal"`
	CouponCode string     `json:"couponCode,omitempty"`
	Discount   float64    `json:"discount"`
	Shipping   float64    `json:"shipping"`
	Tax        float64    `json:"tax"`
	Total      float64    `json:"total"`
}

// RegisterRequest represents a sign-up payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name"`
}

// LoginRequest represents a password grant
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileData holds the editable profile fields. A nil field is left as is.
type ProfileData struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

// UpdateProfileRequest changes the signed-in user's account. Empty email and
// password keep the current values.
type UpdateProfileRequest struct {
	Email    string      `json:"email" validate:"omitempty,email"`
	Password string      `json:"password" validate:"omitempty,min=6,max=72"`
	Data     ProfileData `json:"data"`
}

// UserMetadata carries the profile fields shown by the client
type UserMetadata struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// AppMetadata carries the auth provider
type AppMetadata struct {
	Provider string `json:"provider"`
}

// AuthUser is the public rendering of a user
type AuthUser struct {
	ID               string       `json:"id"`
	Aud              string       `json:"aud"`
	Role             string       `json:"role"`
	Email            string       `json:"email"`
	EmailConfirmedAt time.Time    `json:"email_confirmed_at"`
	UserMetadata     UserMetadata `json:"user_metadata"`
	AppMetadata      AppMetadata  `json:"app_metadata"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Session is the token grant returned on login and registration
type Session struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}
