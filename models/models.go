package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// server side
var ErrBadRequest = errors.New("bad request")
var ErrServerError = errors.New("server error")
var ErrNotFoundError = errors.New("not found")
var ErrNotAllowed = errors.New("not acceptable")
var ErrForbidden = errors.New("CSRF verification failed.")

// client side
var ErrInvalidQuantity = errors.New("quantity must be at least 1")
var ErrInvalidPrice = errors.New("unit price must be a non-negative number")
var ErrIndexOutOfRange = errors.New("cart index out of range")
var ErrEmptyCart = errors.New("cart is empty")
var ErrPhoneRequired = errors.New("phone number is required if providing customer details")
var ErrSubmissionInFlight = errors.New("invoice submission already in flight")
var ErrCartSubmitted = errors.New("cart already submitted")
var ErrMissingElement = errors.New("page element missing")
var ErrInvoiceRejected = errors.New("invoice rejected by server")
var ErrTransport = errors.New("network error")

type Product_db struct {
	Id           int64
	Name         string
	Sku          string
	Category     string
	Supplier     sql.NullString
	Quantity     int
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	DateAdded    time.Time
	LastUpdated  time.Time
}

// IsLowStock mirrors the stock alert threshold of the catalogue screens.
func (p Product_db) IsLowStock() bool {
	return p.Quantity < 5
}

type Customer_db struct {
	Id      int64
	Name    string
	Phone   string
	Email   sql.NullString
	Address sql.NullString
}

type Sale_db struct {
	Id            int64
	InvoiceNo     string
	Date          time.Time
	CustomerId    sql.NullInt64
	TotalAmount   decimal.Decimal
	PaymentMethod string
}

type SaleItem_db struct {
	Id           int64
	SaleId       int64
	ProductId    int64
	QuantitySold int
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
}

type ProductSearchData struct {
	Query string
	Limit int
}

// SaleFilter narrows a sales listing. Zero values leave that bound open.
type SaleFilter struct {
	From       time.Time
	To         time.Time
	CustomerId int64
}
