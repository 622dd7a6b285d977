package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product-quantity-price entry of a cart.
type LineItem struct {
	ProductId   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

// LineView is a line item as the cart table shows it.
type LineView struct {
	Index     int
	Name      string
	UnitPrice string
	Quantity  int
	Subtotal  string
}

type Customer struct {
	Id      int64
	Name    string
	Phone   string
	Email   string
	Address string
}

type InvoiceLine struct {
	ProductId   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Invoice is a persisted sale as the print view shows it.
type Invoice struct {
	SaleId        int64
	InvoiceNo     string
	Date          time.Time
	Customer      *Customer
	Items         []InvoiceLine
	TotalAmount   decimal.Decimal
	PaymentMethod string
}

var paymentMethodNames = map[string]string{
	"cash": "Cash",
	"card": "Card",
	"upi":  "UPI",
}

func (i Invoice) CustomerName() string {
	if i.Customer == nil {
		return "Walk-in"
	}
	return i.Customer.Name
}

func (i Invoice) PaymentMethodDisplay() string {
	return PaymentMethodName(i.PaymentMethod)
}

// PaymentMethodName turns a stored payment method code into its label.
func PaymentMethodName(code string) string {
	if name, ok := paymentMethodNames[code]; ok {
		return name
	}
	return code
}

// SaleSummary is one row of the sales report and of a customer's history.
type SaleSummary struct {
	SaleId        int64
	InvoiceNo     string
	Date          time.Time
	CustomerId    int64
	CustomerName  string
	TotalAmount   decimal.Decimal
	PaymentMethod string
}

func (s SaleSummary) CustomerDisplay() string {
	if s.CustomerName == "" {
		return "Walk-in"
	}
	return s.CustomerName
}

type TopProduct struct {
	Name      string
	TotalSold int64
}

type DailyTotal struct {
	Day   time.Time
	Total decimal.Decimal
}
