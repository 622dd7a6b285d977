package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SearchResult is one row of GET /search/products/.
type SearchResult struct {
	Id    int64   `json:"id"`
	Name  string  `json:"name"`
	Sku   string  `json:"sku"`
	Price float64 `json:"price"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type InvoiceCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type InvoiceItem struct {
	ProductId int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// InvoiceRequest is the body POSTed to the billing page.
type InvoiceRequest struct {
	Customer      InvoiceCustomer `json:"customer"`
	Items         []InvoiceItem   `json:"items"`
	TotalAmount   float64         `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

type InvoiceResponse struct {
	Success bool   `json:"success"`
	SaleId  SaleID `json:"sale_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SaleID accepts both the numeric ids the backend emits and string ids.
type SaleID string

func (s SaleID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

func (s *SaleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SaleID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("sale_id: %w", err)
	}
	*s = SaleID(n.String())
	return nil
}

type BillingPageResponse struct {
	Customers []CustomerView `json:"customers"`
	Products  []ProductView  `json:"products"`
}

type CustomerView struct {
	Id      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type ProductView struct {
	Id           int64   `json:"id"`
	Name         string  `json:"name"`
	Sku          string  `json:"sku"`
	Category     string  `json:"category"`
	Supplier     string  `json:"supplier,omitempty"`
	Quantity     int     `json:"quantity"`
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
	LowStock     bool    `json:"low_stock"`
}

// ProductRequest is the body of POST /products/.
type ProductRequest struct {
	Name         string  `json:"name"`
	Sku          string  `json:"sku"`
	Category     string  `json:"category"`
	Supplier     string  `json:"supplier"`
	Quantity     int     `json:"quantity"`
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
}

type CustomerHistoryResponse struct {
	Customer CustomerView `json:"customer"`
	Sales    []SaleView   `json:"sales"`
}

type SaleView struct {
	Id            int64     `json:"id"`
	InvoiceNo     string    `json:"invoice_no"`
	Date          time.Time `json:"date"`
	Customer      string    `json:"customer"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
}

type TopProductView struct {
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

// ChartData holds the daily sales totals of the dashboard, oldest day first.
type ChartData struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type DashboardResponse struct {
	TotalSalesToday float64          `json:"total_sales_today"`
	SalesToday      int64            `json:"sales_today"`
	ProductsInStock int64            `json:"total_products_in_stock"`
	TopProducts     []TopProductView `json:"top_products"`
	LowStock        []ProductView    `json:"low_stock_products"`
	Chart           ChartData        `json:"chart"`
}

type ReportResponse struct {
	StartDate   string        `json:"start_date,omitempty"`
	EndDate     string        `json:"end_date,omitempty"`
	Sales       []SaleView    `json:"sales"`
	TotalAmount float64       `json:"total_amount"`
	LowStock    []ProductView `json:"low_stock"`
	OutOfStock  []ProductView `json:"out_of_stock"`
}
