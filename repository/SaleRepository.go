package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"billingDesk/entities"
	"billingDesk/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaleRepository interface {
	CreateSale(ctx context.Context, customer *models.InvoiceCustomer, sale models.Sale_db, items []models.SaleItem_db) (saleId int64, invoiceNo string, err error)
	GetInvoice(ctx context.Context, saleId int64) (invoice entities.Invoice, err error)
	GetSaleItems(ctx context.Context, saleId int64) (items []entities.InvoiceLine, err error)
	ListSales(ctx context.Context, filter models.SaleFilter) (sales []entities.SaleSummary, err error)
	SalesTotal(ctx context.Context, from, to time.Time) (total decimal.Decimal, count int64, err error)
	TopProducts(ctx context.Context, since time.Time, limit int) (top []entities.TopProduct, err error)
}

type SaleRepo struct {
	db        *sql.DB
	customers CustomerRepository
	logger    *zap.Logger
}

func NewSaleRepository(conn *sql.DB, customers CustomerRepository, logger *zap.Logger) (SaleRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	if customers == nil {
		return nil, errors.New("customer repository must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &SaleRepo{
		db:        conn,
		customers: customers,
		logger:    logger,
	}, nil
}

// CreateSale records the sale, its items and the stock deduction in one
// transaction. customer is nil for walk-in sales.
func (s *SaleRepo) CreateSale(ctx context.Context, customer *models.InvoiceCustomer, sale models.Sale_db, items []models.SaleItem_db) (saleId int64, invoiceNo string, err error) {
	tx, e := s.db.BeginTx(ctx, nil)
	if e != nil {
		s.logger.Error("CreateSale[1]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if customer != nil {
		var customerId int64
		customerId, _, err = s.customers.GetOrCreateByPhone(ctx, tx, *customer)
		if err != nil {
			return
		}
		sale.CustomerId = sql.NullInt64{Int64: customerId, Valid: true}
	}

	var lastId int64
	e = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(Id), 0) FROM Sales").Scan(&lastId)
	if e != nil {
		s.logger.Error("CreateSale[2]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	invoiceNo = fmt.Sprintf("INV-%04d", lastId+1)

	e = tx.QueryRowContext(ctx, "INSERT INTO Sales (InvoiceNo, Date, CustomerId, TotalAmount, PaymentMethod) VALUES ($1, $2, $3, $4, $5) RETURNING Id",
		invoiceNo, sale.Date, sale.CustomerId, sale.TotalAmount, sale.PaymentMethod).Scan(&saleId)
	if e != nil {
		if isUniqueViolation(e) {
			s.logger.Info("invoice number taken", zap.String("invoice_no", invoiceNo))
			err = fmt.Errorf("invoice %s already exists: %w", invoiceNo, models.ErrNotAllowed)
			return
		}
		s.logger.Error("CreateSale[3]", zap.String("invoice_no", invoiceNo), zap.Error(e))
		err = models.ErrServerError
		return
	}

	for _, v := range items {
		_, e = tx.ExecContext(ctx, "INSERT INTO SaleItems (SaleId, ProductId, QuantitySold, UnitPrice, Subtotal) VALUES ($1, $2, $3, $4, $5)",
			saleId, v.ProductId, v.QuantitySold, v.UnitPrice, v.Subtotal)
		if e != nil {
			s.logger.Error("CreateSale[4]", zap.Int64("product_id", v.ProductId), zap.Error(e))
			err = models.ErrServerError
			return
		}
		res, e := tx.ExecContext(ctx, "UPDATE Products SET Quantity = Quantity - $1, LastUpdated = $2 WHERE Id = $3 AND Quantity >= $1",
			v.QuantitySold, sale.Date, v.ProductId)
		if e != nil {
			s.logger.Error("CreateSale[5]", zap.Int64("product_id", v.ProductId), zap.Error(e))
			err = models.ErrServerError
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = fmt.Errorf("product %d is missing or out of stock: %w", v.ProductId, models.ErrNotAllowed)
			return
		}
	}

	if e = tx.Commit(); e != nil {
		s.logger.Error("CreateSale[6]", zap.Error(e))
		err = models.ErrServerError
	}
	return
}

func (s *SaleRepo) GetInvoice(ctx context.Context, saleId int64) (invoice entities.Invoice, err error) {
	var (
		sale    models.Sale_db
		name    sql.NullString
		phone   sql.NullString
		email   sql.NullString
		address sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `SELECT Sales.Id, Sales.InvoiceNo, Sales.Date, Sales.CustomerId, Sales.TotalAmount, Sales.PaymentMethod,
		Customers.Name, Customers.Phone, Customers.Email, Customers.Address
		FROM Sales LEFT JOIN Customers ON Sales.CustomerId = Customers.Id WHERE Sales.Id = $1`, saleId)
	err = row.Scan(&sale.Id, &sale.InvoiceNo, &sale.Date, &sale.CustomerId, &sale.TotalAmount, &sale.PaymentMethod,
		&name, &phone, &email, &address)
	if err != nil {
		if err == sql.ErrNoRows {
			err = models.ErrNotFoundError
		} else {
			s.logger.Error("GetInvoice", zap.Int64("sale_id", saleId), zap.Error(err))
			err = models.ErrServerError
		}
		return
	}

	items, e := s.GetSaleItems(ctx, saleId)
	if e != nil {
		err = e
		return
	}

	invoice = entities.Invoice{
		SaleId:        sale.Id,
		InvoiceNo:     sale.InvoiceNo,
		Date:          sale.Date,
		Items:         items,
		TotalAmount:   sale.TotalAmount,
		PaymentMethod: sale.PaymentMethod,
	}
	if sale.CustomerId.Valid && name.Valid {
		invoice.Customer = &entities.Customer{
			Id:      sale.CustomerId.Int64,
			Name:    name.String,
			Phone:   phone.String,
			Email:   email.String,
			Address: address.String,
		}
	}
	return
}

func (s *SaleRepo) GetSaleItems(ctx context.Context, saleId int64) (items []entities.InvoiceLine, err error) {
	rows, e := s.db.QueryContext(ctx, `SELECT SaleItems.ProductId, Products.Name, SaleItems.QuantitySold, SaleItems.UnitPrice, SaleItems.Subtotal
		FROM SaleItems JOIN Products ON SaleItems.ProductId = Products.Id WHERE SaleItems.SaleId = $1 ORDER BY SaleItems.Id`, saleId)
	if e != nil {
		s.logger.Error("GetSaleItems[1]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	defer rows.Close()
	for rows.Next() {
		line := entities.InvoiceLine{}
		err = rows.Scan(&line.ProductId, &line.ProductName, &line.Quantity, &line.UnitPrice, &line.Subtotal)
		if err != nil {
			s.logger.Error("GetSaleItems[2]", zap.Error(err))
			err = models.ErrServerError
			return
		}
		items = append(items, line)
	}
	return
}

// ListSales returns sales newest first, restricted by the filter.
func (s *SaleRepo) ListSales(ctx context.Context, filter models.SaleFilter) (sales []entities.SaleSummary, err error) {
	var (
		conds []string
		args  []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		conds = append(conds, fmt.Sprintf("Sales.Date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		conds = append(conds, fmt.Sprintf("Sales.Date < $%d", len(args)))
	}
	if filter.CustomerId != 0 {
		args = append(args, filter.CustomerId)
		conds = append(conds, fmt.Sprintf("Sales.CustomerId = $%d", len(args)))
	}
	q := `SELECT Sales.Id, Sales.InvoiceNo, Sales.Date, Sales.CustomerId, Customers.Name, Sales.TotalAmount, Sales.PaymentMethod
		FROM Sales LEFT JOIN Customers ON Sales.CustomerId = Customers.Id`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY Sales.Date DESC, Sales.Id DESC"

	rows, e := s.db.QueryContext(ctx, q, args...)
	if e != nil {
		s.logger.Error("ListSales[1]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sale       entities.SaleSummary
			customerId sql.NullInt64
			name       sql.NullString
		)
		e = rows.Scan(&sale.SaleId, &sale.InvoiceNo, &sale.Date, &customerId, &name, &sale.TotalAmount, &sale.PaymentMethod)
		if e != nil {
			s.logger.Error("ListSales[2]", zap.Error(e))
			err = models.ErrServerError
			return
		}
		sale.CustomerId = customerId.Int64
		sale.CustomerName = name.String
		sales = append(sales, sale)
	}
	if e = rows.Err(); e != nil {
		s.logger.Error("ListSales[3]", zap.Error(e))
		err = models.ErrServerError
	}
	return
}

// SalesTotal sums and counts the sales dated in [from, to).
func (s *SaleRepo) SalesTotal(ctx context.Context, from, to time.Time) (total decimal.Decimal, count int64, err error) {
	e := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(TotalAmount), 0), COUNT(*) FROM Sales WHERE Date >= $1 AND Date < $2",
		from.UTC(), to.UTC()).Scan(&total, &count)
	if e != nil {
		s.logger.Error("SalesTotal", zap.Error(e))
		err = models.ErrServerError
		return
	}
	total = total.Round(2)
	return
}

// TopProducts ranks products by units sold since the given time.
func (s *SaleRepo) TopProducts(ctx context.Context, since time.Time, limit int) (top []entities.TopProduct, err error) {
	rows, e := s.db.QueryContext(ctx, `SELECT Products.Name, SUM(SaleItems.QuantitySold) AS TotalSold
		FROM SaleItems JOIN Sales ON SaleItems.SaleId = Sales.Id JOIN Products ON SaleItems.ProductId = Products.Id
		WHERE Sales.Date >= $1 GROUP BY Products.Name ORDER BY TotalSold DESC, Products.Name LIMIT $2`, since.UTC(), limit)
	if e != nil {
		s.logger.Error("TopProducts[1]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	defer rows.Close()
	for rows.Next() {
		var p entities.TopProduct
		if e = rows.Scan(&p.Name, &p.TotalSold); e != nil {
			s.logger.Error("TopProducts[2]", zap.Error(e))
			err = models.ErrServerError
			return
		}
		top = append(top, p)
	}
	if e = rows.Err(); e != nil {
		s.logger.Error("TopProducts[3]", zap.Error(e))
		err = models.ErrServerError
	}
	return
}
