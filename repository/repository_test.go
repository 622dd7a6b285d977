package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"billingDesk/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db, "sqlite3"))
	return db
}

type fixture struct {
	products  ProductRepository
	customers CustomerRepository
	sales     SaleRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()
	pR, err := NewProductRepository(db, logger)
	require.NoError(t, err)
	cR, err := NewCustomerRepository(db, logger)
	require.NoError(t, err)
	sR, err := NewSaleRepository(db, cR, logger)
	require.NoError(t, err)
	return fixture{products: pR, customers: cR, sales: sR}
}

func (f fixture) seed(t *testing.T, reqs ...models.ProductRequest) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		id, err := f.products.CreateProduct(context.Background(), r)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

var (
	widget    = models.ProductRequest{Name: "Widget", Sku: "W-100", Category: "Tools", Quantity: 10, CostPrice: 5, SellingPrice: 9.99}
	gadget    = models.ProductRequest{Name: "Gadget", Sku: "G-200", Category: "Toys", Quantity: 3, CostPrice: 2, SellingPrice: 5}
	soldOut   = models.ProductRequest{Name: "Sprocket", Sku: "S-300", Category: "Tools", Quantity: 0, CostPrice: 1, SellingPrice: 2.5}
	percentOf = models.ProductRequest{Name: "Half off 50", Sku: "P-50", Category: "Promo", Quantity: 1, CostPrice: 1, SellingPrice: 1}
)

func TestNewRepositories_NilConn(t *testing.T) {
	_, err := NewProductRepository(nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewCustomerRepository(nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewSaleRepository(nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestProductRepo_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ids := f.seed(t, widget)

	p, exists, err := f.products.GetProductById(context.Background(), ids[0])
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, "W-100", p.Sku)
	assert.False(t, p.Supplier.Valid)
	assert.True(t, p.SellingPrice.Equal(decimal.RequireFromString("9.99")))
	assert.False(t, p.IsLowStock())

	_, exists, err = f.products.GetProductById(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProductRepo_CreateRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	bad := widget
	bad.Name = ""
	_, err := f.products.CreateProduct(context.Background(), bad)
	assert.ErrorIs(t, err, models.ErrNotAllowed)

	bad = widget
	bad.Quantity = -1
	_, err = f.products.CreateProduct(context.Background(), bad)
	assert.ErrorIs(t, err, models.ErrNotAllowed)

	f.seed(t, widget)
	_, err = f.products.CreateProduct(context.Background(), widget)
	assert.ErrorIs(t, err, models.ErrNotAllowed)
	assert.Contains(t, err.Error(), "W-100")
}

func TestProductRepo_UpdateProductById(t *testing.T) {
	f := newFixture(t)
	ids := f.seed(t, widget, gadget)
	ctx := context.Background()

	edit := widget
	edit.Name = "Widget XL"
	edit.Supplier = "Acme"
	edit.Quantity = 2
	edit.SellingPrice = 12.5
	require.NoError(t, f.products.UpdateProductById(ctx, ids[0], edit))

	p, _, err := f.products.GetProductById(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Widget XL", p.Name)
	assert.Equal(t, "Acme", p.Supplier.String)
	assert.True(t, p.IsLowStock())
	assert.True(t, p.SellingPrice.Equal(decimal.RequireFromString("12.5")))

	clash := gadget
	clash.Sku = widget.Sku
	err = f.products.UpdateProductById(ctx, ids[1], clash)
	assert.ErrorIs(t, err, models.ErrNotAllowed)

	err = f.products.UpdateProductById(ctx, 999, gadget)
	assert.ErrorIs(t, err, models.ErrNotFoundError)

	bad := gadget
	bad.Category = ""
	err = f.products.UpdateProductById(ctx, ids[1], bad)
	assert.ErrorIs(t, err, models.ErrNotAllowed)
}

func TestProductRepo_StockQueries(t *testing.T) {
	f := newFixture(t)
	f.seed(t, widget, gadget, soldOut)
	ctx := context.Background()

	total, err := f.products.StockTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)

	low, err := f.products.StockBelow(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Sprocket", low[0].Name)
	assert.Equal(t, "Gadget", low[1].Name)

	out, err := f.products.StockBelow(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Sprocket", out[0].Name)
}

func TestProductRepo_Search(t *testing.T) {
	f := newFixture(t)
	f.seed(t, widget, gadget, soldOut, percentOf)
	ctx := context.Background()

	res, err := f.products.Search(ctx, models.ProductSearchData{Query: "WID"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Widget", res[0].Name)

	res, err = f.products.Search(ctx, models.ProductSearchData{Query: "g-2"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Gadget", res[0].Name)

	// wildcards are matched literally
	res, err = f.products.Search(ctx, models.ProductSearchData{Query: "%"})
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = f.products.Search(ctx, models.ProductSearchData{Query: "", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestProductRepo_SearchLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		p := widget
		p.Sku = "W-" + string(rune('A'+i))
		f.seed(t, p)
	}
	res, err := f.products.Search(context.Background(), models.ProductSearchData{Query: "widget"})
	require.NoError(t, err)
	assert.Len(t, res, 10)
}

func TestProductRepo_ListAndInStock(t *testing.T) {
	f := newFixture(t)
	f.seed(t, widget, gadget, soldOut)
	ctx := context.Background()

	all, err := f.products.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tools, err := f.products.List(ctx, "tools")
	require.NoError(t, err)
	assert.Len(t, tools, 2)

	stock, err := f.products.InStock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.True(t, stock[1].IsLowStock())
}

func TestSaleRepo_CreateSale(t *testing.T) {
	f := newFixture(t)
	ids := f.seed(t, widget, gadget)
	ctx := context.Background()

	sale := models.Sale_db{Date: time.Now().UTC(), TotalAmount: decimal.RequireFromString("24.98"), PaymentMethod: "card"}
	items := []models.SaleItem_db{
		{ProductId: ids[0], QuantitySold: 2, UnitPrice: decimal.RequireFromString("9.99"), Subtotal: decimal.RequireFromString("19.98")},
		{ProductId: ids[1], QuantitySold: 1, UnitPrice: decimal.RequireFromString("5"), Subtotal: decimal.RequireFromString("5")},
	}
	customer := &models.InvoiceCustomer{Name: "Jane", Phone: "555-0100"}

	saleId, invoiceNo, err := f.sales.CreateSale(ctx, customer, sale, items)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", invoiceNo)

	p, _, err := f.products.GetProductById(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 8, p.Quantity)

	inv, err := f.sales.GetInvoice(ctx, saleId)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", inv.InvoiceNo)
	assert.Equal(t, "Jane", inv.CustomerName())
	assert.Equal(t, "Card", inv.PaymentMethodDisplay())
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Widget", inv.Items[0].ProductName)
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("24.98")))

	// same phone reuses the customer, walk-in sales have none
	_, invoiceNo, err = f.sales.CreateSale(ctx, &models.InvoiceCustomer{Name: "J. Doe", Phone: "555-0100"}, sale, items[:1])
	require.NoError(t, err)
	assert.Equal(t, "INV-0002", invoiceNo)
	customers, err := f.customers.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Jane", customers[0].Name)

	walkIn, _, err := f.sales.CreateSale(ctx, nil, sale, items[:1])
	require.NoError(t, err)
	inv, err = f.sales.GetInvoice(ctx, walkIn)
	require.NoError(t, err)
	assert.Nil(t, inv.Customer)
	assert.Equal(t, "Walk-in", inv.CustomerName())
}

func TestSaleRepo_CreateSaleRollsBack(t *testing.T) {
	f := newFixture(t)
	ids := f.seed(t, widget, gadget)
	ctx := context.Background()

	sale := models.Sale_db{Date: time.Now().UTC(), TotalAmount: decimal.RequireFromString("50"), PaymentMethod: "cash"}
	items := []models.SaleItem_db{
		{ProductId: ids[0], QuantitySold: 1, UnitPrice: decimal.RequireFromString("9.99"), Subtotal: decimal.RequireFromString("9.99")},
		{ProductId: ids[1], QuantitySold: 4, UnitPrice: decimal.RequireFromString("5"), Subtotal: decimal.RequireFromString("20")},
	}
	_, _, err := f.sales.CreateSale(ctx, nil, sale, items)
	assert.ErrorIs(t, err, models.ErrNotAllowed)

	p, _, err := f.products.GetProductById(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 10, p.Quantity)

	_, err = f.sales.GetInvoice(ctx, 1)
	assert.ErrorIs(t, err, models.ErrNotFoundError)
}

func TestCustomerRepo_CreateFindAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.customers.CreateCustomer(ctx, models.InvoiceCustomer{Name: "Jane Doe", Phone: "555-0100", Email: "jane@example.com"})
	require.NoError(t, err)
	_, err = f.customers.CreateCustomer(ctx, models.InvoiceCustomer{Name: "Raj", Phone: "777-0200"})
	require.NoError(t, err)

	_, err = f.customers.CreateCustomer(ctx, models.InvoiceCustomer{Name: "Too long", Phone: "1234567890123456"})
	assert.ErrorIs(t, err, models.ErrNotAllowed)
	_, err = f.customers.CreateCustomer(ctx, models.InvoiceCustomer{Name: "", Phone: "1"})
	assert.ErrorIs(t, err, models.ErrNotAllowed)

	c, exists, err := f.customers.GetCustomerById(ctx, id)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@example.com", c.Email.String)
	assert.False(t, c.Address.Valid)

	_, exists, err = f.customers.GetCustomerById(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := f.customers.Find(ctx, "JANE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].Id)

	found, err = f.customers.Find(ctx, "0200")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Raj", found[0].Name)

	found, err = f.customers.Find(ctx, " ")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestSaleRepo_Reporting(t *testing.T) {
	f := newFixture(t)
	ids := f.seed(t, widget, gadget)
	ctx := context.Background()

	at := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }
	sell := func(date time.Time, customer *models.InvoiceCustomer, total string, items ...models.SaleItem_db) {
		t.Helper()
		sale := models.Sale_db{Date: date, TotalAmount: decimal.RequireFromString(total), PaymentMethod: "cash"}
		_, _, err := f.sales.CreateSale(ctx, customer, sale, items)
		require.NoError(t, err)
	}
	widgets := func(n int) models.SaleItem_db {
		return models.SaleItem_db{ProductId: ids[0], QuantitySold: n, UnitPrice: decimal.RequireFromString("9.99"), Subtotal: decimal.RequireFromString("9.99").Mul(decimal.NewFromInt(int64(n)))}
	}
	gadgets := func(n int) models.SaleItem_db {
		return models.SaleItem_db{ProductId: ids[1], QuantitySold: n, UnitPrice: decimal.RequireFromString("5"), Subtotal: decimal.NewFromInt(int64(5 * n))}
	}
	jane := &models.InvoiceCustomer{Name: "Jane", Phone: "555-0100"}

	sell(at(1, 10), jane, "19.98", widgets(2))
	sell(at(2, 9), nil, "5", gadgets(1))
	sell(at(2, 17), jane, "14.99", widgets(1), gadgets(1))

	all, err := f.sales.ListSales(ctx, models.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "INV-0003", all[0].InvoiceNo)
	assert.Equal(t, "Jane", all[0].CustomerName)
	assert.Equal(t, "Walk-in", all[1].CustomerDisplay())
	assert.True(t, all[2].TotalAmount.Equal(decimal.RequireFromString("19.98")))

	second, err := f.sales.ListSales(ctx, models.SaleFilter{From: at(2, 0), To: at(3, 0)})
	require.NoError(t, err)
	assert.Len(t, second, 2)

	history, err := f.sales.ListSales(ctx, models.SaleFilter{CustomerId: all[0].CustomerId})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "INV-0001", history[1].InvoiceNo)

	total, count, err := f.sales.SalesTotal(ctx, at(2, 0), at(3, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, "19.99", total.StringFixed(2))

	total, count, err = f.sales.SalesTotal(ctx, at(5, 0), at(6, 0))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, total.IsZero())

	top, err := f.sales.TopProducts(ctx, at(1, 0), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Widget", top[0].Name)
	assert.Equal(t, int64(3), top[0].TotalSold)
	assert.Equal(t, int64(2), top[1].TotalSold)

	top, err = f.sales.TopProducts(ctx, at(2, 12), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestSearchCacheRepo(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	c, err := NewSearchCacheRepository(ctx, rdb, time.Minute, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	_, found, err := c.GetResults(ctx, "widget")
	require.NoError(t, err)
	assert.False(t, found)

	want := []models.SearchResult{{Id: 1, Name: "Widget", Sku: "W-100", Price: 9.99}}
	require.NoError(t, c.SetResults(ctx, "Widget", want))
	got, found, err := c.GetResults(ctx, "WIDGET")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, c.Flush(ctx))
	_, found, err = c.GetResults(ctx, "widget")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewSearchCacheRepository_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	_, err := NewSearchCacheRepository(context.Background(), rdb, time.Minute, zap.NewNop())
	assert.Error(t, err)

	_, err = NewSearchCacheRepository(context.Background(), nil, time.Minute, zap.NewNop())
	assert.True(t, err != nil && !errors.Is(err, models.ErrServerError))
}
