package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"billingDesk/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductRepository interface {
	GetProductById(ctx context.Context, id int64) (pModel models.Product_db, exists bool, err error)
	Search(ctx context.Context, data models.ProductSearchData) (prods []models.Product_db, err error)
	List(ctx context.Context, query string) (prods []models.Product_db, err error)
	InStock(ctx context.Context) (prods []models.Product_db, err error)
	CreateProduct(ctx context.Context, req models.ProductRequest) (id int64, err error)
	UpdateProductById(ctx context.Context, id int64, req models.ProductRequest) (err error)
	StockTotal(ctx context.Context) (total int64, err error)
	StockBelow(ctx context.Context, limit int) (prods []models.Product_db, err error)
}

type ProductRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProductRepository(conn *sql.DB, logger *zap.Logger) (ProductRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &ProductRepo{
		db:     conn,
		logger: logger,
	}, nil
}

const productColumns = "Id, Name, Sku, Category, Supplier, Quantity, CostPrice, SellingPrice, DateAdded, LastUpdated"

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (pModel models.Product_db, err error) {
	err = row.Scan(&pModel.Id, &pModel.Name, &pModel.Sku, &pModel.Category, &pModel.Supplier,
		&pModel.Quantity, &pModel.CostPrice, &pModel.SellingPrice, &pModel.DateAdded, &pModel.LastUpdated)
	return
}

func (p *ProductRepo) GetProductById(ctx context.Context, id int64) (pModel models.Product_db, exists bool, err error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM Products WHERE Id = $1", id)
	pModel, err = scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			err = nil
		} else {
			p.logger.Error("GetProductById", zap.Int64("product_id", id), zap.Error(err))
			err = models.ErrServerError
		}
		return
	}
	exists = true
	return
}

// Search matches the query case-insensitively against name or SKU.
func (p *ProductRepo) Search(ctx context.Context, data models.ProductSearchData) (prods []models.Product_db, err error) {
	limit := data.Limit
	if limit <= 0 {
		limit = 10
	}
	pattern := likePattern(data.Query)
	prods, err = p.query(ctx, "Search",
		"SELECT "+productColumns+" FROM Products WHERE LOWER(Name) LIKE $1 ESCAPE '\\' OR LOWER(Sku) LIKE $1 ESCAPE '\\' ORDER BY Id LIMIT $2",
		pattern, limit)
	return
}

// List returns the catalogue, filtered on name, SKU or category when query is set.
func (p *ProductRepo) List(ctx context.Context, query string) (prods []models.Product_db, err error) {
	if strings.TrimSpace(query) == "" {
		return p.query(ctx, "List", "SELECT "+productColumns+" FROM Products ORDER BY Id")
	}
	return p.query(ctx, "List",
		"SELECT "+productColumns+" FROM Products WHERE LOWER(Name) LIKE $1 ESCAPE '\\' OR LOWER(Sku) LIKE $1 ESCAPE '\\' OR LOWER(Category) LIKE $1 ESCAPE '\\' ORDER BY Id",
		likePattern(query))
}

func (p *ProductRepo) InStock(ctx context.Context) (prods []models.Product_db, err error) {
	return p.query(ctx, "InStock", "SELECT "+productColumns+" FROM Products WHERE Quantity > 0 ORDER BY Id")
}

func (p *ProductRepo) query(ctx context.Context, op string, q string, args ...any) (prods []models.Product_db, err error) {
	rows, e := p.db.QueryContext(ctx, q, args...)
	if e != nil {
		p.logger.Error(op, zap.Error(e))
		err = models.ErrServerError
		return
	}
	defer rows.Close()
	for rows.Next() {
		prod, e := scanProduct(rows)
		if e != nil {
			p.logger.Error(op, zap.Error(e))
			err = models.ErrServerError
			return
		}
		prods = append(prods, prod)
	}
	if e := rows.Err(); e != nil {
		p.logger.Error(op, zap.Error(e))
		err = models.ErrServerError
	}
	return
}

func (p *ProductRepo) validate(req models.ProductRequest) error {
	if !isValidLen(req.Name, 1, 200) || !isValidString(req.Name) {
		p.logger.Info("name field is invalid")
		return models.ErrNotAllowed
	}
	if !isValidLen(req.Sku, 1, 100) || !isValidString(req.Sku) {
		p.logger.Info("sku field is invalid")
		return models.ErrNotAllowed
	}
	if !isValidLen(req.Category, 1, 100) || !isValidString(req.Category) {
		p.logger.Info("category field is invalid")
		return models.ErrNotAllowed
	}
	if !isValidLen(req.Supplier, 0, 200) || !isValidString(req.Supplier) {
		p.logger.Info("supplier field is invalid")
		return models.ErrNotAllowed
	}
	if req.Quantity < 0 {
		p.logger.Info("quantity field is invalid")
		return models.ErrNotAllowed
	}
	if req.CostPrice < 0 || req.SellingPrice < 0 {
		p.logger.Info("price field is invalid")
		return models.ErrNotAllowed
	}
	return nil
}

func (p *ProductRepo) CreateProduct(ctx context.Context, req models.ProductRequest) (id int64, err error) {
	if err = p.validate(req); err != nil {
		return
	}

	supplier := sql.NullString{String: req.Supplier, Valid: req.Supplier != ""}
	now := time.Now().UTC()
	e := p.db.QueryRowContext(ctx,
		"INSERT INTO Products (Name, Sku, Category, Supplier, Quantity, CostPrice, SellingPrice, DateAdded, LastUpdated) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING Id",
		req.Name, req.Sku, req.Category, supplier, req.Quantity,
		decimal.NewFromFloat(req.CostPrice).Round(2), decimal.NewFromFloat(req.SellingPrice).Round(2), now, now).Scan(&id)
	if e != nil {
		if isUniqueViolation(e) {
			p.logger.Info("sku already taken", zap.String("sku", req.Sku))
			err = fmt.Errorf("sku %q already exists: %w", req.Sku, models.ErrNotAllowed)
			return
		}
		p.logger.Error("CreateProduct", zap.String("sku", req.Sku), zap.Error(e))
		err = models.ErrServerError
	}
	return
}

// UpdateProductById replaces every editable field of the product.
func (p *ProductRepo) UpdateProductById(ctx context.Context, id int64, req models.ProductRequest) (err error) {
	if err = p.validate(req); err != nil {
		return
	}

	supplier := sql.NullString{String: req.Supplier, Valid: req.Supplier != ""}
	res, e := p.db.ExecContext(ctx,
		"UPDATE Products SET Name = $1, Sku = $2, Category = $3, Supplier = $4, Quantity = $5, CostPrice = $6, SellingPrice = $7, LastUpdated = $8 WHERE Id = $9",
		req.Name, req.Sku, req.Category, supplier, req.Quantity,
		decimal.NewFromFloat(req.CostPrice).Round(2), decimal.NewFromFloat(req.SellingPrice).Round(2), time.Now().UTC(), id)
	if e != nil {
		if isUniqueViolation(e) {
			p.logger.Info("sku already taken", zap.String("sku", req.Sku))
			err = fmt.Errorf("sku %q already exists: %w", req.Sku, models.ErrNotAllowed)
			return
		}
		p.logger.Error("UpdateProductById", zap.Int64("product_id", id), zap.Error(e))
		err = models.ErrServerError
		return
	}
	n, e := res.RowsAffected()
	if e != nil {
		p.logger.Error("UpdateProductById", zap.Int64("product_id", id), zap.Error(e))
		err = models.ErrServerError
		return
	}
	if n == 0 {
		err = models.ErrNotFoundError
	}
	return
}

// StockTotal sums the quantity on hand over the whole catalogue.
func (p *ProductRepo) StockTotal(ctx context.Context) (total int64, err error) {
	e := p.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(Quantity), 0) FROM Products").Scan(&total)
	if e != nil {
		p.logger.Error("StockTotal", zap.Error(e))
		err = models.ErrServerError
	}
	return
}

// StockBelow lists products with fewer than limit units on hand, lowest first.
func (p *ProductRepo) StockBelow(ctx context.Context, limit int) (prods []models.Product_db, err error) {
	return p.query(ctx, "StockBelow", "SELECT "+productColumns+" FROM Products WHERE Quantity < $1 ORDER BY Quantity, Id", limit)
}

// likePattern lowercases the query and escapes LIKE wildcards so the
// input is matched as a plain substring.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(query)) + "%"
}

func isValidLen(input string, minLen int, maxLen int) bool {
	inputLen := len([]rune(input))
	if inputLen < minLen || inputLen > maxLen {
		return false
	}
	return true
}

func isValidString(input string) bool {
	allowedSymbols := map[rune]bool{
		'-': true,
		' ': true,
		':': true,
		'.': true,
		',': true,
		'"': true,
		'/': true,
		'&': true,
		'(': true,
		')': true,
	}
	for _, char := range input {
		if !(unicode.IsLetter(char) || unicode.IsDigit(char) || allowedSymbols[char]) {
			return false
		}
	}
	return true
}
