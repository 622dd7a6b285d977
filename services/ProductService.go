package services

import (
	"context"

	"billingDesk/models"
	"billingDesk/repository"

	"go.uber.org/zap"
)

const searchLimit = 10

type ProductService struct {
	pr     repository.ProductRepository
	cache  repository.SearchCacheRepository
	logger *zap.Logger
}

// NewProductService builds the catalogue service. cache may be nil, in
// which case every search goes to the database.
func NewProductService(pRepo repository.ProductRepository, cache repository.SearchCacheRepository, logger *zap.Logger) ProductService {
	return ProductService{
		pr:     pRepo,
		cache:  cache,
		logger: logger,
	}
}

// Search returns at most ten products whose name or SKU contains query.
// Cache failures are logged and fall through to the database.
func (ps *ProductService) Search(ctx context.Context, query string) (res []models.SearchResult, err error) {
	if ps.cache != nil {
		cached, found, e := ps.cache.GetResults(ctx, query)
		if e != nil {
			ps.logger.Warn("search cache read failed", zap.String("query", query), zap.Error(e))
		} else if found {
			return cached, nil
		}
	}

	prods, err := ps.pr.Search(ctx, models.ProductSearchData{Query: query, Limit: searchLimit})
	if err != nil {
		return
	}
	res = make([]models.SearchResult, 0, len(prods))
	for _, p := range prods {
		price, _ := p.SellingPrice.Float64()
		res = append(res, models.SearchResult{Id: p.Id, Name: p.Name, Sku: p.Sku, Price: price})
	}

	if ps.cache != nil {
		if e := ps.cache.SetResults(ctx, query, res); e != nil {
			ps.logger.Warn("search cache write failed", zap.String("query", query), zap.Error(e))
		}
	}
	return
}

func (ps *ProductService) List(ctx context.Context, query string) (views []models.ProductView, err error) {
	prods, err := ps.pr.List(ctx, query)
	if err != nil {
		return
	}
	return productViews(prods), nil
}

func (ps *ProductService) GetProduct(ctx context.Context, id int64) (view models.ProductView, err error) {
	p, exists, err := ps.pr.GetProductById(ctx, id)
	if err != nil {
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	return productView(p), nil
}

func (ps *ProductService) CreateProduct(ctx context.Context, req models.ProductRequest) (id int64, err error) {
	id, err = ps.pr.CreateProduct(ctx, req)
	if err != nil {
		return
	}
	ps.flushSearchCache(ctx)
	return
}

// UpdateProduct edits a catalogue entry. Cached searches may show the old
// name or price, so the cache is flushed.
func (ps *ProductService) UpdateProduct(ctx context.Context, id int64, req models.ProductRequest) (err error) {
	if err = ps.pr.UpdateProductById(ctx, id, req); err != nil {
		return
	}
	ps.logger.Info("product updated", zap.Int64("product_id", id), zap.String("sku", req.Sku))
	ps.flushSearchCache(ctx)
	return
}

func (ps *ProductService) flushSearchCache(ctx context.Context) {
	if ps.cache == nil {
		return
	}
	if e := ps.cache.Flush(ctx); e != nil {
		ps.logger.Warn("search cache flush failed", zap.Error(e))
	}
}

func productViews(prods []models.Product_db) []models.ProductView {
	views := make([]models.ProductView, 0, len(prods))
	for _, p := range prods {
		views = append(views, productView(p))
	}
	return views
}

func productView(p models.Product_db) models.ProductView {
	cost, _ := p.CostPrice.Float64()
	selling, _ := p.SellingPrice.Float64()
	return models.ProductView{
		Id:           p.Id,
		Name:         p.Name,
		Sku:          p.Sku,
		Category:     p.Category,
		Supplier:     p.Supplier.String,
		Quantity:     p.Quantity,
		CostPrice:    cost,
		SellingPrice: selling,
		LowStock:     p.IsLowStock(),
	}
}
