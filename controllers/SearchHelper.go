package controllers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"billingDesk/models"
	"billingDesk/page"
	"billingDesk/views"

	"go.uber.org/zap"
)

const minQueryLength = 2

type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string) ([]models.SearchResult, error)
}

type CartAdder interface {
	AddToCart(productId int64, productName string, price float64) error
}

// SearchHelper runs search-as-you-type. Each request takes a sequence number
// and only the response to the latest one is shown.
type SearchHelper struct {
	searcher ProductSearcher
	cart     CartAdder
	page     page.Page
	view     *views.SearchView
	logger   *zap.Logger

	seq atomic.Uint64

	mu      sync.Mutex
	results []models.SearchResult
}

func NewSearchHelper(p page.Page, searcher ProductSearcher, adder CartAdder, logger *zap.Logger) *SearchHelper {
	return &SearchHelper{
		searcher: searcher,
		cart:     adder,
		page:     p,
		view:     views.NewSearchView(logger),
		logger:   logger,
	}
}

// OnInput handles a change of the search input. Queries shorter than two
// characters clear the results without a request.
func (s *SearchHelper) OnInput(ctx context.Context, raw string) error {
	if !s.page.Has(page.ProductSearch) || !s.page.Has(page.SearchResults) {
		return nil
	}
	s.page.SetValue(page.ProductSearch, raw)

	seq := s.seq.Add(1)
	query := strings.TrimSpace(raw)
	if utf8.RuneCountInString(query) < minQueryLength {
		s.mu.Lock()
		s.results = nil
		s.view.Clear(s.page)
		s.mu.Unlock()
		return nil
	}

	results, err := s.searcher.SearchProducts(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if latest := s.seq.Load(); seq != latest {
		s.logger.Debug("dropping stale search response",
			zap.String("query", query),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", latest))
		return nil
	}
	if err != nil {
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		s.results = nil
		s.view.Failed(s.page)
		return err
	}
	s.results = results
	s.view.Render(s.page, results)
	return nil
}

// Select adds the i-th shown result to the cart and clears the search.
func (s *SearchHelper) Select(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.results) {
		s.mu.Unlock()
		return fmt.Errorf("select result %d: %w", i, models.ErrIndexOutOfRange)
	}
	r := s.results[i]
	s.mu.Unlock()

	err := s.cart.AddToCart(r.Id, r.Name, r.Price)

	s.seq.Add(1)
	s.mu.Lock()
	s.results = nil
	s.view.Clear(s.page)
	s.mu.Unlock()
	s.page.SetValue(page.ProductSearch, "")
	return err
}

func (s *SearchHelper) Results() []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SearchResult(nil), s.results...)
}
