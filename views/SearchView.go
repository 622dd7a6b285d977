package views

import (
	"bytes"
	"html/template"

	"billingDesk/cart"
	"billingDesk/models"
	"billingDesk/page"

	"go.uber.org/zap"
)

const (
	noProductsRow   = `<div class="p-2 text-muted">No products found</div>`
	searchFailedRow = `<div class="p-2 text-danger">Search failed</div>`
)

var searchRowTemplate = template.Must(template.New("searchRows").Funcs(template.FuncMap{
	"price": func(v float64) string { return cart.ToFixed(v, 2) },
}).Parse(`{{range $i, $r := .}}<div class="p-2 border-bottom" style="cursor: pointer" data-index="{{$i}}">
  <strong>{{$r.Name}}</strong><br>
  <small>SKU: {{$r.Sku}} | ${{price $r.Price}}</small>
</div>
{{end}}`))

type SearchView struct {
	logger *zap.Logger
}

func NewSearchView(logger *zap.Logger) *SearchView {
	return &SearchView{logger: logger}
}

func (v *SearchView) Clear(p page.Page) {
	p.SetHTML(page.SearchResults, "")
}

func (v *SearchView) Render(p page.Page, results []models.SearchResult) {
	if len(results) == 0 {
		p.SetHTML(page.SearchResults, noProductsRow)
		return
	}
	var buf bytes.Buffer
	if err := searchRowTemplate.Execute(&buf, results); err != nil {
		v.logger.Error("render search rows", zap.Error(err))
		v.Failed(p)
		return
	}
	p.SetHTML(page.SearchResults, buf.String())
}

func (v *SearchView) Failed(p page.Page) {
	p.SetHTML(page.SearchResults, searchFailedRow)
}
