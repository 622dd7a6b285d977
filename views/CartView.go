package views

import (
	"bytes"
	"html/template"

	"billingDesk/cart"
	"billingDesk/page"

	"go.uber.org/zap"
)

var cartRowTemplate = template.Must(template.New("cartRows").Parse(`{{range .}}<tr>
  <td>{{.Name}}</td>
  <td>${{.UnitPrice}}</td>
  <td><input type="number" min="1" value="{{.Quantity}}" data-action="update" data-index="{{.Index}}" class="form-control form-control-sm w-50 d-inline"></td>
  <td>${{.Subtotal}}</td>
  <td><button class="btn btn-sm btn-danger" data-action="remove" data-index="{{.Index}}">Remove</button></td>
</tr>
{{end}}`))

// CartView is the only piece that writes the cart into the page.
type CartView struct {
	logger *zap.Logger
}

func NewCartView(logger *zap.Logger) *CartView {
	return &CartView{logger: logger}
}

// Render replaces the cart table rows and the grand total. It does nothing
// and returns false when the page does not embed the cart.
func (v *CartView) Render(p page.Page, c cart.Cart) bool {
	if !p.Has(page.CartItems) || !p.Has(page.GrandTotal) {
		v.logger.Debug("cart containers missing, skipping render")
		return false
	}
	var buf bytes.Buffer
	if err := cartRowTemplate.Execute(&buf, c.Lines()); err != nil {
		v.logger.Error("render cart rows", zap.Error(err))
		return false
	}
	p.SetHTML(page.CartItems, buf.String())
	p.SetText(page.GrandTotal, c.FormattedTotal())
	return true
}
