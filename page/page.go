// Package page is the in-memory stand-in for the billing page: a set of
// elements addressed by ID plus alert and navigation hooks.
package page

import (
	"strconv"
	"sync"
)

const (
	CartItems       = "cart-items"
	GrandTotal      = "grand-total"
	CustomerName    = "customer-name"
	CustomerPhone   = "customer-phone"
	CustomerEmail   = "customer-email"
	CustomerAddress = "customer-address"
	PaymentMethod   = "payment-method"
	ProductSearch   = "product-search"
	SearchResults   = "search-results"
	MenuToggle      = "menu-toggle"
	Sidebar         = "sidebar"
)

// QuantityInput is the ID of the per-product quantity input.
func QuantityInput(productId int64) string {
	return "qty-" + strconv.FormatInt(productId, 10)
}

// Page is everything the controllers need from a page. Setters report false
// when the element does not exist.
type Page interface {
	Has(id string) bool
	Value(id string) (string, bool)
	SetValue(id, value string) bool
	Text(id string) (string, bool)
	SetText(id, text string) bool
	HTML(id string) (string, bool)
	SetHTML(id, html string) bool
	Show(id string) bool
	Visible(id string) bool
	Alert(message string)
	Navigate(url string)
	Location() string
}

type Element struct {
	Value   string
	Text    string
	HTML    string
	Visible bool
}

type Document struct {
	mu         sync.Mutex
	location   string
	elements   map[string]*Element
	alerts     []string
	navigation []string

	OnAlert    func(message string)
	OnNavigate func(url string)
}

func NewDocument(location string, ids ...string) *Document {
	d := &Document{
		location: location,
		elements: make(map[string]*Element),
	}
	for _, id := range ids {
		d.elements[id] = &Element{}
	}
	return d
}

// NewBillingDocument builds a page carrying every element of the billing screen.
func NewBillingDocument(location string) *Document {
	return NewDocument(location,
		CartItems, GrandTotal,
		CustomerName, CustomerPhone, CustomerEmail, CustomerAddress,
		PaymentMethod, ProductSearch, SearchResults,
		MenuToggle, Sidebar,
	)
}

// Add creates (or replaces) an element with an initial value.
func (d *Document) Add(id, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[id] = &Element{Value: value}
}

func (d *Document) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, id)
}

func (d *Document) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.elements[id]
	return ok
}

func (d *Document) Value(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return "", false
	}
	return el.Value, true
}

func (d *Document) SetValue(id, value string) bool {
	return d.update(id, func(el *Element) { el.Value = value })
}

func (d *Document) Text(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return "", false
	}
	return el.Text, true
}

func (d *Document) SetText(id, text string) bool {
	return d.update(id, func(el *Element) { el.Text = text })
}

func (d *Document) HTML(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return "", false
	}
	return el.HTML, true
}

func (d *Document) SetHTML(id, html string) bool {
	return d.update(id, func(el *Element) { el.HTML = html })
}

func (d *Document) Show(id string) bool {
	return d.update(id, func(el *Element) { el.Visible = true })
}

func (d *Document) Visible(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	return ok && el.Visible
}

func (d *Document) Alert(message string) {
	d.mu.Lock()
	d.alerts = append(d.alerts, message)
	hook := d.OnAlert
	d.mu.Unlock()
	if hook != nil {
		hook(message)
	}
}

func (d *Document) Navigate(url string) {
	d.mu.Lock()
	d.navigation = append(d.navigation, url)
	hook := d.OnNavigate
	d.mu.Unlock()
	if hook != nil {
		hook(url)
	}
}

func (d *Document) Location() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

func (d *Document) Alerts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.alerts...)
}

func (d *Document) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigation...)
}

func (d *Document) update(id string, fn func(el *Element)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return false
	}
	fn(el)
	return true
}
