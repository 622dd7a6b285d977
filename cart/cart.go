// Package cart holds the billing cart as a value and the transitions over it.
// Every transition returns a new Cart and leaves its input untouched.
package cart

import (
	"fmt"
	"math"

	"billingDesk/entities"
	"billingDesk/models"
)

type Cart struct {
	items []entities.LineItem
}

func New(items ...entities.LineItem) Cart {
	return Cart{items: append([]entities.LineItem(nil), items...)}
}

func (c Cart) Len() int {
	return len(c.items)
}

func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Items returns a copy of the line items in cart order.
func (c Cart) Items() []entities.LineItem {
	return append([]entities.LineItem(nil), c.items...)
}

func (c Cart) Item(index int) (entities.LineItem, bool) {
	if index < 0 || index >= len(c.items) {
		return entities.LineItem{}, false
	}
	return c.items[index], true
}

func (c Cart) IndexOf(productId int64) int {
	for i, item := range c.items {
		if item.ProductId == productId {
			return i
		}
	}
	return -1
}

// Add merges qty into the line holding productId, or appends a new line.
func Add(c Cart, productId int64, name string, price float64, qty int) (Cart, error) {
	if qty < 1 {
		return c, fmt.Errorf("add product %d: %w", productId, models.ErrInvalidQuantity)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return c, fmt.Errorf("add product %d: %w", productId, models.ErrInvalidPrice)
	}
	next := c.Items()
	if i := c.IndexOf(productId); i >= 0 {
		if qty > math.MaxInt-next[i].Quantity {
			return c, fmt.Errorf("add product %d: quantity would exceed %d: %w", productId, math.MaxInt, models.ErrInvalidQuantity)
		}
		next[i].Quantity += qty
		return Cart{items: next}, nil
	}
	next = append(next, entities.LineItem{
		ProductId:   productId,
		ProductName: name,
		UnitPrice:   price,
		Quantity:    qty,
	})
	return Cart{items: next}, nil
}

func Update(c Cart, index, qty int) (Cart, error) {
	if index < 0 || index >= len(c.items) {
		return c, fmt.Errorf("update line %d: %w", index, models.ErrIndexOutOfRange)
	}
	if qty < 1 {
		return c, fmt.Errorf("update line %d: %w", index, models.ErrInvalidQuantity)
	}
	next := c.Items()
	next[index].Quantity = qty
	return Cart{items: next}, nil
}

// Remove drops the line at index; later lines move down by one.
func Remove(c Cart, index int) (Cart, error) {
	if index < 0 || index >= len(c.items) {
		return c, fmt.Errorf("remove line %d: %w", index, models.ErrIndexOutOfRange)
	}
	next := make([]entities.LineItem, 0, len(c.items)-1)
	next = append(next, c.items[:index]...)
	next = append(next, c.items[index+1:]...)
	return Cart{items: next}, nil
}

func Subtotal(item entities.LineItem) float64 {
	// the conversion rounds the product so it is never fused into a following sum
	return float64(item.UnitPrice * float64(item.Quantity))
}

func (c Cart) Subtotal(index int) float64 {
	item, ok := c.Item(index)
	if !ok {
		return 0
	}
	return Subtotal(item)
}

// Total is the running sum of unrounded subtotals in cart order.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.items {
		total += Subtotal(item)
	}
	return total
}

func (c Cart) Lines() []entities.LineView {
	lines := make([]entities.LineView, 0, len(c.items))
	for i, item := range c.items {
		lines = append(lines, entities.LineView{
			Index:     i,
			Name:      item.ProductName,
			UnitPrice: ToFixed(item.UnitPrice, 2),
			Quantity:  item.Quantity,
			Subtotal:  ToFixed(Subtotal(item), 2),
		})
	}
	return lines
}

func (c Cart) FormattedTotal() string {
	return ToFixed(c.Total(), 2)
}

// InvoiceItems is the cart as the invoice payload carries it.
func (c Cart) InvoiceItems() []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, models.InvoiceItem{
			ProductId: item.ProductId,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  Subtotal(item),
		})
	}
	return items
}
