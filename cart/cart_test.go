package cart

import (
	"math"
	"testing"

	"billingDesk/entities"
	"billingDesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_MergesSameProduct(t *testing.T) {
	c, err := Add(New(), 1, "Widget", 9.99, 2)
	require.NoError(t, err)
	c, err = Add(c, 1, "Widget", 9.99, 3)
	require.NoError(t, err)

	require.Equal(t, 1, c.Len())
	item, _ := c.Item(0)
	assert.Equal(t, 5, item.Quantity)
}

func TestAdd_AppendsNewProduct(t *testing.T) {
	c, _ := Add(New(), 1, "Widget", 9.99, 1)
	c, _ = Add(c, 2, "Gadget", 5, 1)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ProductId)
	assert.Equal(t, int64(2), items[1].ProductId)
}

func TestAdd_KeepsNameAndPriceFromFirstAdd(t *testing.T) {
	c, _ := Add(New(), 7, "Old name", 1.5, 1)
	c, _ = Add(c, 7, "New name", 2.5, 1)

	item, _ := c.Item(0)
	assert.Equal(t, "Old name", item.ProductName)
	assert.Equal(t, 1.5, item.UnitPrice)
	assert.Equal(t, 2, item.Quantity)
}

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	base, _ := Add(New(), 1, "Widget", 9.99, 1)
	for _, qty := range []int{0, -1, -10} {
		c, err := Add(base, 2, "Gadget", 5, qty)
		assert.ErrorIs(t, err, models.ErrInvalidQuantity)
		assert.Equal(t, base.Items(), c.Items())
	}
}

func TestAdd_RejectsMergeBeyondMaxInt(t *testing.T) {
	c, err := Add(New(), 1, "Widget", 9.99, math.MaxInt)
	require.NoError(t, err)

	next, err := Add(c, 1, "Widget", 9.99, 1)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)
	item, _ := next.Item(0)
	assert.Equal(t, math.MaxInt, item.Quantity)

	c, err = Add(New(), 1, "Widget", 9.99, math.MaxInt-1)
	require.NoError(t, err)
	c, err = Add(c, 1, "Widget", 9.99, 1)
	require.NoError(t, err)
	item, _ = c.Item(0)
	assert.Equal(t, math.MaxInt, item.Quantity)
}

func TestAdd_RejectsInvalidPrice(t *testing.T) {
	for _, price := range []float64{-0.01, math.NaN(), math.Inf(1)} {
		_, err := Add(New(), 1, "Widget", price, 1)
		assert.ErrorIs(t, err, models.ErrInvalidPrice)
	}
	c, err := Add(New(), 1, "Freebie", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.00", c.FormattedTotal())
}

func TestTransitions_DoNotMutateInput(t *testing.T) {
	base, _ := Add(New(), 1, "Widget", 9.99, 1)
	_, _ = Add(base, 1, "Widget", 9.99, 4)
	_, _ = Update(base, 0, 9)
	_, _ = Remove(base, 0)

	item, _ := base.Item(0)
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 1, item.Quantity)
}

func TestUpdate(t *testing.T) {
	c, _ := Add(New(), 1, "Widget", 9.99, 1)

	c, err := Update(c, 0, 4)
	require.NoError(t, err)
	item, _ := c.Item(0)
	assert.Equal(t, 4, item.Quantity)

	_, err = Update(c, 0, 0)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)
	_, err = Update(c, 3, 1)
	assert.ErrorIs(t, err, models.ErrIndexOutOfRange)
	_, err = Update(c, -1, 1)
	assert.ErrorIs(t, err, models.ErrIndexOutOfRange)
}

func TestRemove_ShiftsLaterItems(t *testing.T) {
	c := New(
		entities.LineItem{ProductId: 1, ProductName: "a", UnitPrice: 1, Quantity: 1},
		entities.LineItem{ProductId: 2, ProductName: "b", UnitPrice: 1, Quantity: 1},
		entities.LineItem{ProductId: 3, ProductName: "c", UnitPrice: 1, Quantity: 1},
		entities.LineItem{ProductId: 4, ProductName: "d", UnitPrice: 1, Quantity: 1},
	)

	next, err := Remove(c, 1)
	require.NoError(t, err)
	require.Equal(t, 3, next.Len())
	assert.Equal(t, -1, next.IndexOf(2))
	for newIndex, oldIndex := range []int{0, 2, 3} {
		want, _ := c.Item(oldIndex)
		got, _ := next.Item(newIndex)
		assert.Equal(t, want, got)
	}

	_, err = Remove(next, 3)
	assert.ErrorIs(t, err, models.ErrIndexOutOfRange)
}

func TestTotal_WalkThrough(t *testing.T) {
	c, _ := Add(New(), 1, "Widget", 9.99, 2)
	assert.Equal(t, "19.98", c.FormattedTotal())

	c, _ = Add(c, 2, "Gadget", 5.00, 1)
	assert.Equal(t, "24.98", c.FormattedTotal())

	c, _ = Update(c, 0, 3)
	assert.Equal(t, "34.97", c.FormattedTotal())

	c, _ = Remove(c, 1)
	require.Equal(t, 1, c.Len())
	item, _ := c.Item(0)
	assert.Equal(t, entities.LineItem{ProductId: 1, ProductName: "Widget", UnitPrice: 9.99, Quantity: 3}, item)
	assert.Equal(t, "29.97", c.FormattedTotal())
}

func TestTotal_SumsUnroundedSubtotals(t *testing.T) {
	c := New(
		entities.LineItem{ProductId: 1, ProductName: "a", UnitPrice: 3.335, Quantity: 1},
		entities.LineItem{ProductId: 2, ProductName: "b", UnitPrice: 3.335, Quantity: 1},
		entities.LineItem{ProductId: 3, ProductName: "c", UnitPrice: 3.33, Quantity: 1},
	)

	lines := c.Lines()
	for _, line := range lines {
		assert.Equal(t, "3.33", line.Subtotal)
	}
	assert.Equal(t, "10.00", c.FormattedTotal())
}

func TestLines(t *testing.T) {
	c, _ := Add(New(), 1, "Widget", 9.99, 2)
	c, _ = Add(c, 2, "Gadget", 0.125, 1)

	assert.Equal(t, []entities.LineView{
		{Index: 0, Name: "Widget", UnitPrice: "9.99", Quantity: 2, Subtotal: "19.98"},
		{Index: 1, Name: "Gadget", UnitPrice: "0.13", Quantity: 1, Subtotal: "0.13"},
	}, c.Lines())
}

func TestInvoiceItems(t *testing.T) {
	c, _ := Add(New(), 1, "Widget", 9.99, 2)

	assert.Equal(t, []models.InvoiceItem{
		{ProductId: 1, Quantity: 2, UnitPrice: 9.99, Subtotal: 9.99 * 2},
	}, c.InvoiceItems())
}
