package controllers

import "billingDesk/page"

type MenuToggle struct {
	page page.Page
}

func NewMenuToggle(p page.Page) *MenuToggle {
	return &MenuToggle{page: p}
}

// Toggle shows the side panel. Pages without the toggle control or the
// panel are left alone.
func (m *MenuToggle) Toggle() bool {
	if !m.page.Has(page.MenuToggle) {
		return false
	}
	return m.page.Show(page.Sidebar)
}
